package platforms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
)

// PlatformError is any non-success outcome of a platform API call.
type PlatformError struct {
	Kind       domain.ErrorKind
	HTTPStatus int
	Code       int
	Subcode    int
	Step       string
	Message    string
	Err        error
}

func (e *PlatformError) Error() string {
	var b strings.Builder
	if e.Step != "" {
		b.WriteString(e.Step)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.HTTPStatus > 0 {
		fmt.Fprintf(&b, " (http %d", e.HTTPStatus)
		if e.Code > 0 {
			fmt.Fprintf(&b, ", code %d", e.Code)
		}
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *PlatformError) Unwrap() error { return e.Err }

// Transient reports whether the failure may succeed on retry.
func (e *PlatformError) Transient() bool { return e.Kind.Transient() }

// KindOf extracts the error kind from err, defaulting to InvalidRequest.
func KindOf(err error) domain.ErrorKind {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.KindCancelled
	}
	return domain.KindInvalidRequest
}

// IsTransient reports whether err is a PlatformError worth retrying.
func IsTransient(err error) bool {
	var pe *PlatformError
	return errors.As(err, &pe) && pe.Transient()
}

// IsRateLimited reports whether the platform explicitly rejected the call for
// rate limiting. Such a call had no effect, so even publish steps may retry it.
func IsRateLimited(err error) bool {
	var pe *PlatformError
	return errors.As(err, &pe) && pe.Kind == domain.KindRateLimited
}

// graphErrorEnvelope is the Graph API error body.
type graphErrorEnvelope struct {
	Error *struct {
		Message     string `json:"message"`
		Type        string `json:"type"`
		Code        int    `json:"code"`
		Subcode     int    `json:"error_subcode"`
		IsTransient bool   `json:"is_transient"`
		UserMessage string `json:"error_user_msg"`
		FBTraceID   string `json:"fbtrace_id"`
	} `json:"error"`
}

// Graph error codes that matter for classification.
const (
	codeUnknown           = 1
	codeServiceDown       = 2
	codeAppRateLimit      = 4
	codePermission        = 10
	codeUserRateLimit     = 17
	codeInvalidParameter  = 100
	codeOAuth             = 190
	codePageRateLimit     = 32
	codeMissingFile       = 324
	codeCustomRateLimit   = 613
	codePermissionLowest  = 200
	codePermissionHighest = 299
)

// ClassifyResponse converts a non-2xx Graph response into a PlatformError.
func ClassifyResponse(step string, status int, body []byte) *PlatformError {
	pe := &PlatformError{Step: step, HTTPStatus: status}

	var env graphErrorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		pe.Code = env.Error.Code
		pe.Subcode = env.Error.Subcode
		pe.Message = env.Error.Message
		if pe.Message == "" {
			pe.Message = env.Error.UserMessage
		}
		pe.Kind = classifyGraphCode(env.Error.Code, env.Error.Subcode, env.Error.IsTransient, status)
		return pe
	}

	pe.Message = bodySnippet(body)
	pe.Kind = classifyStatus(status)
	return pe
}

func classifyGraphCode(code, subcode int, transient bool, status int) domain.ErrorKind {
	switch {
	case code == codeAppRateLimit, code == codeUserRateLimit, code == codePageRateLimit,
		code == codeCustomRateLimit, status == http.StatusTooManyRequests:
		return domain.KindRateLimited
	case code == codeOAuth:
		return domain.KindAuthError
	case code == codePermission, code >= codePermissionLowest && code <= codePermissionHighest:
		return domain.KindPermissionDenied
	case code == codeMissingFile, isMediaSubcode(subcode):
		return domain.KindMalformedMedia
	case transient, code == codeUnknown, code == codeServiceDown, status >= http.StatusInternalServerError:
		return domain.KindServerError
	case code == codeInvalidParameter:
		return domain.KindInvalidRequest
	default:
		return classifyStatus(status)
	}
}

// isMediaSubcode matches Instagram media rejections (2207xxx) and Facebook
// photo dimension errors (36000-36009).
func isMediaSubcode(subcode int) bool {
	return (subcode >= 2207000 && subcode < 2208000) || (subcode >= 36000 && subcode < 36010)
}

func classifyStatus(status int) domain.ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.KindRateLimited
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return domain.KindTimeout
	case status >= http.StatusInternalServerError:
		return domain.KindServerError
	case status == http.StatusUnauthorized:
		return domain.KindAuthError
	case status == http.StatusForbidden:
		return domain.KindPermissionDenied
	default:
		return domain.KindInvalidRequest
	}
}

// ClassifyTransportError converts a failed round trip into a PlatformError.
// Cancellation of the caller's context is reported as Cancelled.
func ClassifyTransportError(ctx context.Context, step string, err error) *PlatformError {
	pe := &PlatformError{Step: step, Message: err.Error(), Err: err}
	var netErr net.Error
	switch {
	case ctx.Err() != nil:
		pe.Kind = domain.KindCancelled
	case errors.As(err, &netErr) && netErr.Timeout(), errors.Is(err, context.DeadlineExceeded):
		pe.Kind = domain.KindTimeout
	default:
		pe.Kind = domain.KindUnreachable
	}
	return pe
}

func bodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
