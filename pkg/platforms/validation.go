package platforms

import (
	"time"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
)

// ValidationStatus classifies a credential check.
type ValidationStatus string

const (
	Valid             ValidationStatus = "valid"
	Expired           ValidationStatus = "expired"
	InsufficientScope ValidationStatus = "insufficient_scope"
	Unreachable       ValidationStatus = "unreachable"
)

// Terminal reports whether the status disqualifies the platform for the run.
func (s ValidationStatus) Terminal() bool {
	return s == Expired || s == InsufficientScope
}

// Validation is the outcome of a credential check. Token details are filled
// when the platform reports them.
type Validation struct {
	Platform      domain.Platform  `json:"platform"`
	Status        ValidationStatus `json:"status"`
	Message       string           `json:"message,omitempty"`
	TokenType     string           `json:"token_type,omitempty"`
	ExpiresAt     time.Time        `json:"expires_at,omitempty"`
	NeverExpires  bool             `json:"never_expires,omitempty"`
	Scopes        []string         `json:"scopes,omitempty"`
	MissingScopes []string         `json:"missing_scopes,omitempty"`
	Account       string           `json:"account,omitempty"`
	Attempts      int              `json:"attempts,omitempty"`
	Err           error            `json:"-"`
}

// OK reports whether publishing may proceed.
func (v Validation) OK() bool { return v.Status == Valid }

// DaysLeft returns whole days until expiry, or -1 when the token never
// expires or expiry is unknown.
func (v Validation) DaysLeft(now time.Time) int {
	if v.NeverExpires || v.ExpiresAt.IsZero() {
		return -1
	}
	return int(v.ExpiresAt.Sub(now).Hours() / 24)
}

// FailedValidation maps a validation call error to a validation outcome. Credential and
// permission rejections are terminal; everything else is Unreachable.
func FailedValidation(platform domain.Platform, attempts int, err error) Validation {
	v := Validation{Platform: platform, Attempts: attempts, Err: err, Message: err.Error()}
	switch KindOf(err) {
	case domain.KindAuthError:
		v.Status = Expired
	case domain.KindInvalidRequest:
		// Usually a wrong owner id rather than a dead token.
		v.Status = Expired
		v.Message = "owner id or request rejected by " + string(platform) + " (check the configured account id): " + err.Error()
	case domain.KindPermissionDenied:
		v.Status = InsufficientScope
	default:
		v.Status = Unreachable
	}
	return v
}

// MissingScopes returns the required scopes absent from granted.
func MissingScopes(required, granted []string) []string {
	have := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		have[s] = struct{}{}
	}
	var missing []string
	for _, s := range required {
		if _, ok := have[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}
