package domain

// ErrorKind classifies why a (post, platform) pair failed.
type ErrorKind string

const (
	KindCredentialInvalid ErrorKind = "CredentialInvalid"
	KindCancelled         ErrorKind = "Cancelled"
	KindRateLimited       ErrorKind = "RateLimited"
	KindTimeout           ErrorKind = "Timeout"
	KindServerError       ErrorKind = "ServerError"
	KindUnreachable       ErrorKind = "Unreachable"
	KindAuthError         ErrorKind = "AuthError"
	KindPermissionDenied  ErrorKind = "PermissionDenied"
	KindMalformedMedia    ErrorKind = "MalformedMedia"
	KindInvalidRequest    ErrorKind = "InvalidRequest"
	KindMissingMedia      ErrorKind = "MissingMedia"
)

// Transient reports whether an error of this kind may succeed on retry.
func (k ErrorKind) Transient() bool {
	switch k {
	case KindRateLimited, KindTimeout, KindServerError, KindUnreachable:
		return true
	default:
		return false
	}
}

// Status is the outcome of one publish attempt.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// PublishResult records the outcome for one (post, platform) pair.
type PublishResult struct {
	PostIndex int       `json:"post_index"`
	Platform  Platform  `json:"platform"`
	Status    Status    `json:"status"`
	EntityID  string    `json:"entity_id,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(postIndex int, platform Platform, entityID string) PublishResult {
	return PublishResult{
		PostIndex: postIndex,
		Platform:  platform,
		Status:    StatusSucceeded,
		EntityID:  entityID,
	}
}

// Failed builds a failed result.
func Failed(postIndex int, platform Platform, kind ErrorKind, message string) PublishResult {
	return PublishResult{
		PostIndex: postIndex,
		Platform:  platform,
		Status:    StatusFailed,
		ErrorKind: kind,
		Message:   message,
	}
}

// OK reports whether the pair was published.
func (r PublishResult) OK() bool { return r.Status == StatusSucceeded }
