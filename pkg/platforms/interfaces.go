// Package platforms defines the contracts every social platform variant
// implements and the shared Graph API plumbing they are built on.
package platforms

import (
	"context"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
)

// Publisher turns one post into one published entity on a platform.
type Publisher interface {
	Platform() domain.Platform
	// Publish returns the published entity id or a *PlatformError.
	Publish(ctx context.Context, post domain.Post, cred domain.Credential) (string, error)
}

// Validator checks a credential before any publish attempt.
type Validator interface {
	Validate(ctx context.Context, cred domain.Credential) Validation
}

// Variant is a platform that can both validate credentials and publish.
type Variant interface {
	Publisher
	Validator
}

// Logger defines the logging surface platform variants rely on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

// EnsureLogger returns log, or a no-op logger when log is nil.
func EnsureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
