package config

import (
	"fmt"
	"strings"
)

// ConfigError reports an invalid or missing configuration value. It is fatal
// and raised before any network activity.
type ConfigError struct {
	Field  string
	Reason string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// MissingEnvError is returned when a platform's credentials are not set.
type MissingEnvError struct {
	Platform  string
	Variables []string
}

func (e MissingEnvError) Error() string {
	if len(e.Variables) == 0 {
		return fmt.Sprintf("%s credentials not configured", e.Platform)
	}
	return fmt.Sprintf("%s credentials not configured (missing %s)", e.Platform, strings.Join(e.Variables, ", "))
}
