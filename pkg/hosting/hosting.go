// Package hosting makes rendered images reachable by URL so platforms that
// fetch media themselves (Instagram) can consume them.
package hosting

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
)

const (
	TypeNone      = "none"
	TypeURLPrefix = "url_prefix"
	TypeS3        = "s3"
)

// Host returns a public URL for a local image artifact.
type Host interface {
	Type() string
	Upload(ctx context.Context, ref domain.ImageRef) (string, error)
}

// Config selects and configures a Host.
type Config struct {
	Type      string
	URLPrefix string
	S3        S3Config
	Log       Logger
}

// New builds the Host named by cfg.Type. TypeNone returns a nil Host, in
// which case images keep whatever URL the rendering stage provided.
func New(ctx context.Context, cfg Config) (Host, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", TypeNone:
		return nil, nil
	case TypeURLPrefix:
		h, err := NewURLPrefix(cfg.URLPrefix)
		if err != nil {
			return nil, err
		}
		return h, nil
	case TypeS3:
		h, err := NewS3(ctx, cfg.S3, cfg.Log)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, fmt.Errorf("unsupported image host type %q", cfg.Type)
	}
}

// URLPrefix maps an artifact to prefix + "/" + file name. It is used when the
// rendering stage already publishes its output directory.
type URLPrefix struct {
	prefix string
}

// NewURLPrefix validates prefix as an absolute http(s) URL.
func NewURLPrefix(prefix string) (*URLPrefix, error) {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil, errors.New("image url prefix is empty")
	}
	u, err := url.Parse(prefix)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("image url prefix %q is not an absolute http(s) url", prefix)
	}
	return &URLPrefix{prefix: prefix}, nil
}

func (p *URLPrefix) Type() string { return TypeURLPrefix }

func (p *URLPrefix) Upload(_ context.Context, ref domain.ImageRef) (string, error) {
	name := filepath.Base(ref.Path)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("image path %q has no file name", ref.Path)
	}
	return p.prefix + "/" + url.PathEscape(name), nil
}

// Logger defines the logging surface hosts rely on.
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

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}
