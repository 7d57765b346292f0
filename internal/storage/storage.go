// Package storage archives run reports locally. The archive is observational:
// nothing in a run reads it back to make decisions.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-poster/internal/report"
)

// Store keeps run reports for a bounded time.
type Store interface {
	Close() error
	SaveReport(r report.Report) error
	Report(runID string) (report.Report, bool, error)
	Recent(limit int) ([]report.Report, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ReportTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultReportTTL       = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ReportTTL <= 0 {
		opts.ReportTTL = defaultReportTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                               { return nil }
func (noopStore) SaveReport(report.Report) error             { return nil }
func (noopStore) Report(string) (report.Report, bool, error) { return report.Report{}, false, nil }
func (noopStore) Recent(int) ([]report.Report, error)        { return nil, nil }
