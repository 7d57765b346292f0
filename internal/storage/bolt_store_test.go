package storage

import (
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/Adda-Baaj/khobor-poster/internal/report"
)

func sampleReport(id string, started time.Time) report.Report {
	return report.Build(report.Input{
		RunID:     id,
		Posts:     1,
		Platforms: []domain.Platform{domain.PlatformFacebook},
		Results:   []domain.PublishResult{domain.Succeeded(1, domain.PlatformFacebook, "p1")},
		StartedAt: started,
	})
}

func TestBoltStoreSavesAndExpiresReports(t *testing.T) {
	opts := Options{
		ReportTTL:       time.Hour,
		CleanupInterval: time.Minute,
	}

	store, err := openBolt(filepath.Join(t.TempDir(), "reports.db"), opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	clock := time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	store.lastCleanup.Store(clock.Unix())

	if _, found, err := store.Report("run-1"); err != nil || found {
		t.Fatalf("expected missing report, found=%v err=%v", found, err)
	}

	if err := store.SaveReport(sampleReport("run-1", clock)); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	got, found, err := store.Report("run-1")
	if err != nil || !found {
		t.Fatalf("expected stored report, found=%v err=%v", found, err)
	}
	if got.RunID != "run-1" || len(got.Results) != 1 || got.Results[0].EntityID != "p1" {
		t.Fatalf("unexpected report %+v", got)
	}

	// Move past the TTL and the cleanup cadence.
	clock = clock.Add(2 * time.Hour)

	if _, found, err := store.Report("run-1"); err != nil || found {
		t.Fatalf("expected report to expire, found=%v err=%v", found, err)
	}
}

func TestBoltStoreRecentNewestFirst(t *testing.T) {
	store, err := openBolt(filepath.Join(t.TempDir(), "reports.db"), normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	base := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		if err := store.SaveReport(sampleReport(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("SaveReport %s: %v", id, err)
		}
	}

	recent, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].RunID != "c" || recent[1].RunID != "b" {
		t.Fatalf("unexpected recent reports %+v", recent)
	}
}

func TestBoltStoreRejectsMissingRunID(t *testing.T) {
	store, err := openBolt(filepath.Join(t.TempDir(), "reports.db"), normalizeOptions(Options{}))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	if err := store.SaveReport(report.Report{}); err == nil {
		t.Fatalf("expected error for report without run id")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.SaveReport(report.Report{RunID: "x"}); err != nil {
		t.Fatalf("noop store SaveReport: %v", err)
	}
	if _, found, _ := store.Report("x"); found {
		t.Fatalf("noop store should not find reports")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing bbolt path")
	}
}

func countReports(t *testing.T, store *boltStore) int {
	t.Helper()
	n := 0
	err := store.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(reportBucket)).ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	if err != nil {
		t.Fatalf("count reports: %v", err)
	}
	return n
}

func TestBoltStoreCleansUpAcrossProcessRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	opts := Options{ReportTTL: time.Second, CleanupInterval: time.Hour}
	clock := time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC)

	// Each iteration mimics one CLI invocation: open, save, close.
	var remaining int
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		store, err := openBolt(path, opts)
		if err != nil {
			t.Fatalf("openBolt: %v", err)
		}
		now := clock.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return now }

		if err := store.SaveReport(sampleReport(id, now)); err != nil {
			t.Fatalf("SaveReport %s: %v", id, err)
		}
		remaining = countReports(t, store)
		if err := store.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	if remaining != 1 {
		t.Fatalf("expected expired reports to be swept on open, %d remain", remaining)
	}
}
