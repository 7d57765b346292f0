package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Adda-Baaj/khobor-poster/internal/report"
)

const (
	reportBucket     = "reports"
	expiryValueBytes = 8
)

var errBucketMissing = errors.New("report bucket missing")

// boltStore implements a Store backed by BoltDB. Values are an 8-byte
// big-endian expiry followed by the JSON report.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	reportTTL       time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (*boltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(reportBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	// lastCleanup starts at zero so the first write of every process sweeps
	// expired reports; one-shot runs never reach the cadence otherwise.
	return &boltStore{
		db:              db,
		reportTTL:       opts.ReportTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SaveReport stores r under its run id.
func (b *boltStore) SaveReport(r report.Report) error {
	if b == nil || b.db == nil {
		return nil
	}
	if strings.TrimSpace(r.RunID) == "" {
		return errors.New("report has no run id")
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	value := make([]byte, expiryValueBytes, expiryValueBytes+len(payload))
	binary.BigEndian.PutUint64(value, uint64(now.Add(b.reportTTL).Unix()))
	value = append(value, payload...)

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(reportBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Put([]byte(r.RunID), value)
	})
}

// Report returns the stored report for runID. Expired entries are removed
// and reported as absent.
func (b *boltStore) Report(runID string) (report.Report, bool, error) {
	if b == nil || b.db == nil {
		return report.Report{}, false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return report.Report{}, false, err
	}

	var (
		out   report.Report
		found bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(reportBucket))
		if bucket == nil {
			return errBucketMissing
		}

		key := []byte(runID)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		expiry, ok := decodeExpiry(value)
		if !ok || !expiry.After(now) {
			return bucket.Delete(key)
		}
		if err := json.Unmarshal(value[expiryValueBytes:], &out); err != nil {
			return fmt.Errorf("decode report %s: %w", runID, err)
		}
		found = true
		return nil
	})
	return out, found, err
}

// Recent returns up to limit live reports, newest first. limit <= 0 returns all.
func (b *boltStore) Recent(limit int) ([]report.Report, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	now := b.now()
	var out []report.Report
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(reportBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.ForEach(func(k, v []byte) error {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				return nil
			}
			var r report.Report
			if err := json.Unmarshal(v[expiryValueBytes:], &r); err != nil {
				return fmt.Errorf("decode report %s: %w", k, err)
			}
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// maybeCleanupExpired removes expired reports on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(reportBucket))
		if bucket == nil {
			return errBucketMissing
		}

		var expired [][]byte
		if err := bucket.ForEach(func(k, v []byte) error {
			if expiry, ok := decodeExpiry(v); !ok || !expiry.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeExpiry decodes the expiry prefix of a stored value.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
