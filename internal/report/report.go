// Package report turns a run's publish results into a deterministic summary
// for humans and downstream notification sinks.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/Adda-Baaj/khobor-poster/pkg/platforms"
)

// PlatformSummary counts outcomes for one platform.
type PlatformSummary struct {
	Platform  domain.Platform          `json:"platform"`
	Attempted int                      `json:"attempted"`
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
	ByKind    map[domain.ErrorKind]int `json:"failures_by_kind,omitempty"`
}

// Failure is one failed (post, platform) pair.
type Failure struct {
	PostIndex int              `json:"post_index"`
	Platform  domain.Platform  `json:"platform"`
	Kind      domain.ErrorKind `json:"kind"`
	Message   string           `json:"message,omitempty"`
}

// Credential is the validation outcome for one platform, without token data.
type Credential struct {
	Platform  domain.Platform            `json:"platform"`
	Status    platforms.ValidationStatus `json:"status"`
	Message   string                     `json:"message,omitempty"`
	ExpiresAt *time.Time                 `json:"expires_at,omitempty"`
}

// Report is the serializable run summary keyed by (post index, platform).
type Report struct {
	RunID       string                 `json:"run_id"`
	StartedAt   time.Time              `json:"started_at"`
	FinishedAt  time.Time              `json:"finished_at"`
	Posts       int                    `json:"posts"`
	Platforms   []PlatformSummary      `json:"platforms"`
	Credentials []Credential           `json:"credentials,omitempty"`
	Failures    []Failure              `json:"failures"`
	Results     []domain.PublishResult `json:"results"`
}

// Input carries what Build needs from a finished run.
type Input struct {
	RunID       string
	Posts       int
	Platforms   []domain.Platform
	Results     []domain.PublishResult
	Validations []platforms.Validation
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Build aggregates results. Enabled platforms without results still get a
// zero summary so the report shape does not depend on the outcome.
func Build(in Input) Report {
	results := append([]domain.PublishResult(nil), in.Results...)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].PostIndex != results[j].PostIndex {
			return results[i].PostIndex < results[j].PostIndex
		}
		return results[i].Platform < results[j].Platform
	})

	byPlatform := make(map[domain.Platform]*PlatformSummary)
	summaryFor := func(p domain.Platform) *PlatformSummary {
		s, ok := byPlatform[p]
		if !ok {
			s = &PlatformSummary{Platform: p}
			byPlatform[p] = s
		}
		return s
	}
	for _, p := range in.Platforms {
		summaryFor(p)
	}

	failures := make([]Failure, 0)
	for _, r := range results {
		s := summaryFor(r.Platform)
		s.Attempted++
		if r.OK() {
			s.Succeeded++
			continue
		}
		s.Failed++
		if s.ByKind == nil {
			s.ByKind = make(map[domain.ErrorKind]int)
		}
		s.ByKind[r.ErrorKind]++
		failures = append(failures, Failure{
			PostIndex: r.PostIndex,
			Platform:  r.Platform,
			Kind:      r.ErrorKind,
			Message:   r.Message,
		})
	}

	summaries := make([]PlatformSummary, 0, len(byPlatform))
	for _, s := range byPlatform {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Platform < summaries[j].Platform })

	creds := make([]Credential, 0, len(in.Validations))
	for _, v := range in.Validations {
		c := Credential{Platform: v.Platform, Status: v.Status, Message: v.Message}
		if !v.ExpiresAt.IsZero() {
			exp := v.ExpiresAt.UTC()
			c.ExpiresAt = &exp
		}
		creds = append(creds, c)
	}
	sort.SliceStable(creds, func(i, j int) bool { return creds[i].Platform < creds[j].Platform })

	return Report{
		RunID:       in.RunID,
		StartedAt:   in.StartedAt.UTC(),
		FinishedAt:  in.FinishedAt.UTC(),
		Posts:       in.Posts,
		Platforms:   summaries,
		Credentials: creds,
		Failures:    failures,
		Results:     results,
	}
}

// HasFailures reports whether any pair failed.
func (r Report) HasFailures() bool { return len(r.Failures) > 0 }

// Succeeded returns the number of published pairs.
func (r Report) Succeeded() int {
	n := 0
	for _, s := range r.Platforms {
		n += s.Succeeded
	}
	return n
}

// Lines renders one human line per platform, e.g.
// "4/6 posted to instagram, 2 failed: RateLimited".
func (r Report) Lines() []string {
	lines := make([]string, 0, len(r.Platforms))
	for _, s := range r.Platforms {
		line := fmt.Sprintf("%d/%d posted to %s", s.Succeeded, s.Attempted, s.Platform)
		if s.Failed > 0 {
			line += fmt.Sprintf(", %d failed: %s", s.Failed, kindList(s.ByKind))
		}
		lines = append(lines, line)
	}
	return lines
}

// String joins Lines.
func (r Report) String() string {
	if len(r.Platforms) == 0 {
		return "nothing to publish"
	}
	return strings.Join(r.Lines(), "; ")
}

// JSON returns the indented wire form.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func kindList(byKind map[domain.ErrorKind]int) string {
	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		if n := byKind[domain.ErrorKind(k)]; n > 1 && len(kinds) > 1 {
			parts = append(parts, fmt.Sprintf("%s x%d", k, n))
			continue
		}
		parts = append(parts, k)
	}
	return strings.Join(parts, ", ")
}
