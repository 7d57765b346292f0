package notifiers

import (
	"strconv"
	"time"

	"github.com/Adda-Baaj/khobor-poster/internal/report"
)

// Event represents the payload delivered downstream.
type Event struct {
	RunID     string        `json:"run_id"`
	Summary   string        `json:"summary"`
	Report    report.Report `json:"report"`
	EmittedAt time.Time     `json:"emitted_at"`
}

// NewEvent constructs an Event for a finished run.
func NewEvent(r report.Report) Event {
	return Event{
		RunID:     r.RunID,
		Summary:   r.String(),
		Report:    r,
		EmittedAt: time.Now().UTC(),
	}
}

// attributes are the message attributes shared by queue and topic sinks.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"run_id":       e.RunID,
		"has_failures": strconv.FormatBool(e.Report.HasFailures()),
	}
}
