package notifiers

import (
	"time"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/Adda-Baaj/khobor-poster/internal/report"
)

func sampleEvent() Event {
	started := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	r := report.Build(report.Input{
		RunID:     "run-1",
		Posts:     2,
		Platforms: []domain.Platform{domain.PlatformFacebook},
		Results: []domain.PublishResult{
			domain.Succeeded(1, domain.PlatformFacebook, "fb-1"),
			domain.Failed(2, domain.PlatformFacebook, domain.KindRateLimited, "throttled"),
		},
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
	})
	return Event{
		RunID:     r.RunID,
		Summary:   r.String(),
		Report:    r,
		EmittedAt: started.Add(2 * time.Minute),
	}
}
