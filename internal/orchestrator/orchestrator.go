// Package orchestrator drives paginated posts through every enabled platform,
// isolating failures per platform and per post.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/Adda-Baaj/khobor-poster/internal/logger"
	"github.com/Adda-Baaj/khobor-poster/pkg/platforms"
)

// State is the run-level lifecycle. Transitions only move forward.
type State string

const (
	NotStarted            State = "NotStarted"
	ValidatingCredentials State = "ValidatingCredentials"
	Publishing            State = "Publishing"
	Completed             State = "Completed"
)

// ErrAlreadyRun is returned when Run is called on a used Orchestrator.
var ErrAlreadyRun = errors.New("orchestrator: run already started")

// Target pairs a platform variant with the credential it publishes with.
type Target struct {
	Variant    platforms.Variant
	Credential domain.Credential
}

// Config wires an Orchestrator.
type Config struct {
	Targets  []Target
	Parallel bool
	Timeout  time.Duration
	Log      logger.Logger
	Now      func() time.Time
}

// Orchestrator runs one linear publish pass.
type Orchestrator struct {
	targets  []Target
	parallel bool
	timeout  time.Duration
	log      logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	state   State
	started bool
}

// Outcome is everything a run produced.
type Outcome struct {
	Results     []domain.PublishResult
	Validations []platforms.Validation
	StartedAt   time.Time
	FinishedAt  time.Time
}

// New validates the target set. Each platform may appear once.
func New(cfg Config) (*Orchestrator, error) {
	seen := make(map[domain.Platform]struct{}, len(cfg.Targets))
	for i, t := range cfg.Targets {
		if t.Variant == nil {
			return nil, fmt.Errorf("target %d has no platform variant", i)
		}
		p := t.Variant.Platform()
		if _, dup := seen[p]; dup {
			return nil, fmt.Errorf("platform %s configured twice", p)
		}
		seen[p] = struct{}{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{
		targets:  append([]Target(nil), cfg.Targets...),
		parallel: cfg.Parallel,
		timeout:  cfg.Timeout,
		log:      logger.Ensure(cfg.Log),
		now:      cfg.Now,
		state:    NotStarted,
	}, nil
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) advance(to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()
	o.log.DebugObj("orchestrator state", "orchestrator_state", map[string]any{"from": from, "to": to})
}

// Run validates every platform once and then publishes posts in order on each
// valid platform. Per-pair failures become results; the returned error is only
// ErrAlreadyRun.
func (o *Orchestrator) Run(ctx context.Context, posts []domain.Post) (Outcome, error) {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return Outcome{}, ErrAlreadyRun
	}
	o.started = true
	o.mu.Unlock()

	out := Outcome{StartedAt: o.now().UTC()}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	if len(posts) == 0 {
		o.advance(Completed)
		out.FinishedAt = o.now().UTC()
		o.log.InfoObj("no posts to publish", "orchestrator_run", map[string]any{"posts": 0})
		return out, nil
	}

	o.advance(ValidatingCredentials)
	out.Validations = o.validateAll(ctx)

	o.advance(Publishing)
	perTarget := make([][]domain.PublishResult, len(o.targets))
	task := func(i int) {
		perTarget[i] = o.publishTarget(ctx, o.targets[i], out.Validations[i], posts)
	}
	o.each(task)

	for _, rs := range perTarget {
		out.Results = append(out.Results, rs...)
	}
	SortResults(out.Results)

	o.advance(Completed)
	out.FinishedAt = o.now().UTC()
	return out, nil
}

// Validate checks every target's credential without publishing anything.
func (o *Orchestrator) Validate(ctx context.Context) []platforms.Validation {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	return o.validateAll(ctx)
}

func (o *Orchestrator) validateAll(ctx context.Context) []platforms.Validation {
	validations := make([]platforms.Validation, len(o.targets))
	o.each(func(i int) {
		t := o.targets[i]
		p := t.Variant.Platform()
		if err := ctx.Err(); err != nil {
			validations[i] = platforms.Validation{Platform: p, Status: platforms.Unreachable, Message: "run timeout elapsed before validation", Err: err}
			return
		}
		v := t.Variant.Validate(ctx, t.Credential)
		v.Platform = p
		validations[i] = v

		fields := map[string]any{"platform": p, "status": v.Status, "attempts": v.Attempts}
		if v.Message != "" {
			fields["message"] = v.Message
		}
		if v.OK() {
			o.log.InfoObj("credential valid", "credential_validation", fields)
		} else {
			o.log.WarnObj("credential rejected", "credential_validation", fields)
		}
	})
	return validations
}

// each runs fn for every target, sequentially or one goroutine per target.
// Every call writes only its own index.
func (o *Orchestrator) each(fn func(i int)) {
	if !o.parallel || len(o.targets) < 2 {
		for i := range o.targets {
			fn(i)
		}
		return
	}
	var g errgroup.Group
	for i := range o.targets {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) publishTarget(ctx context.Context, t Target, v platforms.Validation, posts []domain.Post) []domain.PublishResult {
	p := t.Variant.Platform()
	results := make([]domain.PublishResult, 0, len(posts))

	if !v.OK() {
		kind, msg := disqualification(ctx, v)
		for _, post := range posts {
			results = append(results, domain.Failed(post.Index, p, kind, msg))
		}
		o.log.WarnObj("platform skipped", "orchestrator_platform_skipped", map[string]any{
			"platform": p,
			"kind":     kind,
			"posts":    len(posts),
		})
		return results
	}

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			results = append(results, domain.Failed(post.Index, p, domain.KindCancelled, "run timeout elapsed before attempt"))
			continue
		}
		results = append(results, o.publishOne(ctx, t, post))
	}
	return results
}

type publishReturn struct {
	id  string
	err error
}

// publishOne runs a single attempt. When the run deadline passes mid-call the
// call is abandoned and the pair is recorded as Cancelled.
func (o *Orchestrator) publishOne(ctx context.Context, t Target, post domain.Post) domain.PublishResult {
	done := make(chan publishReturn, 1)
	go func() {
		id, err := t.Variant.Publish(ctx, post, t.Credential)
		done <- publishReturn{id: id, err: err}
	}()

	select {
	case r := <-done:
		return o.record(ctx, t.Variant.Platform(), post, r)
	case <-ctx.Done():
		select {
		case r := <-done:
			return o.record(ctx, t.Variant.Platform(), post, r)
		default:
		}
		r := publishReturn{err: &platforms.PlatformError{
			Kind:    domain.KindCancelled,
			Step:    "publish",
			Message: "run timeout elapsed during attempt, call abandoned",
			Err:     ctx.Err(),
		}}
		return o.record(ctx, t.Variant.Platform(), post, r)
	}
}

func (o *Orchestrator) record(ctx context.Context, p domain.Platform, post domain.Post, r publishReturn) domain.PublishResult {
	if r.err == nil {
		o.log.InfoObj("post published", "orchestrator_publish", map[string]any{
			"platform":   p,
			"post_index": post.Index,
			"images":     post.Size(),
			"entity_id":  r.id,
		})
		return domain.Succeeded(post.Index, p, r.id)
	}

	kind := platforms.KindOf(r.err)
	if ctx.Err() != nil {
		kind = domain.KindCancelled
	}
	o.log.WarnObj("post failed", "orchestrator_publish", map[string]any{
		"platform":   p,
		"post_index": post.Index,
		"kind":       kind,
		"error":      r.err.Error(),
	})
	return domain.Failed(post.Index, p, kind, r.err.Error())
}

// disqualification maps a failed validation to the kind recorded for every
// post of that platform.
func disqualification(ctx context.Context, v platforms.Validation) (domain.ErrorKind, string) {
	msg := v.Message
	if msg == "" {
		msg = string(v.Status)
	}
	switch {
	case v.Status.Terminal():
		return domain.KindCredentialInvalid, "credential " + string(v.Status) + ": " + msg
	case ctx.Err() != nil:
		return domain.KindCancelled, "run timeout elapsed during validation"
	default:
		return domain.KindUnreachable, "credential check unreachable: " + msg
	}
}

// SortResults orders results by post index, then platform.
func SortResults(results []domain.PublishResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].PostIndex != results[j].PostIndex {
			return results[i].PostIndex < results[j].PostIndex
		}
		return results[i].Platform < results[j].Platform
	})
}
