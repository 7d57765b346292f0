package app

import (
	"context"
	"fmt"
	"path"
	"slices"
	"time"

	"github.com/Adda-Baaj/khobor-poster/internal/config"
	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/Adda-Baaj/khobor-poster/internal/imageset"
	"github.com/Adda-Baaj/khobor-poster/internal/logger"
	"github.com/Adda-Baaj/khobor-poster/internal/orchestrator"
	"github.com/Adda-Baaj/khobor-poster/internal/paginator"
	"github.com/Adda-Baaj/khobor-poster/internal/report"
	"github.com/Adda-Baaj/khobor-poster/internal/storage"
	"github.com/Adda-Baaj/khobor-poster/pkg/hosting"
	"github.com/Adda-Baaj/khobor-poster/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-poster/pkg/notifiers"
	"github.com/Adda-Baaj/khobor-poster/pkg/platforms"
	"github.com/Adda-Baaj/khobor-poster/pkg/platforms/facebook"
	"github.com/Adda-Baaj/khobor-poster/pkg/platforms/instagram"
	"github.com/google/uuid"
)

const notifyTimeout = 30 * time.Second

// Poster wires the publish pipeline: items are loaded and paginated, images
// are resolved, and the orchestrator publishes to every enabled platform.
type Poster struct {
	cfg       *config.Config
	log       logger.Logger
	paginator *paginator.Paginator
	runID     string
	newHost   func(context.Context, hosting.Config) (hosting.Host, error)
}

// NewPoster validates the static parts of the configuration. Nothing here
// touches the network.
func NewPoster(cfg *config.Config, log logger.Logger) (*Poster, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	pg, err := paginator.New(cfg.MaxImagesPerPost)
	if err != nil {
		return nil, config.ConfigError{Field: "max_images_per_post", Reason: err.Error()}
	}
	return &Poster{
		cfg:       cfg,
		log:       logger.Ensure(log),
		paginator: pg,
		runID:     uuid.NewString(),
		newHost:   hosting.New,
	}, nil
}

// RunID identifies this pipeline instance in logs, reports and storage.
func (p *Poster) RunID() string { return p.runID }

// Plan loads and paginates items and checks every artifact without hosting
// images or calling any platform.
func (p *Poster) Plan(ctx context.Context) ([]domain.Post, error) {
	return p.posts(ctx, nil)
}

// Validate checks every enabled platform's credential.
func (p *Poster) Validate(ctx context.Context) ([]platforms.Validation, error) {
	orch, err := p.orchestrator()
	if err != nil {
		return nil, err
	}
	return orch.Validate(ctx), nil
}

// Run executes one publish pass and returns its report. Input and
// configuration problems are returned as errors before any publishing.
// Per-post failures are part of the report, never an error.
func (p *Poster) Run(ctx context.Context) (report.Report, error) {
	orch, err := p.orchestrator()
	if err != nil {
		return report.Report{}, err
	}

	uploader, err := p.uploader(ctx)
	if err != nil {
		return report.Report{}, err
	}
	posts, err := p.posts(ctx, uploader)
	if err != nil {
		return report.Report{}, err
	}

	p.log.InfoObj("run starting", "run_meta", map[string]any{
		"run_id":    p.runID,
		"posts":     len(posts),
		"platforms": p.cfg.EnabledPlatforms,
		"parallel":  p.cfg.ParallelPlatforms,
	})

	outcome, err := orch.Run(ctx, posts)
	if err != nil {
		return report.Report{}, err
	}

	rep := report.Build(report.Input{
		RunID:       p.runID,
		Posts:       len(posts),
		Platforms:   p.cfg.EnabledPlatforms,
		Results:     outcome.Results,
		Validations: outcome.Validations,
		StartedAt:   outcome.StartedAt,
		FinishedAt:  outcome.FinishedAt,
	})
	for _, line := range rep.Lines() {
		p.log.InfoObj(line, "run_summary", map[string]any{"run_id": p.runID})
	}

	p.archive(rep)
	p.notify(ctx, rep)
	return rep, nil
}

// History returns the most recent archived reports, newest first.
func (p *Poster) History(limit int) ([]report.Report, error) {
	store, err := p.openStore()
	if err != nil {
		return nil, err
	}
	defer p.closeStore(store)
	return store.Recent(limit)
}

// ArchivedReport returns one archived report by run id.
func (p *Poster) ArchivedReport(runID string) (report.Report, bool, error) {
	store, err := p.openStore()
	if err != nil {
		return report.Report{}, false, err
	}
	defer p.closeStore(store)
	return store.Report(runID)
}

func (p *Poster) posts(ctx context.Context, uploader imageset.Uploader) ([]domain.Post, error) {
	resolver := imageset.New(imageset.Config{
		ItemsFile: p.cfg.ItemsFile,
		ImagesDir: p.cfg.ImagesDir,
		Uploader:  uploader,
		Log:       p.log,
	})
	items, err := resolver.Items()
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	posts, err := resolver.Resolve(ctx, p.paginator.Paginate(items))
	if err != nil {
		return nil, fmt.Errorf("resolve images: %w", err)
	}
	p.log.InfoObj("posts planned", "plan_meta", map[string]any{
		"items":               len(items),
		"posts":               len(posts),
		"max_images_per_post": p.paginator.MaxImages(),
	})
	return posts, nil
}

// uploader builds the image host. Only Instagram fetches media by URL, so
// runs without it never touch the host.
func (p *Poster) uploader(ctx context.Context) (imageset.Uploader, error) {
	if !slices.Contains(p.cfg.EnabledPlatforms, domain.PlatformInstagram) {
		return nil, nil
	}
	host, err := p.newHost(ctx, p.hostingConfig())
	if err != nil {
		return nil, fmt.Errorf("init image hosting: %w", err)
	}
	if host == nil {
		return nil, nil
	}
	p.log.InfoObj("image hosting enabled", "hosting", map[string]any{"type": host.Type()})
	return host, nil
}

func (p *Poster) orchestrator() (*orchestrator.Orchestrator, error) {
	creds, err := config.LoadCredentials(p.cfg.EnabledPlatforms)
	if err != nil {
		return nil, err
	}
	targets := make([]orchestrator.Target, 0, len(p.cfg.EnabledPlatforms))
	for _, pl := range p.cfg.EnabledPlatforms {
		v, err := p.variant(pl)
		if err != nil {
			return nil, err
		}
		targets = append(targets, orchestrator.Target{Variant: v, Credential: creds[pl]})
	}
	return orchestrator.New(orchestrator.Config{
		Targets:  targets,
		Parallel: p.cfg.ParallelPlatforms,
		Timeout:  p.cfg.RunTimeout,
		Log:      p.log,
	})
}

// variant builds a platform client with its own paced HTTP client so one
// platform's pacing never delays the other.
func (p *Poster) variant(pl domain.Platform) (platforms.Variant, error) {
	client := httpclient.NewRestyClient(p.cfg.HTTPTimeout, httpclient.WithMinInterval(p.cfg.CallInterval))
	retry := platforms.RetryPolicy{
		Attempts:  p.cfg.RetryAttempts,
		BaseDelay: p.cfg.RetryBaseDelay,
		MaxDelay:  p.cfg.RetryMaxDelay,
	}
	switch pl {
	case domain.PlatformFacebook:
		return facebook.New(facebook.Config{
			Client:         client,
			GraphBase:      p.cfg.GraphAPIBase,
			Retry:          retry,
			RequiredScopes: p.cfg.FacebookScopes(),
			Log:            p.log,
		}), nil
	case domain.PlatformInstagram:
		return instagram.New(instagram.Config{
			Client:       client,
			GraphBase:    p.cfg.GraphAPIBase,
			Retry:        retry,
			PollAttempts: p.cfg.ContainerPollAttempts,
			PollInterval: p.cfg.ContainerPollInterval,
			Log:          p.log,
		}), nil
	default:
		return nil, config.ConfigError{Field: "enabled_platforms", Reason: fmt.Sprintf("unsupported platform %q", pl)}
	}
}

func (p *Poster) hostingConfig() hosting.Config {
	return hosting.Config{
		Type:      p.cfg.ImageHostType,
		URLPrefix: p.cfg.ImageURLPrefix,
		S3: hosting.S3Config{
			Bucket:          p.cfg.S3Bucket,
			Region:          p.cfg.S3Region,
			KeyPrefix:       path.Join(p.cfg.S3KeyPrefix, p.runID),
			PublicBaseURL:   p.cfg.S3PublicBaseURL,
			AccessKeyID:     p.cfg.AWSAccessKeyID,
			SecretAccessKey: p.cfg.AWSSecretKey,
		},
		Log: p.log,
	}
}

func (p *Poster) openStore() (storage.Store, error) {
	store, err := storage.NewStore(p.cfg.StorageType, p.cfg.BBoltPath, storage.Options{
		ReportTTL:       p.cfg.StorageTTL,
		CleanupInterval: p.cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return store, nil
}

// archive stores the report. Failures are logged and never change the run's
// outcome.
func (p *Poster) archive(rep report.Report) {
	store, err := p.openStore()
	if err != nil {
		p.log.ErrorObj("report archive unavailable", "error", err)
		return
	}
	defer p.closeStore(store)

	if err := store.SaveReport(rep); err != nil {
		p.log.ErrorObj("report archive failed", "error", err)
		return
	}
	p.log.DebugObj("report archived", "storage_config", map[string]any{
		"type":   p.cfg.StorageType,
		"path":   p.cfg.BBoltPath,
		"run_id": rep.RunID,
	})
}

// notify delivers the report to configured sinks. It runs detached from ctx
// so an interrupted run still reports what happened.
func (p *Poster) notify(ctx context.Context, rep report.Report) {
	if p.cfg.NotifiersFile == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	reg, err := notifiers.LoadRegistry(p.cfg.NotifiersFile)
	if err != nil {
		p.log.ErrorObj("load notifiers registry failed", "error", err)
		return
	}
	enabled := reg.Enabled()
	if len(enabled) == 0 {
		p.log.WarnObj("no notifiers enabled", "notifiers_file", p.cfg.NotifiersFile)
		return
	}

	built, err := notifiers.BuildAll(ctx, notifiers.DefaultRegistry(), enabled, p.log)
	if err != nil {
		p.log.ErrorObj("build notifiers failed", "error", err)
		return
	}
	fanout := notifiers.NewFanout(built)
	defer func() {
		if err := fanout.Close(); err != nil {
			p.log.ErrorObj("close notifiers failed", "error", err)
		}
	}()

	delivered, err := fanout.Notify(ctx, notifiers.NewEvent(rep))
	if err != nil {
		p.log.ErrorObj("report notification failed", "error", err)
	}
	p.log.InfoObj("report notified", "notifiers_meta", map[string]any{
		"delivered": delivered,
		"total":     fanout.Size(),
	})
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (p *Poster) closeStore(store storage.Store) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		p.log.ErrorObj("storage close failed", "error", err)
	}
}
