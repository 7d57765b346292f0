package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Adda-Baaj/khobor-poster/internal/config"
	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/Adda-Baaj/khobor-poster/internal/imageset"
	"github.com/Adda-Baaj/khobor-poster/internal/logger"
	"github.com/Adda-Baaj/khobor-poster/pkg/hosting"
	"github.com/Adda-Baaj/khobor-poster/pkg/notifiers"
)

func writeImages(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	for i := 1; i <= n; i++ {
		name := filepath.Join(dir, fmt.Sprintf("%02d.png", i))
		if err := os.WriteFile(name, []byte("png"), 0o644); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	return dir
}

func testConfig(imagesDir string) *config.Config {
	return &config.Config{
		MaxImagesPerPost:      4,
		EnabledPlatforms:      []domain.Platform{domain.PlatformInstagram},
		RetryAttempts:         1,
		RunTimeout:            10 * time.Second,
		HTTPTimeout:           5 * time.Second,
		ContainerPollAttempts: 2,
		ImagesDir:             imagesDir,
		ImageHostType:         "url_prefix",
		ImageURLPrefix:        "https://cdn.example.com/run",
		StorageType:           "none",
	}
}

// fakeGraph answers the Facebook and Instagram calls of a successful run.
type fakeGraph struct {
	mu        sync.Mutex
	created   int
	published int
	imageURLs []string
	photos    int
	feedPosts int
}

func (g *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/debug_token"):
		_, _ = w.Write([]byte(`{"data":{"is_valid":true,"type":"PAGE","expires_at":0}}`))
	case r.Method == http.MethodGet && r.URL.Query().Get("fields") == "id,username":
		_, _ = w.Write([]byte(`{"id":"17841","username":"news"}`))
	case r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`{"status_code":"FINISHED"}`))
	case strings.HasSuffix(r.URL.Path, "/photos"):
		g.photos++
		fmt.Fprintf(w, `{"id":"p%d","post_id":"pp%d"}`, g.photos, g.photos)
	case strings.HasSuffix(r.URL.Path, "/feed"):
		g.feedPosts++
		fmt.Fprintf(w, `{"id":"f%d"}`, g.feedPosts)
	case strings.HasSuffix(r.URL.Path, "/media_publish"):
		g.published++
		fmt.Fprintf(w, `{"id":"m%d"}`, g.published)
	case strings.HasSuffix(r.URL.Path, "/media"):
		g.created++
		if u := r.FormValue("image_url"); u != "" {
			g.imageURLs = append(g.imageURLs, u)
		}
		fmt.Fprintf(w, `{"id":"c%d"}`, g.created)
	default:
		http.NotFound(w, r)
	}
}

func TestPlanPaginatesWithoutCredentials(t *testing.T) {
	cfg := testConfig(writeImages(t, 5))
	cfg.MaxImagesPerPost = 2

	p, err := NewPoster(cfg, logger.NopLogger{})
	if err != nil {
		t.Fatalf("NewPoster: %v", err)
	}
	posts, err := p.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	if got := posts[2].ItemIDs; len(got) != 1 || got[0] != "05" {
		t.Fatalf("last post items = %v", got)
	}
	for _, post := range posts {
		for _, img := range post.Images {
			if img.URL != "" {
				t.Fatalf("plan must not host images, got %q", img.URL)
			}
		}
	}
}

func TestNewPosterRejectsBadPageSize(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.MaxImagesPerPost = 0
	_, err := NewPoster(cfg, nil)
	var cfgErr config.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestRunRequiresCredentials(t *testing.T) {
	t.Setenv("INSTAGRAM_ACCESS_TOKEN", "")
	t.Setenv("INSTAGRAM_USER_ID", "")

	p, err := NewPoster(testConfig(writeImages(t, 1)), nil)
	if err != nil {
		t.Fatalf("NewPoster: %v", err)
	}
	_, err = p.Run(context.Background())
	var missing config.MissingEnvError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingEnvError, got %v", err)
	}
}

func TestRunFailsOnEmptyArtifact(t *testing.T) {
	t.Setenv("INSTAGRAM_ACCESS_TOKEN", "token")
	t.Setenv("INSTAGRAM_USER_ID", "17841")

	dir := writeImages(t, 2)
	if err := os.WriteFile(filepath.Join(dir, "03.png"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	graph := &fakeGraph{}
	srv := httptest.NewServer(graph)
	defer srv.Close()

	cfg := testConfig(dir)
	cfg.GraphAPIBase = srv.URL
	p, err := NewPoster(cfg, nil)
	if err != nil {
		t.Fatalf("NewPoster: %v", err)
	}
	_, err = p.Run(context.Background())
	var inputErr *imageset.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InputError, got %v", err)
	}
	if graph.created != 0 || graph.published != 0 {
		t.Fatalf("no platform call expected, got %d creates", graph.created)
	}
}

func TestRunPublishesArchivesAndNotifies(t *testing.T) {
	t.Setenv("INSTAGRAM_ACCESS_TOKEN", "token")
	t.Setenv("INSTAGRAM_USER_ID", "17841")

	graph := &fakeGraph{}
	srv := httptest.NewServer(graph)
	defer srv.Close()

	var (
		hookMu sync.Mutex
		hooked []notifiers.Event
	)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt notifiers.Event
		_ = json.NewDecoder(r.Body).Decode(&evt)
		hookMu.Lock()
		hooked = append(hooked, evt)
		hookMu.Unlock()
	}))
	defer hook.Close()

	tmp := t.TempDir()
	notifiersFile := filepath.Join(tmp, "notifiers.yaml")
	raw := fmt.Sprintf("notifiers:\n  - id: hook\n    type: http\n    http:\n      url: %s\n", hook.URL)
	if err := os.WriteFile(notifiersFile, []byte(raw), 0o644); err != nil {
		t.Fatalf("write notifiers: %v", err)
	}

	cfg := testConfig(writeImages(t, 5))
	cfg.GraphAPIBase = srv.URL
	cfg.NotifiersFile = notifiersFile
	cfg.StorageType = "bbolt"
	cfg.BBoltPath = filepath.Join(tmp, "reports.db")

	p, err := NewPoster(cfg, logger.NopLogger{})
	if err != nil {
		t.Fatalf("NewPoster: %v", err)
	}
	rep, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rep.Posts != 2 || rep.Succeeded() != 2 || rep.HasFailures() {
		t.Fatalf("unexpected report: %s", rep.String())
	}
	if rep.RunID != p.RunID() {
		t.Fatalf("report run id %q, want %q", rep.RunID, p.RunID())
	}
	// 4 children + carousel parent for post 1, one container for post 2.
	if graph.created != 6 || graph.published != 2 {
		t.Fatalf("created=%d published=%d", graph.created, graph.published)
	}
	if len(graph.imageURLs) != 5 || graph.imageURLs[0] != "https://cdn.example.com/run/01.png" {
		t.Fatalf("unexpected image urls %v", graph.imageURLs)
	}

	hookMu.Lock()
	if len(hooked) != 1 || hooked[0].RunID != rep.RunID {
		t.Fatalf("expected one notification for run, got %#v", hooked)
	}
	hookMu.Unlock()

	history, err := p.History(10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].RunID != rep.RunID {
		t.Fatalf("unexpected history %#v", history)
	}
	archived, ok, err := p.ArchivedReport(rep.RunID)
	if err != nil || !ok {
		t.Fatalf("ArchivedReport ok=%v err=%v", ok, err)
	}
	if archived.Succeeded() != 2 {
		t.Fatalf("archived report succeeded = %d", archived.Succeeded())
	}
}

type failingHost struct {
	mu    sync.Mutex
	calls int
}

func (h *failingHost) Type() string { return "failing" }

func (h *failingHost) Upload(context.Context, domain.ImageRef) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return "", errors.New("access denied")
}

func TestRunHostingFailureOnlyFailsInstagram(t *testing.T) {
	t.Setenv("FACEBOOK_ACCESS_TOKEN", "fb-token")
	t.Setenv("FACEBOOK_PAGE_ID", "1001")
	t.Setenv("INSTAGRAM_ACCESS_TOKEN", "ig-token")
	t.Setenv("INSTAGRAM_USER_ID", "17841")

	graph := &fakeGraph{}
	srv := httptest.NewServer(graph)
	defer srv.Close()

	cfg := testConfig(writeImages(t, 5))
	cfg.GraphAPIBase = srv.URL
	cfg.EnabledPlatforms = []domain.Platform{domain.PlatformFacebook, domain.PlatformInstagram}

	p, err := NewPoster(cfg, logger.NopLogger{})
	if err != nil {
		t.Fatalf("NewPoster: %v", err)
	}
	host := &failingHost{}
	p.newHost = func(context.Context, hosting.Config) (hosting.Host, error) { return host, nil }

	rep, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("hosting failure must not abort the run: %v", err)
	}
	if host.calls != 5 {
		t.Fatalf("expected 5 upload attempts, got %d", host.calls)
	}
	if rep.Posts != 2 || rep.Succeeded() != 2 {
		t.Fatalf("unexpected report: %s", rep.String())
	}
	if len(rep.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %#v", rep.Failures)
	}
	for _, f := range rep.Failures {
		if f.Platform != domain.PlatformInstagram || f.Kind != domain.KindMissingMedia {
			t.Fatalf("unexpected failure %#v", f)
		}
	}
	// 4 unpublished photos + album post for post 1, one published photo for post 2.
	if graph.photos != 5 || graph.feedPosts != 1 {
		t.Fatalf("photos=%d feed=%d", graph.photos, graph.feedPosts)
	}
	if graph.created != 0 || graph.published != 0 {
		t.Fatalf("instagram must not be called without hosted urls, created=%d", graph.created)
	}
}

func TestRunWithoutInstagramSkipsHosting(t *testing.T) {
	t.Setenv("FACEBOOK_ACCESS_TOKEN", "fb-token")
	t.Setenv("FACEBOOK_PAGE_ID", "1001")

	graph := &fakeGraph{}
	srv := httptest.NewServer(graph)
	defer srv.Close()

	cfg := testConfig(writeImages(t, 1))
	cfg.GraphAPIBase = srv.URL
	cfg.EnabledPlatforms = []domain.Platform{domain.PlatformFacebook}

	p, err := NewPoster(cfg, nil)
	if err != nil {
		t.Fatalf("NewPoster: %v", err)
	}
	p.newHost = func(context.Context, hosting.Config) (hosting.Host, error) {
		t.Fatalf("image host built for a facebook-only run")
		return nil, nil
	}

	rep, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Succeeded() != 1 || graph.photos != 1 {
		t.Fatalf("unexpected report %s (photos=%d)", rep.String(), graph.photos)
	}
}
