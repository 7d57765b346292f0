package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/Adda-Baaj/khobor-poster/pkg/httpclient"
)

// DefaultGraphBase is the Graph API root used by both platforms.
const DefaultGraphBase = "https://graph.facebook.com/v18.0"

// Graph performs Graph API calls and maps every failure to a PlatformError.
type Graph struct {
	client   httpclient.Client
	base     string
	platform domain.Platform
	log      Logger
}

// NewGraph builds a Graph helper rooted at base.
func NewGraph(client httpclient.Client, base string, platform domain.Platform, log Logger) *Graph {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultGraphBase
	}
	return &Graph{client: client, base: base, platform: platform, log: EnsureLogger(log)}
}

func (g *Graph) url(path string) string {
	return g.base + "/" + strings.TrimLeft(path, "/")
}

// Get issues a GET and decodes the JSON response into out.
func (g *Graph) Get(ctx context.Context, step, path string, query map[string]string, out any) error {
	g.debug(step, path)
	resp, err := g.client.Get(ctx, g.url(path), query)
	return g.finish(ctx, step, resp, err, out)
}

// PostForm issues a form POST and decodes the JSON response into out.
func (g *Graph) PostForm(ctx context.Context, step, path string, form map[string]string, out any) error {
	g.debug(step, path)
	resp, err := g.client.PostForm(ctx, g.url(path), form)
	return g.finish(ctx, step, resp, err, out)
}

// PostFile uploads the file at filePath as field alongside form.
func (g *Graph) PostFile(ctx context.Context, step, path string, form map[string]string, field, filePath string, out any) error {
	g.debug(step, path)
	resp, err := g.client.PostFile(ctx, g.url(path), form, field, filePath)
	return g.finish(ctx, step, resp, err, out)
}

func (g *Graph) debug(step, path string) {
	g.log.DebugObj("graph call", "graph_call", map[string]any{
		"platform": g.platform,
		"step":     step,
		"path":     path,
	})
}

func (g *Graph) finish(ctx context.Context, step string, resp httpclient.Response, err error, out any) error {
	if err != nil {
		return ClassifyTransportError(ctx, step, err)
	}
	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return ClassifyResponse(step, status, resp.Body())
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &PlatformError{
			Kind:       domain.KindServerError,
			Step:       step,
			HTTPStatus: status,
			Message:    fmt.Sprintf("decode response: %v", err),
			Err:        err,
		}
	}
	return nil
}

// IDResponse is the common `{"id": ...}` creation response.
type IDResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

// RequireID returns a PlatformError when a creation call returned no id.
func RequireID(step, id string) error {
	if strings.TrimSpace(id) == "" {
		return &PlatformError{Kind: domain.KindServerError, Step: step, Message: "response carried no id"}
	}
	return nil
}

// CheckImage confirms a rendered artifact exists and is non-empty.
func CheckImage(ref domain.ImageRef) error {
	info, err := os.Stat(ref.Path)
	if err != nil {
		return &PlatformError{Kind: domain.KindMissingMedia, Step: "read image", Message: fmt.Sprintf("image %q not readable", ref.Path), Err: err}
	}
	if info.IsDir() || info.Size() == 0 {
		return &PlatformError{Kind: domain.KindMissingMedia, Step: "read image", Message: fmt.Sprintf("image %q is empty", ref.Path)}
	}
	return nil
}

// CheckPost rejects empty posts before any network call.
func CheckPost(post domain.Post) error {
	if post.Size() == 0 {
		return &PlatformError{Kind: domain.KindInvalidRequest, Step: "check post", Message: fmt.Sprintf("post %d has no images", post.Index)}
	}
	return nil
}
