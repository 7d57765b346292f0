// Package imageset loads the rendering stage's output and maps posts to
// ready-to-publish image artifacts.
package imageset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/Adda-Baaj/khobor-poster/internal/logger"
)

// InputError reports unusable input from the rendering stage. It is fatal and
// raised before any network activity.
type InputError struct {
	Path   string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	msg := "input " + e.Path + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InputError) Unwrap() error { return e.Err }

// Uploader publishes an artifact somewhere platforms can fetch it by URL.
type Uploader interface {
	Upload(ctx context.Context, ref domain.ImageRef) (string, error)
}

// Config selects where items come from. ItemsFile wins over ImagesDir.
type Config struct {
	ItemsFile string
	ImagesDir string
	Uploader  Uploader
	Log       logger.Logger
}

// Resolver loads summarized items and resolves posts to checked artifacts.
type Resolver struct {
	itemsFile string
	imagesDir string
	uploader  Uploader
	log       logger.Logger
}

// New builds a Resolver. A nil Uploader leaves image URLs as provided.
func New(cfg Config) *Resolver {
	return &Resolver{
		itemsFile: strings.TrimSpace(cfg.ItemsFile),
		imagesDir: strings.TrimSpace(cfg.ImagesDir),
		uploader:  cfg.Uploader,
		log:       logger.Ensure(cfg.Log),
	}
}

// manifest is the items file written by the rendering stage.
type manifest struct {
	Items []domain.SummarizedItem `json:"items" yaml:"items"`
}

// Items returns the summarized items ordered by rank. Items sharing a rank
// keep their input order.
func (r *Resolver) Items() ([]domain.SummarizedItem, error) {
	var (
		items []domain.SummarizedItem
		err   error
	)
	switch {
	case r.itemsFile != "":
		items, err = loadManifest(r.itemsFile)
	case r.imagesDir != "":
		items, err = scanDir(r.imagesDir)
	default:
		return nil, &InputError{Path: "-", Reason: "neither items file nor images directory configured"}
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Rank < items[j].Rank })
	for _, item := range items {
		if err := checkArtifact(item.Image.Path); err != nil {
			return nil, err
		}
	}

	r.log.InfoObj("summarized items loaded", "imageset_items", map[string]any{
		"count":  len(items),
		"source": r.source(),
	})
	return items, nil
}

func (r *Resolver) source() string {
	if r.itemsFile != "" {
		return r.itemsFile
	}
	return r.imagesDir
}

// Resolve confirms every artifact still exists and, when an Uploader is
// configured, fills in missing URLs. A failed upload leaves the URL empty so
// only platforms that fetch by URL fail for that post. Posts are returned as
// new values; the input is not modified.
func (r *Resolver) Resolve(ctx context.Context, posts []domain.Post) ([]domain.Post, error) {
	out := make([]domain.Post, 0, len(posts))
	for _, post := range posts {
		resolved := domain.Post{
			Index:   post.Index,
			ItemIDs: append([]string(nil), post.ItemIDs...),
			Images:  make([]domain.ImageRef, 0, len(post.Images)),
		}
		for _, img := range post.Images {
			if err := checkArtifact(img.Path); err != nil {
				return nil, err
			}
			if img.URL == "" && r.uploader != nil {
				url, err := r.uploader.Upload(ctx, img)
				switch {
				case ctx.Err() != nil:
					return nil, ctx.Err()
				case err != nil:
					r.log.WarnObj("image hosting failed", "imageset_upload", map[string]any{
						"post_index": post.Index,
						"path":       img.Path,
						"error":      err.Error(),
					})
				default:
					img.URL = url
				}
			}
			resolved.Images = append(resolved.Images, img)
		}
		out = append(out, resolved)
	}

	r.log.DebugObj("posts resolved", "imageset_resolved", map[string]any{"posts": len(out)})
	return out, nil
}

func loadManifest(path string) ([]domain.SummarizedItem, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Reason: "open items file", Err: err}
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, &InputError{Path: path, Reason: "read items file", Err: err}
	}

	m, err := parseManifest(raw, filepath.Ext(path))
	if err != nil {
		return nil, &InputError{Path: path, Reason: "decode items file", Err: err}
	}

	base := filepath.Dir(path)
	for i := range m.Items {
		item := &m.Items[i]
		item.ID = strings.TrimSpace(item.ID)
		item.Image.Path = strings.TrimSpace(item.Image.Path)
		item.Image.URL = strings.TrimSpace(item.Image.URL)
		if item.ID == "" {
			item.ID = fmt.Sprintf("item-%d", i+1)
		}
		if item.Image.Path == "" {
			return nil, &InputError{Path: path, Reason: fmt.Sprintf("items[%d] has no image path", i)}
		}
		if !filepath.IsAbs(item.Image.Path) {
			item.Image.Path = filepath.Join(base, item.Image.Path)
		}
	}
	return m.Items, nil
}

// parseManifest picks a decoder from the extension, trying YAML then JSON
// when the extension is unknown.
func parseManifest(data []byte, ext string) (manifest, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		ext string
		fn  func([]byte, any) error
	}{
		{ext: ".yaml", fn: yaml.Unmarshal},
		{ext: ".yml", fn: yaml.Unmarshal},
		{ext: ".json", fn: json.Unmarshal},
	}

	known := false
	for _, d := range decoders {
		if ext == d.ext {
			known = true
			break
		}
	}

	var lastErr error
	for _, d := range decoders {
		if known && ext != d.ext {
			continue
		}
		var m manifest
		if err := d.fn(data, &m); err != nil {
			lastErr = err
			continue
		}
		return m, nil
	}
	if lastErr == nil {
		lastErr = errors.New("format not recognized (expected YAML or JSON)")
	}
	return manifest{}, lastErr
}

// scanDir ranks PNG files by file name, the convention of the renderer.
func scanDir(dir string) ([]domain.SummarizedItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &InputError{Path: dir, Reason: "read images directory", Err: err}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	items := make([]domain.SummarizedItem, 0, len(names))
	for i, name := range names {
		items = append(items, domain.SummarizedItem{
			ID:    strings.TrimSuffix(name, filepath.Ext(name)),
			Rank:  i + 1,
			Image: domain.ImageRef{Path: filepath.Join(dir, name)},
		})
	}
	return items, nil
}

func checkArtifact(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &InputError{Path: path, Reason: "image artifact missing", Err: err}
	}
	if info.IsDir() {
		return &InputError{Path: path, Reason: "image artifact is a directory"}
	}
	if info.Size() == 0 {
		return &InputError{Path: path, Reason: "image artifact is empty"}
	}
	return nil
}
