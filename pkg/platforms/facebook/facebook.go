// Package facebook publishes posts to a Facebook Page as single photos or
// multi-photo feed posts.
package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/Adda-Baaj/khobor-poster/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-poster/pkg/platforms"
)

const (
	stepUploadPhoto  = "upload unpublished photo"
	stepPublishPhoto = "publish photo"
	stepAlbumPost    = "create album post"
	stepDebugToken   = "debug token"

	requestTimeout = 30 * time.Second
)

// Config wires a Facebook publisher.
type Config struct {
	Client         httpclient.Client
	GraphBase      string
	Retry          platforms.RetryPolicy
	RequiredScopes []string
	Now            func() time.Time
	Log            platforms.Logger
}

// Client implements platforms.Variant for Facebook Pages.
type Client struct {
	graph  *platforms.Graph
	retry  platforms.RetryPolicy
	scopes []string
	now    func() time.Time
	log    platforms.Logger
}

// New constructs a Facebook client.
func New(cfg Config) *Client {
	if cfg.Client == nil {
		cfg.Client = httpclient.NewRestyClient(requestTimeout)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	log := platforms.EnsureLogger(cfg.Log)
	return &Client{
		graph:  platforms.NewGraph(cfg.Client, cfg.GraphBase, domain.PlatformFacebook, log),
		retry:  cfg.Retry,
		scopes: cfg.RequiredScopes,
		now:    cfg.Now,
		log:    log,
	}
}

// Platform identifies the network this client publishes to.
func (c *Client) Platform() domain.Platform { return domain.PlatformFacebook }

// Publish posts one image directly, or uploads every image unpublished and
// references them in order from a single feed post. No caption is sent.
func (c *Client) Publish(ctx context.Context, post domain.Post, cred domain.Credential) (string, error) {
	if err := platforms.CheckPost(post); err != nil {
		return "", err
	}
	for _, img := range post.Images {
		if err := platforms.CheckImage(img); err != nil {
			return "", err
		}
	}

	if post.Size() == 1 {
		return c.publishPhoto(ctx, cred, post.Images[0])
	}

	photoIDs := make([]string, 0, post.Size())
	for _, img := range post.Images {
		id, err := c.uploadUnpublished(ctx, cred, img)
		if err != nil {
			if len(photoIDs) > 0 {
				c.log.WarnObj("unpublished photos left behind", "facebook_orphans", map[string]any{
					"post_index": post.Index,
					"photo_ids":  photoIDs,
				})
			}
			return "", err
		}
		photoIDs = append(photoIDs, id)
	}

	postID, err := c.createAlbumPost(ctx, cred, photoIDs)
	if err != nil {
		c.log.WarnObj("unpublished photos left behind", "facebook_orphans", map[string]any{
			"post_index": post.Index,
			"photo_ids":  photoIDs,
		})
		return "", err
	}
	return postID, nil
}

// publishPhoto is itself the publish step, so only rate-limit rejections retry.
func (c *Client) publishPhoto(ctx context.Context, cred domain.Credential, img domain.ImageRef) (string, error) {
	var out platforms.IDResponse
	_, err := c.retry.Do(ctx, platforms.IsRateLimited, func(ctx context.Context, _ int) error {
		return c.graph.PostFile(ctx, stepPublishPhoto, cred.OwnerID+"/photos", map[string]string{
			"access_token": cred.AccessToken,
			"published":    "true",
		}, "source", img.Path, &out)
	})
	if err != nil {
		return "", err
	}
	id := out.PostID
	if id == "" {
		id = out.ID
	}
	if err := platforms.RequireID(stepPublishPhoto, id); err != nil {
		return "", err
	}
	return id, nil
}

// uploadUnpublished creates a durable unpublished photo; transient failures retry.
func (c *Client) uploadUnpublished(ctx context.Context, cred domain.Credential, img domain.ImageRef) (string, error) {
	var out platforms.IDResponse
	_, err := c.retry.Do(ctx, platforms.IsTransient, func(ctx context.Context, _ int) error {
		return c.graph.PostFile(ctx, stepUploadPhoto, cred.OwnerID+"/photos", map[string]string{
			"access_token": cred.AccessToken,
			"published":    "false",
		}, "source", img.Path, &out)
	})
	if err != nil {
		return "", err
	}
	if err := platforms.RequireID(stepUploadPhoto, out.ID); err != nil {
		return "", err
	}
	return out.ID, nil
}

type attachedMedia struct {
	MediaFBID string `json:"media_fbid"`
}

// createAlbumPost is the aggregating call and the publish step in one.
func (c *Client) createAlbumPost(ctx context.Context, cred domain.Credential, photoIDs []string) (string, error) {
	media := make([]attachedMedia, 0, len(photoIDs))
	for _, id := range photoIDs {
		media = append(media, attachedMedia{MediaFBID: id})
	}
	raw, err := json.Marshal(media)
	if err != nil {
		return "", fmt.Errorf("encode attached_media: %w", err)
	}

	var out platforms.IDResponse
	_, err = c.retry.Do(ctx, platforms.IsRateLimited, func(ctx context.Context, _ int) error {
		return c.graph.PostForm(ctx, stepAlbumPost, cred.OwnerID+"/feed", map[string]string{
			"access_token":   cred.AccessToken,
			"attached_media": string(raw),
		}, &out)
	})
	if err != nil {
		return "", err
	}
	if err := platforms.RequireID(stepAlbumPost, out.ID); err != nil {
		return "", err
	}
	return out.ID, nil
}
