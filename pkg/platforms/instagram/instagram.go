// Package instagram publishes posts to an Instagram professional account as
// single images or carousels through media containers.
package instagram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/Adda-Baaj/khobor-poster/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-poster/pkg/platforms"
)

const (
	stepCreateContainer = "create media container"
	stepCreateCarousel  = "create carousel container"
	stepContainerStatus = "container status"
	stepPublish         = "publish media"
	stepCheckAccount    = "check account"

	statusFinished = "FINISHED"
	statusError    = "ERROR"
	statusExpired  = "EXPIRED"

	requestTimeout      = 30 * time.Second
	defaultPollAttempts = 10
	defaultPollInterval = 2 * time.Second
)

// Config wires an Instagram publisher.
type Config struct {
	Client       httpclient.Client
	GraphBase    string
	Retry        platforms.RetryPolicy
	PollAttempts int
	PollInterval time.Duration
	Log          platforms.Logger
}

// Client implements platforms.Variant for Instagram.
type Client struct {
	graph        *platforms.Graph
	retry        platforms.RetryPolicy
	pollAttempts int
	pollInterval time.Duration
	log          platforms.Logger
}

// New constructs an Instagram client.
func New(cfg Config) *Client {
	if cfg.Client == nil {
		cfg.Client = httpclient.NewRestyClient(requestTimeout)
	}
	if cfg.PollAttempts < 1 {
		cfg.PollAttempts = defaultPollAttempts
	}
	if cfg.PollInterval < 0 {
		cfg.PollInterval = defaultPollInterval
	}
	log := platforms.EnsureLogger(cfg.Log)
	return &Client{
		graph:        platforms.NewGraph(cfg.Client, cfg.GraphBase, domain.PlatformInstagram, log),
		retry:        cfg.Retry,
		pollAttempts: cfg.PollAttempts,
		pollInterval: cfg.PollInterval,
		log:          log,
	}
}

// Platform identifies the network this client publishes to.
func (c *Client) Platform() domain.Platform { return domain.PlatformInstagram }

// Publish creates a container per image (one for a single image, children
// plus a carousel parent otherwise) and publishes the top-level container.
// Instagram fetches media by URL, so every image must already be hosted.
func (c *Client) Publish(ctx context.Context, post domain.Post, cred domain.Credential) (string, error) {
	if err := platforms.CheckPost(post); err != nil {
		return "", err
	}
	for _, img := range post.Images {
		if strings.TrimSpace(img.URL) == "" {
			return "", &platforms.PlatformError{
				Kind:    domain.KindMissingMedia,
				Step:    stepCreateContainer,
				Message: fmt.Sprintf("image %q has no hosted url", img.Path),
			}
		}
	}

	if post.Size() == 1 {
		containerID, err := c.createContainer(ctx, cred, post.Images[0], false)
		if err != nil {
			return "", err
		}
		return c.publish(ctx, cred, containerID)
	}

	children := make([]string, 0, post.Size())
	for _, img := range post.Images {
		id, err := c.createContainer(ctx, cred, img, true)
		if err != nil {
			return "", err
		}
		children = append(children, id)
	}

	parentID, err := c.createCarousel(ctx, cred, children)
	if err != nil {
		return "", err
	}
	if err := c.waitReady(ctx, cred, parentID); err != nil {
		return "", err
	}
	return c.publish(ctx, cred, parentID)
}

func (c *Client) createContainer(ctx context.Context, cred domain.Credential, img domain.ImageRef, carouselItem bool) (string, error) {
	form := map[string]string{
		"access_token": cred.AccessToken,
		"image_url":    img.URL,
	}
	if carouselItem {
		form["is_carousel_item"] = "true"
	}
	return c.create(ctx, stepCreateContainer, cred, form)
}

func (c *Client) createCarousel(ctx context.Context, cred domain.Credential, children []string) (string, error) {
	return c.create(ctx, stepCreateCarousel, cred, map[string]string{
		"access_token": cred.AccessToken,
		"media_type":   "CAROUSEL",
		"children":     strings.Join(children, ","),
	})
}

// create is safe to retry on any transient failure: an unused container
// simply expires on the platform side.
func (c *Client) create(ctx context.Context, step string, cred domain.Credential, form map[string]string) (string, error) {
	var out platforms.IDResponse
	_, err := c.retry.Do(ctx, platforms.IsTransient, func(ctx context.Context, _ int) error {
		return c.graph.PostForm(ctx, step, cred.OwnerID+"/media", form, &out)
	})
	if err != nil {
		return "", err
	}
	if err := platforms.RequireID(step, out.ID); err != nil {
		return "", err
	}
	return out.ID, nil
}

// publish is sent at most once per post unless the platform explicitly
// rate-limits it.
func (c *Client) publish(ctx context.Context, cred domain.Credential, containerID string) (string, error) {
	var out platforms.IDResponse
	_, err := c.retry.Do(ctx, platforms.IsRateLimited, func(ctx context.Context, _ int) error {
		return c.graph.PostForm(ctx, stepPublish, cred.OwnerID+"/media_publish", map[string]string{
			"access_token": cred.AccessToken,
			"creation_id":  containerID,
		}, &out)
	})
	if err != nil {
		return "", err
	}
	if err := platforms.RequireID(stepPublish, out.ID); err != nil {
		return "", err
	}
	return out.ID, nil
}

type containerStatus struct {
	ID         string `json:"id"`
	StatusCode string `json:"status_code"`
	Status     string `json:"status"`
}

// waitReady polls the carousel container until its children are processed.
func (c *Client) waitReady(ctx context.Context, cred domain.Credential, containerID string) error {
	var lastErr error
	for poll := 1; poll <= c.pollAttempts; poll++ {
		var out containerStatus
		err := c.graph.Get(ctx, stepContainerStatus, containerID, map[string]string{
			"access_token": cred.AccessToken,
			"fields":       "status_code,status",
		}, &out)
		switch {
		case err != nil && !platforms.IsTransient(err):
			return err
		case err != nil:
			lastErr = err
		case out.StatusCode == statusFinished:
			return nil
		case out.StatusCode == statusError, out.StatusCode == statusExpired:
			return &platforms.PlatformError{
				Kind:    domain.KindMalformedMedia,
				Step:    stepContainerStatus,
				Message: fmt.Sprintf("container %s is %s: %s", containerID, out.StatusCode, out.Status),
			}
		}

		if poll == c.pollAttempts {
			break
		}
		if err := wait(ctx, c.pollInterval); err != nil {
			return &platforms.PlatformError{Kind: domain.KindCancelled, Step: stepContainerStatus, Message: "cancelled while waiting for container", Err: err}
		}
	}

	msg := fmt.Sprintf("container %s not ready after %d checks", containerID, c.pollAttempts)
	if lastErr != nil {
		msg += ": " + lastErr.Error()
	}
	return &platforms.PlatformError{Kind: domain.KindTimeout, Step: stepContainerStatus, Message: msg, Err: lastErr}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
