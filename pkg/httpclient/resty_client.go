package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// Option customizes a RestyClient.
type Option func(*RestyClient)

// WithMinInterval spaces consecutive requests at least interval apart.
// Zero or negative disables pacing.
func WithMinInterval(interval time.Duration) Option {
	return func(r *RestyClient) {
		if interval <= 0 {
			r.limiter = nil
			return
		}
		r.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(r *RestyClient) {
		if ua != "" {
			r.client.SetHeader("User-Agent", ua)
		}
	}
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration, opts ...Option) *RestyClient {
	r := &RestyClient{client: newRestyBaseClient(timeout)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
// Retries are owned by callers, so resty's own retry is left disabled.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetRetryCount(0)
	return c
}

// Get performs an HTTP GET request with the given query parameters.
func (r *RestyClient) Get(ctx context.Context, url string, query map[string]string) (Response, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	req := r.client.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// PostForm performs an application/x-www-form-urlencoded POST.
func (r *RestyClient) PostForm(ctx context.Context, url string, form map[string]string) (Response, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// PostFile performs a multipart POST carrying the file at path under field.
func (r *RestyClient) PostFile(ctx context.Context, url string, form map[string]string, field, path string) (Response, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetMultipartFormData(form).
		SetFile(field, path).
		Post(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

func (r *RestyClient) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pace request: %w", err)
	}
	return nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
