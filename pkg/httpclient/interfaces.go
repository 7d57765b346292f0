package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, query map[string]string) (Response, error)
	PostForm(ctx context.Context, url string, form map[string]string) (Response, error)
	PostFile(ctx context.Context, url string, form map[string]string, field, path string) (Response, error)
}
