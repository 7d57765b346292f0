// Package platformstest provides a scripted httpclient.Client for exercising
// platform variants without a network.
package platformstest

import (
	"context"
	"strings"
	"sync"

	"github.com/Adda-Baaj/khobor-poster/pkg/httpclient"
)

// Call is one recorded request.
type Call struct {
	Method string
	URL    string
	Params map[string]string
	Field  string
	File   string
}

// Path returns the URL path after the Graph base, e.g. "123/photos".
func (c Call) Path(base string) string {
	return strings.TrimPrefix(strings.TrimPrefix(c.URL, base), "/")
}

// Reply is a scripted answer. A non-nil Err simulates a transport failure.
type Reply struct {
	Status int
	Body   string
	Err    error
}

// Handler answers a call. It receives the zero-based index of the call.
type Handler func(n int, call Call) Reply

// Client records every call and answers with Handler.
type Client struct {
	mu      sync.Mutex
	calls   []Call
	Handler Handler
}

// New returns a Client answering with h.
func New(h Handler) *Client {
	return &Client{Handler: h}
}

// Calls returns a copy of the recorded calls.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *Client) Get(ctx context.Context, url string, query map[string]string) (httpclient.Response, error) {
	return c.do(ctx, Call{Method: "GET", URL: url, Params: copyMap(query)})
}

func (c *Client) PostForm(ctx context.Context, url string, form map[string]string) (httpclient.Response, error) {
	return c.do(ctx, Call{Method: "POST", URL: url, Params: copyMap(form)})
}

func (c *Client) PostFile(ctx context.Context, url string, form map[string]string, field, path string) (httpclient.Response, error) {
	return c.do(ctx, Call{Method: "POST", URL: url, Params: copyMap(form), Field: field, File: path})
}

func (c *Client) do(ctx context.Context, call Call) (httpclient.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	n := len(c.calls)
	c.calls = append(c.calls, call)
	c.mu.Unlock()

	reply := Reply{Status: 200, Body: `{"id":"ok"}`}
	if c.Handler != nil {
		reply = c.Handler(n, call)
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return response{status: reply.Status, body: []byte(reply.Body)}, nil
}

type response struct {
	status int
	body   []byte
}

func (r response) Body() []byte    { return r.body }
func (r response) StatusCode() int { return r.status }

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
