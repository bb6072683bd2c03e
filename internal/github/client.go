package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

// Client wraps an authenticated go-github client and counts the HTTP
// requests it issues, so callers can report how many API calls a batched
// resolution actually needed.
type Client struct {
	Client   *github.Client
	HTTP     *http.Client
	requests atomic.Int64
}

type options struct {
	verbose bool
	// writer receives verbose HTTP logs (typically stderr) so output on
	// stdout stays clean and tests can capture logs.
	writer io.Writer
}

type Option func(*options)

func WithVerbose(enabled bool, writer io.Writer) Option {
	return func(o *options) {
		o.verbose = enabled
		o.writer = writer
	}
}

// countingRoundTripper wraps an underlying transport, counts requests and
// optionally emits one line per request and response (including latency).
type countingRoundTripper struct {
	base  http.RoundTripper
	count *atomic.Int64
	w     io.Writer
}

func (t *countingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	t.count.Add(1)
	start := time.Now()
	if t.w != nil {
		_, _ = fmt.Fprintf(t.w, "[verbose] github api: %s %s\n", req.Method, req.URL.String())
	}
	resp, err := t.base.RoundTrip(req)
	if t.w != nil {
		dur := time.Since(start).Truncate(time.Millisecond)
		if err != nil {
			_, _ = fmt.Fprintf(t.w, "[verbose] github api: error after %s: %v\n", dur, err)
		} else {
			_, _ = fmt.Fprintf(t.w, "[verbose] github api: %d %s (%s)\n", resp.StatusCode, http.StatusText(resp.StatusCode), dur)
		}
	}
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.writer == nil {
		o.writer = os.Stderr
	}

	c := &Client{}

	transport := http.RoundTripper(http.DefaultTransport)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	crt := &countingRoundTripper{base: transport, count: &c.requests}
	if o.verbose {
		crt.w = o.writer
	}

	c.HTTP = &http.Client{Transport: crt}
	c.Client = github.NewClient(c.HTTP)
	return c, nil
}

// Requests returns how many HTTP requests this client has issued so far.
func (c *Client) Requests() int64 {
	if c == nil {
		return 0
	}
	return c.requests.Load()
}
