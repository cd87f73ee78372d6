package story

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultEndpoint is the run-script endpoint of a local storywriter server.
const DefaultEndpoint = "http://127.0.0.1:3000/api/run-script"

// ErrStartFailed reports that the server did not accept a run.
var ErrStartFailed = errors.New("story: failed to start generation")

// HTTPDoer abstracts HTTP clients used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Starter opens the event stream of a new run.
type Starter interface {
	Start(ctx context.Context, req Request) (io.ReadCloser, error)
}

// Client submits story requests to the run-script endpoint.
type Client struct {
	Endpoint string
	HTTP     HTTPDoer
}

// NewClient constructs a client for endpoint.
func NewClient(endpoint string, doer HTTPDoer) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("story: endpoint must be an http(s) URL: %q", endpoint)
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{Endpoint: endpoint, HTTP: doer}, nil
}

// Start sends one request and returns the streaming response body.
func (c *Client) Start(ctx context.Context, req Request) (io.ReadCloser, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(req.Normalized())
	if err != nil {
		return nil, fmt.Errorf("story: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("story: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStartFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d: %s", ErrStartFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, fmt.Errorf("%w: response has no body", ErrStartFailed)
	}
	return resp.Body, nil
}
