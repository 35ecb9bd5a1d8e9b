package peer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jpalmerr/taskpulse/internal/task"
)

const maxResponseBodySize = 1 << 20 // 1MB

// DefaultTimeout bounds a share or merge exchange when no timeout is
// configured. A peer that does not answer within the bound fails the call;
// it never hangs the caller.
const DefaultTimeout = 30 * time.Second

// connection pooling limits to prevent resource exhaustion when exchanging
// with many peers
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Client performs the two peer reconciliation operations against remote
// instances: pull a full task snapshot ("share") and push tasks ("merge").
//
// Client uses per-request timeouts via context rather than a global client
// timeout, so a single slow peer cannot wedge unrelated exchanges. Response
// bodies are limited to 1MB.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a peer [Client]. A non-positive timeout selects
// [DefaultTimeout].
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		timeout: timeout,
	}
}

// wire shapes of the peer dispatch surface
type shareRequest struct {
	ShareTasks string `json:"share_tasks"`
}

type mergeRequest struct {
	MergeTasks []task.Task `json:"merge_tasks"`
}

// Share fetches the full task snapshot from the peer at addr.
//
// Share never mutates state on either side. The returned slice is never
// nil. Any failure (dial, timeout, non-2xx status, undecodable body) is
// returned as an error naming the peer.
func (c *Client) Share(ctx context.Context, addr string) ([]task.Task, error) {
	body, err := c.post(ctx, addr, shareRequest{ShareTasks: "sync"})
	if err != nil {
		return nil, fmt.Errorf("share from %s: %w", addr, err)
	}

	var tasks []task.Task
	if err := json.Unmarshal(body, &tasks); err != nil {
		return nil, fmt.Errorf("share from %s: failed to decode tasks: %w", addr, err)
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, nil
}

// Merge pushes tasks into the peer at addr. The peer appends them to its
// own store without deduplication.
func (c *Client) Merge(ctx context.Context, addr string, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	if _, err := c.post(ctx, addr, mergeRequest{MergeTasks: tasks}); err != nil {
		return fmt.Errorf("merge into %s: %w", addr, err)
	}
	return nil
}

// post sends one dispatch object to the peer endpoint and returns the
// response body on success.
func (c *Client) post(ctx context.Context, addr string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peerURL(addr), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// error payloads are JSON-encoded strings
		var msg string
		if err := json.Unmarshal(body, &msg); err != nil || msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("peer returned status %d: %s", resp.StatusCode, msg)
	}
	return body, nil
}

// peerURL normalizes a peer address into the URL of its peer endpoint.
// Bare host:port addresses get an http scheme; full URLs are used as-is.
func peerURL(addr string) string {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return strings.TrimRight(base, "/") + "/peer"
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close the client remains usable; new
// connections are established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
