// Package client talks to the task server's JSON API on behalf of the desktop UI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"taskpad/pkg/task"
)

// Client keeps one session for its lifetime through a cookie jar.
type Client struct {
	base string
	http *http.Client
}

// ActionRequest is the body of POST /api/tasks/actions.
type ActionRequest struct {
	Action      string `json:"action"`
	TaskID      string `json:"task_id,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

// New creates a Client for the server at base, e.g. "http://localhost:8080/".
func New(base string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: strings.TrimSuffix(base, "/") + "/",
		http: &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}, nil
}

func (c *Client) url(path string, f task.Filter, s task.Sort) string {
	q := url.Values{"filter": {string(f)}, "sort": {string(s)}}
	return c.base + path + "?" + q.Encode()
}

// List fetches the view for f and s.
func (c *Client) List(ctx context.Context, f task.Filter, s task.Sort) (task.View, error) {
	var v task.View
	err := c.do(ctx, http.MethodGet, c.url("api/tasks", f, s), nil, &v)
	return v, err
}

// Act applies req and returns the resulting view for f and s.
func (c *Client) Act(ctx context.Context, req ActionRequest, f task.Filter, s task.Sort) (task.View, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return task.View{}, err
	}
	var v task.View
	err = c.do(ctx, http.MethodPost, c.url("api/tasks/actions", f, s), body, &v)
	return v, err
}

// Reset drops every task of the session.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, c.base+"api/session", nil, nil)
}

func (c *Client) do(ctx context.Context, method, target string, body []byte, v any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s: %s", method, target, resp.Status, strings.TrimSpace(string(data)))
	}
	if v == nil {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Latest orders concurrent fetches: a result is accepted only if no fetch
// started after it has already been accepted.
type Latest struct {
	mu      sync.Mutex
	started uint64
	applied uint64
}

// Begin tags a fetch that is about to start.
func (l *Latest) Begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started++
	return l.started
}

// Accept reports whether the result of fetch seq may replace the current view.
func (l *Latest) Accept(seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq <= l.applied {
		return false
	}
	l.applied = seq
	return true
}

// DeleteGuard requires a second press on the same task before a delete goes through.
type DeleteGuard struct {
	armed string
}

// Press records a press of id's delete button and reports whether to delete now.
func (g *DeleteGuard) Press(id string) bool {
	if g.armed == id {
		g.armed = ""
		return true
	}
	g.armed = id
	return false
}

// Armed reports whether id is waiting for confirmation.
func (g *DeleteGuard) Armed(id string) bool { return id != "" && g.armed == id }

// Disarm cancels a pending confirmation.
func (g *DeleteGuard) Disarm() { g.armed = "" }
