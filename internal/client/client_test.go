package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpad/internal/api"
	"taskpad/pkg/session"
	"taskpad/pkg/task"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(api.New(session.NewManager(session.NewMemoryStore(time.Hour))))
	t.Cleanup(srv.Close)
	return srv
}

func titles(v task.View) []string {
	out := make([]string, 0, len(v.Tasks))
	for _, t := range v.Tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestClientRoundTrip(t *testing.T) {
	srv := newServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Act(ctx, ActionRequest{Action: "add", Title: "beta", Priority: "low"}, task.FilterAll, task.SortCreated)
	require.NoError(t, err)
	v, err := c.Act(ctx, ActionRequest{Action: "add", Title: "Alpha", Priority: "high"}, task.FilterAll, task.SortTitle)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"Alpha", "beta"}, titles(v)); diff != "" {
		t.Errorf("title order (-want +got):\n%s", diff)
	}

	v, err = c.Act(ctx, ActionRequest{Action: "toggle", TaskID: v.Tasks[1].ID}, task.FilterCompleted, task.SortCreated)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, titles(v))
	assert.Equal(t, task.Counts{Total: 2, Completed: 1, Pending: 1}, v.Counts)

	require.NoError(t, c.Reset(ctx))
	v, err = c.List(ctx, task.FilterAll, task.SortCreated)
	require.NoError(t, err)
	assert.Empty(t, v.Tasks)
}

func TestClientSessionsAreSeparate(t *testing.T) {
	srv := newServer(t)
	a, err := New(srv.URL + "/")
	require.NoError(t, err)
	b, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = a.Act(ctx, ActionRequest{Action: "add", Title: "mine"}, task.FilterAll, task.SortCreated)
	require.NoError(t, err)

	v, err := b.List(ctx, task.FilterAll, task.SortCreated)
	require.NoError(t, err)
	assert.Empty(t, v.Tasks)
}

func TestClientReportsHTTPErrors(t *testing.T) {
	srv := newServer(t)
	c, err := New(srv.URL + "/missing")
	require.NoError(t, err)

	_, err = c.List(context.Background(), task.FilterAll, task.SortCreated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLatestDropsStaleResults(t *testing.T) {
	var l Latest
	poll := l.Begin()
	action := l.Begin()

	assert.True(t, l.Accept(action))
	assert.False(t, l.Accept(poll), "poll started before the action finished after it")

	next := l.Begin()
	assert.True(t, l.Accept(next))
}

func TestDeleteGuard(t *testing.T) {
	var g DeleteGuard

	assert.False(t, g.Press("a"))
	assert.True(t, g.Armed("a"))

	assert.False(t, g.Press("b"), "pressing another task re-arms instead of deleting")
	assert.False(t, g.Armed("a"))
	assert.True(t, g.Press("b"))
	assert.False(t, g.Armed("b"))

	assert.False(t, g.Press("c"))
	g.Disarm()
	assert.False(t, g.Press("c"))
}
