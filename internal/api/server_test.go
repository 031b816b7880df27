package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpad/internal/logger"
	"taskpad/pkg/session"
	"taskpad/pkg/task"
)

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestServer(t *testing.T) (*httptest.Server, *session.MemoryStore) {
	t.Helper()
	var seq atomic.Int64
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	d := task.Dispatcher{
		Now: func() time.Time {
			return start.Add(time.Duration(seq.Load()) * time.Minute)
		},
		NewID: func() string {
			return fmt.Sprintf("t%d", seq.Add(1))
		},
	}
	store := session.NewMemoryStore(session.DefaultTTL)
	srv := httptest.NewServer(logger.Middleware(New(session.NewManager(store), WithDispatcher(d))))
	t.Cleanup(srv.Close)
	return srv, store
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func (c *client) read(resp *http.Response, err error) (int, string) {
	c.t.Helper()
	require.NoError(c.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, string(b)
}

func (c *client) get(path string) (int, string) {
	return c.read(c.http.Get(c.base + path))
}

func (c *client) post(path string, form url.Values) (int, string) {
	return c.read(c.http.PostForm(c.base+path, form))
}

func (c *client) action(body string) (int, actionResponse) {
	c.t.Helper()
	code, out := c.read(c.http.Post(c.base+"/api/tasks/actions", "application/json", strings.NewReader(body)))
	var resp actionResponse
	if code == http.StatusOK {
		require.NoError(c.t, json.Unmarshal([]byte(out), &resp), out)
	}
	return code, resp
}

func add(title, priority string) url.Values {
	return url.Values{"action": {"add"}, "task_title": {title}, "priority": {priority}}
}

func titles(v task.View) []string {
	out := make([]string, 0, len(v.Tasks))
	for _, t := range v.Tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	code, body := newClient(t, srv).get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestPageEmpty(t *testing.T) {
	srv, store := newTestServer(t)
	c := newClient(t, srv)

	code, body := c.get("/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "No tasks yet. Add your first task above!")
	assert.Contains(t, body, `id="count-total">0<`)
	assert.Equal(t, 1, store.Len())

	u, _ := url.Parse(srv.URL)
	cookies := c.http.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, session.DefaultCookieName, cookies[0].Name)
	assert.True(t, session.ValidID(cookies[0].Value))
}

func TestPageAddEscapesOnce(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	form := add("  <script>alert(1)</script>  ", "high")
	form.Set("task_description", `Tom & "Jerry"`)
	code, body := c.post("/", form)
	require.Equal(t, http.StatusOK, code)

	assert.Contains(t, body, `<h3 class="task-title">&lt;script&gt;alert(1)&lt;/script&gt;</h3>`)
	assert.NotContains(t, body, "<script>alert")
	assert.NotContains(t, body, "&amp;lt;")
	assert.Contains(t, body, "Tom &amp; &#34;Jerry&#34;")
	assert.Contains(t, body, `priority-badge priority-high">High<`)
	assert.Contains(t, body, "Created: Mar 1, 2026 9:01 AM")
	assert.Contains(t, body, "Mark Complete")
	assert.Contains(t, body, `id="count-total">1<`)
	assert.Contains(t, body, `id="count-pending">1<`)
	assert.Contains(t, body, `onsubmit="return confirm('Are you sure you want to delete this task?')"`)
}

func TestPageTrimsTitleAndHidesEmptyDescription(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	_, body := c.post("/", add("  padded  ", "urgent"))
	assert.Contains(t, body, `<h3 class="task-title">padded</h3>`)
	assert.Contains(t, body, `value="padded"`)
	assert.Contains(t, body, `priority-badge priority-medium">Medium<`)
	assert.NotContains(t, body, `class="task-description"`)

	_, body = c.post("/", url.Values{
		"action": {"edit"}, "task_id": {"t1"},
		"task_title": {" renamed "}, "task_description": {"now described"}, "priority": {"bogus"},
	})
	assert.Contains(t, body, `<h3 class="task-title">renamed</h3>`)
	assert.Contains(t, body, `<p class="task-description">now described</p>`)
	assert.Contains(t, body, `priority-badge priority-medium">Medium<`)
}

func TestPageActionsPersistAcrossRequests(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	c.post("/", add("Write report", "high"))
	c.post("/", add("Buy milk", "low"))
	c.post("/", url.Values{"action": {"toggle"}, "task_id": {"t1"}})

	_, body := c.get("/?filter=completed")
	assert.Contains(t, body, "Write report")
	assert.NotContains(t, body, "Buy milk")
	assert.Contains(t, body, "Mark Pending")
	assert.Contains(t, body, `id="count-completed">1<`)

	c.post("/", url.Values{
		"action": {"edit"}, "task_id": {"t2"},
		"task_title": {"Buy oat milk"}, "task_description": {"2 cartons"}, "priority": {"medium"},
	})
	_, body = c.get("/?filter=pending&sort=title")
	assert.Contains(t, body, "Buy oat milk")
	assert.Contains(t, body, "2 cartons")
	assert.NotContains(t, body, "Write report")

	c.post("/", url.Values{"action": {"delete"}, "task_id": {"t2"}})
	_, body = c.get("/?filter=pending")
	assert.Contains(t, body, "No pending tasks. Great job!")
}

func TestPagePostKeepsQuery(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	c.post("/", add("Only task", "medium"))
	_, body := c.post("/?filter=pending", url.Values{"action": {"toggle"}, "task_id": {"t1"}})
	assert.Contains(t, body, "No pending tasks. Great job!")
	assert.Contains(t, body, `<option value="pending" selected>`)
}

func TestPageUnknownQueryFallsBack(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	_, body := c.get("/?filter=done&sort=random")
	assert.Contains(t, body, `<option value="all" selected>`)
	assert.Contains(t, body, `<option value="created" selected>`)

	_, body = c.get("/?filter=completed")
	assert.Contains(t, body, "No completed tasks yet. Keep working!")
}

func TestPageIgnoresUnknownAction(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	code, body := c.post("/", url.Values{"action": {"archive"}, "task_title": {"x"}})
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `id="count-total">0<`)
}

func TestSessionsAreIsolated(t *testing.T) {
	srv, _ := newTestServer(t)
	a, b := newClient(t, srv), newClient(t, srv)

	a.post("/", add("Mine", "low"))
	_, body := b.get("/")
	assert.NotContains(t, body, "Mine")
	assert.Contains(t, body, "No tasks yet.")
}

func TestMalformedSessionStartsEmpty(t *testing.T) {
	srv, store := newTestServer(t)
	c := newClient(t, srv)
	c.post("/", add("Lost", "low"))

	u, _ := url.Parse(srv.URL)
	id := c.http.Jar.Cookies(u)[0].Value
	require.NoError(t, store.Save(t.Context(), id, []byte(`{"not":"a list"}`)))

	code, body := c.get("/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "No tasks yet.")
}

func TestAPIActions(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	code, resp := c.action(`{"action":"add","title":"Zebra","priority":"low"}`)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Changed)
	c.action(`{"action":"add","title":"apple","priority":"high"}`)
	c.action(`{"action":"add","title":"Mango"}`)

	code, resp = c.action(`{"action":"toggle","task_id":"nope"}`)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, resp.Changed)
	assert.Equal(t, task.Counts{Total: 3, Pending: 3}, resp.Counts)

	code, out := c.get("/api/tasks?sort=title")
	require.Equal(t, http.StatusOK, code)
	var v task.View
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, task.SortTitle, v.Sort)
	assert.Equal(t, task.FilterAll, v.Filter)
	if diff := cmp.Diff([]string{"apple", "Mango", "Zebra"}, titles(v)); diff != "" {
		t.Errorf("title order (-want +got):\n%s", diff)
	}
	assert.Equal(t, task.Medium, v.Tasks[1].Priority)

	_, out = c.get("/api/tasks?sort=priority")
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	if diff := cmp.Diff([]string{"apple", "Mango", "Zebra"}, titles(v)); diff != "" {
		t.Errorf("priority order (-want +got):\n%s", diff)
	}
}

func TestAPIBadJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	code, _ := newClient(t, srv).action(`{"action":`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAPIEmptyListIsArray(t *testing.T) {
	srv, _ := newTestServer(t)
	_, out := newClient(t, srv).get("/api/tasks")
	assert.Contains(t, out, `"tasks":[]`)
}

func TestSessionReset(t *testing.T) {
	srv, store := newTestServer(t)
	c := newClient(t, srv)
	c.action(`{"action":"add","title":"Temp"}`)
	require.Equal(t, 1, store.Len())

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/session", nil)
	require.NoError(t, err)
	code, _ := c.read(c.http.Do(req))
	assert.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, 0, store.Len())

	_, body := c.get("/")
	assert.Contains(t, body, "No tasks yet.")
}

func TestExport(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)
	c.action(`{"action":"add","title":"Ship it","description":"v1, final","priority":"high"}`)

	resp, err := c.http.Get(srv.URL + "/export?format=csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `attachment; filename="tasks-`)
	assert.Equal(t, "Title,Description,Priority,Status,Created\nShip it,\"v1, final\",High,Pending,\"Mar 1, 2026 9:01 AM\"\n", string(b))
}

func TestExportUnknownFormat(t *testing.T) {
	srv, _ := newTestServer(t)
	code, body := newClient(t, srv).get("/export?format=docx")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "unknown export format")
}
