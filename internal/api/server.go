package api

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"taskpad/internal/export"
	"taskpad/pkg/session"
	"taskpad/pkg/task"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the HTTP front end of the task manager.
type Server struct {
	sessions *session.Manager
	tasks    task.Dispatcher
	page     *template.Template
	mux      *http.ServeMux
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithDispatcher replaces the default task.Dispatcher (clock and ID source).
func WithDispatcher(d task.Dispatcher) Option {
	return func(s *Server) { s.tasks = d }
}

// WithClock sets the clock used for export file names.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new Server.
func New(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		mux:      http.NewServeMux(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.page = template.Must(template.New("page.html").Funcs(template.FuncMap{
		"created": func(t time.Time) string { return t.Format(export.TimeLayout) },
	}).ParseFS(templateFS, "templates/page.html"))
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Page
	s.mux.HandleFunc("GET /{$}", s.handlePage)
	s.mux.HandleFunc("POST /{$}", s.handlePage)

	// Tasks
	s.mux.HandleFunc("GET /api/tasks", s.handleTaskList)
	s.mux.HandleFunc("POST /api/tasks/actions", s.handleTaskAction)
	s.mux.HandleFunc("DELETE /api/session", s.handleSessionReset)
	s.mux.HandleFunc("GET /export", s.handleExport)

	// System
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

// viewFor derives the view requested by the filter and sort query parameters.
func viewFor(r *http.Request, sess *session.Session) task.View {
	q := r.URL.Query()
	return task.NewView(sess.Tasks.All(), task.ParseFilter(q.Get("filter")), task.ParseSort(q.Get("sort")))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("api: write json")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
