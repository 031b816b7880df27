package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"taskpad/pkg/task"
)

// DefaultCookieName is the name of the session cookie.
const DefaultCookieName = "taskpad_session"

// Session is the state of one browser session for the duration of a request.
type Session struct {
	ID    string
	Tasks *task.List
	IsNew bool
}

// Manager loads and saves task lists keyed by the session cookie.
type Manager struct {
	store  Store
	cookie string
	secure bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithCookieName overrides DefaultCookieName.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookie = name
		}
	}
}

// WithSecureCookie marks the cookie Secure (HTTPS only).
func WithSecureCookie(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

// NewManager creates a Manager over store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{store: store, cookie: DefaultCookieName}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Load returns the session for r. A missing or invalid cookie starts a new
// session. Missing, expired or unreadable state yields an empty task list.
func (m *Manager) Load(r *http.Request) *Session {
	ctx := r.Context()
	c, err := r.Cookie(m.cookie)
	if err != nil || !ValidID(c.Value) {
		return &Session{ID: NewID(), Tasks: task.NewList(nil), IsNew: true}
	}

	s := &Session{ID: c.Value}
	data, err := m.store.Load(ctx, s.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		s.Tasks = task.NewList(nil)
		return s
	case err != nil:
		log.Warn().Err(err).Str("session", s.ID).Msg("session: load failed, starting empty")
		s.Tasks = task.NewList(nil)
		return s
	}

	tasks, err := Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("session", s.ID).Msg("session: malformed state, starting empty")
		s.Tasks = task.NewList(nil)
		return s
	}
	s.Tasks = task.NewList(tasks)
	return s
}

// Save persists s and refreshes the session cookie on w. It must run before
// the response header is written.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	data, err := Encode(s.Tasks.All())
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, s.ID, data); err != nil {
		return err
	}
	if s.IsNew {
		log.Info().Str("session", s.ID).Msg("session: started")
		s.IsNew = false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Destroy forgets the session and expires its cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// RunGC purges expired sessions every interval until ctx is cancelled.
func (m *Manager) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("session: gc stopped")
			return
		case <-ticker.C:
			n, err := m.store.GC(ctx)
			if err != nil {
				log.Error().Err(err).Msg("session: gc failed")
				continue
			}
			if n > 0 {
				log.Info().Int("removed", n).Msg("session: gc")
			}
		}
	}
}

// Encode serialises a task list for storage.
func Encode(tasks []task.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return data, nil
}

// Decode parses stored session data. Empty data is an empty list.
func Decode(data []byte) ([]task.Task, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	for i, t := range tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("decode tasks: task %d has no id", i)
		}
		tasks[i].Priority = task.ParsePriority(string(t.Priority))
	}
	return tasks, nil
}
