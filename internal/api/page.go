package api

import (
	"bytes"
	"net/http"

	"github.com/rs/zerolog/log"

	"taskpad/pkg/task"
)

type option struct {
	Value string
	Label string
}

var (
	filterOptions = []option{
		{string(task.FilterAll), "All Tasks"},
		{string(task.FilterPending), "Pending"},
		{string(task.FilterCompleted), "Completed"},
	}
	sortOptions = []option{
		{string(task.SortCreated), "Date Created"},
		{string(task.SortPriority), "Priority"},
		{string(task.SortTitle), "Title"},
	}
	priorityOptions = []option{
		{string(task.Low), task.Low.Label()},
		{string(task.Medium), task.Medium.Label()},
		{string(task.High), task.High.Label()},
	}
)

type pageData struct {
	task.View
	Filters    []option
	Sorts      []option
	Priorities []option
	Empty      string
}

// formFrom reads a mutation from the urlencoded request body.
func formFrom(r *http.Request) task.Form {
	return task.Form{
		Action:      task.ParseAction(r.PostFormValue("action")),
		TaskID:      r.PostFormValue("task_id"),
		Title:       r.PostFormValue("task_title"),
		Description: r.PostFormValue("task_description"),
		Priority:    r.PostFormValue("priority"),
	}
}

// handlePage serves the task page. A POST applies at most one mutation before
// the page is rendered from the same request.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			log.Warn().Err(err).Str("session", sess.ID).Msg("api: unreadable form, ignoring")
		} else {
			f := formFrom(r)
			if s.tasks.Apply(sess.Tasks, f) {
				log.Debug().Str("session", sess.ID).Str("action", string(f.Action)).Msg("api: task action")
			}
		}
	}

	v := viewFor(r, sess)
	var buf bytes.Buffer
	err := s.page.Execute(&buf, pageData{
		View:       v,
		Filters:    filterOptions,
		Sorts:      sortOptions,
		Priorities: priorityOptions,
		Empty:      v.Filter.EmptyMessage(),
	})
	if err != nil {
		log.Error().Err(err).Msg("api: render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := s.sessions.Save(r.Context(), w, sess); err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("api: save session")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Debug().Err(err).Msg("api: write page")
	}
}
