package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"taskpad/internal/export"
	"taskpad/pkg/task"
)

// actionRequest is the JSON form of task.Form.
type actionRequest struct {
	Action      string `json:"action"`
	TaskID      string `json:"task_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type actionResponse struct {
	Changed bool `json:"changed"`
	task.View
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	v := viewFor(r, sess)
	if err := s.sessions.Save(r.Context(), w, sess); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, v)
}

func (s *Server) handleTaskAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}

	sess := s.sessions.Load(r)
	changed := s.tasks.Apply(sess.Tasks, task.Form{
		Action:      task.ParseAction(req.Action),
		TaskID:      req.TaskID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if changed {
		log.Debug().Str("session", sess.ID).Str("action", req.Action).Msg("api: task action")
	}

	v := viewFor(r, sess)
	if err := s.sessions.Save(r.Context(), w, sess); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, actionResponse{Changed: changed, View: v})
}

// handleSessionReset drops every task of the caller's session.
func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	if err := s.sessions.Destroy(r.Context(), w, sess); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := export.Lookup(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}

	sess := s.sessions.Load(r)
	b, err := f.Bytes(viewFor(r, sess))
	if err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("api: export")
		writeError(w, 500, err.Error())
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Filename(s.now())+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b); err != nil {
		log.Debug().Err(err).Msg("api: write export")
	}
}
