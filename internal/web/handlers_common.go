package web

import (
	"errors"
	"net/http"

	"github.com/Varen-6/tabular-viewer-test-task/internal/logging"
	"github.com/Varen-6/tabular-viewer-test-task/internal/session"
	"github.com/Varen-6/tabular-viewer-test-task/internal/tabular"
)

// handleIndex serves the embedded single-page UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleFormats returns the closed set of supported formats.
func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"formats": tabular.Formats()})
}

// healthResponse is the liveness payload.
type healthResponse struct {
	Status   string                `json:"status"`
	Sessions int                   `json:"sessions"`
	Uploads  session.LimiterStatus `json:"uploads"`
}

// handleHealth reports liveness and the processing-slot snapshot.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Sessions: s.sessions.Count(),
		Uploads:  s.limiter.Status(),
	})
}

// handleEndSession tears down the caller's session, removing its
// working directory and every upload in it.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	err := s.sessions.CloseSession(sess.ID)
	if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("session ended", "session_id", sess.ID)
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
