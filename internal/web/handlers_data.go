package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Varen-6/tabular-viewer-test-task/internal/profile"
	"github.com/Varen-6/tabular-viewer-test-task/internal/session"
)

// activityItem is one row of the session's upload listing.
type activityItem struct {
	UploadID  string        `json:"upload_id"`
	Filename  string        `json:"filename"`
	Format    string        `json:"format"`
	State     session.State `json:"state"`
	Failure   *Notification `json:"failure,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// handleListUploads returns the session's uploads in upload order.
func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	acts := sessionFrom(r.Context()).Activities()

	items := make([]activityItem, len(acts))
	for i, a := range acts {
		items[i] = activityItem{
			UploadID:  a.ID,
			Filename:  a.Filename,
			Format:    a.Format.String(),
			State:     a.State,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		}
		if a.Err != nil {
			_, note := Notify(a.Err)
			items[i].Failure = &note
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"uploads": items})
}

// handleGetUpload returns one upload's state, plus whichever of the
// pending question, the preview, or the failure applies.
func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	u, err := sess.Upload(chi.URLParam(r, "uploadID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := uploadResponse{
		UploadID: u.ID,
		Filename: u.Filename,
		Format:   u.Format.String(),
		State:    u.State(),
	}
	switch resp.State {
	case session.StateAwaitingInput:
		resp.Needs = needsFor(u.Request())
	case session.StateFailed:
		_, note := Notify(u.Failure())
		resp.Failure = &note
	default:
		if p, err := u.Preview(); err == nil {
			resp.Preview = p
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetPreview returns the preview alone.
func (s *Server) handleGetPreview(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	u, err := sess.Upload(chi.URLParam(r, "uploadID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	p, err := u.Preview()
	if err != nil {
		respondUploadError(w, r, err, u)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleGetProfile returns per-column statistics for a loaded upload.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	u, err := sess.Upload(chi.URLParam(r, "uploadID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	ds, err := u.Dataset()
	if err != nil {
		respondUploadError(w, r, err, u)
		return
	}

	report, err := profile.Build(ds)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
