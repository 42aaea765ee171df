package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Varen-6/tabular-viewer-test-task/internal/logging"
	"github.com/Varen-6/tabular-viewer-test-task/internal/session"
	"github.com/Varen-6/tabular-viewer-test-task/internal/tabular"
)

// uploadResponse is the JSON shape of a single upload.
type uploadResponse struct {
	UploadID string           `json:"upload_id"`
	Filename string           `json:"filename"`
	Format   string           `json:"format"`
	State    session.State    `json:"state"`
	Needs    *needsPayload    `json:"needs,omitempty"`
	Preview  *tabular.Preview `json:"preview,omitempty"`
	Failure  *Notification    `json:"failure,omitempty"`
}

// needsPayload describes the question a suspended upload is asking.
type needsPayload struct {
	Kind    string   `json:"kind"`
	Options []string `json:"options,omitempty"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

func needsFor(req *tabular.InputRequest) *needsPayload {
	if req == nil {
		return nil
	}
	n := &needsPayload{Kind: string(req.Kind), Options: req.Options}
	if req.Kind == tabular.InputSheet {
		n.Message = "This workbook has multiple sheets"
		return n
	}
	n.Message = delimiterPrompt.Message
	n.Code = delimiterPrompt.Code
	return n
}

// handleUpload accepts one multipart file, stores it in the caller's
// session, and runs it through resolution, loading, and preview. The
// response is 201 with the preview, or 202 with the question the
// resolver needs answered.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.limiter.Acquire(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		if !isMaxBytes(err) {
			err = fmt.Errorf("%w: %v", errBadForm, err)
		}
		respondError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer file.Close()

	sess := sessionFrom(r.Context())
	u, err := sess.SaveUpload(header.Filename, file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger := logging.WithFields(r.Context(), "upload_id", u.ID, "filename", u.Filename)

	if err := u.Run(); err != nil {
		respondUploadError(w, r, err, u)
		return
	}

	logger.Info("upload processed", "format", u.Format.String(), "state", u.State())
	s.respondUpload(w, u, http.StatusCreated, http.StatusAccepted)
}

// inputBody is the answer to a pending request. Exactly one field is
// meaningful; the pending request's kind picks which.
type inputBody struct {
	Delimiter string `json:"delimiter"`
	Sheet     string `json:"sheet"`
}

// handleProvideInput resumes a suspended upload with the caller's
// answer.
func (s *Server) handleProvideInput(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	u, err := sess.Upload(chi.URLParam(r, "uploadID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	var body inputBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", session.ErrEmptyInput, err))
		return
	}

	value := body.Delimiter
	if req := u.Request(); req != nil && req.Kind == tabular.InputSheet {
		value = body.Sheet
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	if err := u.ProvideInput(value); err != nil {
		respondUploadError(w, r, err, u)
		return
	}

	logging.FromContext(r.Context()).Info("upload resumed",
		"upload_id", u.ID, "state", u.State())
	s.respondUpload(w, u, http.StatusOK, http.StatusAccepted)
}

// handleDismissUpload closes an upload and discards its preview.
// Dismissing twice is fine.
func (s *Server) handleDismissUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	u, err := sess.Upload(chi.URLParam(r, "uploadID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	u.Close()
	w.WriteHeader(http.StatusNoContent)
}

// respondUpload writes the upload in its current state: shownStatus
// with the preview when it is ready, awaitingStatus with the pending
// question when the upload is suspended.
func (s *Server) respondUpload(w http.ResponseWriter, u *session.Upload, shownStatus, awaitingStatus int) {
	resp := uploadResponse{
		UploadID: u.ID,
		Filename: u.Filename,
		Format:   u.Format.String(),
		State:    u.State(),
	}

	if resp.State == session.StateAwaitingInput {
		resp.Needs = needsFor(u.Request())
		writeJSON(w, awaitingStatus, resp)
		return
	}

	if p, err := u.Preview(); err == nil {
		resp.Preview = p
	}
	writeJSON(w, shownStatus, resp)
}
