package web

// errors.go turns failures into JSON error responses. The technical
// error is logged server-side with the request ID; the client receives
// the mapped notification only.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Varen-6/tabular-viewer-test-task/internal/logging"
	"github.com/Varen-6/tabular-viewer-test-task/internal/session"
)

// errorResponse is the JSON body of every error. Error duplicates
// Message for clients that only look at the conventional field.
type errorResponse struct {
	Error    string        `json:"error"`
	Message  string        `json:"message"`
	Action   string        `json:"action,omitempty"`
	Code     string        `json:"code"`
	UploadID string        `json:"upload_id,omitempty"`
	State    session.State `json:"state,omitempty"`
}

// respondError maps err and writes the notification.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, note := Notify(err)
	logError(r, err, status, note)
	writeJSON(w, status, errorResponse{
		Error:   note.Message,
		Message: note.Message,
		Action:  note.Action,
		Code:    note.Code,
	})
}

// respondUploadError is respondError for failures tied to a known
// upload, so the client can correlate the notification with its list.
func respondUploadError(w http.ResponseWriter, r *http.Request, err error, u *session.Upload) {
	status, note := Notify(err)
	logError(r, err, status, note)
	writeJSON(w, status, errorResponse{
		Error:    note.Message,
		Message:  note.Message,
		Action:   note.Action,
		Code:     note.Code,
		UploadID: u.ID,
		State:    u.State(),
	})
}

func logError(r *http.Request, err error, status int, note Notification) {
	logging.FromContext(r.Context()).Error("request error",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"code", note.Code,
		"error", err.Error(),
	)
}

// writeJSON writes v with the given status. Encoding failures are
// logged; the header is already gone by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
