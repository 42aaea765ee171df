// Package web provides the HTTP server and JSON API for the tabular
// upload and preview application.
//
// # Error Codes Reference
//
// Every failure that reaches the HTTP boundary is converted into a
// notification with a stable code. Users can quote the code to support
// staff for faster diagnosis.
//
// # Format Errors (FMT001)
//
//	FMT001 - Unsupported format: the file extension is not recognized
//	         Action: Upload one of the supported formats (see /api/formats)
//	         HTTP: 415
//
// # Delimiter Errors (DLM001-DLM002)
//
//	DLM001 - Delimiter detection failed. Never surfaced as an error:
//	         it becomes the delimiter prompt on a 202 response, with
//	         this code attached so the UI can explain why it is asking.
//
//	DLM002 - Parse failure: the file could not be parsed with the
//	         chosen delimiter
//	         Action: Check the file's structure and quoting
//	         HTTP: 422
//
// # Sheet Errors (SHT001-SHT002)
//
//	SHT001 - Sheet read failure: the workbook or chosen sheet could not
//	         be read
//	         Action: Re-save the workbook and try again
//	         HTTP: 422
//
//	SHT002 - Sheet not offered: the submitted sheet name was not among
//	         the offered options. The upload keeps waiting; the single
//	         resume is not consumed.
//	         Action: Pick one of the listed sheet names
//	         HTTP: 400
//
// # Statistical File Errors (SAS001)
//
//	SAS001 - Stat file read failure: the SAS dataset or transport file
//	         could not be decoded
//	         Action: Verify the file was exported completely
//	         HTTP: 422
//
// # File Errors (FILE001-FILE003)
//
//	FILE001 - Empty file: the uploaded file has no content
//	          Action: Upload a file with at least one row
//	          HTTP: 422
//
//	FILE002 - File too large: the upload exceeds the size limit
//	          Action: Upload a smaller file
//	          HTTP: 413
//
//	FILE003 - No file: the request carried no file field, or the
//	          multipart form could not be parsed
//	          Action: Choose a file before submitting
//	          HTTP: 400
//
// # Input Errors (INP001)
//
//	INP001 - Missing input value: the answer was empty or absent. The
//	         upload keeps waiting; the single resume is not consumed.
//	         Action: Provide a delimiter or sheet name
//	         HTTP: 400
//
// # Upload Lifecycle Errors (UPL001-UPL005)
//
//	UPL001 - Not found: no upload (or session) with this id
//	         Action: The upload may have expired; start a new one
//	         HTTP: 404
//
//	UPL002 - Closed: the upload was already dismissed
//	         Action: Start a new upload
//	         HTTP: 410
//
//	UPL003 - Input not expected: the upload is not waiting for input
//	         Action: Check the upload state
//	         HTTP: 409
//
//	UPL004 - System busy: all processing slots are occupied
//	         Action: Wait a moment and try again
//	         HTTP: 503
//
//	UPL005 - No preview: the upload has not produced a preview
//	         Action: Provide the requested input or check the state
//	         HTTP: 409
//
// # Default (ERR000)
//
//	ERR000 - Unknown error
//	         Action: Try again or contact support
//	         HTTP: 500
//
// Unlike pattern matching on error text, classification here is
// structural: session sentinels via errors.Is, pipeline kinds via
// tabular.IsKind, the transport size cap via *http.MaxBytesError.
package web

import (
	"errors"
	"net/http"

	"github.com/Varen-6/tabular-viewer-test-task/internal/session"
	"github.com/Varen-6/tabular-viewer-test-task/internal/tabular"
)

// errBadForm marks a multipart body the server could not parse.
var errBadForm = errors.New("malformed upload form")

// Notification is the user-facing rendering of a failure.
type Notification struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var defaultNotification = Notification{
	Message: "An unexpected error occurred",
	Action:  "Try again or contact support",
	Code:    "ERR000",
}

// delimiterPrompt explains the delimiter question on 202 responses.
// DLM001 is the one recoverable code: it rides on a prompt, never on an
// error response.
var delimiterPrompt = Notification{
	Message: "The column delimiter could not be detected",
	Action:  "Choose the character that separates the columns",
	Code:    "DLM001",
}

// Notify maps err to an HTTP status and a user-facing notification.
func Notify(err error) (int, Notification) {
	switch {
	case err == nil:
		return http.StatusOK, Notification{}

	case errors.Is(err, session.ErrUploadNotFound),
		errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, Notification{
			Message: "No upload with this id",
			Action:  "The upload may have expired; start a new one",
			Code:    "UPL001",
		}

	case errors.Is(err, session.ErrUploadClosed),
		errors.Is(err, session.ErrSessionClosed):
		return http.StatusGone, Notification{
			Message: "This upload was already dismissed",
			Action:  "Start a new upload",
			Code:    "UPL002",
		}

	case errors.Is(err, session.ErrInputNotExpected):
		return http.StatusConflict, Notification{
			Message: "This upload is not waiting for input",
			Action:  "Check the upload state",
			Code:    "UPL003",
		}

	case errors.Is(err, session.ErrTooManyUploads):
		return http.StatusServiceUnavailable, Notification{
			Message: "Too many uploads are being processed",
			Action:  "Wait a moment and try again",
			Code:    "UPL004",
		}

	case errors.Is(err, session.ErrNotLoaded):
		return http.StatusConflict, Notification{
			Message: "This upload has no preview",
			Action:  "Provide the requested input or check the state",
			Code:    "UPL005",
		}

	case errors.Is(err, session.ErrSheetNotOffered):
		return http.StatusBadRequest, Notification{
			Message: "That sheet is not in this workbook",
			Action:  "Pick one of the listed sheet names",
			Code:    "SHT002",
		}

	case errors.Is(err, session.ErrEmptyInput):
		return http.StatusBadRequest, Notification{
			Message: "No value was provided",
			Action:  "Provide a delimiter or sheet name",
			Code:    "INP001",
		}

	case tabular.IsKind(err, tabular.KindUnsupportedFormat):
		return http.StatusUnsupportedMediaType, Notification{
			Message: "This file format is not supported",
			Action:  "Upload a CSV, TXT, Excel, SAS7BDAT, or XPT file",
			Code:    "FMT001",
		}

	case tabular.IsKind(err, tabular.KindManualParse):
		return http.StatusUnprocessableEntity, Notification{
			Message: "The file could not be parsed with that delimiter",
			Action:  "Check the file's structure and quoting",
			Code:    "DLM002",
		}

	case tabular.IsKind(err, tabular.KindSheetRead):
		return http.StatusUnprocessableEntity, Notification{
			Message: "The workbook could not be read",
			Action:  "Re-save the workbook and try again",
			Code:    "SHT001",
		}

	case tabular.IsKind(err, tabular.KindStatFileRead):
		return http.StatusUnprocessableEntity, Notification{
			Message: "The statistical file could not be decoded",
			Action:  "Verify the file was exported completely",
			Code:    "SAS001",
		}

	case tabular.IsKind(err, tabular.KindEmptyFile):
		return http.StatusUnprocessableEntity, Notification{
			Message: "The uploaded file is empty",
			Action:  "Upload a file with at least one row",
			Code:    "FILE001",
		}

	case isMaxBytes(err):
		return http.StatusRequestEntityTooLarge, Notification{
			Message: "The file exceeds the size limit",
			Action:  "Upload a smaller file",
			Code:    "FILE002",
		}

	case errors.Is(err, http.ErrMissingFile), errors.Is(err, errBadForm):
		return http.StatusBadRequest, Notification{
			Message: "No usable file was submitted",
			Action:  "Choose a file before submitting",
			Code:    "FILE003",
		}

	default:
		return http.StatusInternalServerError, defaultNotification
	}
}

func isMaxBytes(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
