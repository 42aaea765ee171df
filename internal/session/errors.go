package session

import "errors"

var (
	// ErrSessionNotFound reports an unknown or expired session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed rejects work on a torn-down session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrUploadNotFound reports an unknown upload id.
	ErrUploadNotFound = errors.New("upload not found")
	// ErrUploadClosed rejects interactions with a dismissed upload.
	ErrUploadClosed = errors.New("upload is closed")
	// ErrInputNotExpected rejects input for an upload that is not
	// suspended on a prompt.
	ErrInputNotExpected = errors.New("upload is not awaiting input")
	// ErrEmptyInput rejects a blank submission. It does not consume the
	// single resume.
	ErrEmptyInput = errors.New("input value is empty")
	// ErrSheetNotOffered rejects a sheet name outside the offered
	// options. It does not consume the single resume.
	ErrSheetNotOffered = errors.New("sheet was not among the offered options")
	// ErrNotLoaded reports that an upload has no dataset to serve.
	ErrNotLoaded = errors.New("upload has no loaded dataset")
)
