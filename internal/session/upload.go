package session

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Varen-6/tabular-viewer-test-task/internal/tabular"
)

// State is the lifecycle stage of one upload.
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingInput State = "awaiting_input"
	StateResolved      State = "resolved"
	StateLoaded        State = "loaded"
	StatePreviewShown  State = "preview_shown"
	StateFailed        State = "failed"
	StateClosed        State = "closed"
)

// Upload is one uploaded file moving through resolution, loading, and
// preview. All methods are safe for concurrent use; Run and
// ProvideInput execute synchronously on the caller's goroutine.
type Upload struct {
	ID       string
	Filename string
	Format   tabular.Format

	path string

	mu      sync.Mutex
	state   State
	request *tabular.InputRequest
	res     *tabular.Resolution
	dataset *tabular.Dataset
	preview *tabular.Preview
	resumed bool
	failure error
	created time.Time
	updated time.Time
}

func newUpload(filename, path string) *Upload {
	now := time.Now()
	return &Upload{
		ID:       uuid.New().String(),
		Filename: filename,
		Format:   tabular.FromPath(filename),
		path:     path,
		state:    StateIdle,
		created:  now,
		updated:  now,
	}
}

// Activity is one row of a session's upload history.
type Activity struct {
	ID        string
	Filename  string
	Format    tabular.Format
	State     State
	Err       error
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Run resolves the stored file and, when nothing is missing, loads it
// and projects the preview. It leaves the upload in preview_shown,
// suspends it in awaiting_input, or fails it terminally and returns the
// failure.
func (u *Upload) Run() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != StateIdle {
		return fmt.Errorf("upload %s already started", u.ID)
	}

	res, req, err := tabular.Resolve(u.path, tabular.Params{})
	if err != nil {
		return u.fail(err)
	}
	if req != nil {
		u.request = req
		u.setState(StateAwaitingInput)
		return nil
	}
	return u.finish(res)
}

// ProvideInput resumes a suspended upload with the user's answer. The
// first submission that reaches the resolver consumes the upload's
// single resume, success or not. A sheet name outside the offered
// options and a blank value are rejected beforehand and leave the
// upload waiting.
func (u *Upload) ProvideInput(value string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch u.state {
	case StateAwaitingInput:
	case StateClosed:
		return ErrUploadClosed
	default:
		return ErrInputNotExpected
	}
	if value == "" {
		return ErrEmptyInput
	}

	var params tabular.Params
	switch u.request.Kind {
	case tabular.InputSheet:
		if !slices.Contains(u.request.Options, value) {
			return fmt.Errorf("%w: %q", ErrSheetNotOffered, value)
		}
		params.Sheet = value
	default:
		params.Delimiter = value
	}

	u.resumed = true
	u.request = nil

	res, req, err := tabular.Resolve(u.path, params)
	if err != nil {
		return u.fail(err)
	}
	if req != nil {
		// With the parameter supplied the resolver cannot ask again.
		return u.fail(fmt.Errorf("resolver requested input twice for %s", u.Filename))
	}
	return u.finish(res)
}

// finish loads the resolved file and projects its preview. Caller holds
// the lock.
func (u *Upload) finish(res *tabular.Resolution) error {
	u.res = res
	u.setState(StateResolved)

	ds, err := tabular.Load(u.path, res)
	if err != nil {
		return u.fail(err)
	}
	u.dataset = ds
	u.setState(StateLoaded)

	u.preview = ds.Preview(0)
	u.setState(StatePreviewShown)
	return nil
}

func (u *Upload) fail(err error) error {
	u.failure = err
	u.setState(StateFailed)
	return err
}

func (u *Upload) setState(s State) {
	u.state = s
	u.updated = time.Now()
}

// State returns the current lifecycle stage.
func (u *Upload) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Request returns the pending input request, or nil when the upload is
// not suspended.
func (u *Upload) Request() *tabular.InputRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.request
}

// Preview returns the projected preview once the upload reached
// preview_shown.
func (u *Upload) Preview() (*tabular.Preview, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == StateClosed {
		return nil, ErrUploadClosed
	}
	if u.preview == nil {
		return nil, ErrNotLoaded
	}
	return u.preview, nil
}

// Dataset returns the loaded dataset for downstream consumers such as
// column profiling.
func (u *Upload) Dataset() (*tabular.Dataset, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == StateClosed {
		return nil, ErrUploadClosed
	}
	if u.dataset == nil {
		return nil, ErrNotLoaded
	}
	return u.dataset, nil
}

// Failure returns the terminal error of a failed upload, nil otherwise.
func (u *Upload) Failure() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.failure
}

// Close dismisses the upload and discards its dataset and preview.
// Closing twice is a no-op; closing while input is pending abandons the
// upload silently.
func (u *Upload) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == StateClosed {
		return
	}
	u.dataset = nil
	u.preview = nil
	u.request = nil
	u.setState(StateClosed)
}

// Snapshot captures the upload for activity listings.
func (u *Upload) Snapshot() Activity {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Activity{
		ID:        u.ID,
		Filename:  u.Filename,
		Format:    u.Format,
		State:     u.state,
		Err:       u.failure,
		CreatedAt: u.created,
		UpdatedAt: u.updated,
	}
}
