package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Varen-6/tabular-viewer-test-task/internal/config"
	"github.com/Varen-6/tabular-viewer-test-task/internal/session"
)

const scoresCSV = "name,score\nalice,10\nbob,20\n"

// onlyColumnCSV has no detectable delimiter, so uploading it suspends
// the upload on the delimiter question.
const onlyColumnCSV = "first\nsecond\nthird\n"

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = 5 * time.Second
	cfg.Upload.MaxFileSize = 1 << 20
	cfg.Upload.MaxConcurrent = 2
	cfg.Upload.MaxWaitTime = time.Second
	cfg.Security.EnableCSP = true
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	sessions, err := session.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	t.Cleanup(func() { sessions.Shutdown() })

	limiter := session.NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)
	return NewServer(cfg, sessions, limiter)
}

// client drives the router and carries the session cookie across
// requests the way a browser would.
type client struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func newClient(t *testing.T) *client {
	t.Helper()
	return &client{t: t, srv: newTestServer(t, testConfig())}
}

func newClientWith(t *testing.T, cfg *config.Config) *client {
	t.Helper()
	return &client{t: t, srv: newTestServer(t, cfg)}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.srv.Router().ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest("GET", path, nil))
}

func (c *client) del(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest("DELETE", path, nil))
}

func (c *client) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) upload(filename string, content []byte) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		c.t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		c.t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

// Mirrors of the response shapes, decoded loosely so cell scalars stay
// plain JSON values.
type uploadJSON struct {
	UploadID string       `json:"upload_id"`
	Filename string       `json:"filename"`
	Format   string       `json:"format"`
	State    string       `json:"state"`
	Needs    *needsJSON   `json:"needs"`
	Preview  *previewJSON `json:"preview"`
	Failure  *noteJSON    `json:"failure"`
}

type needsJSON struct {
	Kind    string   `json:"kind"`
	Options []string `json:"options"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

type previewJSON struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	TotalRows int              `json:"total_rows"`
}

type noteJSON struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorJSON struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Action   string `json:"action"`
	Code     string `json:"code"`
	UploadID string `json:"upload_id"`
	State    string `json:"state"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}

func workbookBytes(t *testing.T, sheets ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheets[0]); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for _, name := range sheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("add sheet %q: %v", name, err)
		}
	}
	for _, name := range sheets {
		if err := f.SetSheetRow(name, "A1", &[]any{"id", "label"}); err != nil {
			t.Fatalf("header row: %v", err)
		}
		if err := f.SetSheetRow(name, "A2", &[]any{1, name}); err != nil {
			t.Fatalf("data row: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}
	return buf.Bytes()
}

// --- POST /api/uploads ---

func TestUploadImmediatePreview(t *testing.T) {
	c := newClient(t)

	rec := c.upload("scores.csv", []byte(scoresCSV))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if c.cookie == nil || c.cookie.Value == "" {
		t.Error("expected a session cookie on first contact")
	}

	u := decode[uploadJSON](t, rec)
	if u.UploadID == "" {
		t.Error("expected an upload id")
	}
	if u.State != "preview_shown" {
		t.Errorf("state = %q, want preview_shown", u.State)
	}
	if u.Format != "csv" {
		t.Errorf("format = %q, want csv", u.Format)
	}
	if u.Preview == nil {
		t.Fatal("expected a preview in the response")
	}
	if want := []string{"name", "score"}; !slices.Equal(u.Preview.Columns, want) {
		t.Errorf("columns = %v, want %v", u.Preview.Columns, want)
	}
	if u.Preview.TotalRows != 2 || len(u.Preview.Rows) != 2 {
		t.Errorf("rows = %d/%d, want 2/2", len(u.Preview.Rows), u.Preview.TotalRows)
	}
	if got := u.Preview.Rows[0]["name"]; got != "alice" {
		t.Errorf("rows[0][name] = %v, want alice", got)
	}
	if got := u.Preview.Rows[0]["score"]; got != float64(10) {
		t.Errorf("rows[0][score] = %v, want 10", got)
	}
}

func TestUploadDelimiterPromptAndResume(t *testing.T) {
	c := newClient(t)

	rec := c.upload("odd.csv", []byte(onlyColumnCSV))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	u := decode[uploadJSON](t, rec)
	if u.State != "awaiting_input" {
		t.Fatalf("state = %q, want awaiting_input", u.State)
	}
	if u.Needs == nil || u.Needs.Kind != "delimiter" {
		t.Fatalf("needs = %+v, want a delimiter question", u.Needs)
	}
	if u.Needs.Code != "DLM001" {
		t.Errorf("needs code = %q, want DLM001", u.Needs.Code)
	}
	if len(u.Needs.Options) != 0 {
		t.Errorf("delimiter question should not offer options, got %v", u.Needs.Options)
	}

	// The pending question is visible on a plain GET too.
	rec = c.get("/api/uploads/" + u.UploadID)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	if got := decode[uploadJSON](t, rec); got.Needs == nil || got.Needs.Kind != "delimiter" {
		t.Fatalf("get needs = %+v, want the delimiter question", got.Needs)
	}

	rec = c.postJSON("/api/uploads/"+u.UploadID+"/input", `{"delimiter":";"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("input status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	resumed := decode[uploadJSON](t, rec)
	if resumed.State != "preview_shown" {
		t.Errorf("state = %q, want preview_shown", resumed.State)
	}
	if resumed.Preview == nil || !slices.Equal(resumed.Preview.Columns, []string{"first"}) {
		t.Fatalf("preview = %+v, want single column \"first\"", resumed.Preview)
	}
	if resumed.Preview.TotalRows != 2 {
		t.Errorf("total rows = %d, want 2", resumed.Preview.TotalRows)
	}
}

func TestUploadSheetFlow(t *testing.T) {
	c := newClient(t)

	rec := c.upload("book.xlsx", workbookBytes(t, "first", "second"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	u := decode[uploadJSON](t, rec)
	if u.Needs == nil || u.Needs.Kind != "sheet" {
		t.Fatalf("needs = %+v, want a sheet question", u.Needs)
	}
	if !slices.Equal(u.Needs.Options, []string{"first", "second"}) {
		t.Fatalf("options = %v, want [first second]", u.Needs.Options)
	}

	// A sheet outside the offered options is rejected without spending
	// the resume.
	rec = c.postJSON("/api/uploads/"+u.UploadID+"/input", `{"sheet":"nope"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad sheet status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	if e := decode[errorJSON](t, rec); e.Code != "SHT002" {
		t.Errorf("code = %q, want SHT002", e.Code)
	}
	rec = c.get("/api/uploads/" + u.UploadID)
	if got := decode[uploadJSON](t, rec); got.State != "awaiting_input" {
		t.Fatalf("state after bad sheet = %q, want awaiting_input", got.State)
	}

	rec = c.postJSON("/api/uploads/"+u.UploadID+"/input", `{"sheet":"second"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("input status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	resumed := decode[uploadJSON](t, rec)
	if resumed.State != "preview_shown" {
		t.Errorf("state = %q, want preview_shown", resumed.State)
	}
	if resumed.Preview == nil || !slices.Equal(resumed.Preview.Columns, []string{"id", "label"}) {
		t.Fatalf("preview = %+v, want columns [id label]", resumed.Preview)
	}
	if got := resumed.Preview.Rows[0]["label"]; got != "second" {
		t.Errorf("rows[0][label] = %v, want second", got)
	}
}

func TestUploadEmptyInputRejected(t *testing.T) {
	c := newClient(t)

	u := decode[uploadJSON](t, c.upload("odd.csv", []byte(onlyColumnCSV)))

	rec := c.postJSON("/api/uploads/"+u.UploadID+"/input", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	if e := decode[errorJSON](t, rec); e.Code != "INP001" {
		t.Errorf("code = %q, want INP001", e.Code)
	}

	rec = c.postJSON("/api/uploads/"+u.UploadID+"/input", `{"delimiter"`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d, want 400", rec.Code)
	}
	if e := decode[errorJSON](t, rec); e.Code != "INP001" {
		t.Errorf("malformed body code = %q, want INP001", e.Code)
	}

	// Neither attempt consumed the resume.
	rec = c.get("/api/uploads/" + u.UploadID)
	if got := decode[uploadJSON](t, rec); got.State != "awaiting_input" {
		t.Fatalf("state = %q, want awaiting_input", got.State)
	}
}

func TestUploadUnsupportedFormat(t *testing.T) {
	c := newClient(t)

	rec := c.upload("notes.pdf", []byte("%PDF-1.4"))
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415: %s", rec.Code, rec.Body.String())
	}
	e := decode[errorJSON](t, rec)
	if e.Code != "FMT001" {
		t.Errorf("code = %q, want FMT001", e.Code)
	}
	if e.UploadID == "" || e.State != "failed" {
		t.Errorf("upload ref = %q/%q, want id and failed", e.UploadID, e.State)
	}

	// The failed upload stays visible with its failure attached.
	rec = c.get("/api/uploads/" + e.UploadID)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	u := decode[uploadJSON](t, rec)
	if u.State != "failed" || u.Failure == nil || u.Failure.Code != "FMT001" {
		t.Errorf("failed upload = %+v, want failure FMT001", u)
	}
}

func TestUploadMissingFile(t *testing.T) {
	c := newClient(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("document", "not a file part"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := c.do(req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	if e := decode[errorJSON](t, rec); e.Code != "FILE003" {
		t.Errorf("code = %q, want FILE003", e.Code)
	}
}

func TestUploadTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 64
	c := newClientWith(t, cfg)

	rec := c.upload("big.csv", bytes.Repeat([]byte("a"), 1024))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413: %s", rec.Code, rec.Body.String())
	}
	if e := decode[errorJSON](t, rec); e.Code != "FILE002" {
		t.Errorf("code = %q, want FILE002", e.Code)
	}
}

func TestUploadNotFound(t *testing.T) {
	c := newClient(t)

	rec := c.get("/api/uploads/no-such-upload")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if e := decode[errorJSON](t, rec); e.Code != "UPL001" {
		t.Errorf("code = %q, want UPL001", e.Code)
	}

	rec = c.postJSON("/api/uploads/no-such-upload/input", `{"delimiter":","}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("input status = %d, want 404", rec.Code)
	}
	rec = c.del("/api/uploads/no-such-upload")
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete status = %d, want 404", rec.Code)
	}
}

// --- dismissal and session teardown ---

func TestDismissUpload(t *testing.T) {
	c := newClient(t)

	u := decode[uploadJSON](t, c.upload("scores.csv", []byte(scoresCSV)))

	rec := c.del("/api/uploads/" + u.UploadID)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("dismiss status = %d, want 204", rec.Code)
	}

	rec = c.get("/api/uploads/" + u.UploadID)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	got := decode[uploadJSON](t, rec)
	if got.State != "closed" {
		t.Errorf("state = %q, want closed", got.State)
	}
	if got.Preview != nil {
		t.Error("closed upload should not carry a preview")
	}

	rec = c.get("/api/uploads/" + u.UploadID + "/preview")
	if rec.Code != http.StatusGone {
		t.Fatalf("preview status = %d, want 410", rec.Code)
	}
	if e := decode[errorJSON](t, rec); e.Code != "UPL002" {
		t.Errorf("code = %q, want UPL002", e.Code)
	}

	// Dismissal is idempotent.
	if rec := c.del("/api/uploads/" + u.UploadID); rec.Code != http.StatusNoContent {
		t.Errorf("second dismiss status = %d, want 204", rec.Code)
	}
}

func TestListUploads(t *testing.T) {
	c := newClient(t)

	first := decode[uploadJSON](t, c.upload("scores.csv", []byte(scoresCSV)))
	c.upload("notes.pdf", []byte("%PDF-1.4"))

	rec := c.get("/api/uploads")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	list := decode[struct {
		Uploads []uploadJSON `json:"uploads"`
	}](t, rec)

	if len(list.Uploads) != 2 {
		t.Fatalf("len(uploads) = %d, want 2", len(list.Uploads))
	}
	if list.Uploads[0].UploadID != first.UploadID {
		t.Errorf("uploads out of order: %q first, want %q", list.Uploads[0].UploadID, first.UploadID)
	}
	if list.Uploads[0].State != "preview_shown" {
		t.Errorf("uploads[0].state = %q, want preview_shown", list.Uploads[0].State)
	}
	failed := list.Uploads[1]
	if failed.State != "failed" || failed.Failure == nil || failed.Failure.Code != "FMT001" {
		t.Errorf("uploads[1] = %+v, want failed with FMT001", failed)
	}
}

func TestEndSession(t *testing.T) {
	c := newClient(t)

	u := decode[uploadJSON](t, c.upload("scores.csv", []byte(scoresCSV)))

	rec := c.del("/api/session")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	cleared := false
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookie && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected the session cookie to be cleared")
	}

	// The old upload is gone; the next request gets a fresh session.
	rec = c.get("/api/uploads/" + u.UploadID)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
	if e := decode[errorJSON](t, rec); e.Code != "UPL001" {
		t.Errorf("code = %q, want UPL001", e.Code)
	}
}

// --- supporting endpoints ---

func TestFormats(t *testing.T) {
	c := newClient(t)

	rec := c.get("/api/formats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[struct {
		Formats []struct {
			Extension string `json:"extension"`
			Kind      string `json:"kind"`
			MayPrompt bool   `json:"may_prompt"`
		} `json:"formats"`
	}](t, rec)

	if len(body.Formats) != 9 {
		t.Fatalf("len(formats) = %d, want 9", len(body.Formats))
	}
	seen := make(map[string]bool)
	for _, f := range body.Formats {
		seen[f.Extension] = true
	}
	for _, ext := range []string{"csv", "xlsx", "sas7bdat", "xpt"} {
		if !seen[ext] {
			t.Errorf("formats missing %q", ext)
		}
	}
}

func TestHealth(t *testing.T) {
	c := newClient(t)

	rec := c.get("/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
		Uploads  struct {
			Active        int `json:"active"`
			Available     int `json:"available"`
			MaxConcurrent int `json:"max_concurrent"`
		} `json:"uploads"`
	}](t, rec)

	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Sessions != 1 {
		t.Errorf("sessions = %d, want 1", body.Sessions)
	}
	if body.Uploads.MaxConcurrent != 2 || body.Uploads.Available != 2 {
		t.Errorf("uploads = %+v, want 2 slots free of 2", body.Uploads)
	}
}

func TestIndexPage(t *testing.T) {
	c := newClient(t)

	rec := c.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q, want text/html", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Tabular Viewer") {
		t.Error("expected the page title in the response")
	}
	if !strings.Contains(body, "/api/uploads") {
		t.Error("expected the page to target the uploads API")
	}
}

func TestSecurityHeaders(t *testing.T) {
	c := newClient(t)

	rec := c.get("/")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("expected a Content-Security-Policy header")
	}

	cfg := testConfig()
	cfg.Security.EnableCSP = false
	noCSP := newClientWith(t, cfg)
	if noCSP.get("/").Header().Get("Content-Security-Policy") != "" {
		t.Error("CSP header should be absent when disabled")
	}
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"sekret"}
	c := newClientWith(t, cfg)

	rec := c.get("/api/formats")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no key status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "AUTH001") {
		t.Errorf("body = %q, want AUTH001", rec.Body.String())
	}

	req := httptest.NewRequest("GET", "/api/formats", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = c.do(req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong key status = %d, want 403", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "AUTH002") {
		t.Errorf("body = %q, want AUTH002", rec.Body.String())
	}

	req = httptest.NewRequest("GET", "/api/formats", nil)
	req.Header.Set("X-API-Key", "sekret")
	if rec := c.do(req); rec.Code != http.StatusOK {
		t.Fatalf("valid key status = %d, want 200", rec.Code)
	}
}

func TestUploadRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitEnabled = true
	cfg.Security.RequestsPerMinute = 100
	cfg.Security.UploadsPerMinute = 1
	c := newClientWith(t, cfg)

	if rec := c.upload("scores.csv", []byte(scoresCSV)); rec.Code != http.StatusCreated {
		t.Fatalf("first upload status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	rec := c.upload("again.csv", []byte(scoresCSV))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload status = %d, want 429: %s", rec.Code, rec.Body.String())
	}
	if e := decode[errorJSON](t, rec); e.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", e.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header")
	}

	// Reads stay on the general limit and keep working.
	if rec := c.get("/api/uploads"); rec.Code != http.StatusOK {
		t.Errorf("list status = %d, want 200", rec.Code)
	}
}
