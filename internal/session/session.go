package session

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Session groups the uploads of one client identity and owns their
// working directory under the manager's temp root.
type Session struct {
	ID string

	root string

	mu      sync.Mutex
	dir     string
	uploads map[string]*Upload
	order   []string
	closed  bool
	created time.Time
}

func newSession(id, root string) *Session {
	return &Session{
		ID:      id,
		root:    root,
		uploads: make(map[string]*Upload),
		created: time.Now(),
	}
}

// SaveUpload writes the uploaded bytes verbatim into the session
// working directory, keyed by the original filename, and registers a
// new idle upload around them. Name collisions get a numeric suffix so
// concurrent uploads never share a file.
func (s *Session) SaveUpload(filename string, src io.Reader) (*Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	name := sanitizeFilename(filename)
	path := s.uniquePath(name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("store upload: %w", err)
	}

	u := newUpload(filepath.Base(path), path)
	s.uploads[u.ID] = u
	s.order = append(s.order, u.ID)
	return u, nil
}

// Upload returns one of the session's uploads by id.
func (s *Session) Upload(id string) (*Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[id]
	if !ok {
		return nil, ErrUploadNotFound
	}
	return u, nil
}

// Activities lists the session's uploads in insertion order.
func (s *Session) Activities() []Activity {
	s.mu.Lock()
	ordered := make([]*Upload, 0, len(s.order))
	for _, id := range s.order {
		ordered = append(ordered, s.uploads[id])
	}
	s.mu.Unlock()

	out := make([]Activity, len(ordered))
	for i, u := range ordered {
		out[i] = u.Snapshot()
	}
	return out
}

// Close dismisses every upload and removes the working directory.
// Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for _, u := range s.uploads {
		u.Close()
	}
	if s.dir == "" {
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	return nil
}

// ensureDir creates the working directory on first use. Caller holds
// the lock.
func (s *Session) ensureDir() error {
	if s.dir != "" {
		return nil
	}
	dir := filepath.Join(s.root, s.ID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	s.dir = dir
	return nil
}

// uniquePath appends -1, -2, ... before the extension until the name is
// free. Caller holds the lock.
func (s *Session) uniquePath(name string) string {
	path := filepath.Join(s.dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return path
		}
		path = filepath.Join(s.dir, fmt.Sprintf("%s-%d%s", stem, n, ext))
	}
}

// sanitizeFilename reduces a client-supplied filename to a bare name
// safe to place in the working directory.
func sanitizeFilename(filename string) string {
	if i := strings.LastIndexAny(filename, `/\`); i >= 0 {
		filename = filename[i+1:]
	}
	filename = strings.TrimSpace(filename)
	if filename == "" || filename == "." || filename == ".." {
		return "upload"
	}
	return filename
}
