package session

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Manager maps session ids to sessions and owns the temp root they
// work under.
type Manager struct {
	root     string
	ownsRoot bool

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager prepares the temp root and an empty session table. An
// empty root means a dedicated directory under the system temp dir,
// which the manager removes entirely at shutdown; an operator-provided
// root is left in place (only the session directories inside it go).
func NewManager(root string) (*Manager, error) {
	ownsRoot := root == ""
	if ownsRoot {
		dir, err := os.MkdirTemp("", "tabview-")
		if err != nil {
			return nil, fmt.Errorf("create temp root: %w", err)
		}
		root = dir
	} else if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create temp root: %w", err)
	}

	return &Manager{
		root:     root,
		ownsRoot: ownsRoot,
		sessions: make(map[string]*Session),
	}, nil
}

// Root returns the temp root sessions work under.
func (m *Manager) Root() string { return m.root }

// GetOrCreate returns the session for id, creating one when the id is
// unknown, empty, or not a well-formed uuid. The second result reports
// whether a new session (and so a new id) was created.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if id != "" && uuid.Validate(id) != nil {
		id = ""
	}

	if id != "" {
		m.mu.RLock()
		s, ok := m.sessions[id]
		m.mu.RUnlock()
		if ok {
			return s, false
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if id != "" {
		if s, ok := m.sessions[id]; ok {
			return s, false
		}
	} else {
		id = uuid.New().String()
	}
	s := newSession(id, m.root)
	m.sessions[id] = s
	return s, true
}

// Get returns the session for id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// CloseSession tears one session down and forgets it.
func (m *Manager) CloseSession(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	return s.Close()
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every session and removes their working directories.
// A manager-owned temp root is removed wholesale.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for id, s := range m.sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(m.sessions, id)
	}
	if m.ownsRoot {
		if err := os.RemoveAll(m.root); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
