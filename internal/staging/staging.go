package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultPrefix is prepended to every staging directory name
const DefaultPrefix = "spectrolingua-"

// Stager hands out request-unique staging directories under a common root
type Stager struct {
	root   string
	prefix string

	// Statistics
	acquired atomic.Uint64
	released atomic.Uint64
}

// Stats represents staging statistics
type Stats struct {
	Root     string `json:"root"`
	Acquired uint64 `json:"acquired"`
	Released uint64 `json:"released"`
	Active   int64  `json:"active"`
}

// Handle owns one staging directory and everything written into it
type Handle struct {
	id     string
	dir    string
	stager *Stager

	once       sync.Once
	releaseErr error
}

// NewStager creates a stager rooted at dir. An empty dir selects the system
// temporary directory; the root is created if it does not exist.
func NewStager(dir, prefix string) (*Stager, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging root %s: %w", dir, err)
	}

	return &Stager{
		root:   dir,
		prefix: prefix,
	}, nil
}

// Root returns the staging root directory
func (s *Stager) Root() string {
	return s.root
}

// Acquire creates a new staging directory named with a random UUID.
// The caller must Release the handle on every exit path.
func (s *Stager) Acquire() (*Handle, error) {
	id := uuid.NewString()
	dir := filepath.Join(s.root, s.prefix+id)

	// Mkdir (not MkdirAll) fails if the name is already taken
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to acquire staging directory: %w", err)
	}

	s.acquired.Add(1)

	return &Handle{
		id:     id,
		dir:    dir,
		stager: s,
	}, nil
}

// Scope acquires a handle, runs fn with it and releases the handle when fn
// returns or panics. A release failure is reported only if fn succeeded.
func (s *Stager) Scope(fn func(h *Handle) error) (err error) {
	h, err := s.Acquire()
	if err != nil {
		return err
	}

	defer func() {
		if releaseErr := h.Release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()

	return fn(h)
}

// Stats returns current staging statistics
func (s *Stager) Stats() Stats {
	acquired := s.acquired.Load()
	released := s.released.Load()

	return Stats{
		Root:     s.root,
		Acquired: acquired,
		Released: released,
		Active:   int64(acquired) - int64(released),
	}
}

// Active returns the number of handles not yet released
func (s *Stager) Active() int64 {
	return s.Stats().Active
}

// ID returns the handle's unique identity
func (h *Handle) ID() string {
	return h.id
}

// Dir returns the handle's private directory
func (h *Handle) Dir() string {
	return h.dir
}

// Path returns the location of a named buffer inside the handle's directory.
// Only the base name is used so callers cannot escape the directory.
func (h *Handle) Path(name string) string {
	return filepath.Join(h.dir, filepath.Base(name))
}

// Write stages data under name and returns its path
func (h *Handle) Write(name string, data []byte) (string, error) {
	path := h.Path(name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", filepath.Base(name), err)
	}
	return path, nil
}

// ReadFile reads a staged buffer back into memory
func (h *Handle) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(h.Path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read staged %s: %w", filepath.Base(name), err)
	}
	return data, nil
}

// Release removes the handle's directory and everything in it.
// It is safe to call more than once; only the first call does any work.
func (h *Handle) Release() error {
	h.once.Do(func() {
		h.stager.released.Add(1)
		if err := os.RemoveAll(h.dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.releaseErr = fmt.Errorf("failed to release staging directory %s: %w", h.dir, err)
		}
	})
	return h.releaseErr
}
