package loader

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FS is the file access the loader needs.
type FS interface {
	// Exists reports whether path names a regular file. It never fails.
	Exists(path string) bool
	// ReadFile returns the full contents of path.
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the host file system.
type OSFS struct{}

// Exists implements FS. Directories do not count as existing candidates.
func (OSFS) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ReadFile implements FS.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// MapFS is an in-memory FS keyed by cleaned path. It is safe for concurrent
// use.
type MapFS struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMapFS returns a MapFS holding a copy of files.
func NewMapFS(files map[string]string) *MapFS {
	m := &MapFS{files: make(map[string][]byte, len(files))}
	for path, content := range files {
		m.files[filepath.Clean(path)] = []byte(content)
	}
	return m
}

// Exists implements FS.
func (m *MapFS) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.files[filepath.Clean(path)]
	return ok
}

// ReadFile implements FS.
func (m *MapFS) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// WriteFile stores content under path.
func (m *MapFS) WriteFile(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[filepath.Clean(path)] = []byte(content)
}
