package table

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrAbsent is returned by Medium.Read when nothing has been stored yet.
var ErrAbsent = errors.New("medium absent")

// Medium is the byte store behind a table.
type Medium interface {
	Read() ([]byte, error)
	Write(data []byte) error
}

// FileMedium stores a table in one file. Writes go through a temporary
// file that is synced and renamed over the target.
type FileMedium struct {
	Path string
}

// NewFileMedium returns a medium for the file at path.
func NewFileMedium(path string) *FileMedium {
	return &FileMedium{Path: path}
}

func (f *FileMedium) Read() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrAbsent
	}
	return data, err
}

func (f *FileMedium) Write(data []byte) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, f.Path)
}

// MemoryMedium keeps table bytes in memory.
type MemoryMedium struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

func (m *MemoryMedium) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, ErrAbsent
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryMedium) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.set = true
	return nil
}
