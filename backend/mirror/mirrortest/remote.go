// Package mirrortest provides an in-memory Remote for tests.
package mirrortest

import (
	"context"
	"fmt"
	"sync"

	"habitualize/backend/mirror"
)

type file struct {
	content  []byte
	revision string
}

// Remote is an in-memory mirror.Remote with failure injection.
type Remote struct {
	mu      sync.Mutex
	files   map[string]file
	counter int

	// Err, when set, is returned by every call.
	Err error

	Fetches int
	Creates int
	Updates int
}

func NewRemote() *Remote {
	return &Remote{files: make(map[string]file)}
}

func (r *Remote) Name() string { return "memory" }

func (r *Remote) nextRevision() string {
	r.counter++
	return fmt.Sprintf("rev-%d", r.counter)
}

func (r *Remote) Fetch(_ context.Context, path string) ([]byte, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Fetches++
	if r.Err != nil {
		return nil, "", r.Err
	}
	f, ok := r.files[path]
	if !ok {
		return nil, "", mirror.ErrRemoteNotFound
	}
	return append([]byte(nil), f.content...), f.revision, nil
}

func (r *Remote) Create(_ context.Context, path string, content []byte, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Creates++
	if r.Err != nil {
		return "", r.Err
	}
	if _, ok := r.files[path]; ok {
		return "", mirror.ErrRevisionConflict
	}
	rev := r.nextRevision()
	r.files[path] = file{content: append([]byte(nil), content...), revision: rev}
	return rev, nil
}

func (r *Remote) Update(_ context.Context, path string, content []byte, _ string, revision string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Updates++
	if r.Err != nil {
		return "", r.Err
	}
	f, ok := r.files[path]
	if !ok {
		return "", mirror.ErrRemoteNotFound
	}
	if f.revision != revision {
		return "", mirror.ErrRevisionConflict
	}
	rev := r.nextRevision()
	r.files[path] = file{content: append([]byte(nil), content...), revision: rev}
	return rev, nil
}

// Put stores content directly, as another writer would.
func (r *Remote) Put(path string, content []byte) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev := r.nextRevision()
	r.files[path] = file{content: append([]byte(nil), content...), revision: rev}
	return rev
}

// Content returns the stored content of path.
func (r *Remote) Content(path string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[path]
	return f.content, ok
}
