// Package git mirrors tables into a local git working copy. The blob id of
// a committed file is its revision, and pushing to the upstream branch is
// optional.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"habitualize/backend"
	"habitualize/backend/mirror"
	"habitualize/internal/utils"
)

func init() {
	backend.RegisterRemote("git", func(config backend.RemoteConfig) (mirror.Remote, error) {
		return NewRemote(config)
	})
}

// Remote implements mirror.Remote on a git working copy.
type Remote struct {
	config   backend.RemoteConfig
	RepoPath string // Absolute path to the working copy root

	mu sync.Mutex
}

// NewRemote opens the working copy at config.RepoPath, or the repository
// containing the current directory when it is empty.
func NewRemote(config backend.RemoteConfig) (*Remote, error) {
	repoPath, err := utils.ExpandPath(config.RepoPath)
	if err != nil {
		return nil, err
	}
	if repoPath == "" {
		if repoPath, err = findGitRepo(); err != nil {
			return nil, fmt.Errorf("git repository not found: %w", err)
		}
	}
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
		return nil, fmt.Errorf("%s is not a git working copy: %w", repoPath, err)
	}
	return &Remote{config: config, RepoPath: repoPath}, nil
}

// findGitRepo walks up from the working directory looking for .git.
func findGitRepo() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a git repository")
		}
		dir = parent
	}
}

func (r *Remote) Name() string {
	return "git:" + filepath.Base(r.RepoPath)
}

// git runs a git subcommand in the working copy and returns its stdout.
func (r *Remote) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.RepoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// blob returns the committed blob id of path, or ErrRemoteNotFound. With
// --quiet, rev-parse exits 1 only when the object does not resolve.
func (r *Remote) blob(ctx context.Context, path string) (string, error) {
	out, err := r.git(ctx, "rev-parse", "--verify", "--quiet", "HEAD:"+filepath.ToSlash(path))
	if err != nil {
		var exitErr *exec.ExitError
		if ctx.Err() == nil && errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", mirror.ErrRemoteNotFound
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (r *Remote) Fetch(ctx context.Context, path string) ([]byte, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config.AutoPull {
		if _, err := r.git(ctx, "pull", "--ff-only"); err != nil {
			return nil, "", err
		}
	}

	rev, err := r.blob(ctx, path)
	if err != nil {
		return nil, "", err
	}
	out, err := r.git(ctx, "cat-file", "blob", rev)
	if err != nil {
		return nil, "", err
	}
	return []byte(out), rev, nil
}

func (r *Remote) Create(ctx context.Context, path string, content []byte, message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.blob(ctx, path)
	if err == nil {
		return "", mirror.ErrRevisionConflict
	}
	if !errors.Is(err, mirror.ErrRemoteNotFound) {
		return "", err
	}
	return r.commit(ctx, path, content, message)
}

func (r *Remote) Update(ctx context.Context, path string, content []byte, message, revision string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.blob(ctx, path)
	if err != nil {
		return "", err
	}
	if current != revision {
		return "", mirror.ErrRevisionConflict
	}
	return r.commit(ctx, path, content, message)
}

// commit writes path into the working tree, commits it and pushes when
// auto_push is set. Unchanged content produces no commit.
func (r *Remote) commit(ctx context.Context, path string, content []byte, message string) (string, error) {
	full := filepath.Join(r.RepoPath, path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, content, 0644); err != nil {
		return "", err
	}

	if _, err := r.git(ctx, "add", "--", path); err != nil {
		return "", err
	}
	if _, err := r.git(ctx, "diff", "--cached", "--quiet", "--", path); err != nil {
		if _, err := r.git(ctx, "commit", "-m", message, "--", path); err != nil {
			return "", err
		}
		if r.config.AutoPush {
			if _, err := r.git(ctx, "push"); err != nil {
				return "", err
			}
		}
	}
	return r.blob(ctx, path)
}
