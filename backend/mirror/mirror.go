// Package mirror keeps local table files in step with an authoritative
// copy held under revision control.
//
// Local content is a write-through cache of the remote: every read is
// preceded by a pull and every mutation is followed by a push. Remote
// failures never fail the local operation; they are logged and the
// remote is left behind.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"path"

	"habitualize/backend/table"
	"habitualize/internal/utils"
)

var (
	// ErrRemoteNotFound is returned by Remote.Fetch when the table was never
	// created upstream.
	ErrRemoteNotFound = errors.New("not found on remote")

	// ErrRevisionConflict is returned when an update names a revision that
	// is no longer the latest one.
	ErrRevisionConflict = errors.New("remote revision has advanced")
)

// Remote is a content store with linear history on one branch.
type Remote interface {
	Name() string
	// Fetch returns the latest content and its revision token.
	Fetch(ctx context.Context, path string) ([]byte, string, error)
	// Create adds a file that does not exist yet.
	Create(ctx context.Context, path string, content []byte, message string) (string, error)
	// Update replaces a file whose latest revision is revision.
	Update(ctx context.Context, path string, content []byte, message, revision string) (string, error)
}

// Policy decides which revision a push is addressed to.
type Policy string

const (
	// LastWriteWins re-reads the remote revision right before pushing, so a
	// push always lands and overwrites whatever another writer pushed.
	LastWriteWins Policy = "last_write_wins"
	// RejectStale pushes against the revision seen at the last pull and
	// leaves the remote untouched if it moved since.
	RejectStale Policy = "reject_stale"
)

// Direction names a synchronization step.
type Direction string

const (
	DirectionPull Direction = "pull"
	DirectionPush Direction = "push"
)

// Syncer is what the local store needs from a mirror. Both methods swallow
// remote failures.
type Syncer interface {
	ReadThrough(ctx context.Context, tableID string, medium table.Medium)
	WriteThrough(ctx context.Context, tableID string, content []byte, message string)
}

// RemoteUnavailableError wraps any failure talking to the remote.
type RemoteUnavailableError struct {
	Remote    string
	Table     string
	Direction Direction
	Err       error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("%s %s on %s: %v", e.Direction, e.Table, e.Remote, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error {
	return e.Err
}

// Observer is notified after every pull or push attempt.
type Observer func(direction Direction, tableID string, err error)

// Mirror synchronizes tables with one remote.
type Mirror struct {
	remote   Remote
	book     RevisionBook
	policy   Policy
	prefix   string
	observer Observer
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithPolicy sets the push policy. The default is LastWriteWins.
func WithPolicy(p Policy) Option {
	return func(m *Mirror) {
		if p != "" {
			m.policy = p
		}
	}
}

// WithPathPrefix places every table under prefix on the remote.
func WithPathPrefix(prefix string) Option {
	return func(m *Mirror) { m.prefix = prefix }
}

// WithBook replaces the in-memory revision book.
func WithBook(book RevisionBook) Option {
	return func(m *Mirror) {
		if book != nil {
			m.book = book
		}
	}
}

// WithObserver registers a callback for sync results.
func WithObserver(o Observer) Option {
	return func(m *Mirror) { m.observer = o }
}

// New creates a mirror over remote.
func New(remote Remote, opts ...Option) *Mirror {
	m := &Mirror{
		remote: remote,
		book:   NewMemoryBook(),
		policy: LastWriteWins,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Remote returns the underlying remote.
func (m *Mirror) Remote() Remote {
	return m.remote
}

// Book returns the revision book.
func (m *Mirror) Book() RevisionBook {
	return m.book
}

func (m *Mirror) remotePath(tableID string) string {
	if m.prefix == "" {
		return tableID
	}
	return path.Join(m.prefix, tableID)
}

// Pull overwrites medium with the latest remote content of tableID.
func (m *Mirror) Pull(ctx context.Context, tableID string, medium table.Medium) (err error) {
	defer func() { m.finish(DirectionPull, tableID, err) }()

	content, revision, err := m.remote.Fetch(ctx, m.remotePath(tableID))
	if err != nil {
		return m.unavailable(DirectionPull, tableID, err)
	}
	if err := medium.Write(content); err != nil {
		return fmt.Errorf("store pulled %s: %w", tableID, err)
	}
	if err := m.book.SetRevision(tableID, revision); err != nil {
		utils.Warnf("Failed to record revision of %s: %v", tableID, err)
	}
	utils.Debugf("Pulled %s from %s at %s", tableID, m.remote.Name(), revision)
	return nil
}

// Push publishes content as a new revision of tableID.
func (m *Mirror) Push(ctx context.Context, tableID string, content []byte, message string) (err error) {
	defer func() { m.finish(DirectionPush, tableID, err) }()

	remotePath := m.remotePath(tableID)
	revision, err := m.baseRevision(ctx, tableID, remotePath)
	if err != nil {
		return m.unavailable(DirectionPush, tableID, err)
	}

	var newRevision string
	if revision == "" {
		newRevision, err = m.remote.Create(ctx, remotePath, content, message)
	} else {
		newRevision, err = m.remote.Update(ctx, remotePath, content, message, revision)
	}
	if err != nil {
		return m.unavailable(DirectionPush, tableID, err)
	}

	if err := m.book.SetRevision(tableID, newRevision); err != nil {
		utils.Warnf("Failed to record revision of %s: %v", tableID, err)
	}
	utils.Debugf("Pushed %s to %s at %s", tableID, m.remote.Name(), newRevision)
	return nil
}

// baseRevision returns the revision a push is addressed to, or "" when the
// table has to be created.
func (m *Mirror) baseRevision(ctx context.Context, tableID, remotePath string) (string, error) {
	if m.policy == RejectStale {
		revision, known, err := m.book.Revision(tableID)
		if err != nil {
			return "", err
		}
		if known {
			return revision, nil
		}
	}

	_, revision, err := m.remote.Fetch(ctx, remotePath)
	if errors.Is(err, ErrRemoteNotFound) {
		return "", nil
	}
	return revision, err
}

// ReadThrough pulls tableID into medium and logs failures.
func (m *Mirror) ReadThrough(ctx context.Context, tableID string, medium table.Medium) {
	if err := m.Pull(ctx, tableID, medium); err != nil {
		if errors.Is(err, ErrRemoteNotFound) {
			utils.Debugf("%s not on %s yet, using local copy", tableID, m.remote.Name())
			return
		}
		utils.Warnf("Pull failed, using local copy: %v", err)
	}
}

// WriteThrough pushes content and logs failures. The local write has
// already happened, so the caller still succeeds.
func (m *Mirror) WriteThrough(ctx context.Context, tableID string, content []byte, message string) {
	if err := m.Push(ctx, tableID, content, message); err != nil {
		utils.Warnf("Push failed, remote is behind local: %v", err)
	}
}

func (m *Mirror) unavailable(direction Direction, tableID string, err error) error {
	return &RemoteUnavailableError{
		Remote:    m.remote.Name(),
		Table:     tableID,
		Direction: direction,
		Err:       err,
	}
}

func (m *Mirror) finish(direction Direction, tableID string, err error) {
	if recErr := m.book.RecordSync(tableID, direction, err); recErr != nil {
		utils.Warnf("Failed to record %s of %s: %v", direction, tableID, recErr)
	}
	if m.observer != nil {
		m.observer(direction, tableID, err)
	}
}

// Disabled is the Syncer used when no remote is configured.
type Disabled struct{}

func (Disabled) ReadThrough(context.Context, string, table.Medium) {}

func (Disabled) WriteThrough(context.Context, string, []byte, string) {}

// CommitMessage formats the message attached to a pushed revision.
func CommitMessage(operation, tableID string) string {
	return fmt.Sprintf("habitualize: %s %s", operation, tableID)
}
