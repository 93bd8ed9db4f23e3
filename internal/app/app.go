// Package app wires configuration, logging, the remote mirror, the store and
// the stats service together for the CLI, the TUI and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"habitualize/backend"
	"habitualize/backend/mirror"
	"habitualize/backend/sqlite"
	"habitualize/backend/store"
	"habitualize/internal/config"
	"habitualize/internal/metrics"
	"habitualize/internal/stats"
	"habitualize/internal/sync"
	"habitualize/internal/utils"

	// remotes register themselves with the backend registry
	_ "habitualize/backend/git"
	_ "habitualize/backend/github"
)

// App holds the application state
type App struct {
	config      *config.Config
	store       *store.Store
	stats       *stats.Service
	mirror      *mirror.Mirror
	book        *sqlite.Book
	metrics     *metrics.Collectors
	coordinator *sync.SyncCoordinator
}

// Option configures NewApp.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewApp builds the store over cfg.DataDir and, when a remote is
// configured, the mirror and its revision book at cfg.StateDB.
func NewApp(cfg *config.Config, opts ...Option) (*App, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		config:  cfg,
		metrics: metrics.New(),
	}

	var syncer mirror.Syncer
	if cfg.Remote.Enabled() {
		remote, err := backend.NewRemote(cfg.Remote)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s remote: %w", cfg.Remote.Type, err)
		}
		book, err := sqlite.OpenBook(cfg.StateDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open sync state: %w", err)
		}
		app.book = book
		app.mirror = mirror.New(remote,
			mirror.WithPolicy(mirror.Policy(cfg.Remote.ConflictPolicy)),
			mirror.WithPathPrefix(cfg.Remote.PathPrefix),
			mirror.WithBook(book),
			mirror.WithObserver(app.metrics.ObserveMirror),
		)
		syncer = app.mirror
		utils.Debugf("Mirroring tables to %s (%s)", remote.Name(), cfg.Remote.ConflictPolicy)
	}

	st, err := store.New(cfg.DataDir, syncer, store.WithClock(o.now), store.WithMetrics(app.metrics))
	if err != nil {
		app.Shutdown()
		return nil, err
	}
	app.store = st
	app.stats = stats.NewService(st, o.now)
	app.coordinator = sync.NewSyncCoordinator(st, cfg.Remote.Timeout)
	return app, nil
}

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config {
	return a.config
}

// Store returns the table store.
func (a *App) Store() *store.Store {
	return a.store
}

// Stats returns the aggregation service.
func (a *App) Stats() *stats.Service {
	return a.stats
}

// Metrics returns the process collectors.
func (a *App) Metrics() *metrics.Collectors {
	return a.metrics
}

// RemoteName returns the mirror's remote, or "" when none is configured.
func (a *App) RemoteName() string {
	if a.mirror == nil {
		return ""
	}
	return a.mirror.Remote().Name()
}

func remoteErr(err error) error {
	if errors.Is(err, store.ErrNoRemote) {
		return utils.ErrRemoteNotConfigured()
	}
	return err
}

// remoteFailure turns a rejected token or an unreachable remote into an
// error with a suggestion. Other failures are returned unchanged.
func remoteFailure(remote string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *backend.StoreError
	if errors.As(err, &storeErr) && storeErr.IsUnauthorized() {
		return utils.ErrAuthenticationFailed(remote)
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return utils.ErrRemoteOffline(remote, err.Error())
	}
	return err
}

func (a *App) explain(results map[string]error) map[string]error {
	for tableID, err := range results {
		results[tableID] = remoteFailure(a.RemoteName(), err)
	}
	return results
}

// Pull fetches every table from the remote.
func (a *App) Pull(ctx context.Context) (map[string]error, error) {
	results, err := a.store.Sync(ctx)
	return a.explain(results), remoteErr(err)
}

// Push publishes every local table to the remote.
func (a *App) Push(ctx context.Context) (map[string]error, error) {
	results, err := a.store.Publish(ctx)
	return a.explain(results), remoteErr(err)
}

// SyncStatus reports the last recorded sync of every table.
func (a *App) SyncStatus() ([]mirror.TableStatus, error) {
	if a.book == nil {
		return nil, utils.ErrRemoteNotConfigured()
	}
	return a.book.Status()
}

// StartBackgroundPull refreshes the tables every server.pull_interval until
// ctx is done. It does nothing without a remote or an interval.
func (a *App) StartBackgroundPull(ctx context.Context) {
	if a.mirror == nil || a.config.Server.PullInterval <= 0 {
		return
	}
	utils.Infof("Pulling from %s every %v", a.RemoteName(), a.config.Server.PullInterval)
	go a.coordinator.Run(ctx, a.config.Server.PullInterval)
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() {
	a.ShutdownWithTimeout(5 * time.Second)
}

// ShutdownWithTimeout gracefully shuts down with a custom timeout
func (a *App) ShutdownWithTimeout(timeout time.Duration) {
	if a.coordinator != nil {
		a.coordinator.Shutdown(timeout)
	}
	if a.book != nil {
		if err := a.book.Close(); err != nil {
			utils.Warnf("Failed to close sync state: %v", err)
		}
	}
	utils.GetLogger().Sync()
}
