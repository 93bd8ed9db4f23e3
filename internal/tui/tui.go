// Package tui is the interactive checklist for today's habits.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"habitualize/backend/store"
	"habitualize/internal/stats"
)

// Tracker is what the checklist reads and changes.
type Tracker interface {
	DailyOverview(ctx context.Context) (stats.Overview, error)
	ToggleHabit(ctx context.Context, name string, completed bool) error
	AddHabit(ctx context.Context, name string, points int) error
}

type storeTracker struct {
	store *store.Store
	stats *stats.Service
}

// NewTracker adapts a store and its stats service.
func NewTracker(st *store.Store, svc *stats.Service) Tracker {
	return storeTracker{store: st, stats: svc}
}

func (t storeTracker) DailyOverview(ctx context.Context) (stats.Overview, error) {
	return t.stats.DailyOverview(ctx)
}

func (t storeTracker) ToggleHabit(ctx context.Context, name string, completed bool) error {
	return t.stats.ToggleProgress(ctx, name, completed, "")
}

func (t storeTracker) AddHabit(ctx context.Context, name string, points int) error {
	_, err := t.store.AddHabit(ctx, name, points)
	return err
}

// Run starts the checklist in the alternate screen and blocks until the
// user quits.
func Run(ctx context.Context, tracker Tracker) error {
	p := tea.NewProgram(newModel(ctx, tracker), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running checklist: %w", err)
	}
	return nil
}
