package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"habitualize/backend"
	"habitualize/backend/table"
)

func findName(records []table.Record, name string) int {
	for i, r := range records {
		if r["name"] == name {
			return i
		}
	}
	return -1
}

func nameTaken(records []table.Record, name string, except int) bool {
	for i, r := range records {
		if i != except && strings.EqualFold(r["name"], name) {
			return true
		}
	}
	return false
}

func checkPoints(points int) error {
	if points < 0 {
		return fmt.Errorf("%w, got %d", backend.ErrInvalidPoints, points)
	}
	return nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", backend.ErrNameRequired
	}
	return name, nil
}

// ListHabits returns habits in stored order. A nil filter returns all of
// them; otherwise only those whose archived flag equals *archived.
func (s *Store) ListHabits(ctx context.Context, archived *bool) ([]backend.Habit, error) {
	records, err := s.read(ctx, "list habits", table.HabitsSchema)
	if err != nil {
		return nil, err
	}
	habits := make([]backend.Habit, 0, len(records))
	for _, r := range records {
		h := backend.HabitFromRecord(r)
		if archived != nil && h.Archived != *archived {
			continue
		}
		habits = append(habits, h)
	}
	return habits, nil
}

// ActiveHabits is ListHabits with the filter set to not archived.
func (s *Store) ActiveHabits(ctx context.Context) ([]backend.Habit, error) {
	active := false
	return s.ListHabits(ctx, &active)
}

// AddHabit appends an active habit created today.
func (s *Store) AddHabit(ctx context.Context, name string, points int) (backend.Habit, error) {
	name, err := cleanName(name)
	if err != nil {
		return backend.Habit{}, err
	}
	if err := checkPoints(points); err != nil {
		return backend.Habit{}, err
	}
	habit := backend.Habit{Name: name, Points: points, CreationDate: s.Today()}

	err = s.mutate(ctx, "add habit", table.HabitsSchema, func(records []table.Record) ([]table.Record, error) {
		if nameTaken(records, name, -1) {
			return nil, fmt.Errorf("%w: habit %q", backend.ErrDuplicateName, name)
		}
		return append(records, habit.Record()), nil
	})
	if err != nil {
		return backend.Habit{}, err
	}
	return habit, nil
}

// UpdateHabit renames oldName and sets its points. Archive state and
// creation date are kept.
func (s *Store) UpdateHabit(ctx context.Context, oldName, newName string, points int) error {
	newName, err := cleanName(newName)
	if err != nil {
		return err
	}
	if err := checkPoints(points); err != nil {
		return err
	}
	return s.mutate(ctx, "update habit", table.HabitsSchema, func(records []table.Record) ([]table.Record, error) {
		i := findName(records, oldName)
		if !strings.EqualFold(oldName, newName) && nameTaken(records, newName, i) {
			return nil, fmt.Errorf("%w: habit %q", backend.ErrDuplicateName, newName)
		}
		if i < 0 {
			return nil, fmt.Errorf("%w: habit %q", backend.ErrNotFound, oldName)
		}
		records[i]["name"] = newName
		records[i]["points"] = strconv.Itoa(points)
		return records, nil
	})
}

// SetHabitArchived sets the archived flag of name.
func (s *Store) SetHabitArchived(ctx context.Context, name string, archived bool) error {
	return s.mutate(ctx, "archive habit", table.HabitsSchema, func(records []table.Record) ([]table.Record, error) {
		i := findName(records, name)
		if i < 0 {
			return nil, fmt.Errorf("%w: habit %q", backend.ErrNotFound, name)
		}
		records[i]["archived"] = backend.FormatBool(archived)
		return records, nil
	})
}

// DeleteHabit removes name and every completion recorded for it.
func (s *Store) DeleteHabit(ctx context.Context, name string) error {
	const op = "delete habit"
	defer s.metrics.ObserveStore(op, time.Now())
	unlock := s.lock(table.HabitsSchema, table.CompletionsSchema)
	defer unlock()

	habits, err := s.load(ctx, op, table.HabitsSchema)
	if err != nil {
		return err
	}
	i := findName(habits, name)
	if i < 0 {
		return fmt.Errorf("%w: habit %q", backend.ErrNotFound, name)
	}
	completions, err := s.load(ctx, op, table.CompletionsSchema)
	if err != nil {
		return err
	}

	habits = append(habits[:i], habits[i+1:]...)
	if err := s.save(ctx, op, table.HabitsSchema, habits); err != nil {
		return err
	}

	kept := completions[:0]
	for _, r := range completions {
		if r["name"] != name {
			kept = append(kept, r)
		}
	}
	return s.save(ctx, op, table.CompletionsSchema, kept)
}
