package store

import (
	"context"
	"fmt"
	"time"

	"habitualize/backend"
	"habitualize/backend/table"
)

// ToggleCompletion marks name as done or not done on date, today when date
// is empty. Marking done requires the habit to exist; repeated calls
// converge to the same state.
func (s *Store) ToggleCompletion(ctx context.Context, name string, completed bool, date string) error {
	if date == "" {
		date = s.Today()
	} else if _, err := backend.ParseDate(date); err != nil {
		return err
	}

	if !completed {
		return s.mutate(ctx, "toggle completion", table.CompletionsSchema, func(records []table.Record) ([]table.Record, error) {
			return withoutCompletion(records, date, name), nil
		})
	}

	const op = "toggle completion"
	defer s.metrics.ObserveStore(op, time.Now())
	unlock := s.lock(table.HabitsSchema, table.CompletionsSchema)
	defer unlock()

	habits, err := s.load(ctx, op, table.HabitsSchema)
	if err != nil {
		return err
	}
	if findName(habits, name) < 0 {
		return fmt.Errorf("%w: habit %q", backend.ErrNotFound, name)
	}
	records, err := s.load(ctx, op, table.CompletionsSchema)
	if err != nil {
		return err
	}
	records = withoutCompletion(records, date, name)
	records = append(records, backend.Completion{Date: date, Name: name}.Record())
	return s.save(ctx, op, table.CompletionsSchema, records)
}

func withoutCompletion(records []table.Record, date, name string) []table.Record {
	kept := records[:0]
	for _, r := range records {
		if r["date"] == date && r["name"] == name {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// CompletedOn returns the names of habits completed on date.
func (s *Store) CompletedOn(ctx context.Context, date string) (map[string]bool, error) {
	records, err := s.read(ctx, "completed on", table.CompletionsSchema)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool)
	for _, r := range records {
		if r["date"] == date {
			done[r["name"]] = true
		}
	}
	return done, nil
}

// ListCompletions returns the whole completions table.
func (s *Store) ListCompletions(ctx context.Context) ([]backend.Completion, error) {
	records, err := s.read(ctx, "list completions", table.CompletionsSchema)
	if err != nil {
		return nil, err
	}
	out := make([]backend.Completion, 0, len(records))
	for _, r := range records {
		out = append(out, backend.CompletionFromRecord(r))
	}
	return out, nil
}
