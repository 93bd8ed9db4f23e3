package store

import (
	"context"
	"strconv"

	"habitualize/backend"
	"habitualize/backend/table"
)

// UpsertProgressSnapshot replaces the points stored for date, or appends a
// row when the date has none.
func (s *Store) UpsertProgressSnapshot(ctx context.Context, date string, earned, possible int) error {
	if _, err := backend.ParseDate(date); err != nil {
		return err
	}
	return s.mutate(ctx, "save progress", table.ProgressSchema, func(records []table.Record) ([]table.Record, error) {
		for _, r := range records {
			if r["date"] == date {
				r["earned_points"] = strconv.Itoa(earned)
				r["possible_points"] = strconv.Itoa(possible)
				return records, nil
			}
		}
		snapshot := backend.ProgressSnapshot{Date: date, EarnedPoints: earned, PossiblePoints: possible}
		return append(records, snapshot.Record()), nil
	})
}

// GetProgressSnapshot returns the snapshot for date, if any.
func (s *Store) GetProgressSnapshot(ctx context.Context, date string) (backend.ProgressSnapshot, bool, error) {
	snapshots, err := s.ProgressSnapshots(ctx, date)
	if err != nil {
		return backend.ProgressSnapshot{}, false, err
	}
	snapshot, ok := snapshots[date]
	return snapshot, ok, nil
}

// ProgressSnapshots returns the first snapshot stored for each of dates
// with one pull of the table.
func (s *Store) ProgressSnapshots(ctx context.Context, dates ...string) (map[string]backend.ProgressSnapshot, error) {
	records, err := s.read(ctx, "get progress", table.ProgressSchema)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(dates))
	for _, d := range dates {
		wanted[d] = true
	}
	out := make(map[string]backend.ProgressSnapshot)
	for _, r := range records {
		date := r["date"]
		if _, seen := out[date]; seen || !wanted[date] {
			continue
		}
		out[date] = backend.ProgressFromRecord(r)
	}
	return out, nil
}
