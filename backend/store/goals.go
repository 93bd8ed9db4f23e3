package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"habitualize/backend"
	"habitualize/backend/table"
)

// ListGoals returns goals in stored order.
func (s *Store) ListGoals(ctx context.Context) ([]backend.Goal, error) {
	records, err := s.read(ctx, "list goals", table.GoalsSchema)
	if err != nil {
		return nil, err
	}
	goals := make([]backend.Goal, 0, len(records))
	for _, r := range records {
		goals = append(goals, backend.GoalFromRecord(r))
	}
	return goals, nil
}

// AddGoal appends a goal. Status and deadline are stored as given.
func (s *Store) AddGoal(ctx context.Context, goal backend.Goal) (backend.Goal, error) {
	name, err := cleanName(goal.Name)
	if err != nil {
		return backend.Goal{}, err
	}
	if err := checkPoints(goal.Points); err != nil {
		return backend.Goal{}, err
	}
	goal.Name = name

	err = s.mutate(ctx, "add goal", table.GoalsSchema, func(records []table.Record) ([]table.Record, error) {
		if nameTaken(records, name, -1) {
			return nil, fmt.Errorf("%w: goal %q", backend.ErrDuplicateName, name)
		}
		return append(records, goal.Record()), nil
	})
	if err != nil {
		return backend.Goal{}, err
	}
	return goal, nil
}

// UpdateGoal replaces every field of the goal stored as oldName.
func (s *Store) UpdateGoal(ctx context.Context, oldName string, goal backend.Goal) error {
	newName, err := cleanName(goal.Name)
	if err != nil {
		return err
	}
	if err := checkPoints(goal.Points); err != nil {
		return err
	}
	return s.mutate(ctx, "update goal", table.GoalsSchema, func(records []table.Record) ([]table.Record, error) {
		i := findName(records, oldName)
		if !strings.EqualFold(oldName, newName) && nameTaken(records, newName, i) {
			return nil, fmt.Errorf("%w: goal %q", backend.ErrDuplicateName, newName)
		}
		if i < 0 {
			return nil, fmt.Errorf("%w: goal %q", backend.ErrNotFound, oldName)
		}
		records[i]["name"] = newName
		records[i]["status"] = string(goal.Status)
		records[i]["deadline"] = goal.Deadline
		records[i]["points"] = strconv.Itoa(goal.Points)
		return records, nil
	})
}

// DeleteGoal removes the goal stored as name.
func (s *Store) DeleteGoal(ctx context.Context, name string) error {
	return s.mutate(ctx, "delete goal", table.GoalsSchema, func(records []table.Record) ([]table.Record, error) {
		i := findName(records, name)
		if i < 0 {
			return nil, fmt.Errorf("%w: goal %q", backend.ErrNotFound, name)
		}
		return append(records[:i], records[i+1:]...), nil
	})
}
