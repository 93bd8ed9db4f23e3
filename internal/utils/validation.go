package utils

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// GoalStatuses lists the statuses a goal may carry.
var GoalStatuses = []string{"Not Started", "In Progress", "Completed"}

// ValidatePoints checks that a points value is not negative
func ValidatePoints(points int) error {
	if points < 0 {
		return fmt.Errorf("points must be zero or more, got %d", points)
	}
	return nil
}

// ValidateGoalStatus checks status against GoalStatuses
func ValidateGoalStatus(status string) error {
	for _, s := range GoalStatuses {
		if s == status {
			return nil
		}
	}
	return ErrInvalidStatus(status, GoalStatuses)
}

// ParseDateFlag resolves a --date flag to YYYY-MM-DD.
// Empty and "today" mean the day of now; "yesterday" the day before.
func ParseDateFlag(dateStr string, now time.Time) (string, error) {
	switch strings.ToLower(strings.TrimSpace(dateStr)) {
	case "", "today":
		return now.Format(dateLayout), nil
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(dateLayout), nil
	}

	parsed, err := time.ParseInLocation(dateLayout, dateStr, time.Local)
	if err != nil {
		return "", ErrInvalidDate(dateStr)
	}
	return parsed.Format(dateLayout), nil
}

// ValidateDeadline checks an optional goal deadline. Empty is allowed.
func ValidateDeadline(deadline string) error {
	if deadline == "" {
		return nil
	}
	if _, err := time.ParseInLocation(dateLayout, deadline, time.Local); err != nil {
		return ErrInvalidDate(deadline)
	}
	return nil
}
