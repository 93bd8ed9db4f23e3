package backend

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"habitualize/backend/table"
)

// DateLayout is the stored date format.
const DateLayout = "2006-01-02"

// FormatDate renders t as a stored date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a stored date in the local timezone.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrInvalidDate, s)
	}
	return d, nil
}

// GoalStatus is stored verbatim; the three known values drive goal stats.
type GoalStatus string

const (
	GoalNotStarted GoalStatus = "Not Started"
	GoalInProgress GoalStatus = "In Progress"
	GoalCompleted  GoalStatus = "Completed"
)

type Habit struct {
	Name         string `json:"name" yaml:"name"`
	Points       int    `json:"points" yaml:"points"`
	Archived     bool   `json:"archived" yaml:"archived"`
	CreationDate string `json:"creation_date" yaml:"creation_date"`
}

// Completion marks a habit as done on a date.
type Completion struct {
	Date string `json:"date" yaml:"date"`
	Name string `json:"name" yaml:"name"`
}

// ProgressSnapshot is the cached rollup of one day.
type ProgressSnapshot struct {
	Date           string `json:"date" yaml:"date"`
	EarnedPoints   int    `json:"earned_points" yaml:"earned_points"`
	PossiblePoints int    `json:"possible_points" yaml:"possible_points"`
}

type Goal struct {
	Name     string     `json:"name" yaml:"name"`
	Status   GoalStatus `json:"status" yaml:"status"`
	Deadline string     `json:"deadline" yaml:"deadline"`
	Points   int        `json:"points" yaml:"points"`
}

// FormatBool renders a flag the way the tables store it.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// parseFlag treats anything but the literal "True" as false.
func parseFlag(s string) bool {
	return s == "True"
}

// parsePoints reads an integer column; unparsable values count as zero.
func parsePoints(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func HabitFromRecord(r table.Record) Habit {
	return Habit{
		Name:         r["name"],
		Points:       parsePoints(r["points"]),
		Archived:     parseFlag(r["archived"]),
		CreationDate: r["creation_date"],
	}
}

func (h Habit) Record() table.Record {
	return table.Record{
		"name":          h.Name,
		"points":        strconv.Itoa(h.Points),
		"archived":      FormatBool(h.Archived),
		"creation_date": h.CreationDate,
	}
}

func CompletionFromRecord(r table.Record) Completion {
	return Completion{Date: r["date"], Name: r["name"]}
}

func (c Completion) Record() table.Record {
	return table.Record{"date": c.Date, "name": c.Name}
}

func ProgressFromRecord(r table.Record) ProgressSnapshot {
	return ProgressSnapshot{
		Date:           r["date"],
		EarnedPoints:   parsePoints(r["earned_points"]),
		PossiblePoints: parsePoints(r["possible_points"]),
	}
}

func (p ProgressSnapshot) Record() table.Record {
	return table.Record{
		"date":            p.Date,
		"earned_points":   strconv.Itoa(p.EarnedPoints),
		"possible_points": strconv.Itoa(p.PossiblePoints),
	}
}

func GoalFromRecord(r table.Record) Goal {
	return Goal{
		Name:     r["name"],
		Status:   GoalStatus(r["status"]),
		Deadline: r["deadline"],
		Points:   parsePoints(r["points"]),
	}
}

func (g Goal) Record() table.Record {
	return table.Record{
		"name":     g.Name,
		"status":   string(g.Status),
		"deadline": g.Deadline,
		"points":   strconv.Itoa(g.Points),
	}
}
