// Package stats derives daily and weekly figures from the store and writes
// the per-day progress snapshots back through it.
package stats

import (
	"context"
	"time"

	"habitualize/backend"
)

// Store is the part of the record store the aggregations read and write.
type Store interface {
	ActiveHabits(ctx context.Context) ([]backend.Habit, error)
	CompletedOn(ctx context.Context, date string) (map[string]bool, error)
	ListCompletions(ctx context.Context) ([]backend.Completion, error)
	ToggleCompletion(ctx context.Context, name string, completed bool, date string) error
	UpsertProgressSnapshot(ctx context.Context, date string, earned, possible int) error
	ProgressSnapshots(ctx context.Context, dates ...string) (map[string]backend.ProgressSnapshot, error)
	ListGoals(ctx context.Context) ([]backend.Goal, error)
}

// HabitStatus is one habit's row in the daily overview.
type HabitStatus struct {
	Name         string `json:"name" yaml:"name"`
	Points       int    `json:"points" yaml:"points"`
	Completed    bool   `json:"completed" yaml:"completed"`
	CreationDate string `json:"creation_date" yaml:"creation_date"`
}

// Overview is today's state of every active habit.
type Overview struct {
	Habits       []HabitStatus `json:"habits" yaml:"habits"`
	TotalPoints  int           `json:"total_points" yaml:"total_points"`
	EarnedPoints int           `json:"earned_points" yaml:"earned_points"`
	Percentage   int           `json:"percentage" yaml:"percentage"`
}

// StreakDay is one day of a habit's weekly streak.
type StreakDay struct {
	Date      string `json:"date" yaml:"date"`
	Day       string `json:"day" yaml:"day"`
	Completed bool   `json:"completed" yaml:"completed"`
	IsToday   bool   `json:"is_today" yaml:"is_today"`
}

// HabitPoints names a habit and its points.
type HabitPoints struct {
	Name   string `json:"name" yaml:"name"`
	Points int    `json:"points" yaml:"points"`
}

// DayProgress splits active habits into done and pending for one date and
// adds the trailing seven day rollup of stored snapshots.
type DayProgress struct {
	Date             string        `json:"date" yaml:"date"`
	EarnedPoints     int           `json:"earned_points" yaml:"earned_points"`
	TotalPoints      int           `json:"total_points" yaml:"total_points"`
	Percentage       int           `json:"percentage" yaml:"percentage"`
	CompletedHabits  []HabitPoints `json:"completed_habits" yaml:"completed_habits"`
	PendingHabits    []HabitPoints `json:"pending_habits" yaml:"pending_habits"`
	WeeklyEarned     int           `json:"weekly_earned" yaml:"weekly_earned"`
	WeeklyPossible   int           `json:"weekly_possible" yaml:"weekly_possible"`
	WeeklyPercentage int           `json:"weekly_percentage" yaml:"weekly_percentage"`
}

// GoalStats sums goal points by status.
type GoalStats struct {
	Completed  int `json:"completed" yaml:"completed"`
	InProgress int `json:"in_progress" yaml:"in_progress"`
	NotStarted int `json:"not_started" yaml:"not_started"`
	Total      int `json:"total" yaml:"total"`
}

// GoalReport is every goal plus its point totals.
type GoalReport struct {
	Goals []backend.Goal `json:"goals" yaml:"goals"`
	Stats GoalStats      `json:"stats" yaml:"stats"`
}

// Service computes the aggregations.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a Service. A nil now uses time.Now.
func NewService(store Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// Percentage is earned*100/possible rounded down, and 0 when possible is 0.
func Percentage(earned, possible int) int {
	if possible <= 0 {
		return 0
	}
	return earned * 100 / possible
}

func (s *Service) today() string {
	return backend.FormatDate(s.now())
}

// DailyOverview reports today's active habits and saves today's snapshot.
func (s *Service) DailyOverview(ctx context.Context) (Overview, error) {
	today := s.today()
	habits, err := s.store.ActiveHabits(ctx)
	if err != nil {
		return Overview{}, err
	}
	done, err := s.store.CompletedOn(ctx, today)
	if err != nil {
		return Overview{}, err
	}

	overview := Overview{Habits: make([]HabitStatus, 0, len(habits))}
	for _, h := range habits {
		overview.TotalPoints += h.Points
		if done[h.Name] {
			overview.EarnedPoints += h.Points
		}
		overview.Habits = append(overview.Habits, HabitStatus{
			Name:         h.Name,
			Points:       h.Points,
			Completed:    done[h.Name],
			CreationDate: h.CreationDate,
		})
	}
	overview.Percentage = Percentage(overview.EarnedPoints, overview.TotalPoints)

	if err := s.store.UpsertProgressSnapshot(ctx, today, overview.EarnedPoints, overview.TotalPoints); err != nil {
		return Overview{}, err
	}
	return overview, nil
}

// WeeklyStreak reports the seven days ending today, oldest first. The
// completions table is read once.
func (s *Service) WeeklyStreak(ctx context.Context, name string) ([]StreakDay, error) {
	completions, err := s.store.ListCompletions(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool)
	for _, c := range completions {
		if c.Name == name {
			done[c.Date] = true
		}
	}

	now := s.now()
	streak := make([]StreakDay, 0, 7)
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		date := backend.FormatDate(day)
		streak = append(streak, StreakDay{
			Date:      date,
			Day:       day.Format("Mon"),
			Completed: done[date],
			IsToday:   i == 0,
		})
	}
	return streak, nil
}

// ProgressForDate splits active habits for date, saves the date's snapshot
// and sums the snapshots of date and the six days before it.
func (s *Service) ProgressForDate(ctx context.Context, date string) (DayProgress, error) {
	target, err := backend.ParseDate(date)
	if err != nil {
		return DayProgress{}, err
	}

	progress, err := s.split(ctx, date)
	if err != nil {
		return DayProgress{}, err
	}
	if err := s.store.UpsertProgressSnapshot(ctx, date, progress.EarnedPoints, progress.TotalPoints); err != nil {
		return DayProgress{}, err
	}

	week := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		week = append(week, backend.FormatDate(target.AddDate(0, 0, -i)))
	}
	snapshots, err := s.store.ProgressSnapshots(ctx, week...)
	if err != nil {
		return DayProgress{}, err
	}
	for _, snap := range snapshots {
		progress.WeeklyEarned += snap.EarnedPoints
		progress.WeeklyPossible += snap.PossiblePoints
	}
	progress.WeeklyPercentage = Percentage(progress.WeeklyEarned, progress.WeeklyPossible)
	return progress, nil
}

func (s *Service) split(ctx context.Context, date string) (DayProgress, error) {
	habits, err := s.store.ActiveHabits(ctx)
	if err != nil {
		return DayProgress{}, err
	}
	done, err := s.store.CompletedOn(ctx, date)
	if err != nil {
		return DayProgress{}, err
	}

	p := DayProgress{
		Date:            date,
		CompletedHabits: []HabitPoints{},
		PendingHabits:   []HabitPoints{},
	}
	for _, h := range habits {
		p.TotalPoints += h.Points
		row := HabitPoints{Name: h.Name, Points: h.Points}
		if done[h.Name] {
			p.EarnedPoints += h.Points
			p.CompletedHabits = append(p.CompletedHabits, row)
		} else {
			p.PendingHabits = append(p.PendingHabits, row)
		}
	}
	p.Percentage = Percentage(p.EarnedPoints, p.TotalPoints)
	return p, nil
}

// ToggleProgress toggles a completion on date, today when empty, and
// refreshes that date's snapshot.
func (s *Service) ToggleProgress(ctx context.Context, name string, completed bool, date string) error {
	if date == "" {
		date = s.today()
	}
	if err := s.store.ToggleCompletion(ctx, name, completed, date); err != nil {
		return err
	}
	p, err := s.split(ctx, date)
	if err != nil {
		return err
	}
	return s.store.UpsertProgressSnapshot(ctx, date, p.EarnedPoints, p.TotalPoints)
}

// Goals lists goals and sums their points by status. Unknown statuses count
// as not started.
func (s *Service) Goals(ctx context.Context) (GoalReport, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return GoalReport{}, err
	}
	report := GoalReport{Goals: goals}
	for _, g := range goals {
		switch g.Status {
		case backend.GoalCompleted:
			report.Stats.Completed += g.Points
		case backend.GoalInProgress:
			report.Stats.InProgress += g.Points
		default:
			report.Stats.NotStarted += g.Points
		}
		report.Stats.Total += g.Points
	}
	return report, nil
}
