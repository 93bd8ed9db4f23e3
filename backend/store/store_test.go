package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitualize/backend"
	"habitualize/backend/mirror"
	"habitualize/backend/mirror/mirrortest"
	"habitualize/backend/store"
	"habitualize/backend/table"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)

func newStore(t *testing.T, syncer mirror.Syncer) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir(), syncer, store.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return s
}

func boolPtr(b bool) *bool { return &b }

func TestAddHabitRejectsCaseVariant(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	h, err := s.AddHabit(ctx, "  Read ", 10)
	require.NoError(t, err)
	assert.Equal(t, backend.Habit{Name: "Read", Points: 10, CreationDate: "2024-03-10"}, h)

	for _, variant := range []string{"read", "READ", "rEaD"} {
		_, err := s.AddHabit(ctx, variant, 3)
		assert.ErrorIs(t, err, backend.ErrDuplicateName, variant)
	}

	require.NoError(t, s.SetHabitArchived(ctx, "Read", true))
	_, err = s.AddHabit(ctx, "read", 3)
	assert.ErrorIs(t, err, backend.ErrDuplicateName, "archived habits still hold their name")

	habits, err := s.ListHabits(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, habits, 1)
}

func TestAddHabitRequiresName(t *testing.T) {
	s := newStore(t, nil)
	_, err := s.AddHabit(context.Background(), "   ", 1)
	assert.ErrorIs(t, err, backend.ErrNameRequired)
}

func TestListHabitsFilter(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	for _, name := range []string{"Read", "Run", "Stretch"} {
		_, err := s.AddHabit(ctx, name, 1)
		require.NoError(t, err)
	}
	require.NoError(t, s.SetHabitArchived(ctx, "Run", true))

	all, err := s.ListHabits(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := s.ListHabits(ctx, boolPtr(false))
	require.NoError(t, err)
	assert.Equal(t, []string{"Read", "Stretch"}, names(active))

	archived, err := s.ListHabits(ctx, boolPtr(true))
	require.NoError(t, err)
	assert.Equal(t, []string{"Run"}, names(archived))
}

func TestListHabitsTreatsUnknownFlagAsActive(t *testing.T) {
	dir := t.TempDir()
	content := "name,points,archived,creation_date\r\nRead,5,yes,2024-01-01\r\nRun,x,True,\r\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "habits.csv"), []byte(content), 0644))

	s, err := store.New(dir, nil)
	require.NoError(t, err)

	active, err := s.ActiveHabits(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Read", active[0].Name)

	archived, err := s.ListHabits(context.Background(), boolPtr(true))
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, 0, archived[0].Points)
}

func TestUpdateHabit(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	_, err := s.AddHabit(ctx, "Read", 5)
	require.NoError(t, err)
	_, err = s.AddHabit(ctx, "Run", 10)
	require.NoError(t, err)
	require.NoError(t, s.SetHabitArchived(ctx, "Read", true))

	err = s.UpdateHabit(ctx, "Read", "RUN", 7)
	assert.ErrorIs(t, err, backend.ErrDuplicateName)

	require.NoError(t, s.UpdateHabit(ctx, "Read", "read", 7), "case-only rename is allowed")
	require.NoError(t, s.UpdateHabit(ctx, "read", "Read books", 8))

	habits, err := s.ListHabits(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, backend.Habit{Name: "Read books", Points: 8, Archived: true, CreationDate: "2024-03-10"}, habits[0])

	assert.ErrorIs(t, s.UpdateHabit(ctx, "Missing", "Other", 1), backend.ErrNotFound)
	assert.ErrorIs(t, s.UpdateHabit(ctx, "Run", "", 1), backend.ErrNameRequired)
}

func TestNegativePointsAreRejected(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	_, err := s.AddHabit(ctx, "Bad", -5)
	assert.ErrorIs(t, err, backend.ErrInvalidPoints)
	_, err = s.AddHabit(ctx, "Good", 10)
	require.NoError(t, err)
	assert.ErrorIs(t, s.UpdateHabit(ctx, "Good", "Good", -1), backend.ErrInvalidPoints)

	habits, err := s.ListHabits(ctx, nil)
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, 10, habits[0].Points)

	_, err = s.AddGoal(ctx, backend.Goal{Name: "Marathon", Points: -20})
	assert.ErrorIs(t, err, backend.ErrInvalidPoints)
	_, err = s.AddGoal(ctx, backend.Goal{Name: "Marathon", Points: 20})
	require.NoError(t, err)
	assert.ErrorIs(t, s.UpdateGoal(ctx, "Marathon", backend.Goal{Name: "Marathon", Points: -1}), backend.ErrInvalidPoints)

	goals, err := s.ListGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, 20, goals[0].Points)

	_, err = s.AddHabit(ctx, "Zero", 0)
	assert.NoError(t, err)
}

func TestUnknownNamesReportNotFound(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	assert.ErrorIs(t, s.SetHabitArchived(ctx, "Ghost", true), backend.ErrNotFound)
	assert.ErrorIs(t, s.DeleteHabit(ctx, "Ghost"), backend.ErrNotFound)
	assert.ErrorIs(t, s.DeleteGoal(ctx, "Ghost"), backend.ErrNotFound)
	assert.ErrorIs(t, s.ToggleCompletion(ctx, "Ghost", true, ""), backend.ErrNotFound)
	assert.NoError(t, s.ToggleCompletion(ctx, "Ghost", false, ""))
}

func TestToggleCompletionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)
	_, err := s.AddHabit(ctx, "Read", 5)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.ToggleCompletion(ctx, "Read", true, "2024-03-09"))
	}
	completions, err := s.ListCompletions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []backend.Completion{{Date: "2024-03-09", Name: "Read"}}, completions)

	for i := 0; i < 2; i++ {
		require.NoError(t, s.ToggleCompletion(ctx, "Read", false, "2024-03-09"))
	}
	completions, err = s.ListCompletions(ctx)
	require.NoError(t, err)
	assert.Empty(t, completions)
}

func TestToggleCompletionDefaultsToToday(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)
	_, err := s.AddHabit(ctx, "Read", 5)
	require.NoError(t, err)

	require.NoError(t, s.ToggleCompletion(ctx, "Read", true, ""))

	done, err := s.CompletedOn(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"Read": true}, done)

	assert.ErrorIs(t, s.ToggleCompletion(ctx, "Read", true, "10/03/2024"), backend.ErrInvalidDate)
}

func TestDeleteHabitCascadesCompletions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	for _, name := range []string{"Read", "Run"} {
		_, err := s.AddHabit(ctx, name, 5)
		require.NoError(t, err)
	}
	for _, date := range []string{"2024-03-08", "2024-03-09", "2024-03-10"} {
		require.NoError(t, s.ToggleCompletion(ctx, "Read", true, date))
		require.NoError(t, s.ToggleCompletion(ctx, "Run", true, date))
	}
	require.NoError(t, s.ToggleCompletion(ctx, "Read", false, "2024-03-09"))

	require.NoError(t, s.DeleteHabit(ctx, "Read"))

	habits, err := s.ListHabits(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Run"}, names(habits))

	completions, err := s.ListCompletions(ctx)
	require.NoError(t, err)
	require.Len(t, completions, 3)
	for _, c := range completions {
		assert.Equal(t, "Run", c.Name)
	}
}

func TestGoals(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	_, err := s.AddGoal(ctx, backend.Goal{Name: "Learn Go", Status: backend.GoalInProgress, Points: 20})
	require.NoError(t, err)
	_, err = s.AddGoal(ctx, backend.Goal{Name: "Ship v1", Status: "Someday", Deadline: "2024-06-01", Points: 50})
	require.NoError(t, err)

	_, err = s.AddGoal(ctx, backend.Goal{Name: "learn go"})
	assert.ErrorIs(t, err, backend.ErrDuplicateName)
	assert.ErrorIs(t, s.UpdateGoal(ctx, "Ship v1", backend.Goal{Name: "LEARN GO"}), backend.ErrDuplicateName)
	assert.ErrorIs(t, s.UpdateGoal(ctx, "Nope", backend.Goal{Name: "Other"}), backend.ErrNotFound)

	require.NoError(t, s.UpdateGoal(ctx, "Ship v1", backend.Goal{
		Name: "Ship v2", Status: backend.GoalCompleted, Deadline: "", Points: 60,
	}))
	require.NoError(t, s.DeleteGoal(ctx, "Learn Go"))

	goals, err := s.ListGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []backend.Goal{{Name: "Ship v2", Status: backend.GoalCompleted, Points: 60}}, goals)
}

func TestUpsertProgressSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	_, ok, err := s.GetProgressSnapshot(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.UpsertProgressSnapshot(ctx, "2024-03-10", 5, 10))
	require.NoError(t, s.UpsertProgressSnapshot(ctx, "2024-03-09", 1, 2))
	require.NoError(t, s.UpsertProgressSnapshot(ctx, "2024-03-10", 10, 15))

	got, ok, err := s.GetProgressSnapshot(ctx, "2024-03-10")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, backend.ProgressSnapshot{Date: "2024-03-10", EarnedPoints: 10, PossiblePoints: 15}, got)

	data, err := os.ReadFile(filepath.Join(s.Dir(), "progress_log.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"date,earned_points,possible_points\r\n2024-03-10,10,15\r\n2024-03-09,1,2\r\n",
		string(data))

	assert.ErrorIs(t, s.UpsertProgressSnapshot(ctx, "yesterday", 1, 1), backend.ErrInvalidDate)
}

func TestCorruptTableAbortsOperation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "goals.csv"), []byte("title\r\nx\r\n"), 0644))

	s, err := store.New(dir, nil)
	require.NoError(t, err)

	_, err = s.AddGoal(context.Background(), backend.Goal{Name: "Anything"})
	var decodeErr *table.DecodeError
	assert.True(t, errors.As(err, &decodeErr))

	var storeErr *backend.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "goals.csv", storeErr.Table)

	data, err := os.ReadFile(filepath.Join(dir, "goals.csv"))
	require.NoError(t, err)
	assert.Equal(t, "title\r\nx\r\n", string(data))
}

func TestReadThroughAndWriteThrough(t *testing.T) {
	ctx := context.Background()
	remote := mirrortest.NewRemote()
	remote.Put("habits.csv", []byte("name,points,archived,creation_date\r\nRemote,3,False,2024-01-01\r\n"))
	s := newStore(t, mirror.New(remote))

	habits, err := s.ListHabits(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Remote"}, names(habits))

	_, err = s.AddHabit(ctx, "Local", 4)
	require.NoError(t, err)

	content, ok := remote.Content("habits.csv")
	require.True(t, ok)
	assert.Equal(t,
		"name,points,archived,creation_date\r\nRemote,3,False,2024-01-01\r\nLocal,4,False,2024-03-10\r\n",
		string(content))
}

func TestRemoteFailureDoesNotFailOperations(t *testing.T) {
	ctx := context.Background()
	remote := mirrortest.NewRemote()
	remote.Err = errors.New("connection refused")
	s := newStore(t, mirror.New(remote))

	_, err := s.AddHabit(ctx, "Read", 5)
	require.NoError(t, err)

	habits, err := s.ListHabits(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Read"}, names(habits))
	assert.Positive(t, remote.Fetches)
}

func TestConcurrentTogglesAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, nil)

	const n = 20
	for i := 0; i < n; i++ {
		_, err := s.AddHabit(ctx, string(rune('A'+i)), 1)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			assert.NoError(t, s.ToggleCompletion(ctx, name, true, "2024-03-10"))
		}(string(rune('A' + i)))
	}
	wg.Wait()

	done, err := s.CompletedOn(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Len(t, done, n)
}

func TestSyncAndPublish(t *testing.T) {
	ctx := context.Background()

	_, err := newStore(t, nil).Sync(ctx)
	assert.ErrorIs(t, err, store.ErrNoRemote)

	remote := mirrortest.NewRemote()
	remote.Put("goals.csv", []byte("name,status,deadline,points\r\nRemote goal,Completed,,5\r\n"))
	s := newStore(t, mirror.New(remote))

	results, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.NoError(t, results["goals.csv"])
	assert.ErrorIs(t, results["habits.csv"], mirror.ErrRemoteNotFound)

	goals, err := s.ListGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goals, 1)

	published, err := s.Publish(ctx)
	require.NoError(t, err)
	assert.Contains(t, published, "goals.csv")
	assert.NotContains(t, published, "habits.csv", "tables never written locally are skipped")
}

func names(habits []backend.Habit) []string {
	out := make([]string, 0, len(habits))
	for _, h := range habits {
		out = append(out, h.Name)
	}
	return out
}
