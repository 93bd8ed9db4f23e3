package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"habitualize/backend"
	"habitualize/backend/mirror"
	"habitualize/internal/stats"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	nameStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// GetTerminalWidth returns the current terminal width, defaulting to 80 if unable to detect
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return width
}

func borderWidth() int {
	w := GetTerminalWidth() - 2
	if w < 40 {
		return 40
	}
	if w > 100 {
		return 100
	}
	return w
}

// header writes "┌─ title ───┐" padded to the border width.
func header(w io.Writer, title string) {
	text := "─ " + title + " "
	pad := borderWidth() - len([]rune(text))
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintln(w, headerStyle.Render("┌"+text+strings.Repeat("─", pad)+"┐"))
}

func footer(w io.Writer) {
	fmt.Fprintln(w, headerStyle.Render("└"+strings.Repeat("─", borderWidth())+"┘"))
}

func check(done bool) string {
	if done {
		return doneStyle.Render("[x]")
	}
	return "[ ]"
}

func score(earned, possible, percentage int) string {
	return fmt.Sprintf("%d/%d points (%d%%)", earned, possible, percentage)
}

// ShowOverview renders today's checklist.
func ShowOverview(w io.Writer, o stats.Overview) error {
	header(w, "Today "+score(o.EarnedPoints, o.TotalPoints, o.Percentage))
	if len(o.Habits) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  No active habits. Add one with 'habitualize habit add <name> <points>'."))
	}
	for _, h := range o.Habits {
		fmt.Fprintf(w, "  %s %-30s %s\n", check(h.Completed), nameStyle.Render(h.Name), mutedStyle.Render(fmt.Sprintf("%d pts", h.Points)))
	}
	footer(w)
	return nil
}

// ShowHabits renders habits with their points and state.
func ShowHabits(w io.Writer, habits []backend.Habit) error {
	header(w, "Habits")
	if len(habits) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  No habits"))
	}
	for i, h := range habits {
		line := fmt.Sprintf("  %2d. %-30s %4d pts  since %s", i+1, nameStyle.Render(h.Name), h.Points, h.CreationDate)
		if h.Archived {
			line += mutedStyle.Render("  (archived)")
		}
		fmt.Fprintln(w, line)
	}
	footer(w)
	return nil
}

// ShowStreak renders the last seven days of one habit.
func ShowStreak(w io.Writer, name string, streak []stats.StreakDay) error {
	header(w, name+" this week")
	var days, marks []string
	for _, d := range streak {
		day := d.Day
		if d.IsToday {
			day = nameStyle.Render(day)
		}
		days = append(days, fmt.Sprintf("%-3s", day))
		mark := " · "
		if d.Completed {
			mark = doneStyle.Render(" ✓ ")
		}
		marks = append(marks, mark)
	}
	fmt.Fprintln(w, "  "+strings.Join(days, " "))
	fmt.Fprintln(w, "  "+strings.Join(marks, " "))
	footer(w)
	return nil
}

// ShowProgress renders one day's split and the trailing week.
func ShowProgress(w io.Writer, p stats.DayProgress) error {
	header(w, p.Date+" "+score(p.EarnedPoints, p.TotalPoints, p.Percentage))
	for _, h := range p.CompletedHabits {
		fmt.Fprintf(w, "  %s %-30s %s\n", check(true), h.Name, mutedStyle.Render(fmt.Sprintf("%d pts", h.Points)))
	}
	for _, h := range p.PendingHabits {
		fmt.Fprintf(w, "  %s %-30s %s\n", check(false), h.Name, mutedStyle.Render(fmt.Sprintf("%d pts", h.Points)))
	}
	fmt.Fprintf(w, "  Week: %s\n", score(p.WeeklyEarned, p.WeeklyPossible, p.WeeklyPercentage))
	footer(w)
	return nil
}

// ShowGoals renders goals and the points per status.
func ShowGoals(w io.Writer, r stats.GoalReport) error {
	header(w, "Goals")
	if len(r.Goals) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  No goals"))
	}
	for _, g := range r.Goals {
		deadline := ""
		if g.Deadline != "" {
			deadline = "  due " + g.Deadline
		}
		status := string(g.Status)
		if g.Status == backend.GoalCompleted {
			status = doneStyle.Render(status)
		}
		fmt.Fprintf(w, "  %-30s %-12s %4d pts%s\n", nameStyle.Render(g.Name), status, g.Points, mutedStyle.Render(deadline))
	}
	s := r.Stats
	fmt.Fprintf(w, "  Completed %d · In progress %d · Not started %d · Total %d\n", s.Completed, s.InProgress, s.NotStarted, s.Total)
	footer(w)
	return nil
}

// ShowSyncResults renders the outcome of a pull or push per table.
func ShowSyncResults(w io.Writer, direction mirror.Direction, results map[string]error) error {
	tables := make([]string, 0, len(results))
	for t := range results {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	failed := 0
	for _, t := range tables {
		if err := results[t]; err != nil {
			failed++
			fmt.Fprintf(w, "%s %s %s: %v\n", failStyle.Render("✗"), direction, t, err)
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", doneStyle.Render("✓"), direction, t)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tables failed to %s", failed, len(tables), direction)
	}
	return nil
}

func when(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// ShowSyncStatus renders the recorded sync state of each table.
func ShowSyncStatus(w io.Writer, remote string, status []mirror.TableStatus) error {
	header(w, "Sync status: "+remote)
	if len(status) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  Nothing synced yet"))
	}
	for _, st := range status {
		revision := st.Revision
		if len(revision) > 12 {
			revision = revision[:12]
		}
		fmt.Fprintf(w, "  %-18s rev %-12s pulled %s  pushed %s\n", nameStyle.Render(st.Table), revision, when(st.LastPull), when(st.LastPush))
		if st.LastError != "" {
			fmt.Fprintf(w, "    %s\n", failStyle.Render(st.LastError))
		}
	}
	footer(w)
	return nil
}
