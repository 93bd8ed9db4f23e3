package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"habitualize/internal/config"
	"habitualize/internal/utils"
)

var dataDir string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "habitualize-cmd-*")
	if err != nil {
		panic(err)
	}
	dataDir = filepath.Join(dir, "data")
	cfg := "data_dir: " + dataDir + "\nlog:\n  level: error\nremote:\n  type: none\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0644); err != nil {
		panic(err)
	}
	config.SetCustomConfigPath(dir)

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// run executes one command line against a fresh command tree.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	c := &session{}
	root := newRootCmd(c)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	c.shutdown()
	return out.String(), err
}

func TestHabitCommands(t *testing.T) {
	out, err := run(t, "", "habit", "add", "Read", "10")
	if err != nil {
		t.Fatalf("habit add: %v", err)
	}
	if !strings.Contains(out, "Added habit 'Read' (10 pts)") {
		t.Errorf("unexpected output %q", out)
	}

	_, err = run(t, "", "habit", "add", "read", "3")
	var suggestion *utils.ErrorWithSuggestion
	if !errors.As(err, &suggestion) {
		t.Fatalf("duplicate add: expected suggestion error, got %v", err)
	}

	if _, err := run(t, "", "habit", "add", "Run", "lots"); err == nil {
		t.Error("expected error for non-numeric points")
	}

	if _, err := run(t, "", "habit", "done", "Read"); err != nil {
		t.Fatalf("habit done: %v", err)
	}

	out, err = run(t, "", "today", "-o", "json")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	var overview struct {
		TotalPoints  int `json:"total_points"`
		EarnedPoints int `json:"earned_points"`
		Percentage   int `json:"percentage"`
	}
	if err := json.Unmarshal([]byte(out), &overview); err != nil {
		t.Fatalf("today output is not JSON: %v\n%s", err, out)
	}
	if overview.EarnedPoints != 10 || overview.TotalPoints != 10 || overview.Percentage != 100 {
		t.Errorf("unexpected overview %+v", overview)
	}

	if _, err := run(t, "", "habit", "update", "Read", "--points", "4"); err != nil {
		t.Fatalf("habit update: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dataDir, "habits.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Read,4,False,") {
		t.Errorf("habits.csv not updated:\n%s", data)
	}

	if _, err := run(t, "", "habit", "update", "Nope", "--points", "4"); !errors.As(err, &suggestion) {
		t.Errorf("expected habit not found, got %v", err)
	}

	out, err = run(t, "n\n", "habit", "delete", "Read")
	if err != nil || !strings.Contains(out, "Cancelled") {
		t.Errorf("declined delete: out=%q err=%v", out, err)
	}
	if _, err := run(t, "", "habit", "delete", "Read", "--force"); err != nil {
		t.Fatalf("habit delete: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(dataDir, "completions.csv"))
	if strings.Contains(string(data), "Read") {
		t.Errorf("completions not cascaded:\n%s", data)
	}
}

func TestGoalCommands(t *testing.T) {
	if _, err := run(t, "", "goal", "add", "Marathon", "--status", "Someday"); err == nil {
		t.Error("expected invalid status error")
	}
	if _, err := run(t, "", "goal", "add", "Marathon", "--deadline", "next year"); err == nil {
		t.Error("expected invalid deadline error")
	}
	if _, err := run(t, "", "goal", "add", "Marathon", "--points", "100", "--deadline", "2025-10-12"); err != nil {
		t.Fatalf("goal add: %v", err)
	}
	if _, err := run(t, "", "goal", "update", "Marathon", "--status", "Completed"); err != nil {
		t.Fatalf("goal update: %v", err)
	}

	out, err := run(t, "", "goal", "list", "-o", "json")
	if err != nil {
		t.Fatalf("goal list: %v", err)
	}
	var report struct {
		Goals []struct {
			Name     string `json:"name"`
			Status   string `json:"status"`
			Deadline string `json:"deadline"`
		} `json:"goals"`
		Stats struct {
			Completed int `json:"completed"`
		} `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("goal list output is not JSON: %v\n%s", err, out)
	}
	if len(report.Goals) != 1 || report.Goals[0].Status != "Completed" || report.Goals[0].Deadline != "2025-10-12" {
		t.Errorf("unexpected goals %+v", report.Goals)
	}
	if report.Stats.Completed != 100 {
		t.Errorf("completed points = %d, want 100", report.Stats.Completed)
	}

	if _, err := run(t, "", "goal", "delete", "Marathon", "-f"); err != nil {
		t.Fatalf("goal delete: %v", err)
	}
	if _, err := run(t, "", "goal", "delete", "Marathon", "-f"); err == nil {
		t.Error("expected goal not found")
	}
}

func TestProgressRejectsBadDate(t *testing.T) {
	if _, err := run(t, "", "progress", "March"); err == nil {
		t.Error("expected invalid date error")
	}
	if _, err := run(t, "", "progress", "2024-03-10", "-o", "yaml"); err != nil {
		t.Errorf("progress: %v", err)
	}
}

func TestSyncWithoutRemote(t *testing.T) {
	for _, args := range [][]string{{"sync", "pull"}, {"sync", "push"}, {"sync", "status"}} {
		_, err := run(t, "", args...)
		var suggestion *utils.ErrorWithSuggestion
		if !errors.As(err, &suggestion) {
			t.Errorf("%v: expected remote not configured, got %v", args, err)
		}
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	if _, err := run(t, "", "today", "-o", "xml"); err == nil {
		t.Error("expected error for unknown output format")
	}
}
