package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/xenforo-dl/internal/history"
	"github.com/nao1215/xenforo-dl/internal/model"
)

func executeHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := NewHistoryCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func seedHistory(t *testing.T, dir string, n int) {
	t.Helper()

	db, err := history.Open(t.Context(), dir, history.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open history: %v", err)
	}
	defer db.Close()

	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := range n {
		start := base.Add(time.Duration(i) * time.Hour)
		summary := &model.RunSummary{
			Targets:    []string{"https://forum.example.com/threads/t." + string(rune('a'+i)) + "/"},
			StartedAt:  start,
			FinishedAt: start.Add(2 * time.Minute),
			Status:     model.RunStatusCompleted,
			Stats:      model.DownloadStats{ProcessedThreadCount: i + 1},
		}
		if _, err := db.RecordRun(t.Context(), summary); err != nil {
			t.Fatalf("failed to record run: %v", err)
		}
	}
}

// TestHistoryCmd tests listing recorded runs.
func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		out, err := executeHistory(t, "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No runs recorded yet.") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("table output", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		seedHistory(t, dir, 3)
		out, err := executeHistory(t, "--db-dir", dir, "-n", "2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if n := strings.Count(out, "completed"); n != 2 {
			t.Errorf("expected 2 rows, got %d in %q", n, out)
		}
		if strings.Contains(out, "t.a/") {
			t.Errorf("expected the oldest run to be cut by the limit, got %q", out)
		}
		newest, older := strings.Index(out, "t.c/"), strings.Index(out, "t.b/")
		if newest < 0 || older < 0 || newest > older {
			t.Errorf("expected newest run first, got %q", out)
		}
		if !strings.Contains(out, "2m0s") {
			t.Errorf("expected duration, got %q", out)
		}
	})

	t.Run("json output", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		seedHistory(t, dir, 2)
		out, err := executeHistory(t, "--db-dir", dir, "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var runs []model.RunSummary
		if err := json.Unmarshal([]byte(out), &runs); err != nil {
			t.Fatalf("expected JSON, got %q: %v", out, err)
		}
		if len(runs) != 2 || runs[0].Stats.ProcessedThreadCount != 2 {
			t.Errorf("unexpected runs %+v", runs)
		}
	})

	t.Run("json output of empty history", func(t *testing.T) {
		t.Parallel()

		out, err := executeHistory(t, "--db-dir", t.TempDir(), "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(out) != "[]" {
			t.Errorf("expected empty array, got %q", out)
		}
	})
}
