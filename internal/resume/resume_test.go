package resume

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/xenforo-dl/internal/model"
)

// TestSaveLoad tests that a saved marker is loaded back.
func TestSaveLoad(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "Forum.1", "Thread.42")
	want := model.DownloadStatus{ThreadID: 42, URL: "https://forum.example.com/threads/t.42/page-2", MessageID: 1002}

	if err := Save(dir, want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := Load(dir, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || *got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	if _, err := os.Stat(filepath.Join(dir, ".dl-status-42")); err != nil {
		t.Errorf("expected marker file name .dl-status-42: %v", err)
	}
}

// TestSave_Overwrites tests that saving again advances the marker.
func TestSave_Overwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, id := range []int64{10, 11, 12} {
		if err := Save(dir, model.DownloadStatus{ThreadID: 1, URL: "https://x/threads/a.1/", MessageID: id}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	got, err := Load(dir, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MessageID != 12 {
		t.Errorf("expected message 12, got %d", got.MessageID)
	}
	if _, err := os.Stat(Path(dir, 1) + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("expected no temporary file left, got %v", err)
	}
}

// TestLoad_Missing tests that a missing marker is not an error.
func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	got, err := Load(t.TempDir(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil status, got %+v", got)
	}
}

// TestLoad_Corrupt tests that unusable markers fail with ErrCorruptState.
func TestLoad_Corrupt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{not json`},
		{"missing messageID", `{"threadID":42,"url":"https://x/threads/a.42/"}`},
		{"missing url", `{"threadID":42,"messageID":5}`},
		{"empty url", `{"threadID":42,"url":"","messageID":5}`},
		{"missing threadID", `{"url":"https://x/threads/a.42/","messageID":5}`},
		{"other thread", `{"threadID":7,"url":"https://x/threads/a.7/","messageID":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if err := os.WriteFile(Path(dir, 42), []byte(tt.content), 0o600); err != nil {
				t.Fatalf("failed to write marker: %v", err)
			}
			if _, err := Load(dir, 42); !errors.Is(err, ErrCorruptState) {
				t.Errorf("expected ErrCorruptState, got %v", err)
			}
		})
	}
}
