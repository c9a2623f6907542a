// Package resume persists the per-thread resume marker.
//
// Each thread directory holds one small JSON file recording the last message
// whose transcript record and attachments were fully written. There is no
// global index; a crash only ever affects the marker of the thread that was
// being written.
package resume

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/xenforo-dl/internal/layout"
	"github.com/nao1215/xenforo-dl/internal/model"
)

// ErrCorruptState is returned when a marker file exists but cannot be used.
var ErrCorruptState = errors.New("corrupt resume state")

// statusFile mirrors model.DownloadStatus with pointer fields so that
// missing fields can be told apart from zero values.
type statusFile struct {
	ThreadID  *int64  `json:"threadID"`
	URL       *string `json:"url"`
	MessageID *int64  `json:"messageID"`
}

// Path returns the marker path of threadID in dir.
func Path(dir string, threadID int64) string {
	return filepath.Join(dir, layout.StatusFilename(threadID))
}

// Save writes the marker of status.ThreadID into dir.
// The file is replaced atomically so a crash never leaves half a marker.
func Save(dir string, status model.DownloadStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode resume state: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	path := Path(dir, status.ThreadID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write resume state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write resume state: %w", err)
	}
	return nil
}

// Load reads the marker of threadID from dir.
// It returns (nil, nil) when no marker exists and ErrCorruptState when the
// file cannot be decoded, lacks a field or belongs to another thread.
func Load(dir string, threadID int64) (*model.DownloadStatus, error) {
	path := Path(dir, threadID)
	data, err := os.ReadFile(path) //nolint:gosec // path built from sanitized segments
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read resume state: %w", err)
	}

	var sf statusFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, path, err) //nolint:errorlint // ErrCorruptState is the matchable cause
	}
	if sf.ThreadID == nil || sf.URL == nil || sf.MessageID == nil || *sf.URL == "" {
		return nil, fmt.Errorf("%w: %s: missing required fields", ErrCorruptState, path)
	}
	if *sf.ThreadID != threadID {
		return nil, fmt.Errorf("%w: %s: marker belongs to thread %d", ErrCorruptState, path, *sf.ThreadID)
	}

	return &model.DownloadStatus{
		ThreadID:  *sf.ThreadID,
		URL:       *sf.URL,
		MessageID: *sf.MessageID,
	}, nil
}
