package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nao1215/xenforo-dl/internal/layout"
	"github.com/nao1215/xenforo-dl/internal/model"
)

// Writer appends message records to one transcript file.
type Writer struct {
	f    *os.File
	path string
}

// Create creates (or truncates) the transcript of t for a run starting at
// page and writes the thread header.
func Create(dir string, t *model.Thread, page int) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, layout.TranscriptFilename(t.ID, page, t.Title))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path built from sanitized segments
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript: %w", err)
	}

	w := &Writer{f: f, path: path}
	if _, err := f.WriteString(FormatHeader(t)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write transcript header: %w", err)
	}
	return w, nil
}

// OpenAppend opens an existing transcript for appending.
func OpenAppend(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path found in the thread directory
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	return &Writer{f: f, path: path}, nil
}

// Open returns a writer for the transcript of t. When resuming, the newest
// transcript already in dir is appended to; otherwise, or when none exists,
// a new one named after page is created.
func Open(dir string, t *model.Thread, page int, resuming bool) (*Writer, error) {
	if resuming {
		latest, err := FindLatest(dir, t.ID)
		if err != nil {
			return nil, err
		}
		if latest != "" {
			return OpenAppend(latest)
		}
	}
	return Create(dir, t, page)
}

// FindLatest returns the transcript of threadID in dir with the highest
// starting page, or "" when there is none.
func FindLatest(dir string, threadID int64) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to list transcripts: %w", err)
	}

	best, bestPage := "", 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, page, ok := layout.ParseTranscriptFilename(e.Name())
		if !ok || id != threadID {
			continue
		}
		if page > bestPage {
			best, bestPage = e.Name(), page
		}
	}
	if best == "" {
		return "", nil
	}
	return filepath.Join(dir, best), nil
}

// Path returns the transcript file path.
func (w *Writer) Path() string {
	return w.path
}

// WriteMessage appends the record of m.
func (w *Writer) WriteMessage(m model.ThreadMessage) error {
	if _, err := w.f.WriteString(FormatMessage(m)); err != nil {
		return fmt.Errorf("failed to append message %d: %w", m.ID, err)
	}
	return nil
}

// Close closes the transcript file.
func (w *Writer) Close() error {
	return w.f.Close()
}

// FormatHeader returns the header written on top of a new transcript.
func FormatHeader(t *model.Thread) string {
	var b strings.Builder
	b.WriteString(t.Title + "\n")
	b.WriteString(t.URL + "\n")
	if len(t.Breadcrumbs) > 0 {
		titles := make([]string, len(t.Breadcrumbs))
		for i, c := range t.Breadcrumbs {
			titles[i] = c.Title
		}
		b.WriteString(strings.Join(titles, " > ") + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// FormatMessage returns the transcript record of m.
func FormatMessage(m model.ThreadMessage) string {
	meta := m.Index + " [/goto/post?id=" + strconv.FormatInt(m.ID, 10) + "]"
	if !m.PublishedAt.IsZero() {
		meta += " - " + m.PublishedAt.UTC().Format(time.RFC3339)
	}
	author := m.Author
	if author == "" {
		author = "(unknown)"
	}
	byLine := "by " + author

	sep := strings.Repeat("-", max(utf8.RuneCountInString(meta), utf8.RuneCountInString(byLine)))

	var b strings.Builder
	b.WriteString(sep + "\n")
	b.WriteString(meta + "\n")
	b.WriteString(byLine + "\n")
	b.WriteString(sep + "\n")
	b.WriteString("\n")
	if m.Body != "" {
		b.WriteString(m.Body + "\n")
	}

	if len(m.Attachments) > 0 {
		b.WriteString("\nAttachments\n")
		for i, a := range m.Attachments {
			name := a.Filename
			if name == "" {
				name = layout.AttachmentFilename(a)
			}
			b.WriteString(strconv.Itoa(i+1) + ": " + name + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}
