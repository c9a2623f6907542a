package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/nao1215/xenforo-dl/internal/model"
)

// SimpleWriter outputs a human-readable text summary.
type SimpleWriter struct {
	baseWriter

	// colored enables ANSI colors on the status line.
	colored bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithColor enables or disables ANSI colors.
func WithColor(enabled bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.colored = enabled
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
// Colors are off unless enabled with WithColor.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("DOWNLOAD SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	for _, target := range summary.Targets {
		sb.WriteString(fmt.Sprintf("Target:      %s\n", target))
	}
	sb.WriteString(fmt.Sprintf("Started:     %s\n", summary.StartedAt.Format(timeLayout)))
	sb.WriteString(fmt.Sprintf("Duration:    %s\n", summary.Duration().Round(time.Second)))
	sb.WriteString(fmt.Sprintf("Status:      %s\n", w.statusText(summary)))
	sb.WriteString("\n")

	stats := summary.Stats
	sb.WriteString(fmt.Sprintf("  Forums:                %d\n", stats.ProcessedForumCount))
	sb.WriteString(fmt.Sprintf("  Threads:               %d\n", stats.ProcessedThreadCount))
	sb.WriteString(fmt.Sprintf("  Messages:              %d\n", stats.ProcessedMessageCount))
	sb.WriteString(fmt.Sprintf("  Attachments:           %d\n", stats.DownloadedAttachmentCount))
	sb.WriteString(fmt.Sprintf("  Attachments (skipped): %d\n", stats.SkippedExistingAttachmentCount))
	sb.WriteString(fmt.Sprintf("  Errors:                %d\n", stats.ErrorCount))

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// statusText returns the status line of the summary.
func (w *SimpleWriter) statusText(summary *model.RunSummary) string {
	var (
		text string
		attr color.Attribute
	)
	switch summary.Status {
	case model.RunStatusCancelled:
		text, attr = "CANCELLED (partial download, re-run to resume)", color.FgYellow
	case model.RunStatusFailed:
		text, attr = "FAILED - "+summary.Error, color.FgRed
	default:
		text, attr = "Completed", color.FgGreen
		if summary.Stats.HasErrors() {
			text, attr = "Completed with errors", color.FgYellow
		}
	}

	c := color.New(attr)
	if w.colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(text)
}
