package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/xenforo-dl/internal/model"
)

// MarkdownWriter outputs the summary as a Markdown document.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounters(md, summary)
	w.writeAlert(md, summary)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("xenforo-dl Download Summary")
	md.PlainText("")

	targets := make([]string, len(summary.Targets))
	for i, t := range summary.Targets {
		targets[i] = "`" + t + "`"
	}
	md.BulletList(targets...)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", summary.StartedAt.Format(timeLayout)},
			{"Duration", summary.Duration().Round(time.Second).String()},
			{"Status", string(summary.Status)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeCounters(md *markdown.Markdown, summary *model.RunSummary) {
	stats := summary.Stats

	md.H2("Counters")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Forums", strconv.Itoa(stats.ProcessedForumCount)},
			{"Threads", strconv.Itoa(stats.ProcessedThreadCount)},
			{"Messages", strconv.Itoa(stats.ProcessedMessageCount)},
			{"Attachments downloaded", strconv.Itoa(stats.DownloadedAttachmentCount)},
			{"Attachments skipped", strconv.Itoa(stats.SkippedExistingAttachmentCount)},
			{"Errors", strconv.Itoa(stats.ErrorCount)},
		},
	})
	md.PlainText("")

	if stats.DownloadedAttachmentCount+stats.SkippedExistingAttachmentCount > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Attachments"),
			piechart.WithShowData(true),
		)
		// counters are never negative
		chart.LabelAndIntValue("Downloaded", uint64(stats.DownloadedAttachmentCount))   //nolint:gosec
		chart.LabelAndIntValue("Skipped", uint64(stats.SkippedExistingAttachmentCount)) //nolint:gosec

		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.RunSummary) {
	switch {
	case summary.Status == model.RunStatusFailed:
		md.Cautionf("The run was aborted: %s", summary.Error)
	case summary.Status == model.RunStatusCancelled:
		md.Warningf("The run was cancelled. Run the same command again to resume.")
	case summary.Stats.HasErrors():
		md.Importantf("%d unit(s) failed. See the log for details.", summary.Stats.ErrorCount)
	default:
		md.Tip("All targets were downloaded without errors.")
	}
	md.PlainText("")
}
