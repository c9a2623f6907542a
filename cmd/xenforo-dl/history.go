package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nao1215/xenforo-dl/internal/config"
	"github.com/nao1215/xenforo-dl/internal/history"
	"github.com/nao1215/xenforo-dl/internal/model"
)

// defaultHistoryLimit is how many runs history lists by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous download runs",
		Long: `History lists recent download runs, newest first.

Every download records its targets, start time, duration, final status
(completed, cancelled or failed) and counters unless --no-history is set.

Examples:
  # Show the last 20 runs
  xenforo-dl history

  # Show the last 5 runs as JSON
  xenforo-dl history -n 5 --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to show (0 shows all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output runs as JSON")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	db, err := history.Open(cmd.Context(), dbDir, history.Options{})
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			if asJSON {
				_, err := fmt.Fprintln(out, "[]")
				return err
			}
			_, err := fmt.Fprintln(out, "No runs recorded yet.")
			return err
		}
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if asJSON {
		if runs == nil {
			runs = []model.RunSummary{}
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(runs)
	}
	return writeRunTable(out, runs)
}

// writeRunTable prints runs as a table.
func writeRunTable(out io.Writer, runs []model.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No runs recorded yet.")
		return err
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Duration().Round(time.Second).String(),
			string(r.Status),
			strconv.Itoa(r.Stats.ProcessedThreadCount),
			strconv.Itoa(r.Stats.ProcessedMessageCount),
			strconv.Itoa(r.Stats.DownloadedAttachmentCount),
			strconv.Itoa(r.Stats.ErrorCount),
			strings.Join(r.Targets, "\n"),
		})
	}

	table := tablewriter.NewWriter(out)
	table.Header([]string{"ID", "Started", "Duration", "Status", "Threads", "Messages", "Attachments", "Errors", "Targets"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
