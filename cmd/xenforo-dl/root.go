package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for xenforo-dl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xenforo-dl",
		Short: "Download threads and attachments from XenForo forums",
		Long: `xenforo-dl downloads XenForo forums for offline reading.

Give it a thread URL to download one thread, a forum URL to download the
forum with all of its subforums, or any other page of the site to download
every forum linked from it. Messages are written to plain text transcripts
and attachments are saved next to them.

Interrupted downloads resume where they stopped when the same command is
run again.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
