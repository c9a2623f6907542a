package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/xenforo-dl/internal/config"
	"github.com/nao1215/xenforo-dl/internal/crawler"
	"github.com/nao1215/xenforo-dl/internal/fetch"
	"github.com/nao1215/xenforo-dl/internal/history"
	"github.com/nao1215/xenforo-dl/internal/layout"
	"github.com/nao1215/xenforo-dl/internal/log"
	"github.com/nao1215/xenforo-dl/internal/model"
	"github.com/nao1215/xenforo-dl/internal/parser"
	"github.com/nao1215/xenforo-dl/internal/report"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download [url]...",
		Short: "Download threads, forums or whole sites",
		Long: `Download crawls XenForo URLs and saves what it finds.

A thread URL downloads every page of the thread. A forum URL downloads
every thread of the forum and then every subforum, depth first. Any other
URL of the site is fetched once and every forum it links to is downloaded.

Each thread gets a transcript (messages-<id>-p<page> - <title>.txt) and
its attachments. Progress is saved after every message, so running the
same command again continues an interrupted download.

Examples:
  # Download a thread into the current directory
  xenforo-dl download https://forum.example.com/threads/hello-world.42/

  # Download a forum and its subforums into ./archive
  xenforo-dl download -o archive https://forum.example.com/forums/general.12/

  # Put every thread directly below the output directory
  xenforo-dl download -s thread https://forum.example.com/forums/general.12/

  # Download members-only content with a browser session cookie
  xenforo-dl download -k "xf_user=...; xf_session=..." https://forum.example.com/

  # Only show how the URLs would be handled
  xenforo-dl download --classify-only https://forum.example.com/threads/a.1/`,
		Args: cobra.ArbitraryArgs,
		RunE: runDownloadCmd,
	}

	// Output flags
	cmd.Flags().StringP("out-dir", "o", config.DefaultOutputDir,
		"Root directory to save downloads to")
	cmd.Flags().StringP("dir-structure", "s", config.DefaultDirStructure,
		"Directories to create: comma separated site, forums, forum, thread, attachments, or none")
	cmd.Flags().BoolP("overwrite", "w", false,
		"Download attachments again even if they already exist")
	cmd.Flags().Bool("resume", true,
		"Continue threads from where the previous run stopped")

	// Request flags
	cmd.Flags().StringP("cookie", "k", "",
		"Cookie header sent to the forum host (overrides the config file)")
	cmd.Flags().String("user-agent", "",
		"User-Agent header (default: a random browser user agent)")
	cmd.Flags().String("proxy", "",
		"Route all requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().IntP("max-retries", "r", config.DefaultMaxRetries,
		"Retries of a failed request")
	cmd.Flags().Duration("retry-interval", config.DefaultRetryInterval,
		"Delay between retries")
	cmd.Flags().IntP("max-concurrent", "a", config.DefaultMaxConcurrentDownloads,
		"Maximum simultaneous attachment downloads")
	cmd.Flags().Duration("page-interval", config.DefaultPageRequestInterval,
		"Minimum delay between page requests")
	cmd.Flags().Duration("attachment-interval", config.DefaultAttachmentRequestInterval,
		"Minimum delay between attachment requests")
	cmd.Flags().Duration("timeout", config.DefaultTimeout,
		"How long to wait for the response headers of a request")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .xenforo-dl in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Print the summary as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the summary as Markdown (mutually exclusive with --json)")
	cmd.Flags().String("report-file", "",
		"Also write the summary to this file (creates directories if needed)")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")

	cmd.Flags().Bool("classify-only", false,
		"Print the kind of each URL and exit without downloading")
	cmd.Flags().Bool("log-json", false,
		"Write logs as JSON")

	return cmd
}

// runDownloadCmd executes the download command.
func runDownloadCmd(cmd *cobra.Command, args []string) error {
	classifyOnly, err := cmd.Flags().GetBool("classify-only")
	if err != nil {
		return err
	}
	if classifyOnly {
		return classifyTargets(cmd.OutOrStdout(), args)
	}

	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.New(cmd.ErrOrStderr(), log.Options{Verbose: cfg.Verbose, JSON: cfg.LogJSON})
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, stopping after the current step...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runDownload(ctx, cfg, cmd.OutOrStdout(), logger)
}

// classifyTargets prints the kind and id of each URL.
func classifyTargets(out io.Writer, targets []string) error {
	if len(targets) == 0 {
		return config.ErrNoTarget
	}
	for _, target := range targets {
		t, err := model.ClassifyURL(target)
		if err != nil {
			return err
		}
		if t.ID != 0 {
			fmt.Fprintf(out, "%s\t%s\t%d\n", target, t.Kind, t.ID)
		} else {
			fmt.Fprintf(out, "%s\t%s\n", target, t.Kind)
		}
	}
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the config file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.OutputDir, err = flags.GetString("out-dir"); err != nil {
		return nil, err
	}
	structure, err := flags.GetString("dir-structure")
	if err != nil {
		return nil, err
	}
	if cfg.DirStructure, err = config.ParseDirStructure(structure); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if cfg.Overwrite, err = flags.GetBool("overwrite"); err != nil {
		return nil, err
	}
	if cfg.Resume, err = flags.GetBool("resume"); err != nil {
		return nil, err
	}

	if cfg.Cookie, err = flags.GetString("cookie"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = flags.GetInt("max-retries"); err != nil {
		return nil, err
	}
	if cfg.RetryInterval, err = flags.GetDuration("retry-interval"); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentDownloads, err = flags.GetInt("max-concurrent"); err != nil {
		return nil, err
	}
	if cfg.PageRequestInterval, err = flags.GetDuration("page-interval"); err != nil {
		return nil, err
	}
	if cfg.AttachmentRequestInterval, err = flags.GetDuration("attachment-interval"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report-file"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory
	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if err := loadSiteConfigs(cfg); err != nil {
		return nil, err
	}

	cfg.Targets = args
	if len(args) > 0 {
		if u, err := url.Parse(args[0]); err == nil {
			cfg.ApplySite(u.Hostname())
		}
	}
	return cfg, nil
}

// loadSiteConfigs loads the config file into cfg.SiteConfigs.
// An explicitly given file must exist; otherwise a missing file means no
// site settings.
func loadSiteConfigs(cfg *config.Config) error {
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		siteConfigs, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.SiteConfigs = siteConfigs
	case explicitConfigPath:
		return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}
	return nil
}

// runDownload crawls cfg.Targets, prints the summary and records the run.
// The summary is written however the crawl ended.
func runDownload(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	startedAt := time.Now()
	runID := uuid.NewString()
	logger = logger.With("run", runID)

	spider, err := newSpider(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("starting download",
		"targets", cfg.Targets,
		"outDir", cfg.OutputDir,
		"dirStructure", cfg.DirStructure.String(),
		"resume", cfg.Resume,
	)
	stats, crawlErr := spider.Crawl(ctx, cfg.Targets)
	summary := model.NewRunSummary(cfg.Targets, startedAt, stats, crawlErr)
	summary.RunID = runID

	if err := writeSummary(cfg, out, summary); err != nil {
		logger.Error("failed to write summary", "error", err)
	}
	// the run is recorded even when ctx was cancelled
	if err := saveRun(context.WithoutCancel(ctx), cfg, summary, logger); err != nil {
		logger.Error("failed to record run history", "error", err)
	}

	if crawlErr != nil {
		if errors.Is(crawlErr, context.Canceled) {
			return errors.New("download cancelled, run the same command again to resume")
		}
		return fmt.Errorf("download aborted: %w", crawlErr)
	}
	return nil
}

// newSpider wires the fetcher, parser and layout resolver for cfg.
func newSpider(cfg *config.Config, logger *slog.Logger) (*crawler.Spider, error) {
	client, err := fetch.NewHTTPClient(fetch.ClientOptions{
		ProxyAddress:          cfg.ProxyAddress,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxConnsPerHost:       cfg.MaxConcurrentDownloads,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	fetcher := fetch.New(client, fetch.Options{
		Cookie:                cfg.Cookie,
		Headers:               cfg.Headers,
		UserAgent:             cfg.UserAgent,
		MaxRetries:            cfg.MaxRetries,
		RetryInterval:         cfg.RetryInterval,
		MaxPageSize:           cfg.MaxPageSize,
		PageInterval:          cfg.PageRequestInterval,
		AttachmentConcurrency: cfg.MaxConcurrentDownloads,
		AttachmentInterval:    cfg.AttachmentRequestInterval,
		Logger:                logger,
	})
	logger.Debug("using user agent", "userAgent", fetcher.UserAgent())

	return crawler.NewSpider(
		fetcher,
		parser.New(),
		layout.NewResolver(cfg.OutputDir, cfg.DirStructure),
		crawler.WithOverwrite(cfg.Overwrite),
		crawler.WithResume(cfg.Resume),
		crawler.WithLogger(logger),
	), nil
}

// reportFormat returns the summary format selected by cfg.
func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// writeSummary prints the summary to out and, if configured, to the
// report file. Only terminal output is colored.
func writeSummary(cfg *config.Config, out io.Writer, summary *model.RunSummary) error {
	format := reportFormat(cfg)
	terminal := report.New(format, out, report.WithColor(out == os.Stdout && !color.NoColor))
	if cfg.ReportFile == "" {
		_, err := terminal.Write(summary)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	w := report.NewMultiWriter(terminal, report.New(format, f))
	if _, err := w.Write(summary); err != nil {
		return err
	}
	return f.Close()
}

// saveRun records the summary in the history database if enabled.
func saveRun(ctx context.Context, cfg *config.Config, summary *model.RunSummary, logger *slog.Logger) error {
	if !cfg.SaveHistory {
		return nil
	}

	db, err := history.Open(ctx, cfg.DBDir, history.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.RecordRun(ctx, summary)
	if err != nil {
		return err
	}
	logger.Debug("run recorded", "id", id, "db", db.Path())
	return nil
}
