package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "xenforo-dl"

	// DefaultOutputDir is the output root when none is given.
	DefaultOutputDir = "."

	// DefaultDirStructure keeps the full site > forums > thread hierarchy
	// and a dedicated attachments directory per thread.
	DefaultDirStructure = "site,forums,thread,attachments"

	// DefaultMaxRetries is the number of retries after the first failed attempt.
	DefaultMaxRetries = 3

	// DefaultRetryInterval is the fixed delay between attempts of one fetch.
	DefaultRetryInterval = 5 * time.Second

	// DefaultMaxConcurrentDownloads bounds simultaneous attachment downloads.
	DefaultMaxConcurrentDownloads = 10

	// DefaultPageRequestInterval is the minimum spacing between page requests.
	// Page requests are also strictly serialized.
	DefaultPageRequestInterval = 500 * time.Millisecond

	// DefaultAttachmentRequestInterval is the minimum spacing between
	// attachment request dispatches.
	DefaultAttachmentRequestInterval = 200 * time.Millisecond

	// DefaultTimeout is how long to wait for response headers of one request.
	// It does not bound the time spent streaming a large attachment.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxPageSize limits how much of an HTML page is read.
	DefaultMaxPageSize = 20 * 1024 * 1024 // 20MB
)

// Config holds all configuration options for a download run.
// It is populated from CLI flags and the YAML config file and passed down
// explicitly; nothing reads configuration from global state.
type Config struct {
	// Targets are the thread, forum or index URLs to crawl, in order.
	Targets []string

	// OutputDir is the root directory all files are written below.
	OutputDir string

	// DirStructure controls which directories are created below OutputDir.
	DirStructure DirStructure

	// Overwrite re-downloads attachments that already exist on disk.
	Overwrite bool

	// Resume continues threads from their resume marker when one exists.
	Resume bool

	// Cookie is the raw request cookie string, e.g. "xf_user=...; xf_session=...".
	// It is only sent to the host of the original request.
	Cookie string

	// Headers are extra request headers sent with every same-host request.
	Headers map[string]string

	// UserAgent is the User-Agent header. Empty picks a random browser UA per run.
	UserAgent string

	// MaxRetries is the retry budget of a single fetch after its first attempt.
	MaxRetries int

	// RetryInterval is the fixed delay between attempts.
	RetryInterval time.Duration

	// MaxConcurrentDownloads bounds simultaneous attachment downloads.
	MaxConcurrentDownloads int

	// PageRequestInterval is the minimum spacing between page requests.
	PageRequestInterval time.Duration

	// AttachmentRequestInterval is the minimum spacing between attachment requests.
	AttachmentRequestInterval time.Duration

	// Timeout is the response header timeout of each request.
	Timeout time.Duration

	// MaxPageSize limits the bytes read from one HTML page.
	MaxPageSize int64

	// ProxyAddress routes all requests through a SOCKS5 proxy in "host:port"
	// format when set.
	ProxyAddress string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches log output to JSON.
	LogJSON bool

	// ConfigFilePath is the explicit config file path, if any.
	ConfigFilePath string

	// SiteConfigs holds the per-site settings loaded from the config file.
	SiteConfigs *File

	// JSONReport prints the final summary as JSON.
	JSONReport bool

	// MarkdownReport prints the final summary as Markdown.
	MarkdownReport bool

	// ReportFile also writes the final summary to this file.
	ReportFile string

	// SaveHistory records the run in the history database.
	SaveHistory bool

	// DBDir is the directory of the history database.
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	structure, _ := ParseDirStructure(DefaultDirStructure) //nolint:errcheck // constant input

	return &Config{
		OutputDir:                 DefaultOutputDir,
		DirStructure:              structure,
		Resume:                    true,
		MaxRetries:                DefaultMaxRetries,
		RetryInterval:             DefaultRetryInterval,
		MaxConcurrentDownloads:    DefaultMaxConcurrentDownloads,
		PageRequestInterval:       DefaultPageRequestInterval,
		AttachmentRequestInterval: DefaultAttachmentRequestInterval,
		Timeout:                   DefaultTimeout,
		MaxPageSize:               DefaultMaxPageSize,
		SaveHistory:               true,
		DBDir:                     XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for xenforo-dl.
// On Linux: ~/.local/share/xenforo-dl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for xenforo-dl.
// On Linux: ~/.config/xenforo-dl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if c.RetryInterval < 0 {
		return ErrInvalidRetryInterval
	}

	if c.MaxConcurrentDownloads <= 0 {
		return ErrInvalidMaxConcurrent
	}

	if c.PageRequestInterval < 0 || c.AttachmentRequestInterval < 0 {
		return ErrInvalidRequestInterval
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxPageSize < 0 {
		return ErrInvalidMaxPageSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// ApplySite merges the config file settings for host into c.
// Values already set on c (from CLI flags) win over site values, and site
// values win over the file's defaults.
func (c *Config) ApplySite(host string) {
	if c.SiteConfigs == nil {
		return
	}
	site := c.SiteConfigs.GetSiteConfig(host)

	if c.Cookie == "" {
		c.Cookie = site.Cookie
	}
	if c.UserAgent == "" {
		c.UserAgent = site.UserAgent
	}
	if len(site.Headers) > 0 {
		merged := make(map[string]string, len(site.Headers)+len(c.Headers))
		for k, v := range site.Headers {
			merged[k] = v
		}
		for k, v := range c.Headers {
			merged[k] = v
		}
		c.Headers = merged
	}
}
