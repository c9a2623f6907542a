package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when no URL to crawl was given.
	ErrNoTarget = errors.New("no target specified: provide one or more thread or forum URLs")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("output directory must not be empty")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidRetryInterval is returned when the retry interval is negative.
	ErrInvalidRetryInterval = errors.New("invalid retry interval: must be non-negative")

	// ErrInvalidMaxConcurrent is returned when the attachment concurrency is not positive.
	ErrInvalidMaxConcurrent = errors.New("invalid max concurrent downloads: must be positive")

	// ErrInvalidRequestInterval is returned when a request interval is negative.
	ErrInvalidRequestInterval = errors.New("invalid request interval: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxPageSize is returned when the page size limit is negative.
	ErrInvalidMaxPageSize = errors.New("invalid max page size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidDirStructure is returned for an unknown directory structure token.
	ErrInvalidDirStructure = errors.New("invalid directory structure")
)
