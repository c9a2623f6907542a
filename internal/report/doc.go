// Package report writes the summary of a download run.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: structured JSON for scripts
//   - MarkdownWriter: Markdown for sharing and documentation
//
// Writers implement the Writer interface, so they can be used
// interchangeably and combined with MultiWriter.
package report
