// Package model defines the core data structures used throughout xenforo-dl.
//
// This package contains the following main types:
//   - ForumPage / ThreadPage: one parsed page of a forum listing or thread
//   - ThreadMessage / ThreadMessageAttachment: the content persisted to disk
//   - DownloadStatus: the per-thread resume marker
//   - DownloadStats: counters aggregated across a whole crawl
//   - Target: a classified input URL (thread, forum or unknown)
//
// The models are kept in their own package because the parser, the crawler,
// the layout resolver and the report writers all exchange them, and a shared
// leaf package keeps those packages free of import cycles.
package model
