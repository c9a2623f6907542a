package model

// DownloadStats holds the counters of a crawl.
// The crawler counts each target separately and merges the counters into
// the run total. They are only mutated from the crawler's sequential
// control flow.
type DownloadStats struct {
	ProcessedForumCount            int `json:"processedForumCount"`
	ProcessedThreadCount           int `json:"processedThreadCount"`
	ProcessedMessageCount          int `json:"processedMessageCount"`
	SkippedExistingAttachmentCount int `json:"skippedExistingAttachmentCount"`
	DownloadedAttachmentCount      int `json:"downloadedAttachmentCount"`
	ErrorCount                     int `json:"errorCount"`
}

// Merge adds the counters of other to s.
func (s *DownloadStats) Merge(other DownloadStats) {
	s.ProcessedForumCount += other.ProcessedForumCount
	s.ProcessedThreadCount += other.ProcessedThreadCount
	s.ProcessedMessageCount += other.ProcessedMessageCount
	s.SkippedExistingAttachmentCount += other.SkippedExistingAttachmentCount
	s.DownloadedAttachmentCount += other.DownloadedAttachmentCount
	s.ErrorCount += other.ErrorCount
}

// HasErrors reports whether any unit of work failed.
func (s DownloadStats) HasErrors() bool {
	return s.ErrorCount > 0
}
