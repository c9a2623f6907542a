package model

import (
	"context"
	"errors"
	"time"
)

// RunStatus is how a download run ended.
type RunStatus string

const (
	// RunStatusCompleted means every target was crawled. Unit errors may
	// still have been counted.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusCancelled means the run was interrupted by a signal.
	RunStatusCancelled RunStatus = "cancelled"
	// RunStatusFailed means a fatal error aborted the run.
	RunStatusFailed RunStatus = "failed"
)

// StatusFromError returns the run status for the error a crawl returned.
func StatusFromError(err error) RunStatus {
	switch {
	case err == nil:
		return RunStatusCompleted
	case errors.Is(err, context.Canceled):
		return RunStatusCancelled
	default:
		return RunStatusFailed
	}
}

// RunSummary describes one finished download run.
// ID is the history row id; RunID is the id logged while the run was active.
type RunSummary struct {
	ID         int64         `json:"id,omitempty"`
	RunID      string        `json:"runID,omitempty"`
	Targets    []string      `json:"targets"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Status     RunStatus     `json:"status"`
	Error      string        `json:"error,omitempty"`
	Stats      DownloadStats `json:"stats"`
}

// NewRunSummary builds the summary of a run that started at startedAt and
// ended now with stats and err.
func NewRunSummary(targets []string, startedAt time.Time, stats DownloadStats, err error) *RunSummary {
	s := &RunSummary{
		Targets:    targets,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Status:     StatusFromError(err),
		Stats:      stats,
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// Duration returns how long the run took.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
