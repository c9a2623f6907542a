package crawler

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/xenforo-dl/internal/model"
	"github.com/nao1215/xenforo-dl/internal/resume"
	"github.com/nao1215/xenforo-dl/internal/transcript"
)

// threadState tells a thread page how it was reached.
type threadState int

const (
	// stateFreshStart is the first page fetched for the thread in this run.
	// The resume marker has not been consulted yet.
	stateFreshStart threadState = iota
	// stateResumedAt is the page recorded in the resume marker.
	stateResumedAt
	// stateContinuing is any later page of the same run.
	stateContinuing
)

// threadCursor carries the position of a thread crawl from page to page.
type threadCursor struct {
	state threadState
	// afterID is the last message already persisted; messages up to and
	// including it are dropped. Zero on a fresh start.
	afterID int64
	// resumed is set once a resume marker was found for the thread.
	resumed bool
	// writer is opened on the first message that is actually written.
	writer *transcript.Writer
}

// crawlThread crawls every page of a thread starting at rawURL.
func (r *run) crawlThread(ctx context.Context, rawURL string) error {
	cursor := &threadCursor{state: stateFreshStart}
	defer func() {
		if cursor.writer != nil {
			if err := cursor.writer.Close(); err != nil {
				r.logger.Warn("failed to close transcript", "path", cursor.writer.Path(), "error", err)
			}
		}
	}()

	var seen pageSet
	pageURL := rawURL
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if seen.contains(pageURL) {
			return fmt.Errorf("%w: %s", errPageRepeated, pageURL)
		}

		fetched, err := r.fetcher.FetchPage(ctx, pageURL)
		if err != nil {
			return err
		}
		seen.add(pageURL, fetched.FinalURL)
		page, err := r.parser.ParseThreadPage(fetched.HTML, fetched.FinalURL)
		if err != nil {
			return err
		}
		dir := r.resolver.ThreadDir(&page.Thread)

		if cursor.state == stateFreshStart {
			// dispatch marked the id of rawURL; a redirect may land elsewhere
			if page.ID != urlID(rawURL) && !markVisited(r.visitedThreads, page.ID) {
				r.logger.Debug("thread already crawled in this run", "url", rawURL)
				return nil
			}
			if status := r.loadStatus(dir, page.ID); status != nil {
				cursor.state = stateResumedAt
				cursor.afterID = status.MessageID
				cursor.resumed = true
				r.logger.Info("resuming thread", "thread", page.Title, "id", page.ID, "afterMessage", status.MessageID)

				if !sameURL(status.URL, pageURL) && !sameURL(status.URL, fetched.FinalURL) {
					pageURL = status.URL
					continue
				}
			}
		}

		r.logger.Debug("processing thread page", "thread", page.Title, "page", page.CurrentPage, "of", page.TotalPages)
		if err := r.persistPage(ctx, page, fetched.FinalURL, dir, cursor); err != nil {
			return err
		}

		if page.NextURL == "" {
			r.stats.ProcessedThreadCount++
			r.logger.Info("thread done", "thread", page.Title, "id", page.ID, "pages", page.TotalPages)
			return nil
		}
		cursor.state = stateContinuing
		pageURL = page.NextURL
	}
}

func urlID(rawURL string) int64 {
	target, err := model.ClassifyURL(rawURL)
	if err != nil {
		return 0
	}
	return target.ID
}

// loadStatus returns the resume marker of a thread, or nil when resume is
// disabled, no marker exists or the marker is unusable.
func (r *run) loadStatus(dir string, threadID int64) *model.DownloadStatus {
	if !r.resume {
		return nil
	}
	status, err := resume.Load(dir, threadID)
	if err != nil {
		if errors.Is(err, resume.ErrCorruptState) {
			r.logger.Warn("ignoring corrupt resume state, downloading thread from the start", "id", threadID, "error", err)
		} else {
			r.logger.Warn("failed to read resume state", "id", threadID, "error", err)
		}
		return nil
	}
	return status
}

// persistPage writes the new messages of one page: attachments first, then
// the transcript record, then the resume marker, message by message.
func (r *run) persistPage(ctx context.Context, page *model.ThreadPage, pageURL, dir string, cursor *threadCursor) error {
	messages := dropThrough(page.Messages, cursor.afterID)
	if len(messages) == 0 {
		return nil
	}

	if err := r.resolveFilenames(ctx, messages); err != nil {
		return err
	}

	if cursor.writer == nil {
		w, err := transcript.Open(dir, &page.Thread, page.CurrentPage, cursor.resumed)
		if err != nil {
			return err
		}
		cursor.writer = w
	}
	attachmentDir := r.resolver.AttachmentDir(&page.Thread)

	for _, msg := range messages {
		if err := r.downloadAttachments(ctx, attachmentDir, msg); err != nil {
			return err
		}
		// no transcript append once the crawl is cancelled
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := cursor.writer.WriteMessage(msg); err != nil {
			return err
		}

		status := model.DownloadStatus{ThreadID: page.ID, URL: pageURL, MessageID: msg.ID}
		if err := resume.Save(dir, status); err != nil {
			r.logger.Warn("failed to save resume state", "id", page.ID, "message", msg.ID, "error", err)
		}
		cursor.afterID = msg.ID
		r.stats.ProcessedMessageCount++
	}
	return nil
}

// dropThrough returns the messages after the one with id afterID.
// Message ids increase within a thread, so every id at or below afterID was
// persisted by an earlier run.
func dropThrough(messages []model.ThreadMessage, afterID int64) []model.ThreadMessage {
	if afterID == 0 {
		return messages
	}
	kept := make([]model.ThreadMessage, 0, len(messages))
	for _, m := range messages {
		if m.ID > afterID {
			kept = append(kept, m)
		}
	}
	return kept
}

// resolveFilenames looks up names of unnamed attachments. A failed lookup
// leaves the attachment unnamed; only fatal errors are returned.
func (r *run) resolveFilenames(ctx context.Context, messages []model.ThreadMessage) error {
	for i := range messages {
		for j := range messages[i].Attachments {
			a := &messages[i].Attachments[j]
			if a.Filename != "" {
				continue
			}
			name, err := r.fetcher.ResolveFilename(ctx, a.URL)
			if err != nil {
				if isFatal(err) {
					return err
				}
				r.logger.Warn("failed to resolve attachment name, keeping it unnamed", "url", a.URL, "error", err)
				continue
			}
			a.Filename = name
		}
	}
	return nil
}
