package crawler

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/xenforo-dl/internal/layout"
	"github.com/nao1215/xenforo-dl/internal/model"
)

type attachmentOutcome int

const (
	attachmentFailed attachmentOutcome = iota
	attachmentDownloaded
	attachmentSkipped
)

type attachmentResult struct {
	attachment model.ThreadMessageAttachment
	outcome    attachmentOutcome
	err        error
}

// downloadAttachments downloads all attachments of one message concurrently
// and waits for them. The fetcher's attachment queue bounds how many run at
// once. Failed attachments are logged and counted; only fatal errors are
// returned.
func (r *run) downloadAttachments(ctx context.Context, dir string, msg model.ThreadMessage) error {
	if len(msg.Attachments) == 0 {
		return nil
	}

	var existing []string
	if !r.overwrite {
		existing = listFiles(dir)
	}

	results := make([]attachmentResult, len(msg.Attachments))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range msg.Attachments {
		g.Go(func() error {
			results[i] = r.downloadAttachment(gctx, dir, a, existing)
			if isFatal(results[i].err) {
				return results[i].err
			}
			return nil
		})
	}
	fatalErr := g.Wait()

	for _, res := range results {
		switch res.outcome {
		case attachmentDownloaded:
			r.stats.DownloadedAttachmentCount++
		case attachmentSkipped:
			r.stats.SkippedExistingAttachmentCount++
		case attachmentFailed:
			if isFatal(res.err) {
				continue
			}
			r.unitFailed("failed to download attachment", res.attachment.URL, res.err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return fatalErr
}

func (r *run) downloadAttachment(ctx context.Context, dir string, a model.ThreadMessageAttachment, existing []string) attachmentResult {
	for _, name := range existing {
		if layout.IsAttachmentFile(name, a.ID) {
			r.logger.Debug("attachment exists, skipping", "file", name)
			return attachmentResult{attachment: a, outcome: attachmentSkipped}
		}
	}

	dest := filepath.Join(dir, layout.AttachmentFilename(a))
	if err := r.fetcher.Download(ctx, a.URL, dest); err != nil {
		return attachmentResult{attachment: a, outcome: attachmentFailed, err: err}
	}
	r.logger.Debug("downloaded attachment", "file", dest)
	return attachmentResult{attachment: a, outcome: attachmentDownloaded}
}

// listFiles returns the names of regular files in dir; a missing dir is empty.
func listFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}
