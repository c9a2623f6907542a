package layout

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/nao1215/xenforo-dl/internal/config"
	"github.com/nao1215/xenforo-dl/internal/model"
)

// AttachmentsDirName is the attachment subdirectory of a thread directory.
const AttachmentsDirName = "attachments"

// Resolver computes the directories of threads below an output root.
type Resolver struct {
	root      string
	structure config.DirStructure
}

// NewResolver returns a Resolver for root and structure.
func NewResolver(root string, structure config.DirStructure) *Resolver {
	return &Resolver{root: root, structure: structure}
}

// ThreadDir returns the directory transcripts and the resume marker of t
// are written to. It is a pure function of t's breadcrumbs, title and id.
//
// With breadcrumbs [Site, Category A, Forum B] and every switch on:
//
//	<root>/Site/Category A.5/Forum B.12/Hello.42
func (r *Resolver) ThreadDir(t *model.Thread) string {
	if r.structure.IsNone() {
		return r.root
	}

	segments := []string{r.root}
	crumbs := t.Breadcrumbs

	if len(crumbs) > 0 {
		if r.structure.Site {
			segments = append(segments, Sanitize(crumbs[0].Title))
		}
		ancestors := crumbs[1:]
		switch r.structure.ParentForums {
		case config.ForumDirAll:
			for _, c := range ancestors {
				segments = append(segments, entitySegment(c.Title, model.IDFromURL(c.URL)))
			}
		case config.ForumDirImmediate:
			if n := len(ancestors); n > 0 {
				c := ancestors[n-1]
				segments = append(segments, entitySegment(c.Title, model.IDFromURL(c.URL)))
			}
		case config.ForumDirNone:
		}
	}

	if r.structure.Thread {
		segments = append(segments, entitySegment(t.Title, t.ID))
	}
	return filepath.Join(segments...)
}

// AttachmentDir returns the directory attachments of t are downloaded to.
func (r *Resolver) AttachmentDir(t *model.Thread) string {
	dir := r.ThreadDir(t)
	if r.structure.Attachments {
		return filepath.Join(dir, AttachmentsDirName)
	}
	return dir
}

// entitySegment names a directory of an addressable entity.
func entitySegment(title string, id int64) string {
	if id == 0 {
		return Sanitize(title)
	}
	suffix := "." + strconv.FormatInt(id, 10)
	return truncate(Sanitize(title), maxSegmentBytes-len(suffix)) + suffix
}

// AttachmentFilename returns the file name of an attachment. It depends only
// on the attachment's id, index and resolved filename, so re-runs pick the
// same name.
func AttachmentFilename(a model.ThreadMessageAttachment) string {
	if a.Filename == "" {
		return fmt.Sprintf("attach-%d-%d", a.ID, a.Index)
	}
	return fmt.Sprintf("attach-%d - %s", a.ID, Sanitize(a.Filename))
}

// IsAttachmentFile reports whether name is a committed file of attachment id,
// whatever filename or index it was saved under.
func IsAttachmentFile(name string, id int64) bool {
	if strings.HasSuffix(name, ".part") {
		return false
	}
	prefix := "attach-" + strconv.FormatInt(id, 10)
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok {
		return false
	}
	return strings.HasPrefix(rest, " - ") || strings.HasPrefix(rest, "-")
}

// TranscriptFilename returns the transcript file name of one run of a thread
// starting at page.
func TranscriptFilename(threadID int64, page int, title string) string {
	return fmt.Sprintf("messages-%d-p%d - %s.txt", threadID, page, Sanitize(title))
}

var transcriptNameRegex = regexp.MustCompile(`^messages-(\d+)-p(\d+) - .*\.txt$`)

// ParseTranscriptFilename extracts the thread id and page of a transcript
// file name.
func ParseTranscriptFilename(name string) (threadID int64, page int, ok bool) {
	m := transcriptNameRegex.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	threadID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	page, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return threadID, page, true
}

// StatusFilename returns the resume marker file name of a thread.
func StatusFilename(threadID int64) string {
	return ".dl-status-" + strconv.FormatInt(threadID, 10)
}
