package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/nao1215/xenforo-dl/internal/fetch"
	"github.com/nao1215/xenforo-dl/internal/layout"
	"github.com/nao1215/xenforo-dl/internal/model"
)

// Fetcher retrieves pages and attachments.
// *fetch.Fetcher is the production implementation.
type Fetcher interface {
	FetchPage(ctx context.Context, rawURL string) (fetch.Page, error)
	ResolveFilename(ctx context.Context, rawURL string) (string, error)
	Download(ctx context.Context, rawURL, destPath string) error
	Stop()
}

// Parser turns fetched HTML into forum entities.
// *parser.Parser is the production implementation.
type Parser interface {
	ParseThreadPage(html, originURL string) (*model.ThreadPage, error)
	ParseForumPage(html, originURL string) (*model.ForumPage, error)
	ParseGenericPage(html, originURL string) (*model.GenericPage, error)
}

// Spider crawls forums and threads and writes them to disk.
type Spider struct {
	fetcher  Fetcher
	parser   Parser
	resolver *layout.Resolver

	overwrite bool
	resume    bool
	logger    *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithOverwrite re-downloads attachments that already exist on disk.
func WithOverwrite(overwrite bool) SpiderOption {
	return func(s *Spider) {
		s.overwrite = overwrite
	}
}

// WithResume enables or disables continuing threads from their resume marker.
func WithResume(resume bool) SpiderOption {
	return func(s *Spider) {
		s.resume = resume
	}
}

// WithLogger sets the logger for crawl progress and unit failures.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider. Resume is enabled and overwrite disabled
// unless changed by options.
func NewSpider(fetcher Fetcher, parser Parser, resolver *layout.Resolver, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:  fetcher,
		parser:   parser,
		resolver: resolver,
		resume:   true,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Crawl crawls targets in order and returns the counters of the run.
//
// All targets are classified before anything is fetched, so an invalid
// target fails with model.ErrInvalidURL without side effects. A fatal error
// (cancellation included) stops the crawl and is returned together with the
// counters gathered so far. The fetcher is stopped before Crawl returns, so
// a Spider crawls once.
func (s *Spider) Crawl(ctx context.Context, targets []string) (model.DownloadStats, error) {
	defer s.fetcher.Stop()

	for _, target := range targets {
		if _, err := model.ClassifyURL(target); err != nil {
			return model.DownloadStats{}, err
		}
	}

	var total model.DownloadStats
	r := newRun(s)
	for _, target := range targets {
		r.stats = &model.DownloadStats{}
		err := r.dispatch(ctx, target)
		total.Merge(*r.stats)
		if err != nil {
			return total, err
		}
		if len(targets) > 1 {
			r.logger.Info("target done", "url", target,
				"threads", r.stats.ProcessedThreadCount,
				"messages", r.stats.ProcessedMessageCount,
				"attachments", r.stats.DownloadedAttachmentCount,
				"errors", r.stats.ErrorCount)
		}
	}
	return total, nil
}

// run is the mutable state of one Crawl call. stats counts the target
// being crawled; visited sets span all targets.
type run struct {
	*Spider

	stats          *model.DownloadStats
	visitedForums  map[int64]bool
	visitedThreads map[int64]bool
}

func newRun(s *Spider) *run {
	return &run{
		Spider:         s,
		visitedForums:  make(map[int64]bool),
		visitedThreads: make(map[int64]bool),
	}
}

// dispatch classifies rawURL and crawls it. Unit failures are logged and
// counted here; only fatal errors are returned.
func (r *run) dispatch(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := model.ClassifyURL(rawURL)
	if err != nil {
		r.unitFailed("skipping invalid URL", rawURL, err)
		return nil
	}

	switch target.Kind {
	case model.URLKindThread:
		if !markVisited(r.visitedThreads, target.ID) {
			r.logger.Debug("thread already crawled in this run", "url", rawURL)
			return nil
		}
		err = r.crawlThread(ctx, rawURL)
	case model.URLKindForum:
		err = r.crawlForum(ctx, rawURL, target.ID)
	default:
		err = r.crawlGeneric(ctx, rawURL)
	}

	if err == nil || isFatal(err) {
		return err
	}
	r.unitFailed(fmt.Sprintf("failed to crawl %s", target.Kind), rawURL, err)
	return nil
}

// crawlGeneric fetches a page once and dispatches every forum it links to.
func (r *run) crawlGeneric(ctx context.Context, rawURL string) error {
	page, err := r.fetcher.FetchPage(ctx, rawURL)
	if err != nil {
		return err
	}
	generic, err := r.parser.ParseGenericPage(page.HTML, page.FinalURL)
	if err != nil {
		return err
	}

	r.logger.Info("found forums", "url", rawURL, "count", len(generic.Forums))
	for _, f := range generic.Forums {
		if err := r.dispatch(ctx, f.URL); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) unitFailed(msg, rawURL string, err error) {
	r.stats.ErrorCount++
	r.logger.Warn(msg, "url", rawURL, "error", err)
}

// markVisited records id and reports whether it was new.
// Id 0 (unknown) is never recorded.
func markVisited(visited map[int64]bool, id int64) bool {
	if id == 0 {
		return true
	}
	if visited[id] {
		return false
	}
	visited[id] = true
	return true
}

// isFatal reports whether err must abort the whole crawl.
func isFatal(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, fetch.ErrFatalFetch) ||
		errors.Is(err, fetch.ErrQueueStopped)
}

// errPageRepeated ends a pagination walk whose next link points back to a
// page it already fetched.
var errPageRepeated = errors.New("pagination links back to a page already fetched")

// pageSet holds the pages fetched by one pagination walk.
type pageSet []string

func (p *pageSet) add(urls ...string) {
	*p = append(*p, urls...)
}

func (p pageSet) contains(rawURL string) bool {
	for _, u := range p {
		if sameURL(u, rawURL) {
			return true
		}
	}
	return false
}

// sameURL compares two URLs ignoring a trailing slash and the fragment.
func sameURL(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	ua.Fragment, ub.Fragment = "", ""
	return trimSlash(ua.String()) == trimSlash(ub.String())
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
