package crawler

import (
	"context"
	"fmt"

	"github.com/nao1215/xenforo-dl/internal/model"
)

// forumFrame is one entry of the forum traversal stack.
type forumFrame struct {
	url string
	// id is known from the URL before the forum is fetched.
	id int64
	// done frames are pushed below a forum's subforums and complete the
	// forum once all of them were crawled.
	done     bool
	title    string
	complete bool
}

// crawlForum crawls a forum and, depth first, all of its subforums.
// The traversal uses an explicit stack and the run's visited set, so a
// subforum linking back to an ancestor ends instead of recursing forever.
func (r *run) crawlForum(ctx context.Context, rawURL string, id int64) error {
	stack := []forumFrame{{url: rawURL, id: id}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.done {
			if frame.complete {
				r.stats.ProcessedForumCount++
				r.logger.Info("forum done", "forum", frame.title, "url", frame.url)
			}
			continue
		}

		if !markVisited(r.visitedForums, frame.id) {
			r.logger.Debug("forum already crawled in this run", "url", frame.url)
			continue
		}

		res, err := r.crawlForumPages(ctx, frame.url, frame.id)
		if err != nil {
			if isFatal(err) {
				return err
			}
			r.unitFailed("failed to crawl forum page", frame.url, err)
		}
		if res.duplicate || (!res.fetched && err != nil) {
			continue
		}

		stack = append(stack, forumFrame{url: frame.url, done: true, title: res.title, complete: err == nil})
		for i := len(res.subforums) - 1; i >= 0; i-- {
			sub := res.subforums[i]
			stack = append(stack, forumFrame{url: sub.URL, id: urlID(sub.URL)})
		}
	}
	return nil
}

// forumResult is what the page walk of one forum collected.
type forumResult struct {
	title     string
	subforums []model.ForumLike
	// fetched is set once the first page was parsed.
	fetched bool
	// duplicate is set when the page id showed the forum was already crawled.
	duplicate bool
}

// crawlForumPages walks the thread listing pages of one forum, dispatching
// each listed thread to completion before the next. Subforums seen on any
// page are collected. An error, or a next link back to a page already
// walked, ends the page sequence but keeps what was collected so far.
func (r *run) crawlForumPages(ctx context.Context, rawURL string, urlForumID int64) (forumResult, error) {
	var (
		res   forumResult
		seen  = make(map[string]bool)
		pages pageSet
	)

	pageURL := rawURL
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if pages.contains(pageURL) {
			return res, fmt.Errorf("%w: %s", errPageRepeated, pageURL)
		}

		fetched, err := r.fetcher.FetchPage(ctx, pageURL)
		if err != nil {
			return res, err
		}
		pages.add(pageURL, fetched.FinalURL)
		page, err := r.parser.ParseForumPage(fetched.HTML, fetched.FinalURL)
		if err != nil {
			return res, err
		}

		if !res.fetched {
			res.fetched = true
			if page.ID != urlForumID && !markVisited(r.visitedForums, page.ID) {
				r.logger.Debug("forum already crawled in this run", "url", rawURL)
				res.duplicate = true
				return res, nil
			}
			res.title = page.Title
		}

		for _, sub := range page.Subforums {
			if !seen[sub.URL] {
				seen[sub.URL] = true
				res.subforums = append(res.subforums, sub)
			}
		}

		r.logger.Info("processing forum page", "forum", page.Title, "page", page.CurrentPage, "of", page.TotalPages, "threads", len(page.Threads))
		for _, t := range page.Threads {
			if err := r.dispatch(ctx, t.URL); err != nil {
				return res, err
			}
		}

		if page.NextURL == "" {
			return res, nil
		}
		pageURL = page.NextURL
	}
}
