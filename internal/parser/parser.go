package parser

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/xenforo-dl/internal/model"
)

// ErrParseFailed is returned when a page lacks a required identifying field.
var ErrParseFailed = errors.New("failed to parse page")

var (
	// contentKeyRegex matches data-content-key / data-container-key values
	// such as "thread-42" or "node-3".
	contentKeyRegex = regexp.MustCompile(`^(?:thread|node)-(\d+)$`)

	// pageSuffixRegex matches the page segment XenForo appends to paginated URLs.
	pageSuffixRegex = regexp.MustCompile(`page-\d+/?$`)

	// attachmentIDRegex matches /attachments/<name>.<id>/ and /attachments/<id>/.
	attachmentIDRegex = regexp.MustCompile(`/attachments/(?:[^/]*\.)?(\d+)(?:/|$)`)

	// postIDRegex matches the data-content attribute of a message article.
	postIDRegex = regexp.MustCompile(`^post-(\d+)$`)
)

// Parser parses XenForo pages. The zero value is ready to use.
type Parser struct{}

// New returns a Parser.
func New() *Parser {
	return &Parser{}
}

// page holds the parts common to every page kind.
type page struct {
	doc       *goquery.Document
	base      *url.URL
	canonical string
	title     string
}

func newPage(html, originURL string) (*page, error) {
	base, err := url.Parse(originURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid origin URL %q: %v", ErrParseFailed, originURL, err) //nolint:errorlint // ErrParseFailed is the matchable cause
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err) //nolint:errorlint // ErrParseFailed is the matchable cause
	}

	p := &page{doc: doc, base: base}
	if href, ok := doc.Find("link[rel='canonical']").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		p.canonical = p.resolve(href)
	} else if content, ok := doc.Find("meta[property='og:url']").First().Attr("content"); ok && strings.TrimSpace(content) != "" {
		p.canonical = p.resolve(content)
	}
	p.title = titleText(doc.Find("h1.p-title-value").First())
	return p, nil
}

// resolve makes href absolute against the page URL.
func (p *page) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return p.base.ResolveReference(ref).String()
}

// entityID returns the thread or node id from the html element's content
// keys, falling back to the canonical URL.
func (p *page) entityID(attr string) int64 {
	if key, ok := p.doc.Find("html").First().Attr(attr); ok {
		if m := contentKeyRegex.FindStringSubmatch(strings.TrimSpace(key)); m != nil {
			if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				return id
			}
		}
	}
	if p.canonical == "" {
		return 0
	}
	target, err := model.ClassifyURL(p.canonical)
	if err != nil {
		return 0
	}
	return target.ID
}

func (p *page) require(kind string, id int64) error {
	switch {
	case p.canonical == "":
		return fmt.Errorf("%w: %s page has no canonical URL", ErrParseFailed, kind)
	case id == 0:
		return fmt.Errorf("%w: %s id not found", ErrParseFailed, kind)
	case p.title == "":
		return fmt.Errorf("%w: %s title not found", ErrParseFailed, kind)
	default:
		return nil
	}
}

// pagination reads the current page, the last page and the next page link.
// Pages without navigation are page 1 of 1.
func (p *page) pagination() (current, total int, next string) {
	current, total = 1, 1

	nav := p.doc.Find(".pageNav").First()
	if nav.Length() == 0 {
		return current, total, ""
	}

	if n, err := strconv.Atoi(strings.TrimSpace(nav.Find(".pageNav-page--current").First().Text())); err == nil {
		current = n
	}
	nav.Find(".pageNav-page").Each(func(_ int, s *goquery.Selection) {
		if n, err := strconv.Atoi(strings.TrimSpace(s.Text())); err == nil && n > total {
			total = n
		}
	})
	total = max(total, current)

	if href, ok := nav.Find("a.pageNav-jump--next").First().Attr("href"); ok {
		next = p.resolve(href)
	}
	return current, total, next
}

// ParseThreadPage parses one page of a thread.
func (*Parser) ParseThreadPage(html, originURL string) (*model.ThreadPage, error) {
	p, err := newPage(html, originURL)
	if err != nil {
		return nil, err
	}

	id := p.entityID("data-content-key")
	if err := p.require("thread", id); err != nil {
		return nil, err
	}

	tp := &model.ThreadPage{
		Thread: model.Thread{
			ID:          id,
			URL:         pageSuffixRegex.ReplaceAllString(p.canonical, ""),
			Title:       p.title,
			Breadcrumbs: p.breadcrumbs(),
			Messages:    p.messages(),
		},
	}
	tp.CurrentPage, tp.TotalPages, tp.NextURL = p.pagination()
	return tp, nil
}

// ParseForumPage parses one page of a forum's thread listing.
func (*Parser) ParseForumPage(html, originURL string) (*model.ForumPage, error) {
	p, err := newPage(html, originURL)
	if err != nil {
		return nil, err
	}

	id := p.entityID("data-container-key")
	if err := p.require("forum", id); err != nil {
		return nil, err
	}

	fp := &model.ForumPage{
		Forum: model.Forum{
			ID:        id,
			URL:       pageSuffixRegex.ReplaceAllString(p.canonical, ""),
			Title:     p.title,
			Subforums: p.forumLinks(".node-title a[href*='/forums/']"),
			Threads:   p.threadLinks(),
		},
	}
	fp.CurrentPage, fp.TotalPages, fp.NextURL = p.pagination()
	return fp, nil
}

// ParseGenericPage collects the forum links of any other page,
// typically the forum index.
func (*Parser) ParseGenericPage(html, originURL string) (*model.GenericPage, error) {
	p, err := newPage(html, originURL)
	if err != nil {
		return nil, err
	}
	return &model.GenericPage{
		Forums: p.forumLinks(".node-title a[href*='/forums/'], .node-subNodeFlatList a[href*='/forums/']"),
	}, nil
}

func (p *page) breadcrumbs() []model.Breadcrumb {
	var crumbs []model.Breadcrumb

	p.doc.Find(".p-breadcrumbs").Not(".p-breadcrumbs--bottom").First().
		Find("[itemprop='item']").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		title := strings.TrimSpace(s.Find("[itemprop='name']").First().Text())
		if title == "" {
			title = strings.TrimSpace(s.Text())
		}
		if href == "" || title == "" {
			return
		}
		crumbs = append(crumbs, model.Breadcrumb{URL: p.resolve(href), Title: title})
	})
	return crumbs
}

func (p *page) messages() []model.ThreadMessage {
	var messages []model.ThreadMessage

	p.doc.Find("article.message[data-content]").Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("data-content")
		m := postIDRegex.FindStringSubmatch(strings.TrimSpace(content))
		if m == nil {
			return
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return
		}

		author, _ := s.Attr("data-author")
		msg := model.ThreadMessage{
			ID:          id,
			Index:       messageIndex(s),
			Author:      strings.TrimSpace(author),
			PublishedAt: messageTime(s),
		}

		body := s.Find(".message-body .bbWrapper").First()
		if body.Length() > 0 {
			msg.Body = RenderText(body.Nodes[0])
		}
		msg.Attachments = p.attachments(s, body)

		messages = append(messages, msg)
	})
	return messages
}

// messageIndex returns the displayed ordinal such as "#12".
func messageIndex(s *goquery.Selection) string {
	index := ""
	s.Find(".message-attribution-opposite a").Each(func(_ int, a *goquery.Selection) {
		if text := strings.TrimSpace(a.Text()); strings.HasPrefix(text, "#") {
			index = text
		}
	})
	return index
}

func messageTime(s *goquery.Selection) time.Time {
	t := s.Find(".message-attribution-main time, .message-attribution time").First()
	if raw, ok := t.Attr("data-time"); ok {
		if sec, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			return time.Unix(sec, 0).UTC()
		}
	}
	if raw, ok := t.Attr("datetime"); ok {
		for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
			if parsed, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
				return parsed.UTC()
			}
		}
	}
	return time.Time{}
}

// attachments collects attachment links embedded in the body and those in
// the attachment list below it, in document order and without duplicates.
func (p *page) attachments(message, body *goquery.Selection) []model.ThreadMessageAttachment {
	var (
		result []model.ThreadMessageAttachment
		seen   = make(map[int64]bool)
	)
	add := func(href, filename string) {
		abs := p.resolve(href)
		if abs == "" {
			return
		}
		id := attachmentID(abs)
		if id == 0 || seen[id] {
			return
		}
		seen[id] = true
		result = append(result, model.ThreadMessageAttachment{
			ID:       id,
			Index:    len(result) + 1,
			URL:      abs,
			Filename: strings.TrimSpace(filename),
		})
	}

	body.Find("a[href*='/attachments/']").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		name := ""
		if img := a.Find("img").First(); img.Length() > 0 {
			name = img.AttrOr("title", img.AttrOr("alt", ""))
		}
		add(href, name)
	})

	message.Find(".message-attachments .file").Each(func(_ int, f *goquery.Selection) {
		link := f.Find("a.file-preview").First()
		if link.Length() == 0 {
			link = f.Find("a[href*='/attachments/']").First()
		}
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		nameNode := f.Find(".file-name").First()
		add(href, nameNode.AttrOr("title", nameNode.Text()))
	})
	return result
}

func attachmentID(rawURL string) int64 {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	m := attachmentIDRegex.FindStringSubmatch(u.Path)
	if m == nil {
		return 0
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (p *page) threadLinks() []model.ThreadLike {
	var (
		threads []model.ThreadLike
		seen    = make(map[string]bool)
	)
	p.doc.Find(".structItem--thread .structItem-title").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a[href*='/threads/']").Last()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		abs := p.resolve(strings.TrimSuffix(strings.TrimSuffix(href, "unread"), "latest"))
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true
		threads = append(threads, model.ThreadLike{URL: abs, Title: strings.TrimSpace(link.Text())})
	})
	return threads
}

func (p *page) forumLinks(selector string) []model.ForumLike {
	var (
		forums []model.ForumLike
		seen   = make(map[string]bool)
	)
	p.doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs := p.resolve(href)
		if abs == "" || seen[abs] {
			return
		}
		target, err := model.ClassifyURL(abs)
		if err != nil || target.Kind != model.URLKindForum {
			return
		}
		seen[abs] = true
		forums = append(forums, model.ForumLike{URL: abs, Title: strings.TrimSpace(a.Text())})
	})
	return forums
}

// titleText returns the heading text without thread prefix labels.
func titleText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	clone := s.Clone()
	clone.Find(".label, .label-append").Remove()
	return strings.Join(strings.Fields(clone.Text()), " ")
}
