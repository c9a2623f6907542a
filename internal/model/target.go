package model

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
)

// ErrInvalidURL is returned when a URL cannot be parsed or has no host.
var ErrInvalidURL = errors.New("invalid URL")

// URLKind is the category of a crawl target.
type URLKind int

const (
	// URLKindUnknown is any URL that is neither a thread nor a forum.
	URLKindUnknown URLKind = iota
	// URLKindThread is a thread URL: /threads/<slug>.<id>
	URLKindThread
	// URLKindForum is a forum URL: /forums/<slug>.<id>
	URLKindForum
)

// String returns the string representation of the URLKind.
func (k URLKind) String() string {
	switch k {
	case URLKindThread:
		return "thread"
	case URLKindForum:
		return "forum"
	default:
		return unknownStr
	}
}

const unknownStr = "unknown"

var (
	// threadPathRegex matches /threads/<slug>.<id> anywhere in the path,
	// so page suffixes (/page-3) and post anchors do not change the result.
	threadPathRegex = regexp.MustCompile(`/threads/(?:[^/]*\.)?(\d+)(?:/|$)`)

	// forumPathRegex matches /forums/<slug>.<id>.
	forumPathRegex = regexp.MustCompile(`/forums/(?:[^/]*\.)?(\d+)(?:/|$)`)

	// trailingIDRegex matches the numeric id at the end of a slug segment,
	// e.g. "category-a.5" or "general-discussion.12/".
	trailingIDRegex = regexp.MustCompile(`\.(\d+)/?$`)
)

// Target is a classified crawl target.
// It is a value object: construct it with ClassifyURL.
type Target struct {
	// URL is the parsed input URL.
	URL *url.URL
	// Kind is the detected category.
	Kind URLKind
	// ID is the numeric thread or forum id, 0 for unknown URLs.
	ID int64
}

// ClassifyURL parses rawURL and categorizes it as a thread, forum or unknown URL.
// It performs no network access. Unparseable URLs, or URLs without a scheme
// and host, fail with ErrInvalidURL.
func ClassifyURL(rawURL string) (Target, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q: %v", ErrInvalidURL, rawURL, err) //nolint:errorlint // ErrInvalidURL is the matchable cause
	}
	if u.Scheme == "" || u.Host == "" {
		return Target{}, fmt.Errorf("%w: %q: missing scheme or host", ErrInvalidURL, rawURL)
	}

	t := Target{URL: u, Kind: URLKindUnknown}
	if m := threadPathRegex.FindStringSubmatch(u.Path); m != nil {
		t.Kind = URLKindThread
		t.ID = parseID(m[1])
		return t, nil
	}
	if m := forumPathRegex.FindStringSubmatch(u.Path); m != nil {
		t.Kind = URLKindForum
		t.ID = parseID(m[1])
		return t, nil
	}
	return t, nil
}

// IDFromURL extracts the trailing numeric id of an entity URL such as a
// forum, category or attachment link. The id may sit at the end of the
// path ("/forums/general.12/") or of the fragment ("/#category-a.5").
// It returns 0 when no id is present.
func IDFromURL(rawURL string) int64 {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	if u.Fragment != "" {
		if m := trailingIDRegex.FindStringSubmatch(u.Fragment); m != nil {
			return parseID(m[1])
		}
	}
	if m := trailingIDRegex.FindStringSubmatch(u.Path); m != nil {
		return parseID(m[1])
	}
	return 0
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
