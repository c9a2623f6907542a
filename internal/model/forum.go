package model

import "time"

// Breadcrumb is one ancestor entry in the path from the site root to a thread.
// The first breadcrumb of a thread is always the site-level crumb.
type Breadcrumb struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ForumLike is a minimal reference to a forum or subforum.
// It is what a listing page knows about a forum before the forum
// itself has been fetched.
type ForumLike struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Forum is a fully expanded forum: its own identity plus the subforums
// and threads listed on it.
type Forum struct {
	ID        int64        `json:"id"`
	URL       string       `json:"url"`
	Title     string       `json:"title"`
	Subforums []ForumLike  `json:"subforums,omitempty"`
	Threads   []ThreadLike `json:"threads,omitempty"`
}

// ForumPage is one page of a forum's thread listing.
// An empty NextURL terminates the forum's page sequence.
type ForumPage struct {
	Forum

	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	NextURL     string `json:"nextURL,omitempty"`
}

// ThreadLike is a minimal reference to a thread on a forum listing.
type ThreadLike struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Thread is a single discussion topic.
type Thread struct {
	ID          int64           `json:"id"`
	URL         string          `json:"url"`
	Title       string          `json:"title"`
	Breadcrumbs []Breadcrumb    `json:"breadcrumbs"`
	Messages    []ThreadMessage `json:"messages"`
}

// ThreadPage is one page of a thread's messages.
// An empty NextURL terminates the thread's page sequence.
type ThreadPage struct {
	Thread

	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	NextURL     string `json:"nextURL,omitempty"`
}

// ThreadMessage is one post of a thread.
//
// ID is the stable post identifier and increases monotonically within a
// thread; it is the resume cursor. Index is the ordinal the site displays
// (for example "#12") and is a label only.
type ThreadMessage struct {
	ID          int64                     `json:"id"`
	Index       string                    `json:"index"`
	Author      string                    `json:"author,omitempty"`
	PublishedAt time.Time                 `json:"publishedAt,omitzero"`
	Body        string                    `json:"body,omitempty"`
	Attachments []ThreadMessageAttachment `json:"attachments,omitempty"`
}

// ThreadMessageAttachment is a file referenced from a message.
// Filename is empty when the page carries no inline name; the crawler then
// tries a header lookup before the attachment is named on disk.
type ThreadMessageAttachment struct {
	ID       int64  `json:"id"`
	Index    int    `json:"index"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// GenericPage is any other page of the site, reduced to the forums it links to.
type GenericPage struct {
	Forums []ForumLike `json:"forums"`
}
