// Package crawler drives the traversal of a XenForo forum.
//
// A Spider walks forums depth first and threads page by page. It is the only
// component that decides what to fetch next; fetching, parsing, directory
// layout, transcripts and resume markers are delegated to their own packages.
//
// # Traversal
//
// Thread URLs are crawled page by page until a page has no next link.
// Forum URLs crawl every page of their thread listing, dispatching each
// listed thread to completion before the next, and then descend into their
// subforums one at a time using an explicit stack. Any other URL is fetched
// once and every forum it links to is dispatched.
//
// A per-run visited set of forum and thread ids prevents a subforum cycle
// from looping forever and keeps a thread listed twice from being crawled
// twice.
//
// # Failure handling
//
// A failure of one unit (a page, a message's attachments, a thread) is
// logged and counted, and the traversal moves on. Cancellation, fatal fetch
// errors and a stopped fetch queue abort the whole crawl. Files already
// committed stay on disk.
//
// # Resume
//
// After each message the thread's resume marker is advanced. When a thread is
// crawled again with resume enabled, the crawl restarts at the page recorded
// in the marker, drops every message up to and including the recorded one,
// and appends to the existing transcript.
package crawler
