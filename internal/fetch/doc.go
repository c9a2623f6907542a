// Package fetch retrieves forum pages and attachments.
//
// A Fetcher owns two Queues. The page queue admits one request at a time
// with a minimum spacing between dispatches; the attachment queue admits
// several concurrent downloads with its own spacing. Every fetch retries a
// fixed number of times with a fixed delay, follows redirects by hand so
// that the session cookie never leaves the original host, and aborts at
// once when its context is cancelled.
package fetch
