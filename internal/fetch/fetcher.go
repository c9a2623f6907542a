package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/corpix/uarand"
)

// maxRedirects is the number of redirect hops followed before giving up.
const maxRedirects = 10

// Options configures a Fetcher.
type Options struct {
	// Cookie is sent only while a request stays on its original host.
	Cookie string
	// Headers are sent under the same condition as Cookie.
	Headers map[string]string
	// UserAgent is sent on every request. Empty picks a random browser UA.
	UserAgent string

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// RetryInterval is the fixed delay between attempts.
	RetryInterval time.Duration
	// MaxPageSize limits the bytes read from a page. Zero means no limit.
	MaxPageSize int64

	// PageInterval spaces page requests; pages are always serialized.
	PageInterval time.Duration
	// AttachmentConcurrency bounds simultaneous attachment downloads.
	AttachmentConcurrency int
	// AttachmentInterval spaces attachment request dispatches.
	AttachmentInterval time.Duration

	Logger *slog.Logger
}

// Page is a fetched HTML page.
type Page struct {
	HTML string
	// FinalURL is the URL after following redirects.
	FinalURL string
}

// Fetcher performs page fetches, filename lookups and attachment downloads.
type Fetcher struct {
	client      *http.Client
	pages       *Queue
	attachments *Queue
	opts        Options
	logger      *slog.Logger
}

// New creates a Fetcher using client for all requests.
func New(client *http.Client, opts Options) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = uarand.GetRandom()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		client:      client,
		pages:       NewQueue(1, opts.PageInterval),
		attachments: NewQueue(opts.AttachmentConcurrency, opts.AttachmentInterval),
		opts:        opts,
		logger:      logger,
	}
}

// UserAgent returns the User-Agent header sent with every request.
func (f *Fetcher) UserAgent() string {
	return f.opts.UserAgent
}

// Stop stops both queues. Waiting and future requests fail with ErrQueueStopped.
func (f *Fetcher) Stop() {
	f.pages.Stop()
	f.attachments.Stop()
}

// FetchPage fetches an HTML page through the page queue.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) (Page, error) {
	var page Page
	err := f.withRetry(ctx, f.pages, rawURL, func(ctx context.Context) error {
		resp, final, err := f.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := readLimited(resp.Body, f.opts.MaxPageSize)
		if err != nil {
			return err
		}
		page = Page{HTML: string(body), FinalURL: final.String()}
		return nil
	})
	return page, err
}

// ResolveFilename looks up the name of an attachment from the
// Content-Disposition header of a HEAD request. It returns an empty name
// when the server does not send one. A server refusing HEAD is not retried.
func (f *Fetcher) ResolveFilename(ctx context.Context, rawURL string) (string, error) {
	var name string
	err := f.withRetry(ctx, f.pages, rawURL, func(ctx context.Context) error {
		resp, _, err := f.do(ctx, http.MethodHead, rawURL)
		if err != nil {
			if headUnsupported(err) {
				return permanent(err)
			}
			return err
		}
		resp.Body.Close()

		name = filenameFromDisposition(resp.Header.Get("Content-Disposition"))
		return nil
	})
	return name, err
}

func headUnsupported(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusMethodNotAllowed || se.StatusCode == http.StatusNotImplemented
}

// Download streams rawURL into destPath through the attachment queue.
//
// The body is written to destPath+".part" and renamed over destPath only
// after it was received completely. On failure the partial file is removed
// and destPath is left untouched.
func (f *Fetcher) Download(ctx context.Context, rawURL, destPath string) error {
	return f.withRetry(ctx, f.attachments, rawURL, func(ctx context.Context) error {
		resp, _, err := f.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		return commitFile(ctx, resp.Body, destPath)
	})
}

func commitFile(ctx context.Context, r io.Reader, destPath string) (err error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return permanent(fmt.Errorf("failed to create directory: %w", err))
	}

	partPath := destPath + ".part"
	part, err := os.Create(partPath) //nolint:gosec // path built from sanitized segments
	if err != nil {
		return permanent(fmt.Errorf("failed to create temporary file: %w", err))
	}
	defer func() {
		if err != nil {
			_ = part.Close()
			_ = os.Remove(partPath)
		}
	}()

	if _, err = io.Copy(part, r); err != nil {
		return err
	}
	if err = part.Close(); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	return os.Rename(partPath, destPath)
}

// withRetry runs attempt through q, retrying non-fatal failures.
// Cancellation and stopped queues are returned as is, never retried.
func (f *Fetcher) withRetry(ctx context.Context, q *Queue, rawURL string, attempt func(context.Context) error) error {
	maxAttempts := max(f.opts.MaxRetries, 0) + 1

	var lastErr error
	for n := 1; n <= maxAttempts; n++ {
		err := q.Do(ctx, attempt)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, ErrQueueStopped) {
			return err
		}
		if isFatalTransport(err) {
			return &FetchError{URL: rawURL, Attempts: n, Fatal: true, Err: err}
		}

		lastErr = err
		var perm *permanentError
		if errors.As(err, &perm) {
			return &FetchError{URL: rawURL, Attempts: n, Err: perm.err}
		}
		if n == maxAttempts {
			break
		}

		f.logger.Debug("retrying request", "url", rawURL, "attempt", n, "error", err)
		if err := sleep(ctx, f.opts.RetryInterval); err != nil {
			return err
		}
	}
	return &FetchError{URL: rawURL, Attempts: maxAttempts, Err: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// do sends one request and follows redirects by hand. Cookie and headers
// are attached while every hop stays on the host of rawURL; once a hop
// leaves it they are dropped for the rest of the chain.
func (f *Fetcher) do(ctx context.Context, method, rawURL string) (*http.Response, *url.URL, error) {
	current, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, permanent(err)
	}
	origin := current.Host
	sameHost := true

	for hop := 0; ; hop++ {
		req, err := http.NewRequestWithContext(ctx, method, current.String(), nil)
		if err != nil {
			return nil, nil, permanent(err)
		}
		f.decorate(req, sameHost)

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, nil, err
		}

		if !isRedirect(resp.StatusCode) {
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				drain(resp)
				return nil, nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
			}
			return resp, current, nil
		}

		location := resp.Header.Get("Location")
		drain(resp)
		if location == "" {
			return nil, nil, permanent(errMissingLocation)
		}
		if hop >= maxRedirects {
			return nil, nil, permanent(errTooManyRedirects)
		}

		next, err := current.Parse(location)
		if err != nil {
			return nil, nil, permanent(fmt.Errorf("invalid redirect location: %w", err))
		}
		if !strings.EqualFold(next.Host, origin) {
			sameHost = false
		}
		current = next
	}
}

func (f *Fetcher) decorate(req *http.Request, sameHost bool) {
	req.Header.Set("User-Agent", f.opts.UserAgent)
	if !sameHost {
		return
	}
	for k, v := range f.opts.Headers {
		req.Header.Set(k, v)
	}
	if f.opts.Cookie != "" {
		req.Header.Set("Cookie", f.opts.Cookie)
	}
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, permanent(errPageTooLarge)
	}
	return body, nil
}

// filenameFromDisposition extracts the base file name from a
// Content-Disposition value. RFC 2231 encoded names are decoded by mime.
func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := strings.TrimSpace(params["filename"])
	if name == "" {
		return ""
	}
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
