package fetch

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed matches a FetchError whose retry budget ran out.
	// The failed unit is skipped and the crawl continues.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrFatalFetch matches a FetchError for a failure that retrying cannot
	// fix and that aborts the whole crawl.
	ErrFatalFetch = errors.New("fatal fetch error")

	// ErrQueueStopped is returned for work submitted to, or still waiting in,
	// a stopped Queue.
	ErrQueueStopped = errors.New("request queue stopped")

	// ErrInvalidProxyAddress is returned when the proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	errTooManyRedirects = errors.New("too many redirects")
	errMissingLocation  = errors.New("redirect response without Location header")
	errPageTooLarge     = errors.New("page exceeds size limit")
)

// FetchError describes a fetch that did not succeed.
type FetchError struct {
	// URL is the requested URL.
	URL string
	// Attempts is the number of requests made, including the first one.
	Attempts int
	// Fatal is set when the failure must abort the crawl.
	Fatal bool
	// Err is the error of the last attempt.
	Err error
}

func (e *FetchError) Error() string {
	kind := "fetch"
	if e.Fatal {
		kind = "fatal fetch"
	}
	return fmt.Sprintf("%s %s failed after %d attempt(s): %v", kind, e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is match ErrFatalFetch or ErrFetchFailed depending on Fatal.
func (e *FetchError) Is(target error) bool {
	if e.Fatal {
		return target == ErrFatalFetch
	}
	return target == ErrFetchFailed
}

// StatusError is returned for a final response with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return "unexpected status " + e.Status
}

// permanentError stops the retry loop without making the failure fatal.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return &permanentError{err: err}
}

// isFatalTransport reports whether err is a TLS certificate failure.
// Those fail identically on every attempt and for every URL of the site.
func isFatalTransport(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		unknownAuth x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidCert x509.CertificateInvalidError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidCert)
}
