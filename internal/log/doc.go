// Package log builds the slog loggers used by xenforo-dl.
//
// Every logger returned by New wraps its output handler in a SecureHandler,
// which removes forum credentials before a record is written:
//   - attributes whose key names a credential (cookie, authorization, password)
//     are replaced entirely
//   - XenForo session cookies (xf_user, xf_session, xf_csrf) embedded in any
//     string value keep their name but lose their value
//   - credential query parameters (_xfToken, token, key) inside URLs are masked
//
// Verbose mode lowers the level to Debug but never disables redaction.
//
//	logger := log.New(os.Stderr, log.Options{Verbose: true})
//	logger.Info("fetching page", "url", pageURL, "cookie", cfg.Cookie)
package log
