package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue replaces redacted values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose whole value is always masked.
var sensitiveKeys = map[string]bool{
	"cookie":              true,
	"cookies":             true,
	"set-cookie":          true,
	"authorization":       true,
	"proxy-authorization": true,
	"password":            true,
	"xf_user":             true,
	"xf_session":          true,
	"xf_csrf":             true,
	"_xftoken":            true,
}

// sensitiveKeywords mask any key that contains them.
// The bare word "key" is not included; it matches too many harmless keys.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "session",
}

var (
	// xenforoCookiePattern matches XenForo cookie pairs inside a cookie
	// string or header dump, e.g. "xf_session=abc123".
	xenforoCookiePattern = regexp.MustCompile(`(?i)\b(xf_[a-z_]+)=([^;\s&]+)`)

	// credentialParamPattern matches credential query parameters inside URLs.
	credentialParamPattern = regexp.MustCompile(`(?i)([?&](?:_xftoken|token|key|password)=)([^&#\s]+)`)
)

// SecureHandler wraps an slog.Handler and scrubs credentials from every
// attribute before delegating.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler falls back to slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the underlying handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle scrubs the record's message and attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, scrubString(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs scrubs attrs before attaching them.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a handler that nests later attributes under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			sanitized[i] = sanitizeAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, scrubString(a.Value.String()))
	case slog.KindAny:
		// errors and URLs often carry request URLs with tokens in them
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, scrubString(err.Error()))
		}
		if s, ok := a.Value.Any().(interface{ String() string }); ok {
			return slog.String(a.Key, scrubString(s.String()))
		}
	default:
	}
	return a
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if sensitiveKeys[lower] {
		return true
	}
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// scrubString masks XenForo cookie values and URL credential parameters
// while keeping the rest of s readable.
func scrubString(s string) string {
	if !strings.Contains(s, "=") {
		return s
	}
	s = xenforoCookiePattern.ReplaceAllString(s, "${1}="+MaskValue)
	return credentialParamPattern.ReplaceAllString(s, "${1}"+MaskValue)
}

// Options configures New.
type Options struct {
	// Verbose lowers the level from Info to Debug.
	Verbose bool
	// JSON selects slog's JSON handler instead of the text handler.
	JSON bool
}

// New returns a logger writing to w whose output is always scrubbed.
func New(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(NewSecureHandler(handler))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
