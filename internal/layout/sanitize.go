package layout

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxSegmentBytes keeps segments well below the 255 byte name limit of
// common filesystems, leaving room for id suffixes and prefixes.
const maxSegmentBytes = 180

// illegalChars are rejected by at least one of Windows, macOS or Linux.
const illegalChars = `<>:"/\|?*`

// reservedNames are device names Windows refuses as file names.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Sanitize returns s as a single safe path segment.
//
// The result is NFC normalized, has illegal and control characters removed,
// collapses whitespace, has no leading or trailing dots or spaces, and is
// truncated on a rune boundary. An empty result becomes "_".
func Sanitize(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == utf8.RuneError:
		case unicode.IsControl(r):
			b.WriteByte(' ')
		case strings.ContainsRune(illegalChars, r):
		default:
			b.WriteRune(r)
		}
	}

	out := strings.Join(strings.Fields(b.String()), " ")
	out = truncate(out, maxSegmentBytes)
	out = strings.Trim(out, ". ")

	if out == "" {
		return "_"
	}
	base := out
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if reservedNames[strings.ToUpper(base)] {
		out += "_"
	}
	return out
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
