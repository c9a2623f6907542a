package parser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipClasses mark elements that are interface chrome inside a message body.
var skipClasses = []string{"bbCodeBlock-expandLink", "js-extraInfo", "bbCodeBlock-shrinkLink"}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// RenderText converts a message body element into plain text.
// Line breaks and block elements become newlines, quotes are prefixed with
// "> " and runs of markup whitespace collapse to one space.
func RenderText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(&b, c)
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(strings.TrimLeft(line, " "), " \t")
	}
	text := strings.Join(lines, "\n")
	return strings.TrimSpace(excessNewlines.ReplaceAllString(text, "\n\n"))
}

func renderNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		writeCollapsed(b, n.Data)
		return
	case html.ElementNode:
	default:
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript:
		return
	case atom.Br:
		b.WriteByte('\n')
		return
	case atom.Img:
		alt := attr(n, "alt")
		switch {
		case alt == "":
		case isSmilie(n):
			b.WriteString(alt)
		default:
			b.WriteString("[" + alt + "]")
		}
		return
	case atom.Blockquote:
		var inner strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderNode(&inner, c)
		}
		ensureNewline(b)
		for _, line := range strings.Split(strings.TrimSpace(inner.String()), "\n") {
			b.WriteString("> " + strings.TrimSpace(line) + "\n")
		}
		return
	default:
	}
	if hasAnyClass(n, skipClasses) {
		return
	}

	block := isBlock(n.DataAtom)
	if block {
		ensureNewline(b)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(b, c)
	}
	if block {
		ensureNewline(b)
	}
}

func writeCollapsed(b *strings.Builder, s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" && b.Len() > 0 && !endsWithSpace(b) {
			b.WriteByte(' ')
		}
		return
	}
	if isSpace(s[0]) && b.Len() > 0 && !endsWithSpace(b) {
		b.WriteByte(' ')
	}
	b.WriteString(strings.Join(fields, " "))
	if isSpace(s[len(s)-1]) {
		b.WriteByte(' ')
	}
}

func ensureNewline(b *strings.Builder) {
	if b.Len() == 0 {
		return
	}
	if s := b.String(); s[len(s)-1] != '\n' {
		b.WriteByte('\n')
	}
}

func endsWithSpace(b *strings.Builder) bool {
	s := b.String()
	return isSpace(s[len(s)-1])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.P, atom.Ul, atom.Ol, atom.Li, atom.Pre, atom.Table, atom.Tr,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Hr, atom.Section:
		return true
	default:
		return false
	}
}

func isSmilie(n *html.Node) bool {
	return hasAnyClass(n, []string{"smilie"})
}

func hasAnyClass(n *html.Node, classes []string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		for _, want := range classes {
			if c == want {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
