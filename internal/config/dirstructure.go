package config

import (
	"fmt"
	"strings"
)

// ForumDirMode selects which ancestor forums get a directory.
type ForumDirMode int

const (
	// ForumDirNone creates no forum directories.
	ForumDirNone ForumDirMode = iota
	// ForumDirImmediate creates a directory for the thread's parent forum only.
	ForumDirImmediate
	// ForumDirAll creates a directory for every ancestor forum and category.
	ForumDirAll
)

// Directory structure tokens accepted by ParseDirStructure.
const (
	dirTokenNone        = "none"
	dirTokenSite        = "site"
	dirTokenForums      = "forums"
	dirTokenForum       = "forum"
	dirTokenThread      = "thread"
	dirTokenAttachments = "attachments"
)

// DirStructure is the set of independent directory switches.
// The zero value is the "none" structure: everything is written
// directly into the output root.
type DirStructure struct {
	Site         bool
	ParentForums ForumDirMode
	Thread       bool
	Attachments  bool
}

// IsNone reports whether no directories are created at all.
func (d DirStructure) IsNone() bool {
	return !d.Site && d.ParentForums == ForumDirNone && !d.Thread && !d.Attachments
}

// ParseDirStructure parses a comma separated list of tokens:
// site, forums (all ancestors), forum (immediate parent), thread,
// attachments, or the single token none.
func ParseDirStructure(s string) (DirStructure, error) {
	var d DirStructure

	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == dirTokenNone {
		return d, nil
	}

	for _, token := range strings.Split(s, ",") {
		switch strings.TrimSpace(token) {
		case dirTokenSite:
			d.Site = true
		case dirTokenForums:
			d.ParentForums = ForumDirAll
		case dirTokenForum:
			if d.ParentForums != ForumDirAll {
				d.ParentForums = ForumDirImmediate
			}
		case dirTokenThread:
			d.Thread = true
		case dirTokenAttachments:
			d.Attachments = true
		case dirTokenNone:
			return DirStructure{}, fmt.Errorf("%w: %q cannot be combined with other tokens", ErrInvalidDirStructure, dirTokenNone)
		default:
			return DirStructure{}, fmt.Errorf("%w: unknown token %q", ErrInvalidDirStructure, token)
		}
	}
	return d, nil
}

// String returns the canonical token list of d.
func (d DirStructure) String() string {
	if d.IsNone() {
		return dirTokenNone
	}

	tokens := make([]string, 0, 4)
	if d.Site {
		tokens = append(tokens, dirTokenSite)
	}
	switch d.ParentForums {
	case ForumDirAll:
		tokens = append(tokens, dirTokenForums)
	case ForumDirImmediate:
		tokens = append(tokens, dirTokenForum)
	case ForumDirNone:
	}
	if d.Thread {
		tokens = append(tokens, dirTokenThread)
	}
	if d.Attachments {
		tokens = append(tokens, dirTokenAttachments)
	}
	return strings.Join(tokens, ",")
}
