// Package parser extracts forum entities from XenForo 2 HTML pages.
//
// The parser recognizes three kinds of page: a thread page (one page of
// messages), a forum page (one page of a thread listing, plus subforums) and
// any other page, from which only forum links are collected. Identity fields
// (numeric id, canonical URL, title) are required; a page that lacks one of
// them fails with ErrParseFailed.
package parser
