// Package config provides configuration structures and utilities for xenforo-dl.
// It defines the options that drive a crawl: where output goes and how it is
// laid out, how politely and persistently the forum is fetched, and which
// credentials are sent to which site.
package config
