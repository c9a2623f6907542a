// Package main provides the entry point for the xenforo-dl CLI.
//
// xenforo-dl downloads threads, messages and attachments from XenForo
// forums into a local directory tree.
//
// Usage:
//
//	xenforo-dl download <thread-or-forum-url>...
//	xenforo-dl history
//
// See --help for all available options.
package main

// main is the entry point for xenforo-dl.
func main() {
	Execute()
}
