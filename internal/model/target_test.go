package model

import (
	"errors"
	"testing"
)

// TestClassifyURL tests URL classification.
func TestClassifyURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		url      string
		wantKind URLKind
		wantID   int64
	}{
		{"thread", "https://forum.example.com/threads/hello-world.42/", URLKindThread, 42},
		{"thread without trailing slash", "https://forum.example.com/threads/hello-world.42", URLKindThread, 42},
		{"thread with page suffix", "https://forum.example.com/threads/hello-world.42/page-7", URLKindThread, 42},
		{"thread with query", "https://forum.example.com/threads/hello-world.42/?order=desc", URLKindThread, 42},
		{"thread with post anchor", "https://forum.example.com/threads/hello-world.42/post-991#post-991", URLKindThread, 42},
		{"thread with dotted slug", "https://forum.example.com/threads/v1.2-release.77/", URLKindThread, 77},
		{"thread below a sub path", "https://example.com/community/threads/x.9/", URLKindThread, 9},
		{"thread without slug", "https://forum.example.com/threads/42/", URLKindThread, 42},
		{"forum", "https://forum.example.com/forums/general.12/", URLKindForum, 12},
		{"forum with page suffix", "https://forum.example.com/forums/general.12/page-3", URLKindForum, 12},
		{"site root", "https://forum.example.com/", URLKindUnknown, 0},
		{"category index", "https://forum.example.com/#category-a.5", URLKindUnknown, 0},
		{"thread slug without id", "https://forum.example.com/threads/hello/", URLKindUnknown, 0},
		{"members page", "https://forum.example.com/members/bob.3/", URLKindUnknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target, err := ClassifyURL(tt.url)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if target.Kind != tt.wantKind {
				t.Errorf("Kind = %v, expected %v", target.Kind, tt.wantKind)
			}
			if target.ID != tt.wantID {
				t.Errorf("ID = %d, expected %d", target.ID, tt.wantID)
			}
		})
	}
}

// TestClassifyURL_Invalid tests that malformed URLs fail before classification.
func TestClassifyURL_Invalid(t *testing.T) {
	t.Parallel()

	invalid := []string{
		"",
		"not a url",
		"/threads/hello.42/",
		"https://%zz/threads/hello.42/",
		"forum.example.com/threads/hello.42/",
	}

	for _, raw := range invalid {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()

			_, err := ClassifyURL(raw)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidURL) {
				t.Errorf("expected ErrInvalidURL, got %v", err)
			}
		})
	}
}

// TestClassifyURL_StableForThreads checks that trailing segments never change a thread's kind.
func TestClassifyURL_StableForThreads(t *testing.T) {
	t.Parallel()

	base := "https://forum.example.com/threads/foo.123"
	suffixes := []string{"", "/", "/page-2", "/page-200/", "?foo=bar", "/unread", "/latest#post-5", "/page-2?x=1"}

	for _, suffix := range suffixes {
		target, err := ClassifyURL(base + suffix)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", suffix, err)
		}
		if target.Kind != URLKindThread || target.ID != 123 {
			t.Errorf("%q: got kind %v id %d", suffix, target.Kind, target.ID)
		}
	}
}

// TestIDFromURL tests trailing id extraction.
func TestIDFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want int64
	}{
		{"https://forum.example.com/forums/general.12/", 12},
		{"https://forum.example.com/#category-a.5", 5},
		{"https://forum.example.com/categories/category-a.5/", 5},
		{"https://forum.example.com/attachments/photo-jpg.3001/", 3001},
		{"https://forum.example.com/", 0},
		{"https://forum.example.com/forums/general/", 0},
		{"%zz", 0},
	}

	for _, tt := range tests {
		if got := IDFromURL(tt.url); got != tt.want {
			t.Errorf("IDFromURL(%q) = %d, expected %d", tt.url, got, tt.want)
		}
	}
}

// TestURLKindString tests URLKind string representation.
func TestURLKindString(t *testing.T) {
	t.Parallel()

	if URLKindThread.String() != "thread" {
		t.Errorf("unexpected %q", URLKindThread.String())
	}
	if URLKindForum.String() != "forum" {
		t.Errorf("unexpected %q", URLKindForum.String())
	}
	if URLKindUnknown.String() != "unknown" {
		t.Errorf("unexpected %q", URLKindUnknown.String())
	}
}
