package layout

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/xenforo-dl/internal/config"
	"github.com/nao1215/xenforo-dl/internal/model"
)

func testThread() *model.Thread {
	return &model.Thread{
		ID:    42,
		URL:   "https://forum.example.com/threads/hello.42/",
		Title: "Hello",
		Breadcrumbs: []model.Breadcrumb{
			{URL: "https://forum.example.com/", Title: "Site"},
			{URL: "https://forum.example.com/#category-a.5", Title: "CategoryA"},
			{URL: "https://forum.example.com/forums/forum-b.12/", Title: "ForumB"},
		},
	}
}

// TestResolverThreadDir tests directory resolution for each structure switch.
func TestResolverThreadDir(t *testing.T) {
	t.Parallel()

	root := filepath.Join("out", "dir")
	tests := []struct {
		name      string
		structure string
		want      string
	}{
		{"site, all ancestors and thread", "site,forums,thread", filepath.Join(root, "Site", "CategoryA.5", "ForumB.12", "Hello.42")},
		{"all ancestors and thread", "forums,thread", filepath.Join(root, "CategoryA.5", "ForumB.12", "Hello.42")},
		{"immediate parent and thread", "forum,thread", filepath.Join(root, "ForumB.12", "Hello.42")},
		{"site only", "site", filepath.Join(root, "Site")},
		{"thread only", "thread", filepath.Join(root, "Hello.42")},
		{"none collapses to root", "none", root},
		{"attachments only keeps thread in root", "attachments", root},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			structure, err := config.ParseDirStructure(tt.structure)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := NewResolver(root, structure).ThreadDir(testThread())
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestResolverThreadDir_Deterministic tests that resolution is a pure function.
func TestResolverThreadDir_Deterministic(t *testing.T) {
	t.Parallel()

	structure, _ := config.ParseDirStructure(config.DefaultDirStructure) //nolint:errcheck // constant input
	r := NewResolver("out", structure)
	if r.ThreadDir(testThread()) != r.ThreadDir(testThread()) {
		t.Error("expected identical results for identical threads")
	}
}

// TestResolverThreadDir_UnsafeTitles tests that titles are sanitized and ids keep similar names apart.
func TestResolverThreadDir_UnsafeTitles(t *testing.T) {
	t.Parallel()

	structure := config.DirStructure{ParentForums: config.ForumDirImmediate, Thread: true}
	r := NewResolver("out", structure)

	a := testThread()
	a.Title = `What? / Why: "now"`
	a.Breadcrumbs[2].Title = "Forum/B"
	got := r.ThreadDir(a)
	want := filepath.Join("out", "ForumB.12", "What Why now.42")
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	b := testThread()
	b.ID = 43
	b.Title = a.Title
	b.Breadcrumbs[2].Title = "Forum/B"
	if r.ThreadDir(b) == got {
		t.Error("expected threads with equal titles to resolve to different directories")
	}
}

// TestResolverAttachmentDir tests the optional attachments subdirectory.
func TestResolverAttachmentDir(t *testing.T) {
	t.Parallel()

	with := NewResolver("out", config.DirStructure{Thread: true, Attachments: true})
	if got := with.AttachmentDir(testThread()); got != filepath.Join("out", "Hello.42", AttachmentsDirName) {
		t.Errorf("unexpected attachment dir %q", got)
	}

	without := NewResolver("out", config.DirStructure{Thread: true})
	if got := without.AttachmentDir(testThread()); got != filepath.Join("out", "Hello.42") {
		t.Errorf("unexpected attachment dir %q", got)
	}
}

// TestSanitize tests filename sanitizing.
func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{`a<b>c:d"e/f\g|h?i*j`, "abcdefghij"},
		{"tab\tand\nnewline", "tab and newline"},
		{"  spaced   out  ", "spaced out"},
		{"...dots...", "dots"},
		{"", "_"},
		{"???", "_"},
		{"CON", "CON_"},
		{"nul.txt", "nul.txt_"},
		{"Café", "Café"},
		{"日本語のタイトル", "日本語のタイトル"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	t.Run("truncates on rune boundary", func(t *testing.T) {
		t.Parallel()

		got := Sanitize(strings.Repeat("あ", 100))
		if len(got) > maxSegmentBytes {
			t.Errorf("expected at most %d bytes, got %d", maxSegmentBytes, len(got))
		}
		if !strings.HasPrefix(strings.Repeat("あ", 100), got) {
			t.Errorf("expected a rune-aligned prefix, got %q", got)
		}
	})
}

// TestAttachmentFilename tests attachment naming.
func TestAttachmentFilename(t *testing.T) {
	t.Parallel()

	named := model.ThreadMessageAttachment{ID: 9, Index: 2, Filename: "photo:1.jpg"}
	if got := AttachmentFilename(named); got != "attach-9 - photo1.jpg" {
		t.Errorf("unexpected name %q", got)
	}

	unnamed := model.ThreadMessageAttachment{ID: 9, Index: 2}
	if got := AttachmentFilename(unnamed); got != "attach-9-2" {
		t.Errorf("unexpected name %q", got)
	}
}

// TestIsAttachmentFile tests matching existing attachment files by id.
func TestIsAttachmentFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   int64
		want bool
	}{
		{"attach-9 - photo.jpg", 9, true},
		{"attach-9-2", 9, true},
		{"attach-9 - photo.jpg.part", 9, false},
		{"attach-99 - photo.jpg", 9, false},
		{"attach-99-1", 9, false},
		{"attach-9", 9, false},
		{"messages-9-p1 - x.txt", 9, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsAttachmentFile(tt.name, tt.id); got != tt.want {
				t.Errorf("IsAttachmentFile(%q, %d) = %v, want %v", tt.name, tt.id, got, tt.want)
			}
		})
	}
}

// TestTranscriptFilename tests transcript naming and parsing.
func TestTranscriptFilename(t *testing.T) {
	t.Parallel()

	name := TranscriptFilename(42, 3, "Hello / World")
	if name != "messages-42-p3 - Hello World.txt" {
		t.Errorf("unexpected name %q", name)
	}

	id, page, ok := ParseTranscriptFilename(name)
	if !ok || id != 42 || page != 3 {
		t.Errorf("expected (42, 3, true), got (%d, %d, %v)", id, page, ok)
	}

	if _, _, ok := ParseTranscriptFilename("attach-1-1"); ok {
		t.Error("expected non-transcript name to be rejected")
	}
}

// TestStatusFilename tests resume marker naming.
func TestStatusFilename(t *testing.T) {
	t.Parallel()

	if got := StatusFilename(42); got != ".dl-status-42" {
		t.Errorf("expected '.dl-status-42', got %q", got)
	}
}
