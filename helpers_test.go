package sitekit

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Autonomous Systems: 2025 Update!  ", "autonomous-systems-2025-update"},
		{"already-slugged", "already-slugged"},
		{"Multi   Space", "multi-space"},
		{"Trailing punctuation...", "trailing-punctuation"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		segs []string
		want string
	}{
		{"https://example.com", []string{"blog"}, "https://example.com/blog/"},
		{"https://example.com/", []string{"blog", "post-1"}, "https://example.com/blog/post-1/"},
		{"https://example.com", nil, "https://example.com"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segs...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segs, got, tt.want)
		}
	}
}

func TestFilterEmpty(t *testing.T) {
	got := FilterEmpty([]string{"a", "", "  ", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("FilterEmpty = %v, want [a b]", got)
	}
	if got := FilterEmpty(nil); got == nil {
		t.Error("FilterEmpty(nil) should return an empty slice, not nil")
	}
}

func TestExcerpt(t *testing.T) {
	got := Excerpt("<p>Hello <b>brave</b> new world of autonomous flight</p>", 20)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("long excerpt should end with ellipsis, got %q", got)
	}
	if strings.Contains(got, "<") {
		t.Errorf("excerpt should strip tags, got %q", got)
	}

	short := Excerpt("<p>Short.</p>", 100)
	if short != "Short." {
		t.Errorf("short content should pass through untruncated, got %q", short)
	}
}

func TestValidateContact(t *testing.T) {
	valid := ContactSubmissionCreate{
		Name:    "Dana",
		Email:   "dana@example.com",
		Message: "a message long enough",
	}
	if errs := ValidateContact(valid); errs != nil {
		t.Errorf("valid submission should produce nil errors, got %v", errs)
	}

	tests := []struct {
		name  string
		mut   func(*ContactSubmissionCreate)
		field string
	}{
		{"missing name", func(c *ContactSubmissionCreate) { c.Name = "" }, "name"},
		{"missing email", func(c *ContactSubmissionCreate) { c.Email = "" }, "email"},
		{"bad email", func(c *ContactSubmissionCreate) { c.Email = "not-an-address" }, "email"},
		{"missing message", func(c *ContactSubmissionCreate) { c.Message = "" }, "message"},
		{"short message", func(c *ContactSubmissionCreate) { c.Message = "short" }, "message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mut(&c)
			errs := ValidateContact(c)
			if errs[tt.field] == "" {
				t.Errorf("expected an error on %q, got %v", tt.field, errs)
			}
		})
	}
}

func TestRelatedPosts(t *testing.T) {
	current := BlogPost{ID: "1", Tags: []string{"Radar"}, Categories: []string{"ISR"}}
	posts := []BlogPost{
		{ID: "1", Tags: []string{"radar"}},                // current itself
		{ID: "2", Tags: []string{"radar"}},                // tag match, case-insensitive
		{ID: "3", Categories: []string{"isr"}},            // category match
		{ID: "4", Tags: []string{"satellites"}},           // no overlap
		{ID: "5", Tags: nil, Categories: []string{"ISR"}}, // category match
	}
	related := RelatedPosts(current, posts)
	if len(related) != 3 {
		t.Fatalf("RelatedPosts = %d posts, want 3", len(related))
	}
	for _, p := range related {
		if p.ID == "1" || p.ID == "4" {
			t.Errorf("post %s should not be related", p.ID)
		}
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	cfg := SiteConfig{Name: "Arc Labs", URL: "https://arclabs.example"}
	post := BlogPost{
		Title:       "Test",
		Slug:        "test",
		Excerpt:     "e",
		PublishedAt: "2025-01-02T03:04:05Z",
		Author:      BlogAuthor{Name: "Admin"},
		Tags:        []string{"a", "b"},
	}
	got := BlogPostingJsonLD(post, cfg)
	for _, want := range []string{`"BlogPosting"`, `"datePublished":"2025-01-02T03:04:05Z"`, `"keywords":"a, b"`, "https://arclabs.example/blog/test/"} {
		if !strings.Contains(got, want) {
			t.Errorf("JSON-LD missing %s in %s", want, got)
		}
	}
}
