package sitekit

// Blog post status values. Status drives client-side filtering only; nothing
// enforces transitions and scheduled posts are metadata, not acted upon.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusScheduled = "scheduled"
)

// BlogAuthor identifies the writer shown on a post.
type BlogAuthor struct {
	Name     string
	PhotoURL string
	Email    string
}

// BlogSEO carries per-post metadata handed to the page head.
type BlogSEO struct {
	MetaTitle       string
	MetaDescription string
	Keywords        []string
	OGImage         string
}

// BlogPost is the core content type stored in the "blogs" collection.
// Content is sanitized HTML produced by the admin editor. Timestamps are
// ISO-8601 strings normalized on read; documents written by other tools may
// carry plain strings, which pass through unchanged.
type BlogPost struct {
	ID            string
	Title         string
	Slug          string
	Excerpt       string
	Content       string
	CoverImage    string
	Tags          []string
	Categories    []string
	Status        string
	Author        BlogAuthor
	SEO           BlogSEO
	Views         int
	ScheduledDate string
	PublishedAt   string
	CreatedAt     string
	UpdatedAt     string
}

// BlogPostCreate is the caller-supplied portion of a new post. Slug and
// excerpt are computed by the caller at edit time; the service never
// re-derives them.
type BlogPostCreate struct {
	Title         string
	Slug          string
	Excerpt       string
	Content       string
	CoverImage    string
	Tags          []string
	Categories    []string
	Status        string
	Author        BlogAuthor
	SEO           BlogSEO
	ScheduledDate string
}

// ContactSubmission is a row of the "contact_submissions" collection.
// Immutable once submitted; deleted only by admin. Field keys in the store
// are snake_case, unlike the camelCase blogs collection — preserved for
// compatibility with the existing database.
type ContactSubmission struct {
	ID        string
	Name      string
	Company   string
	Email     string
	Phone     string
	Message   string
	CreatedAt string
	UpdatedAt string
}

// ContactSubmissionCreate is the public contact form payload.
type ContactSubmissionCreate struct {
	Name    string
	Company string
	Email   string
	Phone   string
	Message string
}

// DashboardStats is the ephemeral per-load aggregate shown on the admin
// dashboard. Tiles degrade to zero when their query fails.
type DashboardStats struct {
	TotalContacts  int
	RecentContacts int
	TotalBlogs     int
	RecentBlogs    int

	LatestContacts []ContactSubmission
	LatestBlogs    []BlogPost
}

// MediaImage describes a processed upload in the media library.
type MediaImage struct {
	Filename     string
	OriginalName string
	URL          string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}

// PageMeta carries per-page OpenGraph metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}
