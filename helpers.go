package sitekit

import (
	"encoding/json"
	"net/mail"
	"net/url"
	"path"
	"strings"
	"unicode"
)

// Slugify converts a title to a URL-safe slug: lowercased, with runs of
// non-alphanumeric characters collapsed to single separators.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	out := []string{}
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Excerpt strips HTML tags from content and truncates the text to at most
// max runes on a word boundary.
func Excerpt(content string, max int) string {
	var b strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	text := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	cut := max
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		cut = max
	}
	return strings.TrimSpace(string(runes[:cut])) + "…"
}

// ValidateContact applies the form-boundary rules: name, email, and message
// are required, the email must parse as an address, and the message must
// carry at least a few words' worth of characters. A non-empty result means
// the submission never reaches the service layer.
func ValidateContact(data ContactSubmissionCreate) map[string]string {
	errs := make(map[string]string)
	if data.Name == "" {
		errs["name"] = "Name is required."
	}
	if data.Email == "" {
		errs["email"] = "Email is required."
	} else if _, err := mail.ParseAddress(data.Email); err != nil {
		errs["email"] = "Enter a valid email address."
	}
	if data.Message == "" {
		errs["message"] = "Message is required."
	} else if len(data.Message) < 10 {
		errs["message"] = "Message must be at least 10 characters."
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// RelatedPosts finds posts that share at least one tag or category with
// current, excluding current itself.
func RelatedPosts(current BlogPost, posts []BlogPost) []BlogPost {
	set := make(map[string]struct{})
	for _, t := range append(append([]string{}, current.Tags...), current.Categories...) {
		if tag := strings.ToLower(strings.TrimSpace(t)); tag != "" {
			set[tag] = struct{}{}
		}
	}
	var related []BlogPost
	for _, p := range posts {
		if p.ID == current.ID {
			continue
		}
		for _, t := range append(append([]string{}, p.Tags...), p.Categories...) {
			if _, ok := set[strings.ToLower(strings.TrimSpace(t))]; ok {
				related = append(related, p)
				break
			}
		}
	}
	return related
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(post BlogPost, cfg SiteConfig) string {
	postURL := BuildURL(cfg.URL, "blog", post.Slug)
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    post.Title,
		"description": post.Excerpt,
		"url":         postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
		"author": map[string]string{
			"@type": "Person",
			"name":  post.Author.Name,
		},
	}
	if post.PublishedAt != "" {
		data["datePublished"] = post.PublishedAt
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	if post.CoverImage != "" {
		data["image"] = post.CoverImage
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
