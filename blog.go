package sitekit

import (
	"fmt"
	"log"
	"time"

	"github.com/arclabs/sitekit/blobstore"
	"github.com/arclabs/sitekit/docstore"
)

// BlogCollection is the document collection holding blog posts. Unlike
// contact_submissions its field keys are camelCase; both spellings are kept
// as written by the existing database.
const BlogCollection = "blogs"

// blogImagesPrefix is the object-path prefix for inline and cover images.
const blogImagesPrefix = "blog-images"

// BlogService mediates between the admin editor, the public blog pages, the
// document store, and the blob store.
type BlogService struct {
	store *docstore.Store
	blobs *blobstore.Store
}

// NewBlogService creates a BlogService backed by the given stores.
func NewBlogService(store *docstore.Store, blobs *blobstore.Store) *BlogService {
	return &BlogService{store: store, blobs: blobs}
}

// UploadImage stores image bytes under blog-images/{epoch-millis}_{filename}
// and returns the public URL. Identically named files uploaded in the same
// millisecond collide.
func (s *BlogService) UploadImage(data []byte, filename string) (string, error) {
	objectPath := fmt.Sprintf("%s/%d_%s", blogImagesPrefix, time.Now().UnixMilli(), filename)
	return s.blobs.Put(objectPath, data)
}

// Create inserts a new post and returns its id. Views start at zero,
// createdAt/updatedAt are server-assigned, and publishedAt is set only when
// the post is created already published; otherwise it stays null.
func (s *BlogService) Create(post BlogPostCreate) (string, error) {
	fields := map[string]any{
		"title":         post.Title,
		"slug":          post.Slug,
		"excerpt":       post.Excerpt,
		"content":       post.Content,
		"coverImage":    post.CoverImage,
		"tags":          toAnySlice(post.Tags),
		"categories":    toAnySlice(post.Categories),
		"status":        post.Status,
		"author":        encodeAuthor(post.Author),
		"seo":           encodeSEO(post.SEO),
		"scheduledDate": post.ScheduledDate,
		"views":         0,
		"createdAt":     docstore.ServerTimestamp,
		"updatedAt":     docstore.ServerTimestamp,
	}
	if post.Status == StatusPublished {
		fields["publishedAt"] = docstore.ServerTimestamp
	} else {
		fields["publishedAt"] = nil
	}
	return s.store.Add(BlogCollection, fields)
}

// List returns all posts ordered by createdAt descending. When status is
// non-empty the full result is filtered client-side; no composite-index
// query is issued. Acceptable while the catalog is small.
func (s *BlogService) List(status string) ([]BlogPost, error) {
	docs, err := s.store.List(BlogCollection, "createdAt", true)
	if err != nil {
		return nil, err
	}
	posts := make([]BlogPost, 0, len(docs))
	for _, d := range docs {
		p := decodeBlogPost(d)
		if status != "" && p.Status != status {
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// GetByID returns a post, or nil when it does not exist. Not-found is a
// normal outcome, not an error.
func (s *BlogService) GetByID(id string) (*BlogPost, error) {
	doc, ok, err := s.store.Get(BlogCollection, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	p := decodeBlogPost(doc)
	return &p, nil
}

// GetBySlug returns at most one post whose slug equals slug, or nil when
// there is no match. Slug uniqueness is not enforced by the store; with
// duplicates an arbitrary one of them is returned.
func (s *BlogService) GetBySlug(slug string) (*BlogPost, error) {
	docs, err := s.store.QueryEq(BlogCollection, "slug", slug, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	p := decodeBlogPost(docs[0])
	return &p, nil
}

// IncrementView atomically adds one to the post's view counter. Failures are
// logged and swallowed so a counter problem never blocks a reader's
// navigation to the post.
func (s *BlogService) IncrementView(id string) {
	if err := s.store.Increment(BlogCollection, id, "views", 1); err != nil {
		log.Printf("sitekit: increment views for post %s: %v", id, err)
	}
}

// BlogPostPatch names the fields Update may change. Nil fields are left
// untouched. Slug and excerpt are only ever written when the caller computed
// them; Update never derives either.
type BlogPostPatch struct {
	Title         *string
	Slug          *string
	Excerpt       *string
	Content       *string
	CoverImage    *string
	Tags          *[]string
	Categories    *[]string
	Status        *string
	Author        *BlogAuthor
	SEO           *BlogSEO
	ScheduledDate *string
}

// Update merges the patch into the post and refreshes updatedAt. When the
// patch transitions a post to published and publishedAt was never set, it is
// backfilled with the same server timestamp, so the publish date is recorded
// whichever path a post takes to published.
func (s *BlogService) Update(id string, patch BlogPostPatch) error {
	fields := map[string]any{
		"updatedAt": docstore.ServerTimestamp,
	}
	setString := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	setString("title", patch.Title)
	setString("slug", patch.Slug)
	setString("excerpt", patch.Excerpt)
	setString("content", patch.Content)
	setString("coverImage", patch.CoverImage)
	setString("status", patch.Status)
	setString("scheduledDate", patch.ScheduledDate)
	if patch.Tags != nil {
		fields["tags"] = toAnySlice(*patch.Tags)
	}
	if patch.Categories != nil {
		fields["categories"] = toAnySlice(*patch.Categories)
	}
	if patch.Author != nil {
		fields["author"] = encodeAuthor(*patch.Author)
	}
	if patch.SEO != nil {
		fields["seo"] = encodeSEO(*patch.SEO)
	}

	if patch.Status != nil && *patch.Status == StatusPublished {
		existing, ok, err := s.store.Get(BlogCollection, id)
		if err != nil {
			return err
		}
		if !ok {
			return docstore.ErrNotFound
		}
		if timeField(existing.Data, "publishedAt") == "" {
			fields["publishedAt"] = docstore.ServerTimestamp
		}
	}

	return s.store.Update(BlogCollection, id, fields)
}

// Delete hard-deletes the post document only. The cover image and any images
// embedded in content remain in blob storage; there is no cascading cleanup.
func (s *BlogService) Delete(id string) error {
	return s.store.Delete(BlogCollection, id)
}

// decodeBlogPost is the single deserialization point for posts. Defaults for
// missing fields are applied here once instead of at every call site.
func decodeBlogPost(d docstore.Document) BlogPost {
	data := d.Data
	p := BlogPost{
		ID:            d.ID,
		Title:         stringField(data, "title"),
		Slug:          stringField(data, "slug"),
		Excerpt:       stringField(data, "excerpt"),
		Content:       stringField(data, "content"),
		CoverImage:    stringField(data, "coverImage"),
		Tags:          stringSliceField(data, "tags"),
		Categories:    stringSliceField(data, "categories"),
		Status:        stringField(data, "status"),
		Views:         intField(data, "views"),
		ScheduledDate: stringField(data, "scheduledDate"),
		PublishedAt:   timeField(data, "publishedAt"),
		CreatedAt:     timeField(data, "createdAt"),
		UpdatedAt:     timeField(data, "updatedAt"),
	}
	if p.Status == "" {
		p.Status = StatusPublished
	}
	if author, ok := data["author"].(map[string]any); ok {
		p.Author = BlogAuthor{
			Name:     stringField(author, "name"),
			PhotoURL: stringField(author, "photoURL"),
			Email:    stringField(author, "email"),
		}
	}
	if p.Author.Name == "" {
		p.Author = BlogAuthor{Name: "Admin"}
	}
	if seo, ok := data["seo"].(map[string]any); ok {
		p.SEO = BlogSEO{
			MetaTitle:       stringField(seo, "metaTitle"),
			MetaDescription: stringField(seo, "metaDescription"),
			Keywords:        stringSliceField(seo, "keywords"),
			OGImage:         stringField(seo, "ogImage"),
		}
	}
	if p.SEO.Keywords == nil {
		p.SEO.Keywords = []string{}
	}
	return p
}

func encodeAuthor(a BlogAuthor) map[string]any {
	return map[string]any{
		"name":     a.Name,
		"photoURL": a.PhotoURL,
		"email":    a.Email,
	}
}

func encodeSEO(s BlogSEO) map[string]any {
	return map[string]any{
		"metaTitle":       s.MetaTitle,
		"metaDescription": s.MetaDescription,
		"keywords":        toAnySlice(s.Keywords),
		"ogImage":         s.OGImage,
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// stringSliceField returns the field as a string slice, defaulting to empty
// and skipping mistyped elements.
func stringSliceField(data map[string]any, key string) []string {
	raw, ok := data[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// intField returns the field as an int, defaulting to zero. JSON numbers
// decode as float64.
func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}
