package sitekit

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !a.isAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return Render(c, a.Views.AdminDashboard(a.Dashboard.Stats(), CsrfToken(c)))
}

// handleAdminLogin checks the shared password and the email allow-list.
// Sign-in identity comes from the external provider; the allow-list
// membership check is the entirety of the authorization surface.
func (a *App) handleAdminLogin(c echo.Context) error {
	if !a.loginLimiter.Check(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	email := strings.TrimSpace(c.FormValue("email"))
	pass := c.FormValue("password")
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1
	if passOK && a.Config.IsAllowedAdmin(email) {
		if err := setAdminSession(c, email); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(c.RealIP())
	return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminBlogList(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return a.renderAdminBlogList(c, c.QueryParam("msg"))
}

func (a *App) handleAdminBlogForm(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	id := c.Param("id")
	if id == "new" {
		return Render(c, a.Views.AdminBlogForm(BlogPost{Status: StatusDraft}, CsrfToken(c)))
	}
	post, err := a.Blogs.GetByID(id)
	if err != nil {
		return err
	}
	if post == nil {
		return c.NoContent(http.StatusNotFound)
	}
	return Render(c, a.Views.AdminBlogForm(*post, CsrfToken(c)))
}

// handleAdminSave creates or updates a post from the editor form. The slug
// and excerpt are derived here, at edit time, never inside the service.
func (a *App) handleAdminSave(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	title := strings.TrimSpace(c.FormValue("title"))
	slug := strings.TrimSpace(c.FormValue("slug"))
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return c.Redirect(http.StatusSeeOther, "/admin/posts/?msg=Slug+is+required.+Add+a+title+or+slug.")
	}
	content := c.FormValue("content")
	excerpt := strings.TrimSpace(c.FormValue("excerpt"))
	if excerpt == "" {
		excerpt = Excerpt(content, 160)
	}
	status := c.FormValue("status")
	switch status {
	case StatusDraft, StatusPublished, StatusScheduled:
	default:
		status = StatusDraft
	}
	tags := FilterEmpty(strings.Split(c.FormValue("tags"), ","))
	categories := FilterEmpty(strings.Split(c.FormValue("categories"), ","))
	seo := BlogSEO{
		MetaTitle:       strings.TrimSpace(c.FormValue("meta_title")),
		MetaDescription: strings.TrimSpace(c.FormValue("meta_description")),
		Keywords:        FilterEmpty(strings.Split(c.FormValue("keywords"), ",")),
		OGImage:         strings.TrimSpace(c.FormValue("og_image")),
	}
	author := BlogAuthor{
		Name:  strings.TrimSpace(c.FormValue("author_name")),
		Email: sessionEmail(c),
	}
	if author.Name == "" {
		author.Name = "Admin"
	}
	coverImage := strings.TrimSpace(c.FormValue("cover_image"))
	scheduled := strings.TrimSpace(c.FormValue("scheduled_date"))

	id := strings.TrimSpace(c.FormValue("id"))
	if id == "" {
		_, err := a.Blogs.Create(BlogPostCreate{
			Title:         title,
			Slug:          slug,
			Excerpt:       excerpt,
			Content:       content,
			CoverImage:    coverImage,
			Tags:          tags,
			Categories:    categories,
			Status:        status,
			Author:        author,
			SEO:           seo,
			ScheduledDate: scheduled,
		})
		if err != nil {
			return err
		}
		a.postCache.Invalidate()
		return a.renderAdminBlogList(c, "created")
	}

	err := a.Blogs.Update(id, BlogPostPatch{
		Title:         &title,
		Slug:          &slug,
		Excerpt:       &excerpt,
		Content:       &content,
		CoverImage:    &coverImage,
		Tags:          &tags,
		Categories:    &categories,
		Status:        &status,
		Author:        &author,
		SEO:           &seo,
		ScheduledDate: &scheduled,
	})
	if err != nil {
		return err
	}
	a.postCache.Invalidate()
	return a.renderAdminBlogList(c, "saved")
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := a.Blogs.Delete(c.Param("id")); err != nil {
		return err
	}
	a.postCache.Invalidate()
	return a.renderAdminBlogList(c, "deleted")
}

func (a *App) handleAdminContacts(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	subs, err := a.Contacts.List()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminContacts(subs, CsrfToken(c)))
}

func (a *App) handleAdminContactDelete(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := a.Contacts.Delete(c.Param("id")); err != nil {
		return err
	}
	subs, err := a.Contacts.List()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminContacts(subs, CsrfToken(c)))
}

func (a *App) renderAdminBlogList(c echo.Context, msg string) error {
	posts, err := a.Blogs.List("")
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminBlogList(posts, msg, CsrfToken(c)))
}

// isAdmin requires both an authenticated session and continued allow-list
// membership, so removing an address from the config locks the account out
// on its next request.
func (a *App) isAdmin(c echo.Context) bool {
	email, ok := adminSessionEmail(c)
	return ok && a.Config.IsAllowedAdmin(email)
}
