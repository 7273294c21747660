package sitekit

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	posts, err := a.postCache.ListPosts("")
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(posts))
}

// handlePage serves the informational pages (about, products, team,
// technologies, careers). The page name is the first path segment.
func (a *App) handlePage(c echo.Context) error {
	slug := strings.Trim(c.Request().URL.Path, "/")
	return Render(c, a.Views.Page(slug))
}

func (a *App) handleContact(c echo.Context) error {
	return Render(c, a.Views.Contact(false, nil, CsrfToken(c)))
}

// handleContactSubmit validates the form at the boundary and only calls the
// service with a clean payload. Validation failures re-render the form; they
// never reach the service layer.
func (a *App) handleContactSubmit(c echo.Context) error {
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	data := ContactSubmissionCreate{
		Name:    strings.TrimSpace(c.FormValue("name")),
		Company: strings.TrimSpace(c.FormValue("company")),
		Email:   strings.TrimSpace(c.FormValue("email")),
		Phone:   strings.TrimSpace(c.FormValue("phone")),
		Message: strings.TrimSpace(c.FormValue("message")),
	}
	if errs := ValidateContact(data); len(errs) > 0 {
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Contact(false, errs, CsrfToken(c)))
	}
	if _, err := a.Contacts.Create(data); err != nil {
		return err
	}
	return Render(c, a.Views.Contact(true, nil, CsrfToken(c)))
}

func (a *App) handleBlogIndex(c echo.Context) error {
	posts, err := a.postCache.ListPosts(c.QueryParam("tag"))
	if err != nil {
		return err
	}
	return Render(c, a.Views.BlogIndex(posts))
}

// handleBlogPost serves a single post looked up by slug. The view counter
// only moves on a click-through from a listing (the listing links carry
// from=list), not on every page load, and a counter failure never blocks
// the reader.
func (a *App) handleBlogPost(c echo.Context) error {
	slug := c.Param("slug")
	post, err := a.postCache.GetPost(slug)
	if err != nil {
		return err
	}
	if post == nil {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if c.QueryParam("from") == "list" {
		a.Blogs.IncrementView(post.ID)
	}
	posts, err := a.postCache.ListPosts("")
	if err != nil {
		return err
	}
	return Render(c, a.Views.BlogPost(*post, RelatedPosts(*post, posts)))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.postCache.ListPosts("")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.postCache.ListPosts("")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
