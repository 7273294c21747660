// Package sitekit is a marketing-site engine built with Go, Echo, and templ.
// It provides the static informational pages, a public blog, a contact form,
// and an admin console for posts and contact submissions, backed by a
// document store and blob storage.
//
// Users provide their own templ templates via the ViewFuncs struct, and
// sitekit handles the handler logic, middleware, and store operations.
package sitekit

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/arclabs/sitekit/blobstore"
	"github.com/arclabs/sitekit/docstore"
)

// ViewFuncs holds user-provided templ components that the engine calls when
// rendering pages. This is the inversion-of-control mechanism that lets
// users own and customize all templates.
type ViewFuncs struct {
	Home           func(posts []BlogPost) templ.Component
	Page           func(slug string) templ.Component
	Contact        func(sent bool, errs map[string]string, csrfToken string) templ.Component
	BlogIndex      func(posts []BlogPost) templ.Component
	BlogPost       func(post BlogPost, related []BlogPost) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(stats DashboardStats, csrfToken string) templ.Component
	AdminBlogList  func(posts []BlogPost, message string, csrfToken string) templ.Component
	AdminBlogForm  func(post BlogPost, csrfToken string) templ.Component
	AdminContacts  func(subs []ContactSubmission, csrfToken string) templ.Component
	AdminImages    func(images []MediaImage, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App is the central sitekit application. It wires together the stores, the
// content services, handlers, middleware, and user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Docs   *docstore.Store
	Blobs  *blobstore.Store
	Views  ViewFuncs

	Contacts  *ContactService
	Blogs     *BlogService
	Dashboard *DashboardService

	postCache    *PostCache
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
}

// New creates a new sitekit App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the stores, services, middleware, and routes, then
// starts the server.
func (a *App) Start() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("sitekit: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("sitekit: SessionSecret is required")
	}
	if len(a.Config.AdminEmails) == 0 {
		return fmt.Errorf("sitekit: AdminEmails allow-list is required")
	}

	docs, err := docstore.Open(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("sitekit: open document store: %w", err)
	}
	a.Docs = docs

	blobs, err := blobstore.New(a.Config.MediaDir, a.Config.MediaBaseURL)
	if err != nil {
		return fmt.Errorf("sitekit: open blob store: %w", err)
	}
	a.Blobs = blobs

	a.Contacts = NewContactService(docs)
	a.Blogs = NewBlogService(docs, blobs)
	a.Dashboard = NewDashboardService(docs)

	a.postCache = NewPostCache(a.Blogs, 5*time.Minute)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// User's static assets and uploaded media
	e.Static("/public", a.staticDir)
	e.Static("/media", a.Config.MediaDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	for _, page := range staticPages {
		e.GET("/"+page+"/", a.handlePage)
	}
	e.GET("/contact/", a.handleContact)
	e.POST("/contact/", a.handleContactSubmit)
	e.GET("/blog/", a.handleBlogIndex)
	e.GET("/blog/:slug/", a.handleBlogPost)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.GET("/admin/posts/", a.handleAdminBlogList)
	e.GET("/admin/post/:id/", a.handleAdminBlogForm)
	e.POST("/admin/save/", a.handleAdminSave)
	e.DELETE("/admin/post/:id/", a.handleAdminDelete)
	e.GET("/admin/contacts/", a.handleAdminContacts)
	e.DELETE("/admin/contact/:id/", a.handleAdminContactDelete)
	e.GET("/admin/images/", a.handleImageList)
	e.POST("/admin/images/upload/", a.handleImageUpload)
	e.POST("/admin/blog-image/", a.handleBlogImageUpload)
	e.DELETE("/admin/images/:filename/", a.handleImageDelete)
}

// staticPages are the informational pages rendered through ViewFuncs.Page.
var staticPages = []string{"about", "products", "team", "technologies", "careers"}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Docs != nil {
		a.Docs.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("sitekit: required environment variable %s is not set", key)
	}
	return v
}
