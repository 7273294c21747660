// Command sitekit runs the marketing site server with a plain set of
// reference views. Real deployments supply their own templ components
// through sitekit.ViewFuncs; these exist so the engine is runnable out of
// the box.
package main

import (
	"context"
	"fmt"
	"html"
	"io"
	"log"
	"os"
	"strings"

	"github.com/a-h/templ"

	"github.com/arclabs/sitekit"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	app := sitekit.New(cfg, referenceViews(cfg))
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (sitekit.SiteConfig, error) {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return sitekit.LoadConfig(path)
	}
	if _, err := os.Stat("sitekit.yaml"); err == nil {
		return sitekit.LoadConfig("sitekit.yaml")
	}
	cfg := sitekit.SiteConfig{
		Name:          sitekit.EnvOr("SITE_NAME", "Site"),
		URL:           sitekit.EnvOr("SITE_URL", "http://localhost:3000"),
		Description:   os.Getenv("SITE_DESCRIPTION"),
		DatabasePath:  sitekit.EnvOr("DATABASE_PATH", "data/site.db"),
		AdminPassword: sitekit.MustEnv("ADMIN_PASSWORD"),
		SessionSecret: sitekit.MustEnv("SESSION_SECRET"),
	}
	for _, e := range strings.Split(sitekit.MustEnv("ADMIN_EMAILS"), ",") {
		if s := strings.TrimSpace(e); s != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, s)
		}
	}
	return cfg, nil
}

// page wraps body markup in a minimal HTML document.
func page(title string, body func(w io.Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body>", html.EscapeString(title))
		body(w)
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

func postList(w io.Writer, posts []sitekit.BlogPost) {
	io.WriteString(w, "<ul>")
	for _, p := range posts {
		fmt.Fprintf(w, `<li><a href="/blog/%s/?from=list">%s</a> <small>%s</small></li>`,
			html.EscapeString(p.Slug), html.EscapeString(p.Title), html.EscapeString(p.PublishedAt))
	}
	io.WriteString(w, "</ul>")
}

func referenceViews(cfg sitekit.SiteConfig) sitekit.ViewFuncs {
	return sitekit.ViewFuncs{
		Home: func(posts []sitekit.BlogPost) templ.Component {
			return page(cfg.Name, func(w io.Writer) {
				fmt.Fprintf(w, "<h1>%s</h1><p>%s</p>", html.EscapeString(cfg.Name), html.EscapeString(cfg.Description))
				postList(w, posts)
			})
		},
		Page: func(slug string) templ.Component {
			return page(slug, func(w io.Writer) {
				fmt.Fprintf(w, "<h1>%s</h1>", html.EscapeString(slug))
			})
		},
		Contact: func(sent bool, errs map[string]string, csrfToken string) templ.Component {
			return page("Contact", func(w io.Writer) {
				if sent {
					io.WriteString(w, "<p>Thanks, we'll be in touch.</p>")
					return
				}
				for _, msg := range errs {
					fmt.Fprintf(w, "<p>%s</p>", html.EscapeString(msg))
				}
				fmt.Fprintf(w, `<form method="post" action="/contact/">`+
					`<input type="hidden" name="_csrf" value="%s">`+
					`<input name="name" placeholder="Name"><input name="company" placeholder="Company">`+
					`<input name="email" placeholder="Email"><input name="phone" placeholder="Phone">`+
					`<textarea name="message"></textarea><button>Send</button></form>`, html.EscapeString(csrfToken))
			})
		},
		BlogIndex: func(posts []sitekit.BlogPost) templ.Component {
			return page("Blog", func(w io.Writer) {
				io.WriteString(w, "<h1>Blog</h1>")
				postList(w, posts)
			})
		},
		BlogPost: func(post sitekit.BlogPost, related []sitekit.BlogPost) templ.Component {
			return page(post.Title, func(w io.Writer) {
				fmt.Fprintf(w, "<article><h1>%s</h1>%s</article>", html.EscapeString(post.Title), post.Content)
				postList(w, related)
			})
		},
		AdminLogin: func(showError bool, csrfToken string) templ.Component {
			return page("Admin", func(w io.Writer) {
				if showError {
					io.WriteString(w, "<p>Login failed.</p>")
				}
				fmt.Fprintf(w, `<form method="post" action="/admin/login/">`+
					`<input type="hidden" name="_csrf" value="%s">`+
					`<input name="email" placeholder="Email"><input type="password" name="password">`+
					`<button>Sign in</button></form>`, html.EscapeString(csrfToken))
			})
		},
		AdminDashboard: func(stats sitekit.DashboardStats, csrfToken string) templ.Component {
			return page("Dashboard", func(w io.Writer) {
				fmt.Fprintf(w, "<p>Contacts: %d total, %d this week. Posts: %d total, %d this week.</p>",
					stats.TotalContacts, stats.RecentContacts, stats.TotalBlogs, stats.RecentBlogs)
			})
		},
		AdminBlogList: func(posts []sitekit.BlogPost, message, csrfToken string) templ.Component {
			return page("Posts", func(w io.Writer) {
				if message != "" {
					fmt.Fprintf(w, "<p>%s</p>", html.EscapeString(message))
				}
				postList(w, posts)
			})
		},
		AdminBlogForm: func(post sitekit.BlogPost, csrfToken string) templ.Component {
			return page("Edit post", func(w io.Writer) {
				fmt.Fprintf(w, `<form method="post" action="/admin/save/">`+
					`<input type="hidden" name="_csrf" value="%s"><input type="hidden" name="id" value="%s">`+
					`<input name="title" value="%s"><textarea name="content">%s</textarea>`+
					`<button>Save</button></form>`,
					html.EscapeString(csrfToken), html.EscapeString(post.ID),
					html.EscapeString(post.Title), html.EscapeString(post.Content))
			})
		},
		AdminContacts: func(subs []sitekit.ContactSubmission, csrfToken string) templ.Component {
			return page("Contacts", func(w io.Writer) {
				io.WriteString(w, "<ul>")
				for _, s := range subs {
					fmt.Fprintf(w, "<li>%s (%s): %s</li>",
						html.EscapeString(s.Name), html.EscapeString(s.Email), html.EscapeString(s.Message))
				}
				io.WriteString(w, "</ul>")
			})
		},
		AdminImages: func(images []sitekit.MediaImage, csrfToken string) templ.Component {
			return page("Media", func(w io.Writer) {
				io.WriteString(w, "<ul>")
				for _, img := range images {
					fmt.Fprintf(w, `<li><img src="%s" alt="%s"></li>`,
						html.EscapeString(img.URL), html.EscapeString(img.OriginalName))
				}
				io.WriteString(w, "</ul>")
			})
		},
		NotFound: func() templ.Component {
			return page("Not found", func(w io.Writer) { io.WriteString(w, "<h1>404</h1>") })
		},
		ServerError: func() templ.Component {
			return page("Error", func(w io.Writer) { io.WriteString(w, "<h1>500</h1>") })
		},
	}
}
