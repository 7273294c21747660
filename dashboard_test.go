package sitekit

import (
	"fmt"
	"testing"
	"time"

	"github.com/arclabs/sitekit/docstore"
)

func TestDashboardStats(t *testing.T) {
	docs, blobs := setupTestStores(t)
	contacts := NewContactService(docs)
	blogs := NewBlogService(docs, blobs)
	dash := NewDashboardService(docs)

	for i := 0; i < 3; i++ {
		if _, err := contacts.Create(ContactSubmissionCreate{
			Name:    fmt.Sprintf("c%d", i),
			Email:   fmt.Sprintf("c%d@x.com", i),
			Message: "hello",
		}); err != nil {
			t.Fatalf("Create contact failed: %v", err)
		}
	}
	// One submission from outside the 7-day window.
	if _, err := docs.Add(ContactCollection, map[string]any{
		"name":       "stale",
		"email":      "stale@x.com",
		"message":    "old",
		"created_at": time.Now().Add(-30 * 24 * time.Hour),
		"updated_at": time.Now().Add(-30 * 24 * time.Hour),
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if _, err := blogs.Create(draftPost("Fresh", "fresh")); err != nil {
		t.Fatalf("Create post failed: %v", err)
	}

	stats := dash.Stats()
	if stats.TotalContacts != 4 {
		t.Errorf("TotalContacts = %d, want 4", stats.TotalContacts)
	}
	if stats.RecentContacts != 3 {
		t.Errorf("RecentContacts = %d, want 3 (stale row excluded)", stats.RecentContacts)
	}
	if stats.TotalBlogs != 1 || stats.RecentBlogs != 1 {
		t.Errorf("blog tiles = %d/%d, want 1/1", stats.TotalBlogs, stats.RecentBlogs)
	}
	if len(stats.LatestContacts) != 3 {
		t.Errorf("LatestContacts = %d rows, want 3", len(stats.LatestContacts))
	}
	if len(stats.LatestBlogs) != 1 || stats.LatestBlogs[0].Title != "Fresh" {
		t.Errorf("LatestBlogs = %v, want just Fresh", stats.LatestBlogs)
	}
}

func TestDashboardLatestRowsCapped(t *testing.T) {
	docs, _ := setupTestStores(t)
	contacts := NewContactService(docs)
	dash := NewDashboardService(docs)

	for i := 0; i < 8; i++ {
		if _, err := contacts.Create(ContactSubmissionCreate{
			Name:    fmt.Sprintf("c%d", i),
			Email:   fmt.Sprintf("c%d@x.com", i),
			Message: "hello",
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	stats := dash.Stats()
	if stats.RecentContacts != 8 {
		t.Errorf("RecentContacts = %d, want 8", stats.RecentContacts)
	}
	if len(stats.LatestContacts) != 5 {
		t.Errorf("LatestContacts = %d rows, want cap of 5", len(stats.LatestContacts))
	}
}

func TestDashboardDegradesToZero(t *testing.T) {
	dir := t.TempDir()
	docs, err := docstore.Open(dir + "/site.db")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	docs.Close()

	dash := NewDashboardService(docs)
	stats := dash.Stats()
	if stats.TotalContacts != 0 || stats.RecentContacts != 0 ||
		stats.TotalBlogs != 0 || stats.RecentBlogs != 0 {
		t.Errorf("stats on a dead store should stay zero, got %+v", stats)
	}
	if len(stats.LatestContacts) != 0 || len(stats.LatestBlogs) != 0 {
		t.Error("latest rows should be empty when queries fail")
	}
}
