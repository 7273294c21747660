package sitekit

import (
	"log"
	"time"

	"github.com/arclabs/sitekit/docstore"
)

// recentWindow is the lookback for the dashboard's "recent" tiles.
const recentWindow = 7 * 24 * time.Hour

// recentLimit caps the latest-rows lists on the dashboard.
const recentLimit = 5

// DashboardService assembles the admin dashboard summary. Nothing is cached;
// stats are recomputed on every dashboard load.
type DashboardService struct {
	store *docstore.Store
}

// NewDashboardService creates a DashboardService backed by the given store.
func NewDashboardService(store *docstore.Store) *DashboardService {
	return &DashboardService{store: store}
}

// Stats runs four independent queries (total and 7-day counts for both
// collections) and returns the assembled summary plus the five most recent
// rows of each window. A failing query is logged and leaves its tile at
// zero; partial stats never fail the whole call, so one bad query cannot
// take down the dashboard page.
func (s *DashboardService) Stats() DashboardStats {
	var stats DashboardStats
	cutoff := time.Now().Add(-recentWindow)

	if n, err := s.store.Count(ContactCollection); err != nil {
		log.Printf("sitekit: dashboard count contacts: %v", err)
	} else {
		stats.TotalContacts = n
	}

	if docs, err := s.store.ListSince(ContactCollection, "created_at", cutoff); err != nil {
		log.Printf("sitekit: dashboard recent contacts: %v", err)
	} else {
		stats.RecentContacts = len(docs)
		stats.LatestContacts = decodeContacts(head(docs, recentLimit))
	}

	if n, err := s.store.Count(BlogCollection); err != nil {
		log.Printf("sitekit: dashboard count blogs: %v", err)
	} else {
		stats.TotalBlogs = n
	}

	if docs, err := s.store.ListSince(BlogCollection, "createdAt", cutoff); err != nil {
		log.Printf("sitekit: dashboard recent blogs: %v", err)
	} else {
		stats.RecentBlogs = len(docs)
		recent := head(docs, recentLimit)
		stats.LatestBlogs = make([]BlogPost, 0, len(recent))
		for _, d := range recent {
			stats.LatestBlogs = append(stats.LatestBlogs, decodeBlogPost(d))
		}
	}

	return stats
}

func decodeContacts(docs []docstore.Document) []ContactSubmission {
	out := make([]ContactSubmission, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeContact(d))
	}
	return out
}

func head(docs []docstore.Document, n int) []docstore.Document {
	if len(docs) > n {
		return docs[:n]
	}
	return docs
}
