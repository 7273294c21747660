package sitekit

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/arclabs/sitekit/docstore"
)

// DocTarget is the write side of a migration: anything that can accept a
// document into a named collection. *docstore.Store satisfies it.
type DocTarget interface {
	Add(collection string, fields map[string]any) (string, error)
}

// MigrationResult tallies the per-row outcome of one migration run.
type MigrationResult struct {
	Migrated int
	Failed   int
}

// Migration copies the legacy relational contact_submissions table into the
// document store. It is a one-shot batch job, not a service.
type Migration struct {
	Source *sql.DB
	Target DocTarget
}

// Run fetches every source row ordered by created_at ascending and inserts
// each as a document, counting successes and failures. Only a failure of the
// initial fetch is returned as an error; per-row failures are logged,
// counted, and never abort the batch. Callers deciding an exit code should
// treat a nil error as success regardless of the failure count.
func (m *Migration) Run() (MigrationResult, error) {
	var res MigrationResult

	rows, err := m.Source.Query(`SELECT id, name, email, message, created_at, updated_at FROM contact_submissions ORDER BY created_at ASC`)
	if err != nil {
		return res, fmt.Errorf("fetch source rows: %w", err)
	}
	defer rows.Close()

	type sourceRow struct {
		id, name, email, message, createdAt, updatedAt string
	}
	var pending []sourceRow
	for rows.Next() {
		var r sourceRow
		if err := rows.Scan(&r.id, &r.name, &r.email, &r.message, &r.createdAt, &r.updatedAt); err != nil {
			return res, fmt.Errorf("scan source row: %w", err)
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		return res, fmt.Errorf("read source rows: %w", err)
	}

	log.Printf("sitekit: migrating %d contact submissions", len(pending))

	for _, r := range pending {
		_, err := m.Target.Add(ContactCollection, map[string]any{
			"name":        r.name,
			"email":       r.email,
			"message":     r.message,
			"created_at":  migratedTime(r.createdAt),
			"updated_at":  migratedTime(r.updatedAt),
			"migrated_at": docstore.ServerTimestamp,
		})
		if err != nil {
			res.Failed++
			log.Printf("sitekit: migrate submission %s: %v", r.id, err)
			continue
		}
		res.Migrated++
		log.Printf("sitekit: migrated submission %s (%s)", r.name, r.email)
	}

	return res, nil
}

// migratedTime parses a source timestamp into a store timestamp. Source rows
// that carry an unparseable value keep it as a plain string rather than
// losing data.
func migratedTime(v string) any {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return v
}
