// Package docstore provides a schemaless document store addressed by
// collection and document id, backed by SQLite. Documents are JSON objects
// with store-assigned ids, server-assigned timestamps, atomic counters,
// equality queries, and realtime subscriptions.
package docstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an update targets a document that does not exist.
var ErrNotFound = sql.ErrNoRows

// Timestamp is a server-assigned point in time stored inside a document.
// It round-trips through the store as a tagged epoch-millisecond value and
// is distinguishable on read from plain string fields.
type Timestamp struct {
	time.Time
}

// ISO returns the timestamp formatted as an ISO-8601 (RFC3339) string in UTC.
func (t Timestamp) ISO() string {
	return t.UTC().Format(time.RFC3339)
}

type serverTimestamp struct{}

// ServerTimestamp is a sentinel field value replaced with the store's clock
// at write time. All sentinels within one write resolve to the same instant.
var ServerTimestamp = serverTimestamp{}

// Document is a single stored record: its id plus the decoded field map.
// Timestamp fields decode as Timestamp values; everything else follows
// encoding/json conventions (float64 numbers, []any slices, map[string]any).
type Document struct {
	ID   string
	Data map[string]any
}

type subscription struct {
	collection string
	orderField string
	fn         func([]Document)
}

// Store wraps a SQLite database and provides document CRUD operations.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	subs    map[int64]*subscription
	nextSub int64
}

// Open opens (or creates) the document database at path, ensures the data
// directory exists, and runs schema setup.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write, busy timeout so writers wait instead of
	// failing with SQLITE_BUSY, synchronous=NORMAL is safe with WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, subs: make(map[int64]*subscription)}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    doc TEXT NOT NULL,
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
`)
	return err
}

// Add inserts a new document with a store-assigned id and returns it.
// ServerTimestamp sentinels in fields resolve to the current time.
func (s *Store) Add(collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	raw, err := encodeDoc(fields)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	if _, err := s.db.Exec(`INSERT INTO documents (collection, id, doc) VALUES (?, ?, ?)`, collection, id, raw); err != nil {
		return "", err
	}
	s.notify(collection)
	return id, nil
}

// Get returns a single document by id. A missing document is a normal
// outcome reported via the bool, not an error.
func (s *Store) Get(collection, id string) (Document, bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT doc FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, err
	}
	data, err := decodeDoc(raw)
	if err != nil {
		return Document{}, false, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return Document{ID: id, Data: data}, true, nil
}

// List returns every document in the collection ordered by orderField
// descending when desc is true, ascending otherwise. Timestamp fields order
// by their instant; plain values order by their JSON representation.
func (s *Store) List(collection, orderField string, desc bool) ([]Document, error) {
	rows, err := s.db.Query(orderedSelect(orderField, desc, ""), collection)
	if err != nil {
		return nil, err
	}
	return collectDocs(rows)
}

// ListSince returns documents whose orderField timestamp is at or after
// since, ordered by that field descending.
func (s *Store) ListSince(collection, orderField string, since time.Time) ([]Document, error) {
	q := orderedSelect(orderField, true, fmt.Sprintf("AND json_extract(doc, '$.%s.__ts') >= ?", orderField))
	rows, err := s.db.Query(q, collection, since.UnixMilli())
	if err != nil {
		return nil, err
	}
	return collectDocs(rows)
}

// QueryEq returns up to limit documents whose field equals value.
// A limit of 0 means no limit.
func (s *Store) QueryEq(collection, field string, value any, limit int) ([]Document, error) {
	q := fmt.Sprintf(`SELECT id, doc FROM documents WHERE collection = ? AND json_extract(doc, '$.%s') = ?`, field)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(q, collection, value)
	if err != nil {
		return nil, err
	}
	return collectDocs(rows)
}

// Update merges fields into an existing document. Fields not named are left
// untouched. Returns ErrNotFound if the document does not exist.
func (s *Store) Update(collection, id string, fields map[string]any) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRow(`SELECT doc FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	data, err := decodeDoc(raw)
	if err != nil {
		return fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	now := time.Now().UTC()
	for k, v := range fields {
		data[k] = resolveValue(v, now)
	}
	merged, err := encodeResolved(data)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, err := tx.Exec(`UPDATE documents SET doc = ? WHERE collection = ? AND id = ?`, merged, collection, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.notify(collection)
	return nil
}

// Increment atomically adds delta to a numeric field, treating a missing
// field as zero. Returns ErrNotFound if the document does not exist.
func (s *Store) Increment(collection, id, field string, delta int64) error {
	q := fmt.Sprintf(`UPDATE documents SET doc = json_set(doc, '$.%s', COALESCE(json_extract(doc, '$.%s'), 0) + ?) WHERE collection = ? AND id = ?`, field, field)
	res, err := s.db.Exec(q, delta, collection, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	s.notify(collection)
	return nil
}

// Delete removes a document. Deleting a nonexistent document is not an error.
func (s *Store) Delete(collection, id string) error {
	if _, err := s.db.Exec(`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return err
	}
	s.notify(collection)
	return nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(collection string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&n)
	return n, err
}

// CountSince returns the number of documents whose field timestamp is at or
// after since.
func (s *Store) CountSince(collection, field string, since time.Time) (int, error) {
	q := fmt.Sprintf(`SELECT COUNT(*) FROM documents WHERE collection = ? AND json_extract(doc, '$.%s.__ts') >= ?`, field)
	var n int
	err := s.db.QueryRow(q, collection, since.UnixMilli()).Scan(&n)
	return n, err
}

// Subscribe establishes a standing read over a collection: fn is invoked with
// the full result set ordered by orderField descending, immediately and again
// after every insert, update, or delete in the collection. The returned
// disposer detaches the listener; failing to call it leaks the subscription
// for the lifetime of the store.
func (s *Store) Subscribe(collection, orderField string, fn func([]Document)) (func(), error) {
	docs, err := s.List(collection, orderField, true)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.nextSub++
	key := s.nextSub
	s.subs[key] = &subscription{collection: collection, orderField: orderField, fn: fn}
	s.mu.Unlock()

	fn(docs)
	return func() {
		s.mu.Lock()
		delete(s.subs, key)
		s.mu.Unlock()
	}, nil
}

// notify re-runs every subscription registered on the collection and delivers
// the fresh snapshot. Delivery is synchronous with the mutating call.
func (s *Store) notify(collection string) {
	s.mu.Lock()
	var pending []*subscription
	for _, sub := range s.subs {
		if sub.collection == collection {
			pending = append(pending, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range pending {
		docs, err := s.List(collection, sub.orderField, true)
		if err != nil {
			continue
		}
		sub.fn(docs)
	}
}

func collectDocs(rows *sql.Rows) ([]Document, error) {
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		data, err := decodeDoc(raw)
		if err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	return docs, rows.Err()
}

// orderedSelect builds the base select with timestamp-aware ordering.
// Timestamp fields live as {"__ts": millis} objects, so ordering prefers the
// tagged instant and falls back to the raw value for plain fields.
func orderedSelect(orderField string, desc bool, extraWhere string) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(
		`SELECT id, doc FROM documents WHERE collection = ? %s ORDER BY COALESCE(json_extract(doc, '$.%s.__ts'), json_extract(doc, '$.%s')) %s`,
		extraWhere, orderField, orderField, dir)
}

// --- Document encoding ---

const tsKey = "__ts"

// encodeDoc resolves sentinels against a single clock reading and marshals
// the field map to JSON.
func encodeDoc(fields map[string]any) (string, error) {
	now := time.Now().UTC()
	resolved := make(map[string]any, len(fields))
	for k, v := range fields {
		resolved[k] = resolveValue(v, now)
	}
	return encodeResolved(resolved)
}

func encodeResolved(fields map[string]any) (string, error) {
	b, err := json.Marshal(encodeValue(fields))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func resolveValue(v any, now time.Time) any {
	switch t := v.(type) {
	case serverTimestamp:
		return Timestamp{now}
	case time.Time:
		return Timestamp{t}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = resolveValue(vv, now)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = resolveValue(vv, now)
		}
		return out
	default:
		return v
	}
}

func encodeValue(v any) any {
	switch t := v.(type) {
	case Timestamp:
		return map[string]any{tsKey: t.UnixMilli()}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = encodeValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = encodeValue(vv)
		}
		return out
	default:
		return v
	}
}

func decodeDoc(raw string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, err
	}
	out := decodeValue(data)
	m, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document is not an object")
	}
	return m, nil
}

func decodeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if ms, ok := t[tsKey].(float64); ok && len(t) == 1 {
			return Timestamp{time.UnixMilli(int64(ms)).UTC()}
		}
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = decodeValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = decodeValue(vv)
		}
		return out
	default:
		return v
	}
}
