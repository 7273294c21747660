// Package blobstore provides object storage for binary assets on the local
// filesystem, addressed by slash-separated object paths and exposed through a
// public base URL.
package blobstore

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Store writes objects under a root directory and maps them to URLs beneath
// a public base (e.g. "/media" or "https://cdn.example.com/media").
type Store struct {
	root    string
	baseURL string
}

// New creates a Store rooted at dir. Objects become reachable at
// baseURL + "/" + objectPath.
func New(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Root returns the filesystem directory objects are stored under.
func (s *Store) Root() string {
	return s.root
}

// Put stores data at objectPath and returns its public URL. An existing
// object at the same path is overwritten.
func (s *Store) Put(objectPath string, data []byte) (string, error) {
	fsPath, err := s.fsPath(objectPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fsPath), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(fsPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return s.URL(objectPath), nil
}

// Get reads the object at objectPath.
func (s *Store) Get(objectPath string) ([]byte, error) {
	fsPath, err := s.fsPath(objectPath)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(fsPath)
}

// Delete removes the object at objectPath. Deleting a missing object is not
// an error.
func (s *Store) Delete(objectPath string) error {
	fsPath, err := s.fsPath(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fsPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List returns the object paths under prefix, sorted.
func (s *Store) List(prefix string) ([]string, error) {
	dir, err := s.fsPath(prefix)
	if err != nil {
		return nil, err
	}
	var out []string
	err = filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// URL returns the public URL for an object path without checking existence.
func (s *Store) URL(objectPath string) string {
	return s.baseURL + "/" + strings.TrimPrefix(objectPath, "/")
}

// fsPath maps an object path to a filesystem path, rejecting traversal out
// of the root.
func (s *Store) fsPath(objectPath string) (string, error) {
	for _, seg := range strings.Split(objectPath, "/") {
		if seg == ".." {
			return "", fmt.Errorf("invalid object path %q", objectPath)
		}
	}
	clean := path.Clean("/" + objectPath)
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
