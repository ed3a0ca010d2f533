// Package library manages the on-disk data library: the user's
// instrument files plus the JSON article records that describe them.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tobias-gill/Figshare-desktop/internal/apperr"
	"github.com/tobias-gill/Figshare-desktop/internal/checksum"
	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

// recordDir is where article records live inside the library root,
// keeping them out of the user's data tree.
const recordDir = ".figshare-desktop/articles"

// FileMetadata describes one data file found in the library.
type FileMetadata struct {
	Path      string    // relative to the library root
	Checksum  string    // sha256 of the content
	Size      int64
	UpdatedAt time.Time
}

// Store is the file-system backing of the library. All paths are
// relative to the library root.
type Store struct {
	root string // absolute path to the library directory
}

// NewStore creates a store rooted at the given directory. The directory
// must already exist.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("library: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("library: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library: root is not a directory: %s", abs)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute library root.
func (s *Store) Root() string { return s.root }

// safePath resolves a relative path against the library root and
// rejects any result that escapes it (directory traversal).
func (s *Store) safePath(rel string) (string, error) {
	if rel == "" {
		return s.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("library: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(s.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("library: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) && abs != s.root {
		return "", fmt.Errorf("library: path escapes library root: %s", rel)
	}
	return abs, nil
}

// ListData walks dir (relative to root) and returns metadata for every
// data file. The record directory and other dot-directories are
// skipped.
func (s *Store) ListData(dir string) ([]FileMetadata, error) {
	base, err := s.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []FileMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != base {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		sum, err := checksum.SumFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(s.root, p)
		out = append(out, FileMetadata{
			Path:      rel,
			Checksum:  sum,
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("library: list: %w", err)
	}
	return out, nil
}

// ReadData returns the raw bytes of a data file.
func (s *Store) ReadData(path string) ([]byte, error) {
	abs, err := s.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("library: read %s: %w", path, err)
	}
	return data, nil
}

// SaveArticle persists one article record as JSON, atomically:
// tmp file → fsync → rename.
func (s *Store) SaveArticle(a *models.Article) error {
	raw, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("library: encode article %s: %w", a.ID, err)
	}
	abs, err := s.safePath(filepath.Join(recordDir, a.ID+".json"))
	if err != nil {
		return err
	}
	return atomicWrite(abs, raw)
}

// LoadArticles reads every persisted article record. A missing record
// directory is an empty library, not an error.
func (s *Store) LoadArticles() ([]*models.Article, error) {
	abs, err := s.safePath(recordDir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("library: read records: %w", err)
	}
	var out []*models.Article
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(abs, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("library: read record %s: %w", e.Name(), err)
		}
		var a models.Article
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("library: decode record %s: %w", e.Name(), err)
		}
		out = append(out, &a)
	}
	return out, nil
}

// DeleteArticle removes a persisted article record.
func (s *Store) DeleteArticle(id string) error {
	abs, err := s.safePath(filepath.Join(recordDir, id+".json"))
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("library: record %s: %w", id, apperr.ErrNotFound)
		}
		return fmt.Errorf("library: delete record %s: %w", id, err)
	}
	return nil
}

func atomicWrite(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("library: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".figshare-tmp-*")
	if err != nil {
		return fmt.Errorf("library: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("library: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("library: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("library: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("library: rename: %w", err)
	}
	success = true
	return nil
}
