package library

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tobias-gill/Figshare-desktop/internal/apperr"
	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

// Collection is the in-memory set of article records, shared between
// the API, the watcher, and the upload worker. All access goes through
// the mutex; callers receive clones and never aliases of the stored
// records.
type Collection struct {
	mu       sync.RWMutex
	articles map[string]*models.Article
	byLoc    map[string]string // data-file location → article id
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		articles: make(map[string]*models.Article),
		byLoc:    make(map[string]string),
	}
}

// Load replaces the collection contents with the given records.
func (c *Collection) Load(articles []*models.Article) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.articles = make(map[string]*models.Article, len(articles))
	c.byLoc = make(map[string]string, len(articles))
	for _, a := range articles {
		c.articles[a.ID] = a
		if a.Desktop.Location != "" {
			c.byLoc[a.Desktop.Location] = a.ID
		}
	}
}

// Put inserts or replaces one record.
func (c *Collection) Put(a *models.Article) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.articles[a.ID]; ok && old.Desktop.Location != "" {
		delete(c.byLoc, old.Desktop.Location)
	}
	c.articles[a.ID] = a
	if a.Desktop.Location != "" {
		c.byLoc[a.Desktop.Location] = a.ID
	}
}

// Get returns a clone of the record with the given id.
func (c *Collection) Get(id string) (*models.Article, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.articles[id]
	if !ok {
		return nil, fmt.Errorf("library: article %s: %w", id, apperr.ErrNotFound)
	}
	return a.Clone(), nil
}

// GetByLocation returns a clone of the record backed by the given
// data-file location.
func (c *Collection) GetByLocation(location string) (*models.Article, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byLoc[location]
	if !ok {
		return nil, false
	}
	return c.articles[id].Clone(), true
}

// Delete removes one record.
func (c *Collection) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.articles[id]
	if !ok {
		return fmt.Errorf("library: article %s: %w", id, apperr.ErrNotFound)
	}
	if a.Desktop.Location != "" {
		delete(c.byLoc, a.Desktop.Location)
	}
	delete(c.articles, id)
	return nil
}

// All returns clones of every record, sorted by title for stable
// listings.
func (c *Collection) All() []*models.Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.Article, 0, len(c.articles))
	for _, a := range c.articles {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title() != out[j].Title() {
			return out[i].Title() < out[j].Title()
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ByStatus returns clones of every record in the given lifecycle
// status.
func (c *Collection) ByStatus(status string) []*models.Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*models.Article
	for _, a := range c.articles {
		if a.Status() == status {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of records.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.articles)
}
