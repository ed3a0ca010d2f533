package figshare

import (
	"context"
	"sync"
	"time"
)

// DefaultVocabularyTTL is how long fetched allow-lists stay fresh.
// Categories and licenses change rarely on the server.
const DefaultVocabularyTTL = 15 * time.Minute

// vocabSource is the slice of the client the cache consumes.
type vocabSource interface {
	Categories(ctx context.Context) (map[int64]string, error)
	Licenses(ctx context.Context) (map[string]string, error)
}

// CachedVocabulary memoizes the category and license allow-lists with a
// TTL so repeated validations don't hammer the API.
type CachedVocabulary struct {
	src vocabSource
	ttl time.Duration
	now func() time.Time

	mu         sync.Mutex
	categories map[int64]string
	licenses   map[string]string
	catExpiry  time.Time
	licExpiry  time.Time
}

// NewCachedVocabulary wraps src with a TTL cache. A non-positive ttl
// falls back to DefaultVocabularyTTL.
func NewCachedVocabulary(src vocabSource, ttl time.Duration) *CachedVocabulary {
	if ttl <= 0 {
		ttl = DefaultVocabularyTTL
	}
	return &CachedVocabulary{src: src, ttl: ttl, now: time.Now}
}

// Categories returns the cached category allow-list, refreshing it when
// stale. A failed refresh keeps the previous entry invalidated.
func (v *CachedVocabulary) Categories(ctx context.Context) (map[int64]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.categories != nil && v.now().Before(v.catExpiry) {
		return v.categories, nil
	}
	cats, err := v.src.Categories(ctx)
	if err != nil {
		v.categories = nil
		return nil, err
	}
	v.categories = cats
	v.catExpiry = v.now().Add(v.ttl)
	return cats, nil
}

// Licenses returns the cached license allow-list, refreshing it when
// stale.
func (v *CachedVocabulary) Licenses(ctx context.Context) (map[string]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.licenses != nil && v.now().Before(v.licExpiry) {
		return v.licenses, nil
	}
	lics, err := v.src.Licenses(ctx)
	if err != nil {
		v.licenses = nil
		return nil, err
	}
	v.licenses = lics
	v.licExpiry = v.now().Add(v.ttl)
	return lics, nil
}

// Invalidate drops both cached allow-lists, forcing the next read to
// refetch.
func (v *CachedVocabulary) Invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.categories = nil
	v.licenses = nil
}
