package index

// ArticleIndex defines the interface for article indexing operations.
// Consumers should depend on this interface rather than the concrete
// *DB type to facilitate testing with mocks.
type ArticleIndex interface {
	UpsertArticle(r ArticleRow, body string) error
	DeleteArticle(id string) error
	GetChecksum(id string) (string, error)
	AllIDs() (map[string]struct{}, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies ArticleIndex at compile time.
var _ ArticleIndex = (*DB)(nil)
