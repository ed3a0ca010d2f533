package figshare

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Categories fetches the server's category allow-list keyed by id.
// Implements the vocabulary contract of the metadata normalizer.
func (c *Client) Categories(ctx context.Context) (map[int64]string, error) {
	var cats []Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &cats); err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(cats))
	for _, cat := range cats {
		out[cat.ID] = cat.Title
	}
	return out, nil
}

// Licenses fetches the account license allow-list keyed by the
// stringified license value the upload payload expects.
func (c *Client) Licenses(ctx context.Context) (map[string]string, error) {
	var lics []License
	if err := c.do(ctx, http.MethodGet, "/account/licenses", nil, &lics); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(lics))
	for _, lic := range lics {
		out[strconv.FormatInt(lic.Value, 10)] = lic.Name
	}
	return out, nil
}

// Projects lists the projects owned by the account.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	path := fmt.Sprintf("/account/projects?page_size=%d", DefaultPageSize)
	if err := c.do(ctx, http.MethodGet, path, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ProjectArticles lists the articles of a project. The list endpoint
// returns abbreviated records; use Article for the full detail.
func (c *Client) ProjectArticles(ctx context.Context, projectID int64) ([]ArticleRecord, error) {
	var articles []ArticleRecord
	path := fmt.Sprintf("/account/projects/%d/articles?page_size=%d", projectID, DefaultPageSize)
	if err := c.do(ctx, http.MethodGet, path, nil, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// Collections lists the collections owned by the account.
func (c *Client) Collections(ctx context.Context) ([]Collection, error) {
	var cols []Collection
	path := fmt.Sprintf("/account/collections?page_size=%d", DefaultPageSize)
	if err := c.do(ctx, http.MethodGet, path, nil, &cols); err != nil {
		return nil, err
	}
	return cols, nil
}

// CreateCollection creates a private collection from a metadata payload
// and returns the new collection id.
func (c *Client) CreateCollection(ctx context.Context, payload map[string]any) (int64, error) {
	var loc location
	if err := c.do(ctx, http.MethodPost, "/account/collections", payload, &loc); err != nil {
		return 0, err
	}
	return loc.entityID()
}

// AddCollectionArticles appends articles to a collection by their
// remote article ids.
func (c *Client) AddCollectionArticles(ctx context.Context, collectionID int64, articleIDs []int64) error {
	path := fmt.Sprintf("/account/collections/%d/articles", collectionID)
	return c.do(ctx, http.MethodPost, path, map[string]any{"articles": articleIDs}, nil)
}

// Article fetches the full private record of one article, custom
// fields included.
func (c *Client) Article(ctx context.Context, articleID int64) (*ArticleRecord, error) {
	var rec ArticleRecord
	path := fmt.Sprintf("/account/articles/%d", articleID)
	if err := c.do(ctx, http.MethodGet, path, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateArticle creates a draft article inside a project from an upload
// payload and returns the new article id.
func (c *Client) CreateArticle(ctx context.Context, projectID int64, payload map[string]any) (int64, error) {
	var loc location
	path := fmt.Sprintf("/account/projects/%d/articles", projectID)
	if err := c.do(ctx, http.MethodPost, path, payload, &loc); err != nil {
		return 0, err
	}
	id, err := loc.entityID()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateArticle replaces the mutable metadata of an existing article.
func (c *Client) UpdateArticle(ctx context.Context, articleID int64, payload map[string]any) error {
	path := fmt.Sprintf("/account/articles/%d", articleID)
	return c.do(ctx, http.MethodPut, path, payload, nil)
}

// DeleteArticle removes a draft article from the account.
func (c *Client) DeleteArticle(ctx context.Context, articleID int64) error {
	path := fmt.Sprintf("/account/articles/%d", articleID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Publish makes a draft article public. Publication is irreversible on
// the server side.
func (c *Client) Publish(ctx context.Context, articleID int64) error {
	path := fmt.Sprintf("/account/articles/%d/publish", articleID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// PublicModifiedDate reads the modified_date of the public version of
// an article. Implements the remote-status contract of the metadata
// normalizer's up-to-date check.
func (c *Client) PublicModifiedDate(ctx context.Context, articleID int64) (string, error) {
	var rec struct {
		ModifiedDate string `json:"modified_date"`
	}
	path := fmt.Sprintf("/articles/%d", articleID)
	if err := c.do(ctx, http.MethodGet, path, nil, &rec); err != nil {
		return "", err
	}
	return rec.ModifiedDate, nil
}

// entityID extracts the created entity id, preferring the explicit
// field and falling back to the trailing segment of the location URL.
func (l location) entityID() (int64, error) {
	if l.EntityID != 0 {
		return l.EntityID, nil
	}
	idx := strings.LastIndexByte(l.Location, '/')
	if idx < 0 || idx == len(l.Location)-1 {
		return 0, fmt.Errorf("%w: no entity id in location %q", ErrInvalidResponse, l.Location)
	}
	id, err := strconv.ParseInt(l.Location[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: location %q: %v", ErrInvalidResponse, l.Location, err)
	}
	return id, nil
}
