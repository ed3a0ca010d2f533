package figshare

import "fmt"

// Category is one entry of the server's category allow-list.
type Category struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// License is one entry of the account license allow-list. Value is the
// stringified integer the API expects in upload payloads.
type License struct {
	Value int64  `json:"value"`
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
}

// Project is a Figshare project owned by the account.
type Project struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Collection is a Figshare collection owned by the account. Collections
// group published articles across projects.
type Collection struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	ArticlesCount int64  `json:"articles_count,omitempty"`
}

// CustomField is one name/value row of an article's custom metadata as
// the API serializes it.
type CustomField struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ArticleRecord is the article representation returned by the API. Only
// the fields the desktop engine consumes are mapped; the rest of the
// payload is ignored.
type ArticleRecord struct {
	ID            int64            `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Tags          []string         `json:"tags"`
	References    []string         `json:"references"`
	Categories    []Category       `json:"categories"`
	Authors       []map[string]any `json:"authors"`
	DefinedType   string           `json:"defined_type"`
	Funding       string           `json:"funding"`
	License       *License         `json:"license"`
	Size          int64            `json:"size"`
	Version       int64            `json:"version"`
	CreatedDate   string           `json:"created_date"`
	ModifiedDate  string           `json:"modified_date"`
	PublishedDate string           `json:"published_date"`
	Status        string           `json:"status"`
	GroupID       int64            `json:"group_id"`
	CustomFields  []CustomField    `json:"custom_fields"`
}

// FileInfo describes one file attached to an article, including the
// upload endpoint handed out by the upload service.
type FileInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ComputedMD5 string `json:"computed_md5"`
	UploadToken string `json:"upload_token"`
	UploadURL   string `json:"upload_url"`
	Status      string `json:"status"`
}

// location is the create-response body: the API answers with the URL of
// the created entity.
type location struct {
	Location string `json:"location"`
	EntityID int64  `json:"entity_id"`
}

// APIError is a non-2xx answer from the Figshare API.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("figshare: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("figshare: %d: %s", e.StatusCode, e.Message)
}
