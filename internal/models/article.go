// Package models defines the domain types for Figshare Desktop.
package models

import "time"

// Article status values. Local files start as "local"; once created on
// Figshare an article is a private draft until published.
const (
	StatusLocal  = "local"
	StatusDraft  = "draft"
	StatusPublic = "public"
)

// Unpublished is the up_to_date sentinel for articles that have no public
// copy to compare against.
const Unpublished = "Unpublished"

// Kind identifies the article variant, selected once at record creation
// from the file extension. The kind decides which custom-field schema is
// layered on top of the base metadata.
type Kind string

const (
	KindArticle Kind = "article"
	KindSTMTopo Kind = "stm_topo"
	KindSTMSpec Kind = "stm_spec"
)

// Fields is a loosely typed metadata mapping as it arrives from local file
// inspection, user edits, or the Figshare API. Values are coerced into
// their canonical shapes by the metadata normalizer; absent fields are nil.
type Fields map[string]any

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Author is one entry of the authors field. Exactly one of ID or Name is
// set: known Figshare accounts are referenced by ID, everyone else by name.
type Author struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// UploadValue returns the single-key mapping shape the Figshare API expects.
func (a Author) UploadValue() map[string]any {
	if a.Name != "" {
		return map[string]any{"name": a.Name}
	}
	return map[string]any{"id": a.ID}
}

// Desktop holds sidecar metadata used only by this application. It is
// never part of an upload payload.
type Desktop struct {
	Location           string `json:"location,omitempty"`
	Thumb              string `json:"thumb,omitempty"`
	PublicModifiedDate string `json:"public_modified_date,omitempty"`
}

// Article is one research-data artifact tracked locally and, once
// uploaded, on Figshare.
type Article struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Meta      Fields    `json:"meta"`
	Custom    Fields    `json:"custom,omitempty"`
	Desktop   Desktop   `json:"desktop"`
	Checksum  string    `json:"checksum,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy of a with its own Meta and Custom maps, so the
// caller can mutate freely without racing the shared collection.
func (a *Article) Clone() *Article {
	out := *a
	out.Meta = a.Meta.Clone()
	if a.Custom != nil {
		out.Custom = a.Custom.Clone()
	}
	return &out
}

// Summary projects the record into its list representation.
func (a *Article) Summary() ArticleSummary {
	return ArticleSummary{
		ID:        a.ID,
		Kind:      a.Kind,
		Title:     a.Title(),
		Status:    a.Status(),
		Location:  a.Desktop.Location,
		Checksum:  a.Checksum,
		UpdatedAt: a.UpdatedAt,
	}
}

// Title returns the title field as a string, or "" when absent.
func (a *Article) Title() string {
	s, _ := a.Meta["title"].(string)
	return s
}

// Status returns the status field as a string, or "" when absent.
func (a *Article) Status() string {
	s, _ := a.Meta["status"].(string)
	return s
}

// RemoteID returns the Figshare article ID, or 0 for purely local articles.
func (a *Article) RemoteID() int64 {
	switch v := a.Meta["id"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// ArticleSummary is a lightweight representation returned by list
// operations.
type ArticleSummary struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Location  string    `json:"location,omitempty"`
	Checksum  string    `json:"checksum,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
