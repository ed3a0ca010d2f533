package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tobias-gill/Figshare-desktop/internal/metadata"
	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

// RowFor projects an article record into its index row plus the
// searchable body text. Custom fields are routed by their schema type:
// text and ngram fields feed the body, id and keyword fields become
// tags. Numeric fields are not search targets and stay out of both.
func RowFor(a *models.Article) (ArticleRow, string) {
	row := ArticleRow{
		ID:        a.ID,
		Title:     a.Title(),
		Status:    a.Status(),
		Kind:      string(a.Kind),
		Location:  a.Desktop.Location,
		Checksum:  a.Checksum,
		UpdatedAt: a.UpdatedAt,
	}

	var body []string
	if desc, ok := a.Meta["description"].(string); ok && desc != "" {
		body = append(body, desc)
	}

	if tags, ok := a.Meta["tags"].([]string); ok {
		row.Tags = append(row.Tags, tags...)
	}

	for _, def := range metadata.Schema(a.Kind) {
		raw, ok := a.Custom[def.Name]
		if !ok || raw == nil {
			continue
		}
		value := fmt.Sprint(raw)
		switch def.Type {
		case metadata.FieldText, metadata.FieldNGram:
			body = append(body, value)
		case metadata.FieldID, metadata.FieldKeyword:
			row.Tags = append(row.Tags, value)
		}
	}
	sort.Strings(row.Tags)

	return row, strings.Join(body, "\n")
}
