package metadata

import (
	"context"

	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

// collectionFields lists the base-metadata keys a collection payload
// carries. Collections have no files, subtype schemas, or funding, so
// the set is narrower than the article upload dict.
var collectionFields = map[string]struct{}{
	"title": {}, "description": {}, "authors": {},
	"categories": {}, "tags": {}, "references": {},
}

// CollectionDict validates the fields and returns the payload for a
// collection create or update call: only non-absent collection-eligible
// fields, with authors shaped for the API. The same allow-list and
// reference rules as article metadata apply.
func (n *Normalizer) CollectionDict(ctx context.Context, f models.Fields) (map[string]any, Warnings, error) {
	ws, err := n.Validate(ctx, f)
	if err != nil {
		return nil, ws, err
	}

	out := make(map[string]any)
	for key, val := range f {
		if val == nil {
			continue
		}
		if _, ok := collectionFields[key]; !ok {
			continue
		}
		if key == "authors" {
			authors, _ := val.([]models.Author)
			if len(authors) == 0 {
				continue
			}
			shaped := make([]map[string]any, len(authors))
			for i, author := range authors {
				shaped[i] = author.UploadValue()
			}
			out["authors"] = shaped
			continue
		}
		out[key] = val
	}
	return out, ws, nil
}
