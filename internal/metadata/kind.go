package metadata

import (
	"path/filepath"

	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

// FieldType tags how a custom field should be treated by the search index.
type FieldType string

const (
	FieldID       FieldType = "id"
	FieldText     FieldType = "text"
	FieldKeyword  FieldType = "keyword"
	FieldNumeric  FieldType = "numeric"
	FieldDatetime FieldType = "datetime"
	FieldBoolean  FieldType = "boolean"
	FieldNGram    FieldType = "ngram"
)

// FieldDef describes one custom field of an article kind.
type FieldDef struct {
	Name   string    `json:"name"`
	Type   FieldType `json:"type"`
	Stored bool      `json:"stored"`
}

// kindExtensions maps file extensions to the article kind whose custom
// fields they carry. Extensions not listed here produce a plain article
// with no custom fields.
var kindExtensions = map[string]models.Kind{
	// Omicron flat files
	".Z_flat":       models.KindSTMTopo,
	".I(V)_flat":    models.KindSTMSpec,
	".Aux1(V)_flat": models.KindSTMSpec,
	".Aux2(V)_flat": models.KindSTMSpec,

	// Zyvex files
	".zad": models.KindSTMTopo,
}

var kindSchemas = map[models.Kind][]FieldDef{
	models.KindArticle: nil,

	models.KindSTMTopo: {
		{Name: "type", Type: FieldID, Stored: true},
		{Name: "vgap", Type: FieldNumeric, Stored: true},
		{Name: "current", Type: FieldNumeric, Stored: true},
		{Name: "xres", Type: FieldNumeric, Stored: true},
		{Name: "yres", Type: FieldNumeric, Stored: true},
		{Name: "xinc", Type: FieldNumeric, Stored: true},
		{Name: "yinc", Type: FieldNumeric, Stored: true},
		{Name: "xreal", Type: FieldNumeric, Stored: true},
		{Name: "yreal", Type: FieldNumeric, Stored: true},
		{Name: "unit", Type: FieldID, Stored: true},
		{Name: "unitxy", Type: FieldID, Stored: true},
		{Name: "date", Type: FieldText, Stored: true},
		{Name: "direction", Type: FieldKeyword, Stored: true},
		{Name: "sample", Type: FieldText, Stored: true},
		{Name: "users", Type: FieldKeyword, Stored: true},
		{Name: "substrate", Type: FieldText, Stored: true},
		{Name: "adsorbate", Type: FieldText, Stored: true},
		{Name: "prep", Type: FieldText, Stored: true},
		{Name: "notebook", Type: FieldKeyword, Stored: true},
		{Name: "notes", Type: FieldText, Stored: true},
	},

	models.KindSTMSpec: {
		{Name: "type", Type: FieldID, Stored: true},
		{Name: "vgap", Type: FieldNumeric, Stored: true},
		{Name: "current", Type: FieldNumeric, Stored: true},
		{Name: "vres", Type: FieldNumeric, Stored: true},
		{Name: "vinc", Type: FieldNumeric, Stored: true},
		{Name: "vreal", Type: FieldNumeric, Stored: true},
		{Name: "vstart", Type: FieldNumeric, Stored: true},
		{Name: "unitv", Type: FieldID, Stored: true},
		{Name: "unit", Type: FieldID, Stored: true},
		{Name: "date", Type: FieldText, Stored: true},
		{Name: "direction", Type: FieldKeyword, Stored: true},
		{Name: "sample", Type: FieldText, Stored: true},
		{Name: "users", Type: FieldKeyword, Stored: true},
		{Name: "substrate", Type: FieldText, Stored: true},
		{Name: "adsorbate", Type: FieldText, Stored: true},
		{Name: "prep", Type: FieldText, Stored: true},
		{Name: "notebook", Type: FieldKeyword, Stored: true},
		{Name: "notes", Type: FieldText, Stored: true},
		{Name: "vmod", Type: FieldNumeric, Stored: true},
		{Name: "vsen", Type: FieldNumeric, Stored: true},
		{Name: "freq", Type: FieldNumeric, Stored: true},
		{Name: "tmeas", Type: FieldNumeric, Stored: true},
		{Name: "phase", Type: FieldNumeric, Stored: true},
		{Name: "harm", Type: FieldNumeric, Stored: true},
	},
}

// KindForFile returns the article kind for a file path based on its
// extension. Compound extensions like ".I(V)_flat" are matched before
// falling back to filepath.Ext.
func KindForFile(path string) models.Kind {
	base := filepath.Base(path)
	for ext, kind := range kindExtensions {
		if len(base) > len(ext) && base[len(base)-len(ext):] == ext {
			return kind
		}
	}
	return models.KindArticle
}

// Schema returns the custom-field definitions for a kind. The returned
// slice must not be modified.
func Schema(kind models.Kind) []FieldDef {
	return kindSchemas[kind]
}

// CustomFieldNames returns the set of custom field names for a kind,
// or nil for kinds without a schema.
func CustomFieldNames(kind models.Kind) map[string]struct{} {
	defs := kindSchemas[kind]
	if defs == nil {
		return nil
	}
	out := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		out[d.Name] = struct{}{}
	}
	return out
}
