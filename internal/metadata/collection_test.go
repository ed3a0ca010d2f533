package metadata

import (
	"context"
	"reflect"
	"testing"

	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

func TestCollectionDictKeepsEligibleFields(t *testing.T) {
	n := testNormalizer()
	dict, warnings, err := n.CollectionDict(context.Background(), models.Fields{
		"title":       "Clean surfaces",
		"description": "Annealed single crystals",
		"categories":  []any{"Physics", int64(2)},
		"tags":        []string{"stm", "gold"},
		"references":  []any{"http://doi.org/x", "https://dropped.org"},
		"status":      models.StatusLocal,
		"funding":     "EPSRC",
		"id":          int64(99),
	})
	if err != nil {
		t.Fatal(err)
	}
	if dict["title"] != "Clean surfaces" {
		t.Errorf("title = %v", dict["title"])
	}
	if !reflect.DeepEqual(dict["categories"], []int64{1, 2}) {
		t.Errorf("categories = %v", dict["categories"])
	}
	if !reflect.DeepEqual(dict["references"], []string{"http://doi.org/x"}) {
		t.Errorf("references = %v", dict["references"])
	}
	for _, key := range []string{"status", "funding", "id"} {
		if _, ok := dict[key]; ok {
			t.Errorf("%s leaked into the collection payload", key)
		}
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %+v, want one for the dropped reference", warnings)
	}
}

func TestCollectionDictShapesAuthors(t *testing.T) {
	n := testNormalizer()
	dict, _, err := n.CollectionDict(context.Background(), models.Fields{
		"title":   "Clean surfaces",
		"authors": []any{int64(42), map[string]any{"name": "A. Surname"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	authors, ok := dict["authors"].([]map[string]any)
	if !ok || len(authors) != 2 {
		t.Fatalf("authors = %v", dict["authors"])
	}
	if authors[0]["id"] != int64(42) {
		t.Errorf("authors[0] = %v", authors[0])
	}
	if authors[1]["name"] != "A. Surname" {
		t.Errorf("authors[1] = %v", authors[1])
	}
}

func TestCollectionDictOmitsAbsentFields(t *testing.T) {
	n := testNormalizer()
	dict, _, err := n.CollectionDict(context.Background(), models.Fields{
		"title":       "Clean surfaces",
		"description": nil,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"title": "Clean surfaces"}
	if !reflect.DeepEqual(dict, want) {
		t.Errorf("dict = %v, want %v", dict, want)
	}
}
