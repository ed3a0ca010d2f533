package metadata

import (
	"context"
	"reflect"
	"testing"

	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

func TestUploadDictOmitsAbsentFields(t *testing.T) {
	n := testNormalizer()
	a := &models.Article{
		Kind: models.KindArticle,
		Meta: models.Fields{
			"title":       "A dataset of something",
			"description": nil,
			"tags":        []string{"stm"},
			"license":     nil,
			"status":      models.StatusLocal,
		},
	}
	dict, _, err := n.UploadDict(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	for key, val := range dict {
		if val == nil {
			t.Errorf("upload dict contains absent field %q", key)
		}
	}
	if _, ok := dict["description"]; ok {
		t.Error("absent description should be omitted")
	}
}

func TestUploadDictExcludesBookkeepingFields(t *testing.T) {
	n := testNormalizer()
	a := &models.Article{
		Kind: models.KindArticle,
		Meta: models.Fields{
			"title":         "Published already",
			"id":            int64(998877),
			"size":          int64(1024),
			"version":       int64(3),
			"created_date":  "2017-01-01T00:00:00Z",
			"modified_date": "2017-02-01T00:00:00Z",
			"status":        models.StatusPublic,
			"up_to_date":    true,
			"group_id":      int64(11),
		},
	}
	dict, _, err := n.UploadDict(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "size", "version", "created_date", "modified_date", "status", "up_to_date", "group_id"} {
		if _, ok := dict[key]; ok {
			t.Errorf("upload dict should not contain %q", key)
		}
	}
	if dict["title"] != "Published already" {
		t.Errorf("title = %v", dict["title"])
	}
}

func TestUploadDictAuthorsShape(t *testing.T) {
	n := testNormalizer()
	a := &models.Article{
		Kind: models.KindArticle,
		Meta: models.Fields{
			"title":   "Authored",
			"authors": []any{42, "T. Gill"},
		},
	}
	dict, _, err := n.UploadDict(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	want := []map[string]any{{"id": int64(42)}, {"name": "T. Gill"}}
	if !reflect.DeepEqual(dict["authors"], want) {
		t.Errorf("authors = %#v, want %#v", dict["authors"], want)
	}
}

func TestUploadDictPacksFunding(t *testing.T) {
	n := testNormalizer()
	a := &models.Article{
		Kind: models.KindArticle,
		Meta: models.Fields{
			"title":   "Funded work",
			"funding": []string{"EPSRC", "ERC"},
		},
	}
	dict, _, err := n.UploadDict(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	if dict["funding"] != "EPSRC:_:ERC" {
		t.Errorf("funding = %v, want packed wire string", dict["funding"])
	}
}

func TestUploadDictNestsCustomFields(t *testing.T) {
	n := testNormalizer()
	a := &models.Article{
		Kind: models.KindSTMTopo,
		Meta: models.Fields{"title": "A topography scan"},
		Custom: models.Fields{
			"vgap":     -1.2,
			"sample":   "Si(111)",
			"notes":    nil,
			"not_real": "dropped",
		},
	}
	dict, _, err := n.UploadDict(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	custom, ok := dict["custom_fields"].(map[string]any)
	if !ok {
		t.Fatalf("custom_fields missing: %#v", dict)
	}
	if custom["vgap"] != "-1.2" {
		t.Errorf("vgap = %v, want stringified", custom["vgap"])
	}
	if custom["sample"] != "Si(111)" {
		t.Errorf("sample = %v", custom["sample"])
	}
	if _, found := custom["notes"]; found {
		t.Error("absent custom field should be omitted")
	}
	if _, found := custom["not_real"]; found {
		t.Error("field outside the kind schema should be omitted")
	}
}

func TestUploadDictNoCustomFieldsForPlainArticles(t *testing.T) {
	n := testNormalizer()
	a := &models.Article{Kind: models.KindArticle, Meta: models.Fields{"title": "Plain"}}
	dict, _, err := n.UploadDict(context.Background(), a)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dict["custom_fields"]; ok {
		t.Error("plain articles carry no custom_fields key")
	}
}
