package metadata

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

// staticVocab serves fixed allow-lists without touching the network.
type staticVocab struct {
	categories map[int64]string
	licenses   map[string]string
	err        error
}

func (v staticVocab) Categories(context.Context) (map[int64]string, error) {
	return v.categories, v.err
}

func (v staticVocab) Licenses(context.Context) (map[string]string, error) {
	return v.licenses, v.err
}

func testNormalizer() *Normalizer {
	return NewNormalizer(staticVocab{
		categories: map[int64]string{1: "Physics", 2: "Chemistry"},
		licenses:   map[string]string{"1": "CC BY", "2": "MIT"},
	})
}

func TestMergeSkipsAbsentValues(t *testing.T) {
	base := models.Fields{"title": "kept", "description": "kept too"}
	Merge(base, models.Fields{
		"title":       nil,
		"description": "None",
		"funding":     "EPSRC",
		"bogus_field": "ignored",
	})

	if base["title"] != "kept" {
		t.Errorf("title = %v, want kept", base["title"])
	}
	if base["description"] != "kept too" {
		t.Errorf("description = %v, want kept too", base["description"])
	}
	if base["funding"] != "EPSRC" {
		t.Errorf("funding = %v, want EPSRC", base["funding"])
	}
	if _, ok := base["bogus_field"]; ok {
		t.Error("unknown key should be ignored")
	}
}

func TestMergeLastWriteWins(t *testing.T) {
	base := models.Fields{"title": "old"}
	Merge(base, models.Fields{"title": "new"})
	if base["title"] != "new" {
		t.Errorf("title = %v, want new", base["title"])
	}
}

func TestValidateIdempotent(t *testing.T) {
	n := testNormalizer()
	f := models.Fields{
		"title":        "ab",
		"description":  []any{"from a list"},
		"tags":         "solo",
		"references":   []any{"http://a.com", "https://b.com", 42},
		"categories":   []any{"Physics", "2", 3},
		"authors":      []any{42, "3.14notanumber", map[string]any{"id": "7"}},
		"defined_type": 3,
		"funding":      "EPSRC:_:ERC",
		"license":      "MIT",
		"status":       "local",
	}

	if _, err := n.Validate(context.Background(), f); err != nil {
		t.Fatalf("first Validate: %v", err)
	}
	first := f.Clone()

	ws, err := n.Validate(context.Background(), f)
	if err != nil {
		t.Fatalf("second Validate: %v", err)
	}
	if len(ws) != 0 {
		t.Errorf("second pass produced warnings: %+v", ws)
	}
	if !reflect.DeepEqual(models.Fields(first), f) {
		t.Errorf("second pass changed the record:\nfirst  = %#v\nsecond = %#v", first, f)
	}
}

func TestValidateTitleClampAndPad(t *testing.T) {
	n := testNormalizer()

	long := models.Fields{"title": strings.Repeat("x", 600)}
	if _, err := n.Validate(context.Background(), long); err != nil {
		t.Fatal(err)
	}
	if got := len(long["title"].(string)); got != 500 {
		t.Errorf("long title length = %d, want 500", got)
	}

	// Titles below the 3-character floor are padded with a literal "000";
	// the tests pin the current behavior, intended or not.
	short := models.Fields{"title": "ab"}
	ws, err := n.Validate(context.Background(), short)
	if err != nil {
		t.Fatal(err)
	}
	if short["title"] != "ab000" {
		t.Errorf("short title = %v, want ab000", short["title"])
	}
	if len(ws) != 1 {
		t.Errorf("expected one warning for padded title, got %+v", ws)
	}
}

func TestValidateTitleStripsListBrackets(t *testing.T) {
	n := testNormalizer()
	f := models.Fields{"title": []any{"A perfectly good title"}}
	if _, err := n.Validate(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	if f["title"] != "A perfectly good title" {
		t.Errorf("title = %q", f["title"])
	}
}

func TestValidateReferencesFilter(t *testing.T) {
	n := testNormalizer()
	f := models.Fields{"references": []any{"http://ok.org/paper", "https://dropped.org", "ftp://dropped.too"}}
	ws, err := n.Validate(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"http://ok.org/paper"}
	if !reflect.DeepEqual(f["references"], want) {
		t.Errorf("references = %v, want %v", f["references"], want)
	}
	if len(ws) != 2 {
		t.Errorf("expected 2 warnings for dropped references, got %+v", ws)
	}
}

func TestValidateCategoriesRoundTrip(t *testing.T) {
	n := testNormalizer()
	f := models.Fields{"categories": []any{"Physics", "2", 3}}
	ws, err := n.Validate(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{1, 2}
	if !reflect.DeepEqual(f["categories"], want) {
		t.Errorf("categories = %v, want %v", f["categories"], want)
	}
	if len(ws) != 1 {
		t.Errorf("expected one warning for unknown category, got %+v", ws)
	}
}

func TestValidateCategoriesScalar(t *testing.T) {
	n := testNormalizer()
	f := models.Fields{"categories": "1"}
	if _, err := n.Validate(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(f["categories"], []int64{1}) {
		t.Errorf("categories = %v, want [1]", f["categories"])
	}
}

func TestValidateAuthorShapes(t *testing.T) {
	n := testNormalizer()
	f := models.Fields{"authors": []any{42, "3.14notanumber", map[string]any{"id": "7"}}}
	if _, err := n.Validate(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	want := []models.Author{{ID: 42}, {Name: "3.14notanumber"}, {ID: 7}}
	if !reflect.DeepEqual(f["authors"], want) {
		t.Errorf("authors = %+v, want %+v", f["authors"], want)
	}
}

func TestValidateAuthorScalar(t *testing.T) {
	n := testNormalizer()
	f := models.Fields{"authors": "M. Keshani"}
	if _, err := n.Validate(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	want := []models.Author{{Name: "M. Keshani"}}
	if !reflect.DeepEqual(f["authors"], want) {
		t.Errorf("authors = %+v, want %+v", f["authors"], want)
	}
}

func TestValidateDefinedType(t *testing.T) {
	n := testNormalizer()
	cases := []struct {
		in   any
		want any
	}{
		{"dataset", "dataset"},
		{3, "dataset"},
		{1, "figure"},
		{10, "metadata"},
		{11, nil},
		{"sculpture", nil},
	}
	for _, tc := range cases {
		f := models.Fields{"defined_type": tc.in}
		if _, err := n.Validate(context.Background(), f); err != nil {
			t.Fatal(err)
		}
		if f["defined_type"] != tc.want {
			t.Errorf("defined_type(%v) = %v, want %v", tc.in, f["defined_type"], tc.want)
		}
	}
}

func TestValidateLicenseByValueAndName(t *testing.T) {
	n := testNormalizer()

	byName := models.Fields{"license": "MIT"}
	if _, err := n.Validate(context.Background(), byName); err != nil {
		t.Fatal(err)
	}
	if byName["license"] != "2" {
		t.Errorf("license by name = %v, want 2", byName["license"])
	}

	byInt := models.Fields{"license": 1}
	if _, err := n.Validate(context.Background(), byInt); err != nil {
		t.Fatal(err)
	}
	if byInt["license"] != "1" {
		t.Errorf("license by int = %v, want 1", byInt["license"])
	}

	unknown := models.Fields{"license": "GPL"}
	ws, err := n.Validate(context.Background(), unknown)
	if err != nil {
		t.Fatal(err)
	}
	if unknown["license"] != nil {
		t.Errorf("unknown license = %v, want absent", unknown["license"])
	}
	if len(ws) != 1 {
		t.Errorf("expected one warning for unknown license, got %+v", ws)
	}
}

func TestValidateFundingUnpacksLegacyEncoding(t *testing.T) {
	n := testNormalizer()
	f := models.Fields{"funding": "EPSRC:_: :_:ERC Starting Grant:_:"}
	if _, err := n.Validate(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	want := []string{"EPSRC", "ERC Starting Grant"}
	if !reflect.DeepEqual(f["funding"], want) {
		t.Errorf("funding = %v, want %v", f["funding"], want)
	}
}

func TestValidatePropagatesVocabularyError(t *testing.T) {
	fetchErr := errors.New("boom")
	n := NewNormalizer(staticVocab{err: fetchErr})
	f := models.Fields{"categories": []any{1}}
	if _, err := n.Validate(context.Background(), f); !errors.Is(err, fetchErr) {
		t.Errorf("err = %v, want wrapped fetch error", err)
	}
}

func TestValidateSkipsVocabularyWhenFieldsAbsent(t *testing.T) {
	// No categories or license present: the allow-lists must not be fetched.
	n := NewNormalizer(staticVocab{err: errors.New("must not be called")})
	f := models.Fields{"title": "no foreign keys here"}
	if _, err := n.Validate(context.Background(), f); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
