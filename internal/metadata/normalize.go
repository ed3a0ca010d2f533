// Package metadata normalizes article metadata into the canonical,
// upload-safe form the Figshare API accepts.
//
// Metadata arrives as loosely typed mappings from three directions: local
// file inspection, user edits, and the remote API. Validation is
// best-effort: a field that cannot be coerced is reset to absent and
// reported as a Warning rather than failing the whole record, so an
// incremental edit never crashes on malformed input.
package metadata

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

// Vocabulary supplies the server-side allow-lists that foreign-key style
// fields are resolved against.
type Vocabulary interface {
	// Categories returns the mapping of valid category ID to display name.
	Categories(ctx context.Context) (map[int64]string, error)
	// Licenses returns the mapping of license value (a stringified
	// integer) to display name.
	Licenses(ctx context.Context) (map[string]string, error)
}

// Warning records a field that was dropped or corrected during validation.
type Warning struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Warnings is the list of corrections applied by one validation pass.
type Warnings []Warning

func (ws *Warnings) warnf(field, format string, args ...any) {
	*ws = append(*ws, Warning{Field: field, Reason: fmt.Sprintf(format, args...)})
}

// definedTypes is the fixed enumeration of Figshare article types, in
// 1-based index order.
var definedTypes = []string{
	"figure", "media", "dataset", "fileset", "poster",
	"paper", "presentation", "thesis", "code", "metadata",
}

// knownFields is the base metadata field set. Merge ignores everything else.
var knownFields = map[string]struct{}{
	"title": {}, "id": {}, "description": {}, "tags": {}, "references": {},
	"categories": {}, "authors": {}, "defined_type": {}, "funding": {},
	"license": {}, "size": {}, "version": {}, "created_date": {},
	"modified_date": {}, "published_date": {}, "up_to_date": {},
	"status": {}, "group_id": {},
}

var knownStatuses = map[string]struct{}{
	models.StatusLocal: {}, models.StatusDraft: {}, "private": {}, models.StatusPublic: {},
}

// FundingSeparator is the legacy wire encoding the Figshare funding field
// uses to pack a list of grants into one string. It only appears in upload
// payloads and remote records; canonical in-memory funding is a []string.
const FundingSeparator = ":_:"

// Normalizer enforces the canonical-field invariants on article metadata.
type Normalizer struct {
	vocab Vocabulary
}

// NewNormalizer creates a Normalizer resolving against the given
// vocabulary source.
func NewNormalizer(vocab Vocabulary) *Normalizer {
	return &Normalizer{vocab: vocab}
}

// Merge overwrites fields of base from partial. Only known field names are
// applied; nil values and the literal string "None" leave base untouched.
// Unknown keys are silently ignored.
func Merge(base, partial models.Fields) {
	for key, val := range partial {
		if _, ok := knownFields[key]; !ok {
			continue
		}
		if val == nil {
			continue
		}
		if s, ok := val.(string); ok && s == "None" {
			continue
		}
		base[key] = val
	}
}

// MergeCustom overwrites custom fields of base from partial, restricted to
// the field table of the given kind. Same nil/"None" rules as Merge.
func MergeCustom(kind models.Kind, base, partial models.Fields) {
	names := CustomFieldNames(kind)
	for key, val := range partial {
		if _, ok := names[key]; !ok {
			continue
		}
		if val == nil {
			continue
		}
		if s, ok := val.(string); ok && s == "None" {
			continue
		}
		base[key] = val
	}
}

// Validate coerces every present field of f into its canonical shape,
// in place. Fields that cannot be coerced are reset to absent and reported
// in the returned warnings. Validate is idempotent: running it on an
// already-canonical mapping changes nothing and warns about nothing.
//
// The only error returned is a failed allow-list fetch; it propagates
// untouched and leaves the corresponding field unvalidated.
func (n *Normalizer) Validate(ctx context.Context, f models.Fields) (Warnings, error) {
	var ws Warnings

	n.validateTitle(f, &ws)
	n.validateDescription(f)
	n.validateTags(f)
	n.validateReferences(f, &ws)
	if err := n.validateCategories(ctx, f, &ws); err != nil {
		return ws, err
	}
	n.validateAuthors(f, &ws)
	n.validateDefinedType(f, &ws)
	n.validateFunding(f)
	if err := n.validateLicense(ctx, f, &ws); err != nil {
		return ws, err
	}
	n.validateStatus(f, &ws)

	return ws, nil
}

// validateTitle coerces the title to a string of 3 to 500 characters.
// Titles shorter than the floor are padded with the literal "000" (legacy
// behavior, kept for compatibility with previously uploaded records).
func (n *Normalizer) validateTitle(f models.Fields, ws *Warnings) {
	v, ok := present(f, "title")
	if !ok {
		return
	}
	title, wasString := v.(string)
	if !wasString {
		// Stringifying a single-element list leaves brackets behind.
		title = stripBrackets(fmt.Sprint(v))
	}
	if runeLen(title) < 3 {
		title += "000"
		ws.warnf("title", "padded to minimum length")
	}
	if runeLen(title) > 500 {
		title = truncateRunes(title, 500)
		ws.warnf("title", "truncated to 500 characters")
	}
	f["title"] = title
}

func (n *Normalizer) validateDescription(f models.Fields) {
	v, ok := present(f, "description")
	if !ok {
		return
	}
	if s, isStr := v.(string); isStr {
		f["description"] = s
		return
	}
	f["description"] = stripBrackets(fmt.Sprint(v))
}

// validateTags coerces tags into a list of strings, preserving order and
// duplicates.
func (n *Normalizer) validateTags(f models.Fields) {
	v, ok := present(f, "tags")
	if !ok {
		return
	}
	f["tags"] = stringList(v)
}

// validateReferences coerces references into a list of strings and drops
// every entry that does not carry the required URL prefix.
//
// Only "http://" is accepted; the original client never recognized
// "https://" and uploaded records depend on that filter, so it is
// preserved as-is.
func (n *Normalizer) validateReferences(f models.Fields, ws *Warnings) {
	v, ok := present(f, "references")
	if !ok {
		return
	}
	checked := make([]string, 0)
	for _, ref := range stringList(v) {
		if !strings.HasPrefix(ref, "http://") {
			ws.warnf("references", "dropped %q: not an http:// URL", ref)
			continue
		}
		checked = append(checked, ref)
	}
	f["references"] = checked
}

// validateCategories resolves each entry against the category allow-list.
// Entries may be integer IDs, numeric strings, display names, or mappings
// with an "id" key; unresolvable entries are dropped.
func (n *Normalizer) validateCategories(ctx context.Context, f models.Fields, ws *Warnings) error {
	v, ok := present(f, "categories")
	if !ok {
		return nil
	}
	allowed, err := n.vocab.Categories(ctx)
	if err != nil {
		return fmt.Errorf("metadata: fetch categories: %w", err)
	}

	checked := make([]int64, 0)
	for _, item := range anyList(v) {
		id, resolved := resolveCategory(item, allowed)
		if !resolved {
			ws.warnf("categories", "dropped %v: not a known category", item)
			continue
		}
		checked = append(checked, id)
	}
	f["categories"] = checked
	return nil
}

func resolveCategory(item any, allowed map[int64]string) (int64, bool) {
	switch t := item.(type) {
	case map[string]any:
		raw, ok := t["id"]
		if !ok {
			return 0, false
		}
		id, ok := toInt64(raw)
		if !ok {
			return 0, false
		}
		_, known := allowed[id]
		return id, known
	case string:
		if id, err := strconv.ParseInt(t, 10, 64); err == nil {
			_, known := allowed[id]
			return id, known
		}
		// Fall back to display-name lookup.
		for id, name := range allowed {
			if name == t {
				return id, true
			}
		}
		return 0, false
	default:
		id, ok := toInt64(t)
		if !ok {
			return 0, false
		}
		_, known := allowed[id]
		return id, known
	}
}

// validateAuthors normalizes each entry into either {id: int} or
// {name: string}. Numeric strings become IDs, everything else a name.
func (n *Normalizer) validateAuthors(f models.Fields, ws *Warnings) {
	v, ok := present(f, "authors")
	if !ok {
		return
	}
	checked := make([]models.Author, 0)
	for _, item := range anyList(v) {
		author, resolved := resolveAuthor(item)
		if !resolved {
			ws.warnf("authors", "dropped %v: unrecognized author shape", item)
			continue
		}
		checked = append(checked, author)
	}
	f["authors"] = checked
}

func resolveAuthor(item any) (models.Author, bool) {
	switch t := item.(type) {
	case models.Author:
		return t, true
	case map[string]any:
		if raw, ok := t["id"]; ok {
			if id, okInt := toInt64(raw); okInt {
				return models.Author{ID: id}, true
			}
			// An "id" key that is a numeric string still counts.
			if s, okStr := raw.(string); okStr {
				if id, err := strconv.ParseInt(s, 10, 64); err == nil {
					return models.Author{ID: id}, true
				}
			}
			return models.Author{}, false
		}
		if raw, ok := t["name"]; ok {
			if s, okStr := raw.(string); okStr {
				return models.Author{Name: s}, true
			}
		}
		return models.Author{}, false
	case string:
		if id, err := strconv.ParseInt(t, 10, 64); err == nil {
			return models.Author{ID: id}, true
		}
		return models.Author{Name: t}, true
	default:
		if id, ok := toInt64(t); ok {
			return models.Author{ID: id}, true
		}
		return models.Author{}, false
	}
}

// validateDefinedType resolves the defined type from the fixed ten-value
// enumeration, accepting either the string itself or a 1-based index.
func (n *Normalizer) validateDefinedType(f models.Fields, ws *Warnings) {
	v, ok := present(f, "defined_type")
	if !ok {
		return
	}
	switch t := v.(type) {
	case string:
		for _, dt := range definedTypes {
			if dt == t {
				f["defined_type"] = t
				return
			}
		}
	default:
		if idx, okInt := toInt64(t); okInt && idx >= 1 && idx <= int64(len(definedTypes)) {
			f["defined_type"] = definedTypes[idx-1]
			return
		}
	}
	ws.warnf("defined_type", "dropped %v: not a known article type", v)
	f["defined_type"] = nil
}

// validateFunding coerces funding into a list of grant strings. Strings
// still carrying the legacy separator encoding are unpacked.
func (n *Normalizer) validateFunding(f models.Fields) {
	v, ok := present(f, "funding")
	if !ok {
		return
	}
	if s, isStr := v.(string); isStr {
		f["funding"] = splitFunding(s)
		return
	}
	f["funding"] = stringList(v)
}

func splitFunding(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, FundingSeparator) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// validateLicense resolves the license against the allow-list, accepting
// the value itself, an integer, a display name, or a {value: ...} mapping.
func (n *Normalizer) validateLicense(ctx context.Context, f models.Fields, ws *Warnings) error {
	v, ok := present(f, "license")
	if !ok {
		return nil
	}
	allowed, err := n.vocab.Licenses(ctx)
	if err != nil {
		return fmt.Errorf("metadata: fetch licenses: %w", err)
	}

	value, resolved := resolveLicense(v, allowed)
	if !resolved {
		ws.warnf("license", "dropped %v: not a known license", v)
		f["license"] = nil
		return nil
	}
	f["license"] = value
	return nil
}

func resolveLicense(v any, allowed map[string]string) (string, bool) {
	var key string
	switch t := v.(type) {
	case map[string]any:
		raw, ok := t["value"]
		if !ok {
			return "", false
		}
		key = fmt.Sprint(raw)
		if id, isFloat := raw.(float64); isFloat {
			key = strconv.FormatInt(int64(id), 10)
		}
	case string:
		key = t
	default:
		id, ok := toInt64(t)
		if !ok {
			return "", false
		}
		key = strconv.FormatInt(id, 10)
	}

	if _, known := allowed[key]; known {
		return key, true
	}
	// Display-name lookup.
	for value, name := range allowed {
		if name == key {
			return value, true
		}
	}
	return "", false
}

func (n *Normalizer) validateStatus(f models.Fields, ws *Warnings) {
	v, ok := present(f, "status")
	if !ok {
		return
	}
	s := fmt.Sprint(v)
	if _, known := knownStatuses[s]; !known {
		ws.warnf("status", "dropped %q: unknown status", s)
		f["status"] = nil
		return
	}
	f["status"] = s
}

// present reports whether field is set to a non-nil value.
func present(f models.Fields, field string) (any, bool) {
	v, ok := f[field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// stripBrackets removes one layer of surrounding square brackets.
func stripBrackets(s string) string {
	if len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' {
		return s[1 : len(s)-1]
	}
	return s
}

// anyList coerces a scalar into a single-element sequence.
func anyList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []int64:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out
	case []models.Author:
		out := make([]any, len(t))
		for i, a := range t {
			out[i] = a
		}
		return out
	default:
		return []any{v}
	}
}

// stringList coerces v into a list of strings. Elements that are already
// strings pass through untouched so that repeated validation is a no-op;
// anything else is stringified with one bracket layer stripped.
func stringList(v any) []string {
	items := anyList(v)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, stripBrackets(fmt.Sprint(item)))
	}
	return out
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	}
	return 0, false
}

func runeLen(s string) int {
	return len([]rune(s))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
