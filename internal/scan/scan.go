// Package scan inspects instrument data files and extracts the
// metadata seed for a new article record: the kind, the base figshare
// fields, and whatever custom fields the file header declares.
package scan

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tobias-gill/Figshare-desktop/internal/metadata"
	"github.com/tobias-gill/Figshare-desktop/internal/models"
)

// headerLimit caps how much of a file is inspected for metadata. Flat
// files put their ASCII header first; the bulk payload after it is
// binary and of no interest here.
const headerLimit = 64 * 1024

// Result is the metadata seed extracted from one data file.
type Result struct {
	Kind   models.Kind
	Meta   models.Fields
	Custom models.Fields
}

// File inspects the data file at path. The base metadata mirrors what a
// fresh local article starts with: the file name as title and a local
// status. Custom fields are only collected for kinds that carry a
// schema, and values are stringified the way the upload payload wants
// them.
func File(path string) (*Result, error) {
	kind := metadata.KindForFile(path)
	res := &Result{
		Kind: kind,
		Meta: models.Fields{
			"title":  filepath.Base(path),
			"status": models.StatusLocal,
		},
	}

	allowed := metadata.CustomFieldNames(kind)
	if allowed == nil {
		return res, nil
	}

	header, err := readHeader(path)
	if err != nil {
		return nil, fmt.Errorf("scan: %s: %w", path, err)
	}
	res.Custom = models.Fields{}
	for key, value := range header {
		if _, ok := allowed[key]; ok {
			res.Custom[key] = value
		}
	}
	return res, nil
}

// readHeader parses the leading ASCII key/value section of a data
// file. Both "key : value" and "key = value" lines are accepted; keys
// are lowercased. Parsing stops at the first binary content.
func readHeader(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	sc := bufio.NewScanner(io.LimitReader(f, headerLimit))
	for sc.Scan() {
		line := sc.Text()
		if !printable(line) {
			break
		}
		key, value, ok := splitKV(line)
		if !ok {
			continue
		}
		out[key] = value
	}
	// A scanner error here is the binary payload exceeding the token
	// size; everything parseable has already been collected.
	return out, nil
}

// splitKV splits one header line on the first ':' or '=', whichever
// comes first.
func splitKV(line string) (key, value string, ok bool) {
	idx := strings.IndexAny(line, ":=")
	if idx <= 0 {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(line[:idx]))
	value = strings.TrimSpace(line[idx+1:])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

func printable(line string) bool {
	for _, r := range line {
		if r == '\t' {
			continue
		}
		if r < 0x20 || r == 0x7f || r == 0xfffd {
			return false
		}
	}
	return true
}
