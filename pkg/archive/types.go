package archive

import (
	"strconv"
	"strings"
)

// Document is one advanced-search hit. The search API serves loosely
// shaped JSON (fields may be missing, or multi-valued), so values are read
// through typed accessors that report absence instead of failing.
type Document map[string]any

// StringField returns the named field as a string. Multi-valued fields
// yield their first string element. A missing, empty or differently typed
// field reports absent.
func (d Document) StringField(key string) (string, bool) {
	switch v := d[key].(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	case []any:
		for _, elem := range v {
			if s, ok := elem.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// Page is one decoded page of search results.
type Page struct {
	NumFound int
	Docs     []Document
}

// searchEnvelope mirrors the advancedsearch.php JSON output.
type searchEnvelope struct {
	Response *struct {
		NumFound int        `json:"numFound"`
		Docs     []Document `json:"docs"`
	} `json:"response"`
}

// Item is the subset of a metadata document this tool consumes.
type Item struct {
	Files []FileEntry `json:"files"`
}

// FileEntry is one file descriptor from an item's metadata document.
type FileEntry struct {
	Name   string   `json:"name"`
	Size   ByteSize `json:"size"`
	Format string   `json:"format"`
}

// ByteSize decodes the size field, which the metadata endpoint serves
// inconsistently as a JSON number or a decimal string. Unparseable values
// decode as zero (size unknown) rather than failing the document.
type ByteSize int64

func (s *ByteSize) UnmarshalJSON(b []byte) error {
	*s = 0
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "" || raw == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n >= 0 {
		*s = ByteSize(n)
	}
	return nil
}
