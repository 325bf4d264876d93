// Package filter narrows a manifest by include/exclude regular expressions
// and an item cap, and provides glob matching for mirrored file lists.
package filter

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/mirrorkeep/iaget/pkg/manifest"
)

type Filter struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
	max     int
}

// New compiles the include and exclude patterns (case-insensitive; empty
// means no constraint). max caps the number of surviving items, zero means
// unlimited.
func New(include, exclude string, max int) (*Filter, error) {
	f := &Filter{max: max}
	var err error
	if include != "" {
		if f.include, err = regexp.Compile("(?i)" + include); err != nil {
			return nil, fmt.Errorf("invalid include pattern: %w", err)
		}
	}
	if exclude != "" {
		if f.exclude, err = regexp.Compile("(?i)" + exclude); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern: %w", err)
		}
	}
	return f, nil
}

// Apply returns the entries surviving the filters, preserving order.
// Patterns match against "file_name title".
func (f *Filter) Apply(items manifest.Manifest) manifest.Manifest {
	out := make(manifest.Manifest, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.FileName + " " + item.Title)
		if f.include != nil && !f.include.MatchString(name) {
			continue
		}
		if f.exclude != nil && f.exclude.MatchString(name) {
			continue
		}
		out = append(out, item)
		if f.max > 0 && len(out) >= f.max {
			break
		}
	}
	return out
}

// MatchGlob reports whether name matches the shell pattern. An empty
// pattern matches everything; a malformed pattern matches nothing.
func MatchGlob(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}
