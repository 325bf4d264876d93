// Package manifest defines the ordered list of resolved download units
// handed from a search run to the transfer orchestrator, serialized as a
// JSON array.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Entry is one resolved download unit.
type Entry struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title,omitempty"`
	FileName    string `json:"file_name"`
	DownloadURL string `json:"download_url"`
	Size        int64  `json:"size,omitempty"`
}

// Manifest is an ordered, append-only list of entries. Order is the order
// of discovery and is preserved end to end.
type Manifest []Entry

func Load(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("manifest must be a JSON list of items: %w", err)
	}
	return m, nil
}

// LoadFile reads a manifest from path. "-" reads from stdin.
func LoadFile(path string) (Manifest, error) {
	if path == "-" {
		return Load(os.Stdin)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("manifest file %s does not exist", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening manifest file %s: %w", path, err)
	}
	defer file.Close()
	return Load(file)
}

func (m Manifest) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

func (m Manifest) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating manifest file %s: %w", path, err)
	}
	defer file.Close()
	return m.Write(file)
}
