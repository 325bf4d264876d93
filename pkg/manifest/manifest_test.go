package manifest_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorkeep/iaget/pkg/manifest"
)

func TestLoad(t *testing.T) {
	input := `[
  {"identifier": "ubuntu-iso", "title": "Ubuntu", "file_name": "ubuntu.iso", "download_url": "https://example.com/download/ubuntu-iso/ubuntu.iso", "size": 1024},
  {"identifier": "debian-iso", "file_name": "debian.iso", "download_url": "https://example.com/download/debian-iso/debian.iso"}
]`

	m, err := manifest.Load(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.Equal(t, "ubuntu.iso", m[0].FileName)
	assert.Equal(t, int64(1024), m[0].Size)
	assert.Equal(t, "debian-iso", m[1].Identifier)
	assert.Zero(t, m[1].Size)
}

func TestLoadRejectsNonList(t *testing.T) {
	_, err := manifest.Load(strings.NewReader(`{"identifier": "x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a JSON list")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := manifest.LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestWritePreservesOrder(t *testing.T) {
	m := manifest.Manifest{
		{Identifier: "b", FileName: "b.iso", DownloadURL: "https://example.com/b"},
		{Identifier: "a", FileName: "a.iso", DownloadURL: "https://example.com/a"},
	}

	var buf bytes.Buffer
	require.NoError(t, m.Write(&buf))

	loaded, err := manifest.Load(&buf)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "b", loaded[0].Identifier)
	assert.Equal(t, "a", loaded[1].Identifier)
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	m := manifest.Manifest{{Identifier: "x", FileName: "x.iso", DownloadURL: "https://example.com/x"}}

	require.NoError(t, m.WriteFile(path))
	loaded, err := manifest.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}
