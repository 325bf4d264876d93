package download_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorkeep/iaget/pkg/client"
	"github.com/mirrorkeep/iaget/pkg/download"
	"github.com/mirrorkeep/iaget/pkg/retry"
)

func generateContent(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i % 251)
	}
	return buf
}

// rangeServer serves content with Range support and records request headers.
func rangeServer(t *testing.T, content []byte) (*httptest.Server, *[]string) {
	t.Helper()
	ranges := &[]string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*ranges = append(*ranges, r.Header.Get("Range"))
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(content))
	}))
	t.Cleanup(server.Close)
	return server, ranges
}

func TestDownloadFile(t *testing.T) {
	content := generateContent(10_000)
	server, ranges := rangeServer(t, content)
	dest := filepath.Join(t.TempDir(), "file.bin")

	d := download.New(download.Options{ChunkSize: 1024})
	written, err := d.DownloadFile(context.Background(), server.URL, dest)

	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), written)
	onDisk, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, onDisk)
	assert.Equal(t, []string{""}, *ranges)
}

func TestDownloadFileResume(t *testing.T) {
	content := generateContent(10_000)
	server, ranges := rangeServer(t, content)
	dest := filepath.Join(t.TempDir(), "file.bin")

	// first 4k bytes already on disk
	require.NoError(t, os.WriteFile(dest, content[:4000], 0644))

	d := download.New(download.Options{ChunkSize: 512, Resume: true})
	written, err := d.DownloadFile(context.Background(), server.URL, dest)

	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), written)
	require.Equal(t, []string{"bytes=4000-"}, *ranges)

	onDisk, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, onDisk)
}

func TestDownloadFileResumeDisabledRestartsFromZero(t *testing.T) {
	content := generateContent(5_000)
	server, ranges := rangeServer(t, content)
	dest := filepath.Join(t.TempDir(), "file.bin")

	require.NoError(t, os.WriteFile(dest, []byte("stale partial data"), 0644))

	d := download.New(download.Options{ChunkSize: 256})
	_, err := d.DownloadFile(context.Background(), server.URL, dest)

	require.NoError(t, err)
	assert.Equal(t, []string{""}, *ranges)
	onDisk, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, onDisk)
}

func TestDownloadFileUnexpectedStatusNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such item"))
	}))
	t.Cleanup(server.Close)
	dest := filepath.Join(t.TempDir(), "file.bin")

	d := download.New(download.Options{Retry: retry.Policy{MaxRetries: 5, Backoff: time.Millisecond}})
	_, err := d.DownloadFile(context.Background(), server.URL, dest)

	require.Error(t, err)
	var statusErr *client.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.Snippet, "no such item")
	assert.Equal(t, int32(1), calls.Load())
}

func TestDownloadFileRetriesServerErrors(t *testing.T) {
	content := generateContent(2_000)
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(content))
	}))
	t.Cleanup(server.Close)
	dest := filepath.Join(t.TempDir(), "file.bin")

	d := download.New(download.Options{
		ChunkSize: 128,
		Retry:     retry.Policy{MaxRetries: 3, Backoff: time.Millisecond},
	})
	written, err := d.DownloadFile(context.Background(), server.URL, dest)

	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), written)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDownloadFileExhaustionPropagatesLastError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)
	dest := filepath.Join(t.TempDir(), "file.bin")

	d := download.New(download.Options{Retry: retry.Policy{MaxRetries: 2, Backoff: time.Millisecond}})
	_, err := d.DownloadFile(context.Background(), server.URL, dest)

	require.Error(t, err)
	var statusErr *client.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDownloadFileProgressMonotonic(t *testing.T) {
	content := generateContent(5_000)
	server, _ := rangeServer(t, content)
	dest := filepath.Join(t.TempDir(), "file.bin")

	var reports []int64
	var expectedSizes []int64
	d := download.New(download.Options{
		ChunkSize: 500,
		Progress: func(_ string, written, expected int64) {
			reports = append(reports, written)
			expectedSizes = append(expectedSizes, expected)
		},
	})
	_, err := d.DownloadFile(context.Background(), server.URL, dest)
	require.NoError(t, err)

	require.NotEmpty(t, reports)
	for i := 1; i < len(reports); i++ {
		assert.Greater(t, reports[i], reports[i-1])
	}
	assert.Equal(t, int64(len(content)), reports[len(reports)-1])
	for _, expected := range expectedSizes {
		assert.Equal(t, int64(len(content)), expected)
	}
}

func TestDownloadFileResumeProgressIncludesOffset(t *testing.T) {
	content := generateContent(3_000)
	server, _ := rangeServer(t, content)
	dest := filepath.Join(t.TempDir(), "file.bin")
	require.NoError(t, os.WriteFile(dest, content[:1000], 0644))

	var first, lastExpected int64
	var got bool
	d := download.New(download.Options{
		ChunkSize: 250,
		Resume:    true,
		Progress: func(_ string, written, expected int64) {
			if !got {
				first = written
				got = true
			}
			lastExpected = expected
		},
	})
	_, err := d.DownloadFile(context.Background(), server.URL, dest)
	require.NoError(t, err)

	// progress is relative to the whole file, not this attempt
	assert.Equal(t, int64(1250), first)
	assert.Equal(t, int64(len(content)), lastExpected)
}

func TestDownloadFileLocalIOErrorNotRetried(t *testing.T) {
	content := generateContent(100)
	server, _ := rangeServer(t, content)

	// destination directory does not exist and is not created
	dest := filepath.Join(t.TempDir(), "missing", "file.bin")

	d := download.New(download.Options{Retry: retry.Policy{MaxRetries: 5, Backoff: time.Millisecond}})
	_, err := d.DownloadFile(context.Background(), server.URL, dest)

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
