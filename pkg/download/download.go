// Package download implements the resumable transfer engine: one attempt
// streams a URL into a destination file through a chunk-aligned buffer,
// resuming from whatever is already on disk; the retrying wrapper re-runs
// attempts under pkg/retry until the policy gives up.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mirrorkeep/iaget/pkg/client"
	"github.com/mirrorkeep/iaget/pkg/logging"
	"github.com/mirrorkeep/iaget/pkg/retry"
)

// ProgressFunc receives the number of bytes committed to the destination so
// far, relative to the expected final size, after every flush. The expected
// size is advisory; it is -1 when the server did not declare a length.
type ProgressFunc func(dest string, written, expected int64)

type Options struct {
	// ChunkSize is the destination write granularity in bytes. Every write
	// except possibly the last is exactly this size. Zero writes each
	// received fragment through immediately.
	ChunkSize int64

	// Resume requests the remaining bytes of a partially present
	// destination instead of restarting from zero.
	Resume bool

	// Retry governs re-attempts after transient failures.
	Retry retry.Policy

	// Client is the HTTP client to use. A default one is built when nil.
	Client *http.Client

	// Progress, when set, is invoked after every destination flush.
	Progress ProgressFunc
}

type Downloader struct {
	httpClient *http.Client
	opts       Options
}

func New(opts Options) *Downloader {
	httpClient := opts.Client
	if httpClient == nil {
		httpClient = client.New(client.Options{})
	}
	return &Downloader{httpClient: httpClient, opts: opts}
}

// DownloadFile transfers url to dest, retrying failed attempts per the
// configured policy. Every attempt re-probes the destination size, so with
// Resume enabled a retry continues from the last committed byte instead of
// starting over. A failed run leaves the partial destination in place; that
// artifact is exactly what resume relies on. Returns the total number of
// bytes present at dest after a successful attempt.
func (d *Downloader) DownloadFile(ctx context.Context, url, dest string) (int64, error) {
	var written int64
	err := retry.Do(ctx, d.opts.Retry, func(ctx context.Context) error {
		n, err := d.downloadOnce(ctx, url, dest)
		written = n
		return err
	})
	return written, err
}

func (d *Downloader) downloadOnce(ctx context.Context, url, dest string) (int64, error) {
	logger := logging.GetLogger()

	var offset int64
	if d.opts.Resume {
		if fi, err := os.Stat(dest); err == nil {
			offset = fi.Size()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, retry.Permanent(fmt.Errorf("creating request for %s: %w", url, err))
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		logger.Info().Str("dest", filepath.Base(dest)).Int64("offset", offset).Msg("Resuming")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return 0, client.ErrorFromResponse(resp)
	}

	// The expected final size feeds progress reporting only. A wrong or
	// absent length never aborts the transfer.
	expected := int64(-1)
	if resp.ContentLength >= 0 {
		expected = resp.ContentLength
		if resp.StatusCode == http.StatusPartialContent {
			expected += offset
		}
	}

	openFlags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if offset > 0 {
		openFlags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	out, err := os.OpenFile(dest, openFlags, 0644)
	if err != nil {
		return 0, retry.Permanent(fmt.Errorf("opening %s: %w", dest, err))
	}
	defer out.Close()

	written := offset
	cw := newChunkWriter(out, d.opts.ChunkSize, func(n int) {
		written += int64(n)
		if d.opts.Progress != nil {
			d.opts.Progress(dest, written, expected)
		}
	})

	if _, err := io.Copy(cw, resp.Body); err != nil {
		return written, fmt.Errorf("streaming %s: %w", url, err)
	}
	if err := cw.Flush(); err != nil {
		return written, err
	}

	// Success is the stream ending cleanly. The expected size is not
	// verified; a truncated body with a clean EOF is accepted.
	return written, nil
}
