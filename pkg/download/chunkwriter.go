package download

import (
	"io"

	"github.com/mirrorkeep/iaget/pkg/retry"
)

// chunkWriter accumulates incoming fragments and flushes them to the
// underlying writer in units of exactly size bytes; the remainder below one
// chunk is held for the next fragment and committed by Flush. With size
// zero every fragment is written through 1:1. Write errors are marked
// permanent: retrying will not fix a full disk.
type chunkWriter struct {
	w       io.Writer
	size    int64
	buf     []byte
	onFlush func(n int)
}

func newChunkWriter(w io.Writer, size int64, onFlush func(n int)) *chunkWriter {
	cw := &chunkWriter{w: w, size: size, onFlush: onFlush}
	if size > 0 {
		cw.buf = make([]byte, 0, size)
	}
	return cw
}

func (cw *chunkWriter) Write(p []byte) (int, error) {
	if cw.size <= 0 {
		n, err := cw.w.Write(p)
		if n > 0 && cw.onFlush != nil {
			cw.onFlush(n)
		}
		if err != nil {
			return n, retry.Permanent(err)
		}
		return n, nil
	}

	written := 0
	for len(p) > 0 {
		space := int(cw.size) - len(cw.buf)
		if space > len(p) {
			space = len(p)
		}
		cw.buf = append(cw.buf, p[:space]...)
		p = p[space:]
		written += space
		if int64(len(cw.buf)) == cw.size {
			if err := cw.flush(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// Flush commits any buffered partial chunk. Call after the stream ends.
func (cw *chunkWriter) Flush() error {
	return cw.flush()
}

func (cw *chunkWriter) flush() error {
	if len(cw.buf) == 0 {
		return nil
	}
	n, err := cw.w.Write(cw.buf)
	if err != nil {
		return retry.Permanent(err)
	}
	cw.buf = cw.buf[:0]
	if cw.onFlush != nil {
		cw.onFlush(n)
	}
	return nil
}
