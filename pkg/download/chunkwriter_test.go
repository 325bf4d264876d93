package download

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorkeep/iaget/pkg/retry"
)

// recordingWriter captures the size of every write it receives.
type recordingWriter struct {
	buf    bytes.Buffer
	writes []int
	fail   bool
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	if w.fail {
		return 0, errors.New("disk full")
	}
	w.writes = append(w.writes, len(p))
	return w.buf.Write(p)
}

func TestChunkWriterAlignment(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int64
		fragments []int
		expected  []int
	}{
		{
			name:      "fragments smaller than chunk",
			chunkSize: 10,
			fragments: []int{4, 4, 4, 4, 4, 4},
			expected:  []int{10, 10, 4},
		},
		{
			name:      "fragment larger than chunk",
			chunkSize: 8,
			fragments: []int{30},
			expected:  []int{8, 8, 8, 6},
		},
		{
			name:      "exact multiple",
			chunkSize: 5,
			fragments: []int{5, 5, 5},
			expected:  []int{5, 5, 5},
		},
		{
			name:      "single small fragment",
			chunkSize: 100,
			fragments: []int{7},
			expected:  []int{7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := &recordingWriter{}
			var flushed int
			cw := newChunkWriter(dst, tt.chunkSize, func(n int) { flushed += n })

			var content []byte
			for i, size := range tt.fragments {
				fragment := bytes.Repeat([]byte{byte('a' + i)}, size)
				content = append(content, fragment...)
				n, err := cw.Write(fragment)
				require.NoError(t, err)
				assert.Equal(t, size, n)
			}
			require.NoError(t, cw.Flush())

			assert.Equal(t, tt.expected, dst.writes)
			assert.Equal(t, content, dst.buf.Bytes())
			assert.Equal(t, len(content), flushed)

			// every write except possibly the last is exactly one chunk
			for i, w := range dst.writes[:len(dst.writes)-1] {
				assert.Equal(t, int(tt.chunkSize), w, "write %d", i)
			}
		})
	}
}

func TestChunkWriterZeroSizeWritesThrough(t *testing.T) {
	dst := &recordingWriter{}
	cw := newChunkWriter(dst, 0, nil)

	fragments := []int{3, 17, 1, 9}
	for _, size := range fragments {
		_, err := cw.Write(make([]byte, size))
		require.NoError(t, err)
	}
	require.NoError(t, cw.Flush())

	// 1:1 with received fragments
	assert.Equal(t, fragments, dst.writes)
}

func TestChunkWriterWriteErrorIsPermanent(t *testing.T) {
	dst := &recordingWriter{fail: true}
	cw := newChunkWriter(dst, 4, nil)

	_, err := cw.Write(make([]byte, 8))
	require.Error(t, err)
	assert.False(t, retry.Retryable(err))
}
