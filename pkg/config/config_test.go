package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorkeep/iaget/pkg/config"
)

func TestChunkSize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int64
		wantErr  bool
	}{
		{"default", config.DefaultChunkSize, 256 * 1024, false},
		{"mebibytes", "1MiB", 1024 * 1024, false},
		{"plain bytes", "4096", 4096, false},
		{"zero sentinel", "0", 0, false},
		{"garbage", "lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Set(config.OptChunkSize, tt.raw)
			t.Cleanup(viper.Reset)

			got, err := config.ChunkSize()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRetryPolicy(t *testing.T) {
	viper.Set(config.OptRetries, 3)
	viper.Set(config.OptBackoff, 500*time.Millisecond)
	t.Cleanup(viper.Reset)

	p := config.RetryPolicy()
	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, p.Backoff)
	assert.Equal(t, 1500*time.Millisecond, p.Delay(3))
}
