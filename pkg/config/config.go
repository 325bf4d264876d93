package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mirrorkeep/iaget/pkg/client"
	"github.com/mirrorkeep/iaget/pkg/logging"
	"github.com/mirrorkeep/iaget/pkg/retry"
)

const DefaultChunkSize = "256KiB"

func AddRootPersistentFlags(cmd *cobra.Command) error {
	// Persistent Flags (applies to all commands/subcommands)
	cmd.PersistentFlags().IntP(OptRetries, "r", 5, "Number of retries for transient errors (0 disables retrying)")
	cmd.PersistentFlags().Duration(OptBackoff, time.Second, "Linear backoff factor between retries (delay is backoff * attempt)")
	cmd.PersistentFlags().Duration(OptConnTimeout, 5*time.Second, "Timeout for establishing a connection, format is <number><unit>, e.g. 10s")
	cmd.PersistentFlags().StringP(OptChunkSize, "m", DefaultChunkSize, "Buffered write size for downloads (e.g. 1MiB); 0 writes fragments through unbuffered")
	cmd.PersistentFlags().String(OptUserAgent, "", "Custom User-Agent header")
	cmd.PersistentFlags().BoolP(OptVerbose, "v", false, "Verbose mode (equivalent to --log-level debug)")
	cmd.PersistentFlags().String(OptLoggingLevel, "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String(OptLogFile, "", "Also write logs to this file")

	viper.SetEnvPrefix("IAGET")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind root flags: %w", err)
	}
	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		return fmt.Errorf("failed to bind persistent flags: %w", err)
	}
	return nil
}

func PersistentStartupProcessFlags() error {
	if viper.GetBool(OptVerbose) {
		viper.Set(OptLoggingLevel, "debug")
	}
	setLogLevel(viper.GetString(OptLoggingLevel))
	if logFile := viper.GetString(OptLogFile); logFile != "" {
		if err := logging.AddLogFile(logFile); err != nil {
			return err
		}
	}
	return nil
}

// RetryPolicy builds the retry policy shared by the transfer and search
// layers from the global flags.
func RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxRetries: viper.GetInt(OptRetries),
		Backoff:    viper.GetDuration(OptBackoff),
	}
}

// ChunkSize parses the configured chunk size. Accepts humanized values
// ("256KiB", "1MB") and the plain zero sentinel.
func ChunkSize() (int64, error) {
	raw := viper.GetString(OptChunkSize)
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("unable to parse chunk size %q: %w", raw, err)
	}
	return int64(n), nil
}

// HTTPClient builds the shared HTTP client from the global flags.
func HTTPClient() *http.Client {
	return client.New(client.Options{
		ConnectTimeout: viper.GetDuration(OptConnTimeout),
		UserAgent:      viper.GetString(OptUserAgent),
	})
}

func setLogLevel(logLevel string) {
	switch logLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
