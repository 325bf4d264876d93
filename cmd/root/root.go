package root

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mirrorkeep/iaget/pkg/cli"
	"github.com/mirrorkeep/iaget/pkg/config"
	"github.com/mirrorkeep/iaget/pkg/download"
	"github.com/mirrorkeep/iaget/pkg/progress"
)

const rootLongDesc = `
iaget

iaget downloads files from the Internet Archive (and any plain HTTP
server) with retries, resumable transfers and chunk-buffered writes.

Called with a URL and a destination it performs a single transfer.
Interrupted transfers can be picked up where they left off with
'--resume'; the partial file on disk decides where the next request
starts, so a retry after a mid-stream failure never re-fetches bytes
that already made it to disk.

The subcommands build on the same transfer engine: 'search' turns an
archive.org query into a download manifest, 'fetch' works through a
manifest item by item, and 'mirror' grabs the files of a single item.
`

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iaget [flags] <url> <dest>",
		Short: "iaget",
		Long:  rootLongDesc,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.PersistentStartupProcessFlags()
		},
		RunE:    runRootCMD,
		Args:    cobra.ExactArgs(2),
		Example: `  iaget https://archive.org/download/some-item/disc.iso disc.iso`,
	}
	cmd.Flags().Bool(config.OptResume, false, "Resume a partial download instead of restarting")
	cmd.Flags().BoolP(config.OptForce, "f", false, "Overwrite an existing destination")
	cmd.Flags().Bool(config.OptNoProgress, false, "Disable the progress bar")
	cmd.SetUsageTemplate(cli.UsageTemplate)
	err := config.AddRootPersistentFlags(cmd)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return cmd
}

func runRootCMD(cmd *cobra.Command, args []string) error {
	// After we run through the PreRun functions we want to silence usage from being printed
	// on all errors
	cmd.SilenceUsage = true

	urlString := args[0]
	dest := args[1]
	resume, _ := cmd.Flags().GetBool(config.OptResume)
	noProgress, _ := cmd.Flags().GetBool(config.OptNoProgress)

	log.Info().Str("url", urlString).
		Str("dest", dest).
		Str("chunk_size", viper.GetString(config.OptChunkSize)).
		Msg("Initiating")

	if !resume {
		if err := cli.EnsureDestinationNotExist(dest); err != nil {
			return err
		}
	}

	return rootExecute(cmd.Context(), urlString, dest, resume, noProgress)
}

// rootExecute performs the single-file transfer and reports the result to
// the caller.
func rootExecute(ctx context.Context, urlString, dest string, resume, noProgress bool) error {
	chunkSize, err := config.ChunkSize()
	if err != nil {
		return err
	}

	downloadOpts := download.Options{
		ChunkSize: chunkSize,
		Resume:    resume,
		Retry:     config.RetryPolicy(),
		Client:    config.HTTPClient(),
	}

	var bars *progress.Bars
	if progress.Enabled() && !noProgress {
		bars = progress.New()
		bars.Display(ctx)
		defer bars.Shutdown()
		downloadOpts.Progress = bars.Func()
	}

	start := time.Now()
	written, err := download.New(downloadOpts).DownloadFile(ctx, urlString, dest)
	if err != nil {
		return err
	}
	if bars != nil {
		bars.Update(dest, written, written, true)
	}

	elapsed := time.Since(start).Seconds()
	throughput := humanize.Bytes(uint64(float64(written) / elapsed))
	log.Info().Str("dest", dest).
		Str("size", humanize.Bytes(uint64(written))).
		Str("elapsed", fmt.Sprintf("%.3fs", elapsed)).
		Str("throughput", fmt.Sprintf("%s/s", throughput)).
		Msg("Complete")
	return nil
}
