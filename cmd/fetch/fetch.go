package fetch

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	iaget "github.com/mirrorkeep/iaget/pkg"
	"github.com/mirrorkeep/iaget/pkg/cli"
	"github.com/mirrorkeep/iaget/pkg/config"
	"github.com/mirrorkeep/iaget/pkg/download"
	"github.com/mirrorkeep/iaget/pkg/filter"
	"github.com/mirrorkeep/iaget/pkg/manifest"
	"github.com/mirrorkeep/iaget/pkg/progress"
)

const longDesc = `
'fetch' takes a download manifest as input (use '-' for stdin) and
downloads every item it lists, one at a time, in manifest order.

The manifest is a JSON list of items as produced by 'search'; each item
carries at least a file name and a download URL.

A failed item is logged and counted, never fatal: the run always
continues with the next item and finishes with a Success/Skipped/Failed
summary. Re-running 'fetch' over the same manifest is cheap, existing
files are skipped (and with '--resume', partial ones completed), so a
long mirror session can simply be restarted until the failure count
reaches zero.
`

const fetchExamples = `
  iaget fetch manifest.json

  iaget search 'collection:cdbbsarchive' | iaget fetch - --output-dir isos

  iaget fetch manifest.json --include 'ubuntu' --max 10 --resume
`

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fetch [flags] <manifest>",
		Short:   "download every file in a manifest",
		Long:    longDesc,
		RunE:    runFetchCMD,
		Args:    cobra.ExactArgs(1),
		Example: fetchExamples,
	}
	cmd.Flags().StringP(config.OptOutputDir, "d", ".", "Directory to download into")
	cmd.Flags().Bool(config.OptResume, false, "Resume partial downloads instead of restarting them")
	cmd.Flags().Bool(config.OptSkipExisting, true, "Skip items whose destination already exists")
	cmd.Flags().String(config.OptInclude, "", "Only download items matching this pattern (case-insensitive)")
	cmd.Flags().String(config.OptExclude, "", "Skip items matching this pattern (case-insensitive)")
	cmd.Flags().Int(config.OptMaxItems, 0, "Download at most this many items (0 means all)")
	cmd.Flags().Bool(config.OptDryRun, false, "List what would be downloaded without transferring anything")
	cmd.Flags().Bool(config.OptNoProgress, false, "Disable the progress bars")
	cmd.SetUsageTemplate(cli.UsageTemplate)
	return cmd
}

func runFetchCMD(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	items, err := manifest.LoadFile(args[0])
	if err != nil {
		return err
	}

	outputDir, _ := cmd.Flags().GetString(config.OptOutputDir)
	resume, _ := cmd.Flags().GetBool(config.OptResume)
	skipExisting, _ := cmd.Flags().GetBool(config.OptSkipExisting)
	include, _ := cmd.Flags().GetString(config.OptInclude)
	exclude, _ := cmd.Flags().GetString(config.OptExclude)
	maxItems, _ := cmd.Flags().GetInt(config.OptMaxItems)
	dryRun, _ := cmd.Flags().GetBool(config.OptDryRun)
	noProgress, _ := cmd.Flags().GetBool(config.OptNoProgress)

	itemFilter, err := filter.New(include, exclude, maxItems)
	if err != nil {
		return err
	}
	items = itemFilter.Apply(items)
	log.Info().Int("items", len(items)).Str("output_dir", outputDir).Msg("Fetching")

	if err := cli.EnsureOutputDir(outputDir); err != nil {
		return err
	}

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
	if progress.Enabled() && !noProgress && !dryRun {
		bars = progress.New()
		bars.Display(cmd.Context())
		defer bars.Shutdown()
		downloadOpts.Progress = bars.Func()
	}

	runner := &iaget.Runner{
		Downloader:   download.New(downloadOpts),
		OutputDir:    outputDir,
		SkipExisting: skipExisting,
		Resume:       resume,
		DryRun:       dryRun,
		Progress:     bars,
	}
	totals := runner.Run(cmd.Context(), items)

	// Individual failures are reported per item and in the summary; the
	// command itself still exits zero so a wrapper loop can re-run it.
	log.Info().Str("totals", totals.String()).Msg("Finished")
	return nil
}
