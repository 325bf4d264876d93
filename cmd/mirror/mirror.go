package mirror

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	iaget "github.com/mirrorkeep/iaget/pkg"
	"github.com/mirrorkeep/iaget/pkg/archive"
	"github.com/mirrorkeep/iaget/pkg/cli"
	"github.com/mirrorkeep/iaget/pkg/config"
	"github.com/mirrorkeep/iaget/pkg/download"
	"github.com/mirrorkeep/iaget/pkg/filter"
	"github.com/mirrorkeep/iaget/pkg/manifest"
	"github.com/mirrorkeep/iaget/pkg/progress"
)

const longDesc = `
'mirror' downloads the files of a single archive.org item without going
through a manifest: it fetches the item's metadata, optionally narrows
the file list with a glob, and hands the result to the same transfer
loop 'fetch' uses.
`

const mirrorExamples = `
  iaget mirror ubuntu-24.04.1-desktop-amd64-iso

  iaget mirror cdbbsarchive_aminet --glob '*.iso' --output-dir aminet
`

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mirror [flags] <identifier>",
		Short:   "download the files of one archive.org item",
		Long:    longDesc,
		RunE:    runMirrorCMD,
		Args:    cobra.ExactArgs(1),
		Example: mirrorExamples,
	}
	cmd.Flags().StringP(config.OptGlob, "g", "", "Only download files matching this glob")
	cmd.Flags().StringP(config.OptOutputDir, "d", ".", "Directory to download into")
	cmd.Flags().Bool(config.OptResume, false, "Resume partial downloads instead of restarting them")
	cmd.Flags().Bool(config.OptSkipExisting, true, "Skip files whose destination already exists")
	cmd.Flags().Bool(config.OptDryRun, false, "List what would be downloaded without transferring anything")
	cmd.Flags().Bool(config.OptNoProgress, false, "Disable the progress bars")
	cmd.SetUsageTemplate(cli.UsageTemplate)
	return cmd
}

func runMirrorCMD(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	identifier := args[0]
	glob, _ := cmd.Flags().GetString(config.OptGlob)
	outputDir, _ := cmd.Flags().GetString(config.OptOutputDir)
	resume, _ := cmd.Flags().GetBool(config.OptResume)
	skipExisting, _ := cmd.Flags().GetBool(config.OptSkipExisting)
	dryRun, _ := cmd.Flags().GetBool(config.OptDryRun)
	noProgress, _ := cmd.Flags().GetBool(config.OptNoProgress)

	archiveClient := archive.NewClient(archive.Options{
		Retry:  config.RetryPolicy(),
		Client: config.HTTPClient(),
	})

	// Unlike the per-document lookups during a search, the metadata of
	// the one item we were asked for is load-bearing.
	item, err := archiveClient.ItemMetadata(cmd.Context(), identifier)
	if err != nil {
		return err
	}

	var items manifest.Manifest
	for _, file := range item.Files {
		if !filter.MatchGlob(glob, file.Name) {
			continue
		}
		items = append(items, manifest.Entry{
			Identifier:  identifier,
			FileName:    file.Name,
			DownloadURL: archiveClient.DownloadURL(identifier, file.Name),
			Size:        int64(file.Size),
		})
	}
	log.Info().Str("identifier", identifier).Int("files", len(items)).Msg("Mirroring")

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

	log.Info().Str("totals", totals.String()).Msg("Finished")
	return nil
}
