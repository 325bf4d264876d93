package search

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mirrorkeep/iaget/pkg/archive"
	"github.com/mirrorkeep/iaget/pkg/cli"
	"github.com/mirrorkeep/iaget/pkg/config"
	"github.com/mirrorkeep/iaget/pkg/manifest"
)

const defaultQuery = `mediatype:software AND format:("ISO Image" OR "DVD-ROM Image")`

const longDesc = `
'search' runs an archive.org advanced search and writes the matching
files out as a download manifest for 'fetch'.

Pages are requested one at a time with a politeness delay in between.
Each matching item is expanded to its individual files through the
metadata endpoint; items whose metadata cannot be fetched are logged
and skipped without failing the search. A failed search page, on the
other hand, aborts the whole run, since a missing page would silently
truncate the manifest.
`

const searchExamples = `
  iaget search > manifest.json

  iaget search 'collection:cdbbsarchive' --extensions .iso,.zip --out bbs.json

  iaget search --dry-run --max-pages 1
`

func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "search [flags] [query]",
		Short:   "build a download manifest from an archive.org search",
		Long:    longDesc,
		RunE:    runSearchCMD,
		Args:    cobra.MaximumNArgs(1),
		Example: searchExamples,
	}
	cmd.Flags().Int(config.OptRows, 500, "Results per search page")
	cmd.Flags().Int(config.OptMaxPages, 0, "Stop after this many search pages (0 means all)")
	cmd.Flags().Duration(config.OptSleep, time.Second, "Politeness delay between requests")
	cmd.Flags().StringSlice(config.OptFields, nil, "Extra metadata fields to request per result")
	cmd.Flags().StringSlice(config.OptExtensions, []string{".iso", ".img", ".zip"}, "File extensions to keep")
	cmd.Flags().StringP(config.OptOutput, "o", "-", "Manifest output path ('-' for stdout)")
	cmd.Flags().Bool(config.OptDryRun, false, "List matching items without fetching their metadata")
	cmd.SetUsageTemplate(cli.UsageTemplate)
	return cmd
}

func runSearchCMD(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	query := defaultQuery
	if len(args) == 1 {
		query = args[0]
	}

	rows, _ := cmd.Flags().GetInt(config.OptRows)
	maxPages, _ := cmd.Flags().GetInt(config.OptMaxPages)
	sleep, _ := cmd.Flags().GetDuration(config.OptSleep)
	fields, _ := cmd.Flags().GetStringSlice(config.OptFields)
	extensions, _ := cmd.Flags().GetStringSlice(config.OptExtensions)
	out, _ := cmd.Flags().GetString(config.OptOutput)
	dryRun, _ := cmd.Flags().GetBool(config.OptDryRun)

	searchClient := archive.NewClient(archive.Options{
		Rows:     rows,
		MaxPages: maxPages,
		Fields:   append(append([]string{}, archive.DefaultFields...), fields...),
		Sleep:    sleep,
		Retry:    config.RetryPolicy(),
		Client:   config.HTTPClient(),
	})

	log.Info().Str("query", query).Int("rows", rows).Msg("Searching")

	mapDoc := searchClient.EntryMapper(extensions)
	if dryRun {
		mapDoc = listDocument
	}

	entries, err := searchClient.Search(cmd.Context(), query, mapDoc)
	if err != nil {
		return err
	}

	if dryRun {
		return nil
	}

	log.Info().Int("files", len(entries)).Str("out", out).Msg("Writing manifest")
	items := manifest.Manifest(entries)
	if out == "-" {
		return items.Write(os.Stdout)
	}
	return items.WriteFile(out)
}

// listDocument is the dry-run mapper. It prints each hit and never
// touches the metadata endpoint.
func listDocument(_ context.Context, doc archive.Document) []manifest.Entry {
	identifier, ok := doc.StringField("identifier")
	if !ok {
		return nil
	}
	title, _ := doc.StringField("title")
	fmt.Printf("%s - %s\n", identifier, title)
	return nil
}
