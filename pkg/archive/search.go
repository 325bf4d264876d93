package archive

import (
	"context"
	"strings"

	"github.com/mirrorkeep/iaget/pkg/logging"
	"github.com/mirrorkeep/iaget/pkg/manifest"
)

// Mapper expands one search document into zero or more download entries.
// A mapper may issue its own sub-fetches; failures there are the mapper's
// to tolerate (contribute nothing), so that one bad document never aborts
// the run.
type Mapper func(ctx context.Context, doc Document) []manifest.Entry

// Search walks every page of results for query and accumulates the
// entries produced by mapDoc, in page order. The total page count is read
// once from page 1 (ceil(numFound/rows), minimum 1, clamped to MaxPages)
// and never re-evaluated: a total that changes mid-run is a documented
// limitation. A page fetch that exhausts its retries aborts the whole run,
// since a missing page would corrupt the result set.
func (c *Client) Search(ctx context.Context, query string, mapDoc Mapper) ([]manifest.Entry, error) {
	logger := logging.GetLogger()

	first, err := c.fetchPage(ctx, query, 1)
	if err != nil {
		return nil, err
	}

	totalPages := (first.NumFound + c.opts.Rows - 1) / c.opts.Rows
	if totalPages < 1 {
		totalPages = 1
	}
	if c.opts.MaxPages > 0 && totalPages > c.opts.MaxPages {
		totalPages = c.opts.MaxPages
	}
	logger.Info().Int("num_found", first.NumFound).Int("pages", totalPages).Msg("Search")

	entries := make([]manifest.Entry, 0, first.NumFound)
	page := first
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		if pageNum > 1 {
			if err := c.wait(ctx); err != nil {
				return nil, err
			}
			page, err = c.fetchPage(ctx, query, pageNum)
			if err != nil {
				return nil, err
			}
		}
		logger.Debug().Int("page", pageNum).Int("docs", len(page.Docs)).Msg("Processing")

		for _, doc := range page.Docs {
			entries = append(entries, mapDoc(ctx, doc)...)
		}
	}
	return entries, nil
}

// EntryMapper returns the standard Mapper: it expands a search hit into
// one download entry per metadata file whose name ends in one of exts
// (case-insensitive; all files when exts is empty). The metadata sub-fetch
// is lenient: once its retries are exhausted the document contributes
// nothing and the run continues.
func (c *Client) EntryMapper(exts []string) Mapper {
	logger := logging.GetLogger()
	return func(ctx context.Context, doc Document) []manifest.Entry {
		identifier, ok := doc.StringField("identifier")
		if !ok {
			return nil
		}
		title, _ := doc.StringField("title")

		if err := c.wait(ctx); err != nil {
			return nil
		}
		item, err := c.ItemMetadata(ctx, identifier)
		if err != nil {
			logger.Debug().Str("identifier", identifier).Err(err).Msg("No metadata")
			return nil
		}

		var entries []manifest.Entry
		for _, f := range item.Files {
			if f.Name == "" || !matchesExtension(f.Name, exts) {
				continue
			}
			entries = append(entries, manifest.Entry{
				Identifier:  identifier,
				Title:       title,
				FileName:    f.Name,
				DownloadURL: c.DownloadURL(identifier, f.Name),
				Size:        int64(f.Size),
			})
		}
		return entries
	}
}

func matchesExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
