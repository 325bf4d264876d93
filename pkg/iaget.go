// Package iaget sequences the per-item transfer loop: each manifest entry
// is resolved to success, skipped or failed, one destination at a time, in
// manifest order. Outcomes are folded into a Totals value; there is no
// shared mutable counter state.
package iaget

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mirrorkeep/iaget/pkg/download"
	"github.com/mirrorkeep/iaget/pkg/logging"
	"github.com/mirrorkeep/iaget/pkg/manifest"
	"github.com/mirrorkeep/iaget/pkg/progress"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

// Totals aggregates per-item outcomes for the end-of-run report.
type Totals struct {
	Success int
	Skipped int
	Failed  int
}

func (t Totals) Add(o Outcome) Totals {
	switch o {
	case OutcomeSuccess:
		t.Success++
	case OutcomeSkipped:
		t.Skipped++
	case OutcomeFailed:
		t.Failed++
	}
	return t
}

func (t Totals) String() string {
	return fmt.Sprintf("Success: %d, Skipped: %d, Failed: %d", t.Success, t.Skipped, t.Failed)
}

type Runner struct {
	Downloader *download.Downloader

	// OutputDir receives every destination file. It must exist.
	OutputDir string

	// SkipExisting resolves items whose destination is already present as
	// skipped instead of re-downloading.
	SkipExisting bool

	// Resume re-requests the remaining bytes of partially present
	// destinations. Must match the Downloader's resume setting.
	Resume bool

	// DryRun lists what would be downloaded; every listed item counts as
	// skipped.
	DryRun bool

	// Progress, when set, is told about completed transfers so their bars
	// finish cleanly.
	Progress *progress.Bars
}

// Run processes items strictly in order. A failed item never aborts the
// run; its outcome is recorded and the loop moves on.
func (r *Runner) Run(ctx context.Context, items manifest.Manifest) Totals {
	var totals Totals
	for idx, item := range items {
		prefix := fmt.Sprintf("[%d/%d %.1f%%]", idx+1, len(items), float64(idx+1)/float64(len(items))*100)
		totals = totals.Add(r.runOne(ctx, item, prefix))
	}
	return totals
}

func (r *Runner) runOne(ctx context.Context, item manifest.Entry, prefix string) Outcome {
	logger := logging.GetLogger()

	if item.FileName == "" || item.DownloadURL == "" {
		logger.Warn().Str("identifier", item.Identifier).Msg(prefix + " Missing file_name or download_url")
		return OutcomeFailed
	}

	dest := filepath.Join(r.OutputDir, item.FileName)
	if st, err := os.Stat(dest); err == nil {
		// A known size lets a resumed run recognize completed files
		// without a request; otherwise only skip when resume is off.
		complete := item.Size > 0 && st.Size() >= item.Size
		if r.SkipExisting && (!r.Resume || complete) {
			logger.Info().Str("file", item.FileName).Msg(prefix + " Already exists")
			return OutcomeSkipped
		}
	}

	if r.DryRun {
		fmt.Printf("%s [DRY-RUN] Would download: %s <- %s\n", prefix, item.FileName, item.DownloadURL)
		return OutcomeSkipped
	}

	written, err := r.Downloader.DownloadFile(ctx, item.DownloadURL, dest)
	if err != nil {
		logger.Error().Err(err).Str("file", item.FileName).Msg(prefix + " Failed")
		return OutcomeFailed
	}
	if r.Progress != nil {
		r.Progress.Update(dest, written, written, true)
	}
	logger.Info().Str("file", item.FileName).Msg(prefix + " Done")
	return OutcomeSuccess
}
