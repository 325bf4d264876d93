// Package progress renders live per-file transfer bars. Transfers feed a
// status map through a callback; a ticker goroutine mirrors the map into
// mpb bars so the render loop never blocks a download.
package progress

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"
)

const tickInterval = 200 * time.Millisecond

type status struct {
	written   int64
	total     int64
	completed bool
}

type Bars struct {
	lock   sync.RWMutex
	done   chan struct{}
	status map[string]status
	egrp   *errgroup.Group
}

func New() *Bars {
	return &Bars{
		done:   make(chan struct{}),
		status: make(map[string]status),
	}
}

// Enabled reports whether progress bars should be drawn at all.
func Enabled() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// Update records the state of one transfer. total may be -1 while the
// expected size is still unknown.
func (b *Bars) Update(name string, written, total int64, completed bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.status[name] = status{written: written, total: total, completed: completed}
}

// Func adapts Update to the per-flush progress callback shape used by the
// download engine.
func (b *Bars) Func() func(name string, written, total int64) {
	return func(name string, written, total int64) {
		b.Update(name, written, total, false)
	}
}

// Display starts the render loop. Call Shutdown to stop it and wait for
// the final frame.
func (b *Bars) Display(ctx context.Context) {
	container := mpb.NewWithContext(ctx, mpb.WithWidth(64))
	b.egrp, _ = errgroup.WithContext(ctx)

	b.egrp.Go(func() error {
		defer container.Wait()

		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		bars := make(map[string]*mpb.Bar)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-b.done:
				b.render(container, bars)
				for _, bar := range bars {
					bar.Abort(true)
					bar.Wait()
				}
				return nil
			case <-ticker.C:
				b.render(container, bars)
			}
		}
	})
}

func (b *Bars) render(container *mpb.Progress, bars map[string]*mpb.Bar) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	for name, stat := range b.status {
		bar, ok := bars[name]
		if !ok {
			bar = container.AddBar(0,
				mpb.PrependDecorators(
					decor.Name(filepath.Base(name), decor.WCSyncSpaceR),
					decor.CountersKibiByte("% .2f / % .2f"),
				),
				mpb.AppendDecorators(
					decor.OnComplete(decor.EwmaETA(decor.ET_STYLE_GO, 15), ""),
					decor.OnComplete(decor.EwmaSpeed(decor.SizeB1024(0), "% .2f", 15), "done"),
				),
			)
			bars[name] = bar
		}
		total := stat.total
		if total < stat.written {
			total = stat.written
		}
		bar.SetTotal(total, stat.completed)
		bar.EwmaSetCurrent(stat.written, tickInterval)
	}
}

// Shutdown stops the render loop after one final frame.
func (b *Bars) Shutdown() {
	if b.egrp == nil {
		return
	}
	close(b.done)
	_ = b.egrp.Wait()
}
