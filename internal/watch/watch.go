// Package watch re-runs an action whenever one of a set of files changes.
package watch

import (
	"context"
	"fmt"
	"time"

	"anim-cfg-export/internal/event"

	"github.com/radovskyb/watcher"
)

// DefaultInterval is the polling period used when none is given.
const DefaultInterval = time.Second

// Run polls paths and calls onChange with the changed path after each write,
// until ctx is cancelled. onChange runs on the calling goroutine's event
// loop, one call at a time.
func Run(ctx context.Context, paths []string, interval time.Duration, onChange func(path string)) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write, watcher.Create)
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			return fmt.Errorf("watch: add %s: %w", p, err)
		}
	}

	started := make(chan error, 1)
	go func() {
		started <- w.Start(interval)
	}()
	w.Wait()

	cancelled := ctx.Done()
	for {
		select {
		case ev := <-w.Event:
			event.Log.WithFields(event.Fields{"file": ev.Path, "op": ev.Op}).Debug("Input changed")
			onChange(ev.Path)
		case err := <-w.Error:
			if err == watcher.ErrWatchedFileDeleted {
				// Usually happens because the watcher looks for the file as the OS is updating it
				continue
			}
			event.Log.WithFields(event.Fields{"error": err}).Warn("Watcher error")
		case <-cancelled:
			cancelled = nil
			go w.Close()
		case <-w.Closed:
			return <-started
		}
	}
}
