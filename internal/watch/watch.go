// Package watch regenerates derived reports when the snapshot files change.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before its change fires.
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors a directory for writes to a fixed set of files using
// fsnotify and calls OnChange once per burst of events.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	// OnChange receives the base names of the files that changed in a burst.
	OnChange func(changed []string)

	files   map[string]bool
	log     *zap.Logger
	watcher *fsnotify.Watcher
}

// New creates a watcher for the named files in dir. Editors often replace a
// file by renaming over it, so the directory is watched rather than the files.
func New(dir string, files []string, onChange func([]string), log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	set := make(map[string]bool, len(files))
	for _, f := range files {
		set[filepath.Base(f)] = true
	}
	return &Watcher{
		Dir:      dir,
		Debounce: DefaultDebounce,
		OnChange: onChange,
		files:    set,
		log:      log,
		watcher:  fw,
	}, nil
}

// Run watches until ctx is cancelled. Pending changes are flushed on exit.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	if err := w.watcher.Add(w.Dir); err != nil {
		return err
	}
	w.log.Info("Watching for changes", zap.String("dir", w.Dir))

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.flush(pending, time.Time{})
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				w.flush(pending, time.Time{})
				return nil
			}
			name := filepath.Base(event.Name)
			if !w.files[name] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending[name] = time.Now()
			}

		case now := <-ticker.C:
			w.flush(pending, now.Add(-debounce))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			// Watch errors are non-fatal.
			w.log.Warn("Watch error", zap.Error(err))
		}
	}
}

// flush fires for every pending file last touched at or before cutoff. A zero
// cutoff flushes everything.
func (w *Watcher) flush(pending map[string]time.Time, cutoff time.Time) {
	var ready []string
	for name, t := range pending {
		if cutoff.IsZero() || !t.After(cutoff) {
			ready = append(ready, name)
			delete(pending, name)
		}
	}
	if len(ready) == 0 || w.OnChange == nil {
		return
	}
	sort.Strings(ready)
	w.OnChange(ready)
}
