package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/lithos/internal/site"
)

// DebounceWindow is the quiet period after the last event before a batch is
// flushed. Editors tend to emit several events per save; one window catches
// them all.
const DebounceWindow = 200 * time.Millisecond

// Watcher observes the content, asset and template trees of a site and emits
// debounced Actions batches on its channel.
type Watcher struct {
	fs         *fsnotify.Watcher
	classifier *Classifier
	debounce   time.Duration
	batches    chan Actions

	mu      sync.Mutex
	pending []fsnotify.Event
	timer   *time.Timer
}

// New sets up recursive watches over every site directory that exists.
// Missing directories (a site without a theme, say) are skipped silently.
func New(paths site.Paths) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fs:         fsw,
		classifier: NewClassifier(paths),
		debounce:   DebounceWindow,
		batches:    make(chan Actions, 8),
	}
	for _, dir := range []string{
		paths.Content,
		paths.Assets,
		paths.Templates,
		paths.ThemeAssets,
		paths.ThemeTemplates,
	} {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := addDirsRecursive(fsw, dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Batches delivers debounced action batches. The channel closes when Run
// returns.
func (w *Watcher) Batches() <-chan Actions { return w.batches }

// Run pumps filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.batches)
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	// New directories have to be added to the watch explicitly; fsnotify
	// does not recurse.
	if ev.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w.fs, ev.Name)
		}
	}
	slog.Debug("file event", "path", ev.Name, "op", ev.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, ev)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	events := w.pending
	w.pending = nil
	w.mu.Unlock()

	actions := w.classifier.Reduce(events)
	if actions.Empty() {
		return
	}
	select {
	case w.batches <- actions:
	default:
		slog.Warn("dropping action batch, consumer too slow")
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}
