// Package watch re-runs a publish whenever the source tree changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitepub/internal/copier"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
)

// DefaultDebounce is the quiet period after the last event before a publish.
const DefaultDebounce = 500 * time.Millisecond

// PublishFunc runs one full publish.
type PublishFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	Root       string
	Output     string   // never watched; events under it are ignored
	Exclude    []string // directory names that are not watched
	KeepHidden []string
	Debounce   time.Duration
	Interval   time.Duration // periodic republish; disabled when zero
	Logger     *slog.Logger
}

// Watcher publishes once, then again after every burst of source changes.
type Watcher struct {
	root     string
	output   string
	filter   *copier.Filter
	debounce time.Duration
	interval time.Duration
	logger   *slog.Logger

	fw *fsnotify.Watcher
}

// New creates a Watcher.
func New(opts Options) (*Watcher, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve source: %w", err)
	}
	output, err := filepath.Abs(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("resolve output: %w", err)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		root:     root,
		output:   output,
		filter:   copier.NewFilter(opts.Exclude, opts.KeepHidden),
		debounce: debounce,
		interval: opts.Interval,
		logger:   logger,
	}, nil
}

// Run publishes once, then after every debounced change and on each Interval
// tick until ctx is done. Publish errors are logged and do not stop the loop;
// a nil error is returned on cancellation.
func (w *Watcher) Run(ctx context.Context, publish PublishFunc) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	w.fw = fw
	defer func() {
		if cerr := fw.Close(); cerr != nil {
			w.logger.Warn("Failed to close watcher", logfields.Error(cerr))
		}
	}()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	w.publish(ctx, publish)

	tick := make(chan struct{}, 1)
	if w.interval > 0 {
		sched, err := newScheduler(w.logger)
		if err != nil {
			return err
		}
		defer sched.stop()
		if err := sched.every(w.interval, tick); err != nil {
			return err
		}
	}

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	w.logger.Info("Watching for changes", logfields.Path(w.root))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopped watching", logfields.Path(w.root))
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		case <-timerC:
			timerC = nil
			w.logger.Info("Change detected, publishing")
			w.publish(ctx, publish)
		case <-tick:
			w.logger.Info("Scheduled publish")
			w.publish(ctx, publish)
		}
	}
}

func (w *Watcher) publish(ctx context.Context, publish PublishFunc) {
	if err := publish(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error("Publish failed", logfields.Error(err))
	}
}

// handleEvent reports whether ev should trigger a publish. New directories
// are added to the watch set.
func (w *Watcher) handleEvent(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod || w.ignored(ev.Name) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
			}
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), logfields.Reason(ev.Op.String()))
	return true
}

// ignored reports whether path is the output, lies outside the root, or has
// an excluded or hidden component.
func (w *Watcher) ignored(path string) bool {
	path = filepath.Clean(path)
	if path == w.output || strings.HasPrefix(path, w.output+string(filepath.Separator)) {
		return true
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return true
	}
	if rel == "." {
		return false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for _, dir := range parts[:len(parts)-1] {
		if skip, _ := w.filter.SkipDir(dir); skip {
			return true
		}
	}
	name := parts[len(parts)-1]
	if skip, _ := w.filter.SkipFile(name); skip || w.filter.Excluded(name) {
		return true
	}
	return isEditorTemp(name)
}

func isEditorTemp(name string) bool {
	return strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".swx") ||
		(strings.HasPrefix(name, "#") && strings.HasSuffix(name, "#"))
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fw.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}
