package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Op is the kind of change reported by Watch.
type Op int

// Watch operations.
const (
	Created Op = iota + 1
	Removed
)

func (o Op) String() string {
	switch o {
	case Created:
		return "created"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Event is a database file appearing or disappearing.
type Event struct {
	Op       Op
	Database Database
}

// Watch reports databases created or removed under roots until ctx is
// cancelled. It is NewWatcher followed by Run.
func Watch(ctx context.Context, roots []string, opts Options, fn func(Event)) error {
	w, err := NewWatcher(ctx, roots, opts)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx, fn)
}

// Watcher follows database files under a set of roots. Files present when
// the watcher is created are not reported. A file is reported as created
// once its header has been written, which may be on a later write than the
// one that created it.
type Watcher struct {
	watcher *fsnotify.Watcher
	opts    Options
	known   map[string]Database
	// roots maps each watched directory to the root it was found under.
	roots map[string]string
}

// NewWatcher registers the directory trees under roots and records the
// databases already present. The caller must Close the watcher.
func NewWatcher(ctx context.Context, roots []string, opts Options) (*Watcher, error) {
	opts = opts.withDefaults()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		opts:    opts,
		known:   make(map[string]Database),
		roots:   make(map[string]string),
	}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watch %s: %w", root, err)
		}
		if err := w.watchDir(abs, abs); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watch %s: %w", root, err)
		}
	}

	existing, err := Scan(ctx, roots, opts)
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	for _, db := range existing {
		w.known[db.Path] = db
	}

	opts.Logger.Debug("watching for databases", slog.Int("dirs", len(fw.WatchList())))
	return w, nil
}

// Known returns the number of databases currently tracked. It must not be
// called while Run is active.
func (w *Watcher) Known() int {
	return len(w.known)
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// watchDir recursively adds a directory to the watcher.
func (w *Watcher) watchDir(root, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (skipDir(d.Name()) || depth(root, path) > w.opts.MaxDepth) {
			return filepath.SkipDir
		}
		w.roots[path] = root
		return w.watcher.Add(path)
	})
}

// Run calls fn for each change until ctx is cancelled. Events are
// delivered on the calling goroutine.
func (w *Watcher) Run(ctx context.Context, fn func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event, fn)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, fn func(Event)) {
	path := event.Name

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if db, ok := w.known[path]; ok {
			delete(w.known, path)
			fn(Event{Op: Removed, Database: db})
		}
		delete(w.roots, path)
		return
	}

	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create == 0 {
			return
		}
		root, ok := w.roots[filepath.Dir(path)]
		if !ok {
			return
		}
		if err := w.watchDir(root, path); err != nil {
			w.opts.Logger.Debug("cannot watch new directory", slog.String("path", path), slog.Any("error", err))
		}
		return
	}

	if _, ok := w.known[path]; ok {
		return
	}
	// A new empty file is usually still being written; it is reported once
	// its header lands.
	if db, ok := probe(path, info, w.opts, false); ok {
		w.known[path] = db
		fn(Event{Op: Created, Database: db})
	}
}
