// Package discovery finds SQLite database files on disk.
//
// A file counts as a database when its extension is a known database
// suffix and it starts with the SQLite header. Both checks are needed:
// extensions alone match empty or foreign files, and probing every file's
// header is wasteful on large trees.
package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Header is the magic string at offset 0 of every SQLite database file.
const Header = "SQLite format 3\x00"

// DefaultExtensions are the suffixes considered when Options has none.
var DefaultExtensions = []string{".db", ".sqlite", ".sqlite3", ".db3"}

// Options controls a scan.
type Options struct {
	// MaxDepth is how many directory levels below a root are searched.
	// Zero searches the root directory only.
	MaxDepth   int
	Extensions []string
	// Concurrency bounds how many roots are walked at once.
	Concurrency int
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if len(o.Extensions) == 0 {
		o.Extensions = DefaultExtensions
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Database is a discovered database file.
type Database struct {
	Path    string    `json:"path" yaml:"path"`
	Size    int64     `json:"size" yaml:"size"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
}

// Scan walks each root and returns the database files found, de-duplicated
// and sorted by path. A root that does not exist is an error; unreadable
// directories below a root are skipped.
func Scan(ctx context.Context, roots []string, opts Options) ([]Database, error) {
	opts = opts.withDefaults()

	var (
		mu    sync.Mutex
		found = make(map[string]Database)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, root := range roots {
		g.Go(func() error {
			return walk(gctx, root, opts, func(db Database) {
				mu.Lock()
				found[db.Path] = db
				mu.Unlock()
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	dbs := make([]Database, 0, len(found))
	for _, db := range found {
		dbs = append(dbs, db)
	}
	slices.SortFunc(dbs, func(a, b Database) int {
		return strings.Compare(a.Path, b.Path)
	})
	return dbs, nil
}

// walk visits root up to opts.MaxDepth and calls fn for each database.
func walk(ctx context.Context, root string, opts Options, fn func(Database)) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}

	// A file root is checked directly.
	if !info.IsDir() {
		if db, ok := probe(abs, info, opts, true); ok {
			fn(db)
		}
		return nil
	}

	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == abs {
				return fmt.Errorf("scan %s: %w", root, err)
			}
			opts.Logger.Debug("skipping unreadable path", slog.String("path", path), slog.Any("error", err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != abs && (skipDir(d.Name()) || depth(abs, path) > opts.MaxDepth) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if db, ok := probe(path, info, opts, true); ok {
			fn(db)
		}
		return nil
	})
}

// skipDir reports whether a directory is never searched: hidden
// directories and node_modules.
func skipDir(name string) bool {
	return name == "node_modules" || (len(name) > 1 && name[0] == '.')
}

// depth is the number of directory levels between root and dir.
func depth(root, dir string) int {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// probe reports whether path is a database worth listing. With
// acceptEmpty, a zero-length file carrying a database extension counts:
// SQLite treats it as an empty database and only writes the header on the
// first change.
func probe(path string, info fs.FileInfo, opts Options, acceptEmpty bool) (Database, bool) {
	if !hasExtension(path, opts.Extensions) {
		return Database{}, false
	}
	if acceptEmpty && info.Size() == 0 {
		return Database{Path: path, ModTime: info.ModTime()}, true
	}
	ok, err := IsDatabase(path)
	if err != nil {
		opts.Logger.Debug("cannot read candidate", slog.String("path", path), slog.Any("error", err))
		return Database{}, false
	}
	if !ok {
		return Database{}, false
	}
	return Database{Path: path, Size: info.Size(), ModTime: info.ModTime()}, true
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext != "" && slices.Contains(exts, ext)
}

// IsDatabase reports whether the file at path starts with the SQLite
// header. Files shorter than the header are not databases.
func IsDatabase(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, len(Header))
	if _, err := io.ReadFull(f, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(buf, []byte(Header)), nil
}
