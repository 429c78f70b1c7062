package copier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitepub/internal/logfields"
)

// Failure records an entry that could not be copied.
type Failure struct {
	Source string
	Dest   string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s -> %s: %v", f.Source, f.Dest, f.Err)
}

// Result summarizes one copy pass.
type Result struct {
	Copied   int
	Dirs     int
	Skipped  int
	Bytes    int64
	Files    []string // relative, slash-separated, in walk order
	Failures []Failure
}

// Options configures a Copier.
type Options struct {
	Exclude    []string // directory names never copied; DefaultExclude when nil
	KeepHidden []string // hidden names copied anyway
	Logger     *slog.Logger
}

// Copier copies a filtered source tree.
type Copier struct {
	exclude    []string
	keepHidden []string
	logger     *slog.Logger
}

// New creates a Copier.
func New(opts Options) *Copier {
	exclude := opts.Exclude
	if exclude == nil {
		exclude = DefaultExclude
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Copier{exclude: exclude, keepHidden: opts.KeepHidden, logger: logger}
}

// Copy mirrors src into dst. dst is expected to exist and be empty; its base
// name joins the exclusion set and its absolute path is never descended into,
// so an output directory inside src is not copied into itself.
func (c *Copier) Copy(ctx context.Context, src, dst string) (*Result, error) {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return nil, fmt.Errorf("resolve source: %w", err)
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return nil, fmt.Errorf("resolve output: %w", err)
	}
	info, err := os.Stat(srcAbs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceNotFound, src, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceNotFound, src)
	}
	if err := os.MkdirAll(dstAbs, 0o755); err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	filter := NewFilter(append(append([]string(nil), c.exclude...), filepath.Base(dstAbs)), c.keepHidden)
	res := &Result{}

	walkErr := filepath.WalkDir(srcAbs, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == srcAbs {
			return err
		}

		rel, relErr := filepath.Rel(srcAbs, path)
		if relErr != nil {
			return relErr
		}
		target := filepath.Join(dstAbs, rel)

		if err != nil {
			c.logger.Warn("Skipping unreadable entry", logfields.Source(path), logfields.Error(err))
			res.Failures = append(res.Failures, Failure{Source: path, Dest: target, Err: err})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return c.visitDir(filter, res, path, target, rel, dstAbs, d)
		}
		c.visitFile(filter, res, path, target, rel, d)
		return nil
	})
	if walkErr != nil {
		return res, walkErr
	}
	return res, nil
}

func (c *Copier) visitDir(filter *Filter, res *Result, path, target, rel, dstAbs string, d fs.DirEntry) error {
	if path == dstAbs {
		c.logger.Debug("Pruning output directory", logfields.Path(rel))
		res.Skipped++
		return filepath.SkipDir
	}
	if skip, reason := filter.SkipDir(d.Name()); skip {
		c.logger.Debug("Pruning directory", logfields.Path(rel), logfields.Reason(reason))
		res.Skipped++
		return filepath.SkipDir
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		c.logger.Error("Failed to create directory", logfields.Source(path), logfields.Dest(target), logfields.Error(err))
		res.Failures = append(res.Failures, Failure{Source: path, Dest: target, Err: err})
		return filepath.SkipDir
	}
	res.Dirs++
	return nil
}

func (c *Copier) visitFile(filter *Filter, res *Result, path, target, rel string, d fs.DirEntry) {
	if skip, reason := filter.SkipFile(d.Name()); skip {
		c.logger.Debug("Skipping file", logfields.File(rel), logfields.Reason(reason))
		res.Skipped++
		return
	}

	// Stat follows symlinks, so a link to a regular file is copied as that file.
	info, err := os.Stat(path)
	if err != nil {
		c.logger.Error("Failed to copy file", logfields.Source(path), logfields.Dest(target), logfields.Error(err))
		res.Failures = append(res.Failures, Failure{Source: path, Dest: target, Err: err})
		return
	}
	if !info.Mode().IsRegular() {
		c.logger.Warn("Skipping non-regular file", logfields.File(rel), logfields.Reason(info.Mode().Type().String()))
		res.Skipped++
		return
	}

	n, err := CopyFile(path, target, info)
	if err != nil {
		c.logger.Error("Failed to copy file", logfields.Source(path), logfields.Dest(target), logfields.Error(err))
		res.Failures = append(res.Failures, Failure{Source: path, Dest: target, Err: err})
		return
	}
	c.logger.Debug("Copied file", logfields.File(rel), logfields.Bytes(n))
	res.Copied++
	res.Bytes += n
	res.Files = append(res.Files, filepath.ToSlash(rel))
}

// CopyFile copies src to dst, creating dst's parent, then applies the
// permission bits and modification time from info. A partially written dst
// is removed on failure.
func CopyFile(src, dst string, info fs.FileInfo) (n int64, err error) {
	if info == nil {
		return 0, errors.New("missing source file info")
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedEntry, info.Mode().Type())
	}

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = in.Close() // read-only
	}()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	n, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, err
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return n, err
	}
	// Zero atime leaves the access time alone.
	if err := os.Chtimes(dst, time.Time{}, info.ModTime()); err != nil {
		return n, err
	}
	return n, nil
}
