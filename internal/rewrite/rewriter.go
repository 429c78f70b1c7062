package rewrite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitepub/internal/logfields"
)

// DefaultExtensions are the file extensions treated as HTML.
var DefaultExtensions = []string{".html", ".htm"}

// Failure records a file that could not be read or written back.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string { return fmt.Sprintf("%s: %v", f.Path, f.Err) }

// Result summarizes one rewrite pass.
type Result struct {
	Mode         Mode
	Scanned      int
	Updated      int
	Unchanged    int
	UpdatedFiles []string // relative to the rewrite root
	Failures     []Failure
}

// Rewriter applies a substitution table to every HTML file under a root.
type Rewriter struct {
	mode       Mode
	rules      []Rule
	extensions []string
	logger     *slog.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithExtensions overrides the HTML extensions. Matching is case-insensitive.
func WithExtensions(exts []string) Option {
	return func(r *Rewriter) {
		if len(exts) > 0 {
			r.extensions = exts
		}
	}
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(r *Rewriter) {
		if l != nil {
			r.logger = l
		}
	}
}

// New builds a Rewriter for mode using the given host names and labels.
func New(mode Mode, d Domains, l Labels, opts ...Option) *Rewriter {
	r := &Rewriter{
		mode:       mode,
		rules:      Table(mode, d, l),
		extensions: DefaultExtensions,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rules returns the ordered substitution table in use.
func (r *Rewriter) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// IsHTML reports whether name has one of the configured HTML extensions.
func (r *Rewriter) IsHTML(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range r.extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// Discover lists HTML files under root in lexical walk order. Unreadable
// directories are reported as failures and skipped.
func (r *Rewriter) Discover(ctx context.Context, root string) ([]string, []Failure, error) {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		if err == nil {
			err = errors.New("not a directory")
		}
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
	}

	var files []string
	var failures []Failure
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			r.logger.Warn("Skipping unreadable entry", logfields.Path(path), logfields.Error(err))
			failures = append(failures, Failure{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && r.IsHTML(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, failures, err
	}
	return files, failures, nil
}

// Rewrite applies the table to every HTML file under root. Per-file failures
// are collected in the result; only a missing root or cancellation is an error.
func (r *Rewriter) Rewrite(ctx context.Context, root string) (*Result, error) {
	files, failures, err := r.Discover(ctx, root)
	res := &Result{Mode: r.mode, Failures: failures}
	if err != nil {
		return res, err
	}

	if len(files) == 0 {
		r.logger.Info("No HTML files found, nothing to rewrite", logfields.Path(root))
		return res, nil
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Scanned++
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}

		changed, err := r.RewriteFile(path)
		switch {
		case err != nil:
			r.logger.Error("Failed to rewrite file", logfields.File(rel), logfields.Error(err))
			res.Failures = append(res.Failures, Failure{Path: path, Err: err})
		case changed:
			r.logger.Info("Updated links", logfields.File(rel), logfields.Mode(r.mode.String()))
			res.Updated++
			res.UpdatedFiles = append(res.UpdatedFiles, filepath.ToSlash(rel))
		default:
			r.logger.Debug("No substitutions needed", logfields.File(rel))
			res.Unchanged++
		}
	}
	return res, nil
}

// RewriteFile rewrites one file in place. The file is only written when its
// content changes; permission bits are kept.
func (r *Rewriter) RewriteFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat: %w", err)
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return false, fmt.Errorf("read: %w", err)
	}

	original := string(data)
	updated := Apply(original, r.rules)
	if updated == original {
		return false, nil
	}

	// #nosec G306 -- permission bits come from the file being rewritten
	if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write: %w", err)
	}
	return true, nil
}
