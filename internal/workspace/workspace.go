package workspace

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/retry"
)

var (
	// ErrOutputIsSource indicates the output directory resolves to the source directory.
	ErrOutputIsSource = errors.New("output directory is the source directory")

	// ErrOutputContainsSource indicates resetting the output would delete the source.
	ErrOutputContainsSource = errors.New("output directory contains the source directory")

	// ErrLocked indicates another run holds the output lock.
	ErrLocked = errors.New("output directory is locked by another run")
)

// Manager handles the lifecycle of one output directory.
type Manager struct {
	source string
	output string
	lock   *flock.Flock
	retry  retry.Policy
	logger *slog.Logger
}

// NewManager resolves source and output to absolute paths.
func NewManager(source, output string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	src, err := filepath.Abs(source)
	if err != nil {
		return nil, fmt.Errorf("resolve source: %w", err)
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return nil, fmt.Errorf("resolve output: %w", err)
	}
	return &Manager{source: src, output: out, retry: retry.DefaultPolicy(), logger: logger}, nil
}

// SetRetryPolicy sets how often Reset retries a failed removal.
func (m *Manager) SetRetryPolicy(p retry.Policy) { m.retry = p }

// Source returns the absolute source path.
func (m *Manager) Source() string { return m.source }

// Output returns the absolute output path.
func (m *Manager) Output() string { return m.output }

// LockPath returns the lock file used for the output directory. It lives in
// the system temp directory, keyed by the absolute output path, so nothing is
// left behind in the site tree.
func (m *Manager) LockPath() string {
	sum := sha256.Sum256([]byte(m.output))
	return filepath.Join(os.TempDir(), "sitepub-"+hex.EncodeToString(sum[:8])+".lock")
}

// Validate rejects layouts where resetting the output would remove the source.
func (m *Manager) Validate() error {
	return Validate(m.source, m.output)
}

// Validate rejects an output that equals source or is one of its ancestors.
func Validate(source, output string) error {
	src := filepath.Clean(source)
	out := filepath.Clean(output)
	if src == out {
		return fmt.Errorf("%w: %s", ErrOutputIsSource, out)
	}
	rel, err := filepath.Rel(out, src)
	if err != nil {
		return nil // different volumes
	}
	if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s contains %s", ErrOutputContainsSource, out, src)
	}
	return nil
}

// Lock takes a non-blocking exclusive lock on the output directory.
func (m *Manager) Lock() error {
	fl := flock.New(m.LockPath())
	locked, err := fl.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, m.LockPath())
	}
	m.lock = fl
	m.logger.Debug("Acquired output lock", logfields.Path(m.LockPath()))
	return nil
}

// Unlock releases the lock. The lock file stays so every run locks the same
// inode. Safe to call when not locked.
func (m *Manager) Unlock() error {
	if m.lock == nil {
		return nil
	}
	err := m.lock.Unlock()
	m.lock = nil
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Reset deletes the output directory recursively and recreates it empty.
// A failed removal is retried per the manager's retry policy.
func (m *Manager) Reset(ctx context.Context) error {
	if _, err := os.Lstat(m.output); err == nil {
		err := m.retry.Do(ctx, func() error {
			rerr := os.RemoveAll(m.output)
			if rerr != nil {
				m.logger.Debug("Retrying output removal", logfields.Path(m.output), logfields.Error(rerr))
			}
			return rerr
		})
		if err != nil {
			return fmt.Errorf("failed to remove output directory: %w", err)
		}
		m.logger.Info("Removed previous output", logfields.Path(m.output))
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat output directory: %w", err)
	}

	if err := os.MkdirAll(m.output, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	m.logger.Debug("Created output directory", logfields.Path(m.output))
	return nil
}
