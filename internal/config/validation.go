package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitepub/internal/rewrite"
	"git.home.luguber.info/inful/sitepub/internal/workspace"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the configuration and normalizes Mode. It must run after
// CLI overrides are applied.
func (c *Config) Validate() error {
	mode, err := rewrite.ParseMode(string(c.Mode))
	if err != nil {
		return fmt.Errorf("%w: mode: %w", ErrInvalidConfig, err)
	}
	c.Mode = mode

	if err := rewrite.ValidateTable(c.Domains, c.Labels); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if strings.TrimSpace(c.Output.Directory) == "" {
		return fmt.Errorf("%w: output.directory is empty", ErrInvalidConfig)
	}
	if base := filepath.Base(c.OutputPath()); base == "." || base == string(filepath.Separator) {
		return fmt.Errorf("%w: output.directory %q has no usable name", ErrInvalidConfig, c.Output.Directory)
	}

	for _, ext := range c.HTMLExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: html_extensions entry %q must look like .html", ErrInvalidConfig, ext)
		}
	}
	for _, name := range c.Exclude {
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("%w: exclude entry %q must be a single directory name", ErrInvalidConfig, name)
		}
	}

	if c.Watch.Interval < 0 {
		return fmt.Errorf("%w: watch.interval must not be negative", ErrInvalidConfig)
	}

	src, err := filepath.Abs(c.Source)
	if err != nil {
		return fmt.Errorf("%w: source: %w", ErrInvalidConfig, err)
	}
	out, err := filepath.Abs(c.OutputPath())
	if err != nil {
		return fmt.Errorf("%w: output: %w", ErrInvalidConfig, err)
	}
	if err := workspace.Validate(src, out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
