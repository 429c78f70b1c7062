package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitepub/internal/copier"
	"git.home.luguber.info/inful/sitepub/internal/rewrite"
)

// DefaultConfigFile is the config file looked up when none is given.
const DefaultConfigFile = "sitepub.yaml"

// DefaultOutputDirectory is the output directory name used when none is configured.
const DefaultOutputDirectory = "public"

// Config represents the application configuration
type Config struct {
	Source         string          `yaml:"source"`
	Output         OutputConfig    `yaml:"output"`
	Mode           rewrite.Mode    `yaml:"mode"`
	Domains        rewrite.Domains `yaml:"domains"`
	Labels         rewrite.Labels  `yaml:"labels"`
	Exclude        []string        `yaml:"exclude,omitempty"`     // added to copier.DefaultExclude
	KeepHidden     []string        `yaml:"keep_hidden,omitempty"` // hidden names still copied, e.g. .nojekyll
	HTMLExtensions []string        `yaml:"html_extensions,omitempty"`
	Watch          WatchConfig     `yaml:"watch"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"` // relative paths resolve against Source
}

// WatchConfig configures `sitepub watch`.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Interval time.Duration `yaml:"interval,omitempty"` // periodic full republish, off when zero
}

// Loaded describes where configuration values came from.
type Loaded struct {
	File     string   // empty when no config file was read
	EnvFiles []string // .env files that were loaded
	Env      []string // SITEPUB_* variables that were applied
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Source:         ".",
		Output:         OutputConfig{Directory: DefaultOutputDirectory},
		Mode:           rewrite.ModeMirror,
		Domains:        rewrite.DefaultDomains(),
		Labels:         rewrite.DefaultLabels(),
		HTMLExtensions: append([]string(nil), rewrite.DefaultExtensions...),
		Watch:          WatchConfig{Debounce: 500 * time.Millisecond},
	}
}

// Load reads configPath on top of the defaults, then applies SITEPUB_*
// environment overrides. A missing file is not an error.
func Load(configPath string) (*Config, Loaded, error) {
	loaded := Loaded{EnvFiles: loadEnvFiles()}
	cfg := Default()

	data, err := os.ReadFile(filepath.Clean(configPath))
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, loaded, fmt.Errorf("failed to read config file: %w", err)
	default:
		// Expand environment variables in the YAML content
		expanded := os.ExpandEnv(string(data))
		dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, loaded, fmt.Errorf("failed to unmarshal config: %w", err)
		}
		loaded.File = configPath
	}

	loaded.Env = applyEnv(cfg)
	cfg.applyDefaults()
	return cfg, loaded, nil
}

// applyDefaults refills fields an explicit empty value in the file cleared.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Source == "" {
		c.Source = d.Source
	}
	if c.Output.Directory == "" {
		c.Output.Directory = d.Output.Directory
	}
	if c.Mode == "" {
		c.Mode = d.Mode
	}
	if len(c.HTMLExtensions) == 0 {
		c.HTMLExtensions = d.HTMLExtensions
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = d.Watch.Debounce
	}
}

// OutputPath returns the output directory, resolving relative paths against Source.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.Output.Directory) {
		return filepath.Clean(c.Output.Directory)
	}
	return filepath.Join(c.Source, c.Output.Directory)
}

// ExcludeNames returns the full exclusion set handed to the copier.
func (c *Config) ExcludeNames() []string {
	names := append([]string(nil), copier.DefaultExclude...)
	names = append(names, c.Exclude...)
	return append(names, filepath.Base(c.OutputPath()))
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Default()
	example.KeepHidden = []string{".nojekyll"}
	example.Exclude = []string{"drafts"}

	var buf bytes.Buffer
	buf.WriteString("# sitepub configuration. Every field is optional.\n")
	buf.WriteString("# mode: mirror rewrites primary -> mirror, primary does the reverse.\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(example); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// #nosec G306 -- config file is meant to be shared
	if err := os.WriteFile(configPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
