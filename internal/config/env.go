package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/sitepub/internal/rewrite"
)

// Environment variables that override the config file.
const (
	EnvMode          = "SITEPUB_MODE"
	EnvOutput        = "SITEPUB_OUTPUT"
	EnvPrimaryDomain = "SITEPUB_PRIMARY_DOMAIN"
	EnvMirrorDomain  = "SITEPUB_MIRROR_DOMAIN"
)

// envFiles are loaded from the working directory in order.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads every present .env file. Existing process environment
// variables are never overwritten, so an earlier file wins over a later one.
func loadEnvFiles() []string {
	var loaded []string
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "Note: could not load %s: %v\n", path, err)
			continue
		}
		loaded = append(loaded, path)
	}
	return loaded
}

// applyEnv copies SITEPUB_* overrides into cfg and returns the names applied.
func applyEnv(cfg *Config) []string {
	var applied []string
	set := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
			applied = append(applied, name)
		}
	}

	mode := string(cfg.Mode)
	set(EnvMode, &mode)
	cfg.Mode = rewrite.Mode(mode)
	set(EnvOutput, &cfg.Output.Directory)
	set(EnvPrimaryDomain, &cfg.Domains.Primary)
	set(EnvMirrorDomain, &cfg.Domains.Mirror)
	return applied
}
