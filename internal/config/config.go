package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config captures CLI options sourced from config files or flags.
type Config struct {
	Manifest string   `yaml:"manifest"`
	Pythons  []string `yaml:"python"`

	OnlySteps []string `yaml:"only_step"`
	SkipSteps []string `yaml:"skip_step"`

	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`

	Sequential bool   `yaml:"sequential"`
	DryRun     bool   `yaml:"dry_run"`
	Verbose    bool   `yaml:"verbose"`
	Format     string `yaml:"format"`
	Retries    int    `yaml:"retries"`

	CacheDir string `yaml:"cache_dir"`
	NoCache  bool   `yaml:"no_cache"`

	Warn WarnConfig `yaml:"warn"`
}

// WarnConfig controls additional warning behaviour.
type WarnConfig struct {
	InterpreterMismatch bool `yaml:"interpreter_mismatch"`
}

const (
	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"
)

// Default returns the baseline configuration used when no flags or config
// file specify values.
func Default() Config {
	return Config{
		Format:  FormatPretty,
		Retries: 3,
		Warn: WarnConfig{
			InterpreterMismatch: true,
		},
	}
}

// Load reads .travrun.yml from the repository root when present. Missing
// files are ignored.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, ".travrun.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	return merge(cfg, fileCfg), nil
}

func merge(base, override Config) Config {
	out := base

	if override.Manifest != "" {
		out.Manifest = override.Manifest
	}
	if len(override.Pythons) > 0 {
		out.Pythons = append([]string{}, override.Pythons...)
	}
	if len(override.OnlySteps) > 0 {
		out.OnlySteps = append([]string{}, override.OnlySteps...)
	}
	if len(override.SkipSteps) > 0 {
		out.SkipSteps = append([]string{}, override.SkipSteps...)
	}
	if override.Tag != "" {
		out.Tag = override.Tag
	}
	if override.Branch != "" {
		out.Branch = override.Branch
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.Retries > 0 {
		out.Retries = override.Retries
	}
	if override.CacheDir != "" {
		out.CacheDir = override.CacheDir
	}
	if override.Sequential {
		out.Sequential = true
	}
	if override.DryRun {
		out.DryRun = true
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.NoCache {
		out.NoCache = true
	}
	if override.Warn.InterpreterMismatch {
		out.Warn.InterpreterMismatch = true
	}

	return out
}

// ApplyFlags mutates cfg by applying values from CLI flags when present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.Manifest.Set {
		cfg.Manifest = flags.Manifest.Value
	}
	if len(flags.Pythons.Values) > 0 {
		cfg.Pythons = append([]string{}, flags.Pythons.Values...)
	}
	if len(flags.OnlySteps.Values) > 0 {
		cfg.OnlySteps = append([]string{}, flags.OnlySteps.Values...)
	}
	if len(flags.SkipSteps.Values) > 0 {
		cfg.SkipSteps = append([]string{}, flags.SkipSteps.Values...)
	}
	if flags.Tag.Set {
		cfg.Tag = flags.Tag.Value
	}
	if flags.Branch.Set {
		cfg.Branch = flags.Branch.Value
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.Retries.Set {
		cfg.Retries = flags.Retries.Value
	}
	if flags.CacheDir.Set {
		cfg.CacheDir = flags.CacheDir.Value
	}
	if flags.Sequential.Set {
		cfg.Sequential = flags.Sequential.Value
	}
	if flags.DryRun.Set {
		cfg.DryRun = flags.DryRun.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
	if flags.NoCache.Set {
		cfg.NoCache = flags.NoCache.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag
// was set explicitly.
type FlagValues struct {
	Manifest   StringFlag
	Pythons    SliceFlag
	OnlySteps  SliceFlag
	SkipSteps  SliceFlag
	Tag        StringFlag
	Branch     StringFlag
	Format     StringFlag
	Retries    IntFlag
	CacheDir   StringFlag
	Sequential BoolFlag
	DryRun     BoolFlag
	Verbose    BoolFlag
	NoCache    BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// IntFlag represents an int flag and whether it was set.
type IntFlag struct {
	Value int
	Set   bool
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}
