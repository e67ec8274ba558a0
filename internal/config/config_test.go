package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Format != FormatPretty {
		t.Fatalf("default format = %q", cfg.Format)
	}
	if cfg.Retries != 3 {
		t.Fatalf("default retries = %d", cfg.Retries)
	}
	if !cfg.Warn.InterpreterMismatch {
		t.Fatalf("interpreter mismatch warning should default on")
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Format != FormatPretty || cfg.Retries != 3 {
		t.Fatalf("missing config should yield defaults, got %+v", cfg)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	root := t.TempDir()
	content := `
manifest: ci/.travis.yml
python:
  - "3.6"
format: json
retries: 5
sequential: true
cache_dir: /tmp/travrun-cache
`
	if err := os.WriteFile(filepath.Join(root, ".travrun.yml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Manifest != "ci/.travis.yml" {
		t.Errorf("manifest = %q", cfg.Manifest)
	}
	if len(cfg.Pythons) != 1 || cfg.Pythons[0] != "3.6" {
		t.Errorf("pythons = %v", cfg.Pythons)
	}
	if cfg.Format != FormatJSON {
		t.Errorf("format = %q", cfg.Format)
	}
	if cfg.Retries != 5 {
		t.Errorf("retries = %d", cfg.Retries)
	}
	if !cfg.Sequential {
		t.Errorf("sequential not merged")
	}
	if cfg.CacheDir != "/tmp/travrun-cache" {
		t.Errorf("cache_dir = %q", cfg.CacheDir)
	}
	if !cfg.Warn.InterpreterMismatch {
		t.Errorf("warn default lost in merge")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".travrun.yml"), []byte("format: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(root); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := Default()
	cfg.Format = FormatJSON

	ApplyFlags(&cfg, FlagValues{
		Manifest:   StringFlag{Value: "other.yml", Set: true},
		Pythons:    SliceFlag{Values: []string{"2.7", "3.6"}},
		Tag:        StringFlag{Value: "v1.0", Set: true},
		Format:     StringFlag{Value: FormatPretty, Set: true},
		Retries:    IntFlag{Value: 1, Set: true},
		DryRun:     BoolFlag{Value: true, Set: true},
		Sequential: BoolFlag{Value: true, Set: true},
	})

	if cfg.Manifest != "other.yml" {
		t.Errorf("manifest = %q", cfg.Manifest)
	}
	if len(cfg.Pythons) != 2 {
		t.Errorf("pythons = %v", cfg.Pythons)
	}
	if cfg.Tag != "v1.0" {
		t.Errorf("tag = %q", cfg.Tag)
	}
	if cfg.Format != FormatPretty {
		t.Errorf("flag should override file format, got %q", cfg.Format)
	}
	if cfg.Retries != 1 {
		t.Errorf("retries = %d", cfg.Retries)
	}
	if !cfg.DryRun || !cfg.Sequential {
		t.Errorf("bool flags not applied: %+v", cfg)
	}
}

func TestApplyFlagsLeavesUnsetValues(t *testing.T) {
	cfg := Default()
	cfg.Tag = "v0.1"

	ApplyFlags(&cfg, FlagValues{})

	if cfg.Tag != "v0.1" {
		t.Errorf("unset flag overwrote tag: %q", cfg.Tag)
	}
	if cfg.Retries != 3 {
		t.Errorf("unset flag overwrote retries: %d", cfg.Retries)
	}
}
