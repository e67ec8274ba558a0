package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/askeland/travrun/internal/build"
	"github.com/askeland/travrun/internal/config"
	"github.com/askeland/travrun/internal/discovery"
	"github.com/askeland/travrun/internal/manifest"
	"github.com/askeland/travrun/internal/matrix"
	"github.com/spf13/cobra"
)

func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return config.Config{}, "", fmt.Errorf("parse --root: %w", err)
	}
	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			return config.Config{}, "", fmt.Errorf("determine working directory: %w", err)
		}
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("resolve root %q: %w", root, err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return config.Config{}, "", err
	}

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyFlags(&cfg, flags)

	return cfg, root, nil
}

// loadPlan parses the manifest, expands and filters the matrix, and builds
// the pipeline plan.
func loadPlan(root string, cfg config.Config) (*build.Plan, *manifest.Manifest, error) {
	path, err := discovery.Manifest(root, cfg.Manifest)
	if err != nil {
		if errors.Is(err, discovery.ErrNoManifest) {
			return nil, nil, fmt.Errorf("no manifest found at %s; specify --manifest to provide one", root)
		}
		return nil, nil, err
	}

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, path)
	}
	m, err := manifest.Load(full)
	if err != nil {
		return nil, nil, err
	}
	m.Path = path

	entries, err := matrix.Expand(m.Language, m.Versions)
	if err != nil {
		return nil, nil, fmt.Errorf("manifest %q: %w", path, err)
	}

	pythonPatterns, err := matrix.Compile(cfg.Pythons)
	if err != nil {
		return nil, nil, err
	}
	entries = matrix.FilterEntries(entries, pythonPatterns)

	plan := build.New(&m, entries)

	onlyPatterns, err := matrix.Compile(cfg.OnlySteps)
	if err != nil {
		return nil, nil, err
	}
	skipPatterns, err := matrix.Compile(cfg.SkipSteps)
	if err != nil {
		return nil, nil, err
	}
	plan.FilterSteps(onlyPatterns, skipPatterns)

	return plan, &m, nil
}

func collapseWarnings(warnings []manifest.Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(warnings))
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		msg := w.Message
		if w.Field != "" {
			msg = fmt.Sprintf("%s: %s", w.Field, w.Message)
		}
		if _, ok := seen[msg]; ok {
			continue
		}
		seen[msg] = struct{}{}
		out = append(out, msg)
	}
	return out
}
