package main

import (
	"fmt"

	"github.com/askeland/travrun/internal/config"
	"github.com/spf13/cobra"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	if flags.Changed("manifest") {
		v, err := flags.GetString("manifest")
		if err != nil {
			return values, fmt.Errorf("parse --manifest: %w", err)
		}
		values.Manifest = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("python") {
		v, err := flags.GetStringArray("python")
		if err != nil {
			return values, fmt.Errorf("parse --python: %w", err)
		}
		values.Pythons = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("only-step") {
		v, err := flags.GetStringArray("only-step")
		if err != nil {
			return values, fmt.Errorf("parse --only-step: %w", err)
		}
		values.OnlySteps = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("skip-step") {
		v, err := flags.GetStringArray("skip-step")
		if err != nil {
			return values, fmt.Errorf("parse --skip-step: %w", err)
		}
		values.SkipSteps = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("tag") {
		v, err := flags.GetString("tag")
		if err != nil {
			return values, fmt.Errorf("parse --tag: %w", err)
		}
		values.Tag = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("branch") {
		v, err := flags.GetString("branch")
		if err != nil {
			return values, fmt.Errorf("parse --branch: %w", err)
		}
		values.Branch = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("format") {
		v, err := flags.GetString("format")
		if err != nil {
			return values, fmt.Errorf("parse --format: %w", err)
		}
		values.Format = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("retries") {
		v, err := flags.GetInt("retries")
		if err != nil {
			return values, fmt.Errorf("parse --retries: %w", err)
		}
		values.Retries = config.IntFlag{Value: v, Set: true}
	}

	if flags.Changed("cache-dir") {
		v, err := flags.GetString("cache-dir")
		if err != nil {
			return values, fmt.Errorf("parse --cache-dir: %w", err)
		}
		values.CacheDir = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("sequential") {
		v, err := flags.GetBool("sequential")
		if err != nil {
			return values, fmt.Errorf("parse --sequential: %w", err)
		}
		values.Sequential = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("dry-run") {
		v, err := flags.GetBool("dry-run")
		if err != nil {
			return values, fmt.Errorf("parse --dry-run: %w", err)
		}
		values.DryRun = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return values, fmt.Errorf("parse --verbose: %w", err)
		}
		values.Verbose = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("no-cache") {
		v, err := flags.GetBool("no-cache")
		if err != nil {
			return values, fmt.Errorf("parse --no-cache: %w", err)
		}
		values.NoCache = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}
