package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/askeland/travrun/internal/cache"
	"github.com/askeland/travrun/internal/config"
	"github.com/askeland/travrun/internal/deploy"
	"github.com/askeland/travrun/internal/gitinfo"
	"github.com/askeland/travrun/internal/manifest"
	"github.com/askeland/travrun/internal/output"
	"github.com/askeland/travrun/internal/report"
	"github.com/askeland/travrun/internal/runner"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute the manifest's pipeline locally",
		RunE:  runExecute,
	}
}

func runExecute(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	plan, m, err := loadPlan(root, cfg)
	if err != nil {
		return err
	}
	if len(plan.Runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching matrix entries")
		return nil
	}

	runOpts := runner.Options{
		Root:             root,
		Stdout:           cmd.OutOrStdout(),
		Stderr:           cmd.ErrOrStderr(),
		Verbose:          cfg.Verbose,
		DryRun:           cfg.DryRun,
		Sequential:       cfg.Sequential,
		TailLines:        20,
		Retries:          cfg.Retries,
		CheckInterpreter: cfg.Warn.InterpreterMismatch,
	}
	if !cfg.NoCache && plan.Cache.Enabled() {
		dir, err := cacheDir(cfg)
		if err != nil {
			return err
		}
		runOpts.Cache = cache.New(dir)
	}

	execRunner := runner.New(runOpts)
	results, summary, err := execRunner.Run(cmd.Context(), plan)
	if err != nil {
		return err
	}

	var deployResult *report.DeployResult
	if plan.Deploy != nil {
		buildMeta := gitinfo.Resolve(root, cfg.Tag, cfg.Branch, os.Getenv)
		allSucceeded := summary.RunsFailed == 0 && (summary.RunsPassed == summary.TotalRuns || cfg.DryRun)
		dr := deploy.Execute(cmd.Context(), plan.Deploy, manifest.BuildContext{Tag: buildMeta.Tag, Branch: buildMeta.Branch}, allSucceeded, deploy.Options{
			Root:    root,
			Stdout:  cmd.OutOrStdout(),
			Stderr:  cmd.ErrOrStderr(),
			Verbose: cfg.Verbose,
			DryRun:  cfg.DryRun,
		})
		deployResult = &dr
		if dr.Status == report.StatusFailed {
			summary.ExitCode = 1
		}
	}

	warnings := collapseWarnings(m.Warnings)

	switch strings.ToLower(cfg.Format) {
	case config.FormatPretty:
		renderer := output.NewPretty(cmd.OutOrStdout())
		if err := renderer.RenderResults(results, deployResult, summary); err != nil {
			return err
		}
		for _, msg := range warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
		}
	case config.FormatJSON:
		jsonReport := output.Report{
			Manifest: m.Path,
			Matrix:   m.Versions,
			Runs:     results,
			Deploy:   deployResult,
			Summary:  summary,
			Warnings: warnings,
		}
		renderer := output.NewJSON(cmd.OutOrStdout())
		if err := renderer.Render(jsonReport); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}

	if summary.RunsFailed > 0 {
		return fmt.Errorf("one or more matrix runs failed")
	}
	if deployResult != nil && deployResult.Status == report.StatusFailed {
		return fmt.Errorf("deploy stage failed: %s", deployResult.Reason)
	}

	return nil
}

func cacheDir(cfg config.Config) (string, error) {
	if cfg.CacheDir != "" {
		return cfg.CacheDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("determine cache directory: %w", err)
	}
	return filepath.Join(base, "travrun"), nil
}
