package main

import (
	"fmt"
	"strings"

	"github.com/askeland/travrun/internal/build"
	"github.com/askeland/travrun/internal/config"
	"github.com/askeland/travrun/internal/output"
	"github.com/askeland/travrun/internal/report"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the expanded matrix and steps without executing",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
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

	warnings := collapseWarnings(m.Warnings)
	if m.Git.DepthSet && m.Git.FullDepth {
		warnings = append(warnings, "git: manifest asks for a full-depth clone; the local checkout is used as-is")
	}

	switch strings.ToLower(cfg.Format) {
	case config.FormatPretty:
		renderer := output.NewPretty(cmd.OutOrStdout())
		if err := renderer.RenderPlan(plan); err != nil {
			return err
		}
		for _, msg := range warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
		}
	case config.FormatJSON:
		jsonReport := output.Report{
			Manifest: m.Path,
			Matrix:   m.Versions,
			Summary:  computeListSummary(plan),
			Warnings: warnings,
		}
		renderer := output.NewJSON(cmd.OutOrStdout())
		if err := renderer.Render(jsonReport); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}

	return nil
}

func computeListSummary(plan *build.Plan) report.Summary {
	summary := report.Summary{TotalRuns: len(plan.Runs)}
	for _, run := range plan.Runs {
		summary.TotalSteps += len(run.Steps)
	}
	return summary
}
