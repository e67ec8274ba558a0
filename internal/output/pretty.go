package output

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/askeland/travrun/internal/build"
	"github.com/askeland/travrun/internal/report"
)

// PrettyRenderer renders execution results in a human-friendly format.
type PrettyRenderer struct {
	out io.Writer
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out}
}

// RenderPlan renders the expanded matrix and deploy stage in list mode.
func (p *PrettyRenderer) RenderPlan(plan *build.Plan) error {
	for _, run := range plan.Runs {
		if _, err := fmt.Fprintf(p.out, "Matrix %s (%s)\n", run.Entry.Version, run.Entry.Interpreter); err != nil {
			return err
		}
		for _, step := range run.Steps {
			suffix := ""
			if step.Retry {
				suffix = " [retryable]"
			}
			if _, err := fmt.Fprintf(p.out, "  %s: %s%s\n", step.Phase, step.Command, suffix); err != nil {
				return err
			}
		}
	}
	if plan.Deploy != nil {
		gate := plan.Deploy.Condition
		if gate == "" {
			gate = "always (after matrix success)"
		}
		if _, err := fmt.Fprintf(p.out, "Deploy %s (if %s)\n", plan.Deploy.Provider, gate); err != nil {
			return err
		}
	}
	if plan.Cache.Enabled() {
		if _, err := fmt.Fprintf(p.out, "Cache %s\n", plan.Cache.Key); err != nil {
			return err
		}
	}
	return nil
}

// RenderResults shows execution outcomes for all matrix runs, the deploy
// stage, and a summary line.
func (p *PrettyRenderer) RenderResults(runs []report.RunResult, deployResult *report.DeployResult, summary report.Summary) error {
	var buffer bytes.Buffer

	for _, run := range runs {
		fmt.Fprintf(&buffer, "Matrix %s: %s (%s)\n", run.Runtime, run.Status, formatDuration(run.Duration))
		for _, step := range run.Steps {
			fmt.Fprintf(&buffer, "  %s %s (%s)\n", statusGlyph(step.Status), step.Command, formatDuration(step.Duration))
			if step.Attempts > 1 {
				fmt.Fprintf(&buffer, "    attempts: %d\n", step.Attempts)
			}
			if step.Status == report.StatusFailed && step.Stderr != "" {
				fmt.Fprintf(&buffer, "    stderr: %s\n", indent(step.Stderr, "    "))
			}
			if step.DryRun {
				fmt.Fprintf(&buffer, "    command: %s\n", step.Command)
			}
		}
		for _, warning := range run.Warnings {
			fmt.Fprintf(&buffer, "  warning: %s\n", warning)
		}
	}

	if deployResult != nil {
		fmt.Fprintf(&buffer, "Deploy %s: %s", deployResult.Provider, deployResult.Status)
		if deployResult.Reason != "" {
			fmt.Fprintf(&buffer, " (%s)", deployResult.Reason)
		}
		fmt.Fprintln(&buffer)
		for _, step := range deployResult.Steps {
			fmt.Fprintf(&buffer, "  %s %s (%s)\n", statusGlyph(step.Status), step.Command, formatDuration(step.Duration))
			if step.Status == report.StatusFailed && step.Stderr != "" {
				fmt.Fprintf(&buffer, "    stderr: %s\n", indent(step.Stderr, "    "))
			}
		}
	}

	fmt.Fprintf(&buffer, "SUMMARY: %d run(s): %d succeeded, %d failed; %d step(s): %d passed, %d failed, %d skipped (%s)\n",
		summary.TotalRuns, summary.RunsPassed, summary.RunsFailed,
		summary.TotalSteps, summary.StepsPassed, summary.StepsFailed, summary.StepsSkipped,
		formatDuration(summary.Duration))

	_, err := buffer.WriteTo(p.out)
	return err
}

func statusGlyph(status string) string {
	switch status {
	case report.StatusSucceeded, report.StatusPublished:
		return "✓"
	case report.StatusFailed:
		return "✗"
	case report.StatusSkipped:
		return "-"
	default:
		return "?"
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "0ms"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}

func indent(s, prefix string) string {
	out := ""
	for i, line := range bytes.Split([]byte(s), []byte("\n")) {
		if i > 0 {
			out += "\n" + prefix
		}
		out += string(line)
	}
	return out
}
