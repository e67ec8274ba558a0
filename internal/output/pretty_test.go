package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/askeland/travrun/internal/build"
	"github.com/askeland/travrun/internal/matrix"
	"github.com/askeland/travrun/internal/report"
)

func TestRenderPlan(t *testing.T) {
	plan := &build.Plan{
		Runs: []build.Run{
			{
				Entry: matrix.Entry{Version: "3.6", Interpreter: "python3.6"},
				Steps: []build.Step{
					{Phase: build.PhaseInstall, Command: "pip install -r requirements.txt", Retry: true},
					{Phase: build.PhaseScript, Command: "pytest"},
				},
			},
		},
		Deploy: &build.DeployStage{Provider: "pypi", Condition: "tag IS present"},
	}

	var buf bytes.Buffer
	if err := NewPretty(&buf).RenderPlan(plan); err != nil {
		t.Fatalf("RenderPlan: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Matrix 3.6 (python3.6)",
		"install: pip install -r requirements.txt [retryable]",
		"script: pytest",
		"Deploy pypi (if tag IS present)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "pytest [retryable]") {
		t.Errorf("script step must not be marked retryable:\n%s", out)
	}
}

func TestRenderPlanUnconditionalDeploy(t *testing.T) {
	plan := &build.Plan{
		Deploy: &build.DeployStage{Provider: "script"},
	}

	var buf bytes.Buffer
	if err := NewPretty(&buf).RenderPlan(plan); err != nil {
		t.Fatalf("RenderPlan: %v", err)
	}
	if !strings.Contains(buf.String(), "Deploy script (if always (after matrix success))") {
		t.Errorf("unexpected deploy line:\n%s", buf.String())
	}
}

func TestRenderResults(t *testing.T) {
	runs := []report.RunResult{
		{
			Runtime: "3.6",
			Status:  report.StatusSucceeded,
			Steps: []report.StepResult{
				{Phase: "install", Command: "pip install .", Status: report.StatusSucceeded, Attempts: 2},
				{Phase: "script", Command: "pytest", Status: report.StatusSucceeded},
			},
		},
		{
			Runtime: "2.7",
			Status:  report.StatusFailed,
			Steps: []report.StepResult{
				{Phase: "script", Command: "pytest", Status: report.StatusFailed, Stderr: "boom"},
			},
			Warnings: []string{"after_success skipped"},
		},
	}
	deployResult := &report.DeployResult{
		Provider: "pypi",
		Status:   report.StatusSkipped,
		Reason:   "matrix runs did not all succeed",
	}
	summary := report.Summary{
		TotalRuns: 2, RunsPassed: 1, RunsFailed: 1,
		TotalSteps: 3, StepsPassed: 2, StepsFailed: 1,
		Duration: 1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	if err := NewPretty(&buf).RenderResults(runs, deployResult, summary); err != nil {
		t.Fatalf("RenderResults: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Matrix 3.6: succeeded",
		"attempts: 2",
		"Matrix 2.7: failed",
		"✗ pytest",
		"stderr: boom",
		"warning: after_success skipped",
		"Deploy pypi: skipped (matrix runs did not all succeed)",
		"SUMMARY: 2 run(s): 1 succeeded, 1 failed; 3 step(s): 2 passed, 1 failed, 0 skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStatusGlyph(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{report.StatusSucceeded, "✓"},
		{report.StatusPublished, "✓"},
		{report.StatusFailed, "✗"},
		{report.StatusSkipped, "-"},
		{report.StatusPending, "?"},
	}
	for _, tt := range tests {
		if got := statusGlyph(tt.status); got != tt.want {
			t.Errorf("statusGlyph(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Microsecond, "0ms"},
		{42 * time.Millisecond, "42ms"},
		{1500 * time.Millisecond, "1.5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
