// Package runner executes pipeline plans: every matrix entry's run is
// independent and non-cancelling, steps within a run are strictly
// sequential and fail fast.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/askeland/travrun/internal/build"
	"github.com/askeland/travrun/internal/cache"
	"github.com/askeland/travrun/internal/report"
	"github.com/askeland/travrun/internal/version"
)

// DefaultRetries is the total attempt budget for retryable install steps,
// matching the travis_retry contract.
const DefaultRetries = 3

// Options configure how the runner executes pipeline runs.
type Options struct {
	Root       string
	Stdout     io.Writer
	Stderr     io.Writer
	Verbose    bool
	DryRun     bool
	Sequential bool
	TailLines  int
	Retries    int
	Env        []string
	Now        func() time.Time

	// Cache is optional; when set together with a plan cache key, install
	// phases restore from and save to it.
	Cache *cache.Cache

	// CheckInterpreter probes each entry's interpreter before running and
	// records a warning when it is missing or mismatched.
	CheckInterpreter bool
}

// Runner executes the matrix runs of a plan.
type Runner struct {
	opts Options
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{opts: opts}
}

// Run executes every run in the plan and aggregates a summary. Matrix runs
// are independent: a failure in one never aborts the others.
func (r *Runner) Run(ctx context.Context, plan *build.Plan) ([]report.RunResult, report.Summary, error) {
	results := make([]report.RunResult, len(plan.Runs))

	if r.opts.Sequential {
		for i, run := range plan.Runs {
			results[i] = r.runOne(ctx, plan, run)
		}
	} else {
		var wg sync.WaitGroup
		for i, run := range plan.Runs {
			wg.Add(1)
			go func(i int, run build.Run) {
				defer wg.Done()
				results[i] = r.runOne(ctx, plan, run)
			}(i, run)
		}
		wg.Wait()
	}

	return results, summarize(results), nil
}

func (r *Runner) runOne(ctx context.Context, plan *build.Plan, run build.Run) report.RunResult {
	result := report.RunResult{
		Runtime: run.Entry.Version,
		Status:  string(build.StatePending),
	}
	start := r.opts.Now()
	defer func() {
		result.Duration = r.opts.Now().Sub(start)
		result.DurationMS = result.Duration.Milliseconds()
	}()

	if r.opts.DryRun {
		for _, step := range run.Steps {
			result.Steps = append(result.Steps, report.StepResult{
				Runtime: run.Entry.Version,
				Phase:   string(step.Phase),
				Command: step.Command,
				Status:  report.StatusSkipped,
				DryRun:  true,
			})
		}
		result.Status = report.StatusSkipped
		return result
	}

	state, err := build.Transition(build.StatePending, build.StateRunning)
	if err != nil {
		result.Status = report.StatusFailed
		result.Warnings = append(result.Warnings, err.Error())
		return result
	}
	result.Status = string(state)

	if r.opts.CheckInterpreter {
		if warning := probeInterpreter(run.Entry.Interpreter, run.Entry.Version); warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
	}

	cacheDirs := r.restoreCache(plan, &result)

	env := mergeEnv(r.opts.Env, run.Env, map[string]string{
		"TRAVIS_BUILD_DIR":      r.opts.Root,
		"TRAVIS_PYTHON_VERSION": run.Entry.Version,
	})

	failed := false
	installClean := true
	for _, step := range run.Steps {
		if step.Phase == build.PhaseAfterSuccess {
			if failed {
				result.Steps = append(result.Steps, skippedStep(run, step))
				continue
			}
			stepResult := r.executeStep(ctx, run, step, env, 1)
			if stepResult.Status == report.StatusFailed {
				// Coverage reporting and friends never change the verdict.
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("after_success command %q failed (exit %d); run verdict unchanged", step.Command, stepResult.ExitCode))
			}
			result.Steps = append(result.Steps, stepResult)
			continue
		}

		if failed {
			result.Steps = append(result.Steps, skippedStep(run, step))
			continue
		}

		budget := 1
		if step.Retry && step.Phase == build.PhaseInstall {
			budget = r.opts.Retries
		}
		stepResult := r.executeStep(ctx, run, step, env, budget)
		result.Steps = append(result.Steps, stepResult)
		if stepResult.Status == report.StatusFailed {
			failed = true
			if step.Phase == build.PhaseInstall {
				installClean = false
			}
		}
	}

	if installClean && !failed {
		r.saveCache(plan, cacheDirs, &result)
	}

	final := build.StateSucceeded
	if failed {
		final = build.StateFailed
	}
	state, err = build.Transition(state, final)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.Status = string(state)
	return result
}

func (r *Runner) executeStep(ctx context.Context, run build.Run, step build.Step, env []string, budget int) report.StepResult {
	result := report.StepResult{
		Runtime: run.Entry.Version,
		Phase:   string(step.Phase),
		Command: step.Command,
	}

	start := r.opts.Now()
	var shellResult ShellResult
	var err error
	for attempt := 1; attempt <= budget; attempt++ {
		result.Attempts = attempt
		req := ShellRequest{Dir: r.opts.Root, Command: step.Command, Env: env}
		if r.opts.Verbose {
			req.Stdout = r.opts.Stdout
			req.Stderr = r.opts.Stderr
		}
		shellResult, err = Shell(ctx, req)
		if err == nil {
			break
		}
	}
	result.Duration = r.opts.Now().Sub(start)
	result.DurationMS = result.Duration.Milliseconds()
	result.Stdout = tailLines(shellResult.Stdout, r.opts.TailLines)
	result.Stderr = tailLines(shellResult.Stderr, r.opts.TailLines)
	result.ExitCode = shellResult.ExitCode

	if err != nil {
		result.Status = report.StatusFailed
	} else {
		result.Status = report.StatusSucceeded
	}
	return result
}

func (r *Runner) restoreCache(plan *build.Plan, result *report.RunResult) []string {
	if r.opts.Cache == nil || !plan.Cache.Enabled() {
		return nil
	}
	dirs := plan.Cache.Directories
	if len(dirs) == 0 {
		dirs = cache.DefaultDirs(plan.Cache.Key)
	}
	if len(dirs) == 0 {
		return nil
	}
	if err := r.opts.Cache.Restore(plan.Cache.Key, dirs); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("cache restore: %v", err))
	}
	return dirs
}

func (r *Runner) saveCache(plan *build.Plan, dirs []string, result *report.RunResult) {
	if r.opts.Cache == nil || len(dirs) == 0 {
		return
	}
	if err := r.opts.Cache.Save(plan.Cache.Key, dirs); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("cache save: %v", err))
	}
}

func probeInterpreter(interpreter, required string) string {
	info, err := version.DetectPython(interpreter)
	if err != nil {
		if version.Missing(err) {
			return fmt.Sprintf("interpreter %s not found; steps run with it may fail", interpreter)
		}
		return fmt.Sprintf("unable to detect %s version: %v", interpreter, err)
	}
	if !version.CompareMajorMinor(required, info.Version) {
		return fmt.Sprintf("interpreter version mismatch: matrix declares %s but %s reports %s", required, interpreter, info.Version)
	}
	return ""
}

func skippedStep(run build.Run, step build.Step) report.StepResult {
	return report.StepResult{
		Runtime: run.Entry.Version,
		Phase:   string(step.Phase),
		Command: step.Command,
		Status:  report.StatusSkipped,
	}
}

func summarize(results []report.RunResult) report.Summary {
	summary := report.Summary{TotalRuns: len(results)}
	for _, run := range results {
		switch run.Status {
		case report.StatusFailed:
			summary.RunsFailed++
		case report.StatusSucceeded:
			summary.RunsPassed++
		}
		for _, step := range run.Steps {
			summary.TotalSteps++
			switch step.Status {
			case report.StatusSucceeded:
				summary.StepsPassed++
			case report.StatusFailed:
				summary.StepsFailed++
			case report.StatusSkipped:
				summary.StepsSkipped++
			}
			summary.Duration += step.Duration
		}
	}
	summary.DurationMS = summary.Duration.Milliseconds()
	if summary.RunsFailed > 0 {
		summary.ExitCode = 1
	}
	return summary
}
