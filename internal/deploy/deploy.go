// Package deploy implements the gated release stage: a single task that
// joins on every matrix run succeeding and on the manifest's gate
// condition before publishing the built artifact.
package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/askeland/travrun/internal/build"
	"github.com/askeland/travrun/internal/manifest"
	"github.com/askeland/travrun/internal/report"
	"github.com/askeland/travrun/internal/runner"
)

// Options configure deploy stage execution.
type Options struct {
	Root      string
	Stdout    io.Writer
	Stderr    io.Writer
	Verbose   bool
	DryRun    bool
	Env       []string
	LookupEnv func(string) string
	Now       func() time.Time
}

// Execute evaluates the deploy gate and, when it opens, publishes through
// the stage's provider. A closed gate yields a skipped result, never a
// failure; publish errors fail the stage only.
func Execute(ctx context.Context, stage *build.DeployStage, bctx manifest.BuildContext, allRunsSucceeded bool, opts Options) report.DeployResult {
	opts = withDefaults(opts)
	result := report.DeployResult{
		Provider: stage.Provider,
		Status:   string(build.StateGated),
	}
	start := opts.Now()
	defer func() {
		result.Duration = opts.Now().Sub(start)
		result.DurationMS = result.Duration.Milliseconds()
	}()

	if !allRunsSucceeded {
		result.Status = report.StatusSkipped
		result.Reason = "matrix runs did not all succeed"
		return result
	}

	// An absent condition leaves the gate open once the matrix is green.
	if stage.Condition != "" {
		met, err := manifest.EvaluateCondition(stage.Condition, bctx)
		if err != nil {
			result.Status = report.StatusFailed
			result.Reason = fmt.Sprintf("gate condition: %v", err)
			return result
		}
		if !met {
			result.Status = report.StatusSkipped
			result.Reason = fmt.Sprintf("condition %q not met", stage.Condition)
			return result
		}
	}

	commands, credentials, err := providerPlan(stage, opts.LookupEnv)
	if err != nil {
		result.Status = report.StatusFailed
		result.Reason = err.Error()
		return result
	}

	if opts.DryRun {
		for _, command := range commands {
			result.Steps = append(result.Steps, report.StepResult{
				Phase:   "deploy",
				Command: command,
				Status:  report.StatusSkipped,
				DryRun:  true,
			})
		}
		result.Status = report.StatusSkipped
		result.Reason = "dry run"
		return result
	}

	result.Status = string(build.StateRunning)
	env := opts.Env
	if len(credentials) > 0 {
		env = append(append([]string{}, env...), credentials...)
	}

	for _, command := range commands {
		stepResult := report.StepResult{Phase: "deploy", Command: command}
		stepStart := opts.Now()
		req := runner.ShellRequest{Dir: opts.Root, Command: command, Env: env}
		if opts.Verbose {
			req.Stdout = opts.Stdout
			req.Stderr = opts.Stderr
		}
		shellResult, runErr := runner.Shell(ctx, req)
		stepResult.Duration = opts.Now().Sub(stepStart)
		stepResult.DurationMS = stepResult.Duration.Milliseconds()
		stepResult.Stdout = shellResult.Stdout
		stepResult.Stderr = shellResult.Stderr
		stepResult.ExitCode = shellResult.ExitCode

		if runErr != nil {
			stepResult.Status = report.StatusFailed
			result.Steps = append(result.Steps, stepResult)
			result.Status = report.StatusFailed
			result.Reason = fmt.Sprintf("publish command %q failed (exit %d)", command, shellResult.ExitCode)
			return result
		}
		stepResult.Status = report.StatusSucceeded
		result.Steps = append(result.Steps, stepResult)
	}

	result.Status = report.StatusPublished
	return result
}

// providerPlan resolves the publish commands for the stage's provider and
// the credential environment entries they require.
func providerPlan(stage *build.DeployStage, lookupEnv func(string) string) ([]string, []string, error) {
	switch strings.ToLower(stage.Provider) {
	case "pypi":
		user, err := resolveCredential("user", stage.User, lookupEnv)
		if err != nil {
			return nil, nil, err
		}
		password, err := resolveCredential("password", stage.Password, lookupEnv)
		if err != nil {
			return nil, nil, err
		}
		// Credentials ride in twine's environment, never on the command line.
		credentials := []string{
			"TWINE_USERNAME=" + user,
			"TWINE_PASSWORD=" + password,
		}
		commands := []string{
			"python setup.py sdist bdist_wheel",
			"twine upload dist/*",
		}
		return commands, credentials, nil
	case "script":
		if stage.Script == "" {
			return nil, nil, fmt.Errorf("script provider requires a script command")
		}
		return []string{stage.Script}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported deploy provider %q", stage.Provider)
	}
}

// resolveCredential turns a $NAME environment reference (or literal) into
// its value, failing when the variable is unset or empty.
func resolveCredential(field, ref string, lookupEnv func(string) string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("deploy %s is not configured", field)
	}
	if !strings.HasPrefix(ref, "$") {
		return ref, nil
	}
	name := strings.TrimPrefix(ref, "$")
	name = strings.TrimPrefix(name, "{")
	name = strings.TrimSuffix(name, "}")
	value := lookupEnv(name)
	if value == "" {
		return "", fmt.Errorf("deploy credential %s references unset variable %s", field, name)
	}
	return value, nil
}

func withDefaults(opts Options) Options {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.Getenv
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}
