// Package build turns a parsed manifest and an expanded matrix into an
// executable pipeline plan: one phased run per matrix entry plus an
// optional gated deploy stage.
package build

import (
	"github.com/askeland/travrun/internal/manifest"
	"github.com/askeland/travrun/internal/matrix"
)

// Phase names the step classes of a run, in execution order.
type Phase string

const (
	PhaseInstall      Phase = "install"
	PhaseScript       Phase = "script"
	PhaseAfterSuccess Phase = "after_success"
)

// Step is one planned shell command. Retry is only ever set on install
// steps; the parser downgrades it elsewhere.
type Step struct {
	Phase   Phase
	Command string
	Retry   bool
}

// Run is the planned pipeline for a single matrix entry.
type Run struct {
	Entry matrix.Entry
	Steps []Step
	Env   map[string]string
}

// DeployStage is the planned gated release stage.
type DeployStage struct {
	Provider  string
	Condition string
	User      string
	Password  string
	Script    string
}

// Plan is the full build: independent matrix runs and at most one deploy
// stage that joins on all of them succeeding.
type Plan struct {
	Runs   []Run
	Deploy *DeployStage
	Cache  manifest.Cache
}

// New assembles the plan for the given manifest and matrix entries.
func New(m *manifest.Manifest, entries []matrix.Entry) *Plan {
	plan := &Plan{Cache: m.Cache}

	for _, entry := range entries {
		run := Run{Entry: entry, Env: m.Env}
		run.Steps = appendSteps(run.Steps, PhaseInstall, m.Install)
		run.Steps = appendSteps(run.Steps, PhaseScript, m.Script)
		run.Steps = appendSteps(run.Steps, PhaseAfterSuccess, m.AfterSuccess)
		plan.Runs = append(plan.Runs, run)
	}

	if m.Deploy != nil {
		plan.Deploy = &DeployStage{
			Provider:  m.Deploy.Provider,
			Condition: m.Deploy.GateCondition(),
			User:      m.Deploy.User,
			Password:  m.Deploy.Password,
			Script:    m.Deploy.Script,
		}
	}

	return plan
}

func appendSteps(steps []Step, phase Phase, source []manifest.Step) []Step {
	for _, step := range source {
		planned := Step{Phase: phase, Command: step.Run}
		if phase == PhaseInstall {
			planned.Retry = step.Retry
		}
		steps = append(steps, planned)
	}
	return steps
}

// FilterSteps keeps steps matching the only patterns and not matching the
// skip patterns. The after_success phase is exempt from only-filtering so
// coverage reporting still runs when a single script step is selected.
func (p *Plan) FilterSteps(only, skip []matrix.Pattern) {
	if len(only) == 0 && len(skip) == 0 {
		return
	}
	for i := range p.Runs {
		filtered := make([]Step, 0, len(p.Runs[i].Steps))
		for _, step := range p.Runs[i].Steps {
			if len(only) > 0 && step.Phase != PhaseAfterSuccess && !matchesAny(only, step.Command) {
				continue
			}
			if len(skip) > 0 && matchesAny(skip, step.Command) {
				continue
			}
			filtered = append(filtered, step)
		}
		p.Runs[i].Steps = filtered
	}
}

func matchesAny(patterns []matrix.Pattern, s string) bool {
	for _, p := range patterns {
		if p.Match(s) {
			return true
		}
	}
	return false
}
