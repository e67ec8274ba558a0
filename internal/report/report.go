package report

import "time"

// Step, run and deploy statuses as rendered to users and emitted in JSON.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
	StatusPublished = "published"
)

// StepResult captures the outcome of a single shell command within a run.
type StepResult struct {
	Runtime    string        `json:"runtime"`
	Phase      string        `json:"phase"`
	Command    string        `json:"command"`
	Status     string        `json:"status"`
	Attempts   int           `json:"attempts,omitempty"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	Stdout     string        `json:"stdout,omitempty"`
	Stderr     string        `json:"stderr,omitempty"`
	ExitCode   int           `json:"exit_code"`
	DryRun     bool          `json:"dry_run,omitempty"`
}

// RunResult is the terminal record of one matrix entry's pipeline run.
type RunResult struct {
	Runtime    string        `json:"runtime"`
	Status     string        `json:"status"`
	Steps      []StepResult  `json:"steps"`
	Warnings   []string      `json:"warnings,omitempty"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// DeployResult records the deploy stage outcome. A skipped stage carries the
// reason its gate stayed closed; a failed one carries what broke.
type DeployResult struct {
	Provider   string        `json:"provider"`
	Status     string        `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	Steps      []StepResult  `json:"steps,omitempty"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// Summary aggregates the whole build.
type Summary struct {
	TotalRuns    int           `json:"total_runs"`
	RunsPassed   int           `json:"runs_passed"`
	RunsFailed   int           `json:"runs_failed"`
	TotalSteps   int           `json:"total_steps"`
	StepsPassed  int           `json:"steps_passed"`
	StepsFailed  int           `json:"steps_failed"`
	StepsSkipped int           `json:"steps_skipped"`
	Duration     time.Duration `json:"-"`
	DurationMS   int64         `json:"duration_ms"`
	ExitCode     int           `json:"exit_code"`
}
