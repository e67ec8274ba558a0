package output

import (
	"encoding/json"
	"io"

	"github.com/askeland/travrun/internal/report"
)

// JSONRenderer emits structured execution data.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures JSON output schema.
type Report struct {
	Manifest string               `json:"manifest"`
	Matrix   []string             `json:"matrix"`
	Runs     []report.RunResult   `json:"runs,omitempty"`
	Deploy   *report.DeployResult `json:"deploy,omitempty"`
	Summary  report.Summary       `json:"summary"`
	Warnings []string             `json:"warnings,omitempty"`
}

// Render encodes the report as JSON.
func (j *JSONRenderer) Render(report Report) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
