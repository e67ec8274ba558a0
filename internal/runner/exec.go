package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
)

// ShellRequest describes one shell command invocation.
type ShellRequest struct {
	Dir     string
	Command string
	Env     []string
	// Stream writers receive output in real time when set; captured
	// output is returned either way.
	Stdout io.Writer
	Stderr io.Writer
}

// ShellResult carries the captured output and exit code of an invocation.
type ShellResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Shell runs the command through `bash -c` in req.Dir. The returned error
// is non-nil exactly when the command exited non-zero or could not start.
func Shell(ctx context.Context, req ShellRequest) (ShellResult, error) {
	cmd := exec.CommandContext(ctx, "bash", "-c", req.Command)
	cmd.Dir = req.Dir
	cmd.Env = req.Env

	var stdoutBuf, stderrBuf strings.Builder
	if req.Stdout != nil {
		cmd.Stdout = io.MultiWriter(req.Stdout, &stdoutBuf)
	} else {
		cmd.Stdout = &stdoutBuf
	}
	if req.Stderr != nil {
		cmd.Stderr = io.MultiWriter(req.Stderr, &stderrBuf)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	result := ShellResult{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: exitCode(err),
	}
	return result, err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(interface{ ExitStatus() int }); ok {
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	return 1
}

// mergeEnv flattens base KEY=VALUE pairs with overlay maps, later overlays
// winning, sorted for determinism.
func mergeEnv(base []string, overlays ...map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(overlays)*4)
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx != -1 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}
	for _, overlay := range overlays {
		for k, v := range overlay {
			envMap[k] = v
		}
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return out
}

func tailLines(input string, maxLines int) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
