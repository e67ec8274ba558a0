// Package gitinfo resolves the build metadata that deploy gates inspect:
// the tag the build is associated with, if any, and the current branch.
package gitinfo

import (
	"bytes"
	"os/exec"
	"strings"
)

// Build is the repository metadata a pipeline run is associated with.
type Build struct {
	Tag    string
	Branch string
}

// Resolve determines tag and branch with decreasing precedence: explicit
// values, TRAVIS_TAG/TRAVIS_BRANCH environment variables, then git itself.
// Git probes are best-effort; a repository without tags simply yields an
// empty tag.
func Resolve(root, explicitTag, explicitBranch string, lookupEnv func(string) string) Build {
	build := Build{Tag: explicitTag, Branch: explicitBranch}

	if build.Tag == "" && lookupEnv != nil {
		build.Tag = lookupEnv("TRAVIS_TAG")
	}
	if build.Branch == "" && lookupEnv != nil {
		build.Branch = lookupEnv("TRAVIS_BRANCH")
	}

	if build.Tag == "" {
		build.Tag = gitOutput(root, "describe", "--exact-match", "--tags")
	}
	if build.Branch == "" {
		build.Branch = gitOutput(root, "rev-parse", "--abbrev-ref", "HEAD")
	}
	if build.Branch == "HEAD" {
		// Detached checkouts have no branch name.
		build.Branch = ""
	}
	return build
}

func gitOutput(root string, args ...string) string {
	cmd := exec.Command("git", args...)
	cmd.Dir = root
	var buf bytes.Buffer
	cmd.Stdout = &buf
	if err := cmd.Run(); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}
