package matrix

import (
	"fmt"
	"strings"
)

// Entry is one expanded matrix job: a declared runtime version and the
// interpreter executable it implies on the local machine.
type Entry struct {
	Version     string `json:"version"`
	Interpreter string `json:"interpreter"`
}

// Expand produces exactly one Entry per declared version, in declaration
// order. Duplicate versions are rejected.
func Expand(language string, versions []string) ([]Entry, error) {
	if len(versions) == 0 {
		return nil, fmt.Errorf("empty runtime matrix")
	}
	seen := make(map[string]struct{}, len(versions))
	entries := make([]Entry, 0, len(versions))
	for _, version := range versions {
		version = strings.TrimSpace(version)
		if version == "" {
			return nil, fmt.Errorf("blank runtime version in matrix")
		}
		if _, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate runtime version %q in matrix", version)
		}
		seen[version] = struct{}{}
		entries = append(entries, Entry{
			Version:     version,
			Interpreter: interpreterFor(language, version),
		})
	}
	return entries, nil
}

func interpreterFor(language, version string) string {
	switch strings.ToLower(language) {
	case "python", "":
		return "python" + version
	default:
		return strings.ToLower(language)
	}
}
