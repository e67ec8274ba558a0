package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoManifest indicates that no CI manifest was found at the root.
var ErrNoManifest = errors.New("no manifest discovered")

var defaultNames = []string{".travis.yml", ".travis.yaml"}

// Manifest returns the manifest path for a repository. An explicit path is
// validated and returned as given; otherwise the well-known manifest names
// are probed at the root.
func Manifest(root, explicit string) (string, error) {
	if explicit != "" {
		return resolveExplicit(root, explicit)
	}

	for _, name := range defaultNames {
		candidate := filepath.Join(root, name)
		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("stat %q: %w", candidate, err)
		}
		if info.IsDir() {
			continue
		}
		return mustRelOrClean(root, candidate), nil
	}
	return "", ErrNoManifest
}

func resolveExplicit(root, explicit string) (string, error) {
	cleaned := explicit
	if !filepath.IsAbs(cleaned) {
		cleaned = filepath.Join(root, cleaned)
	}
	info, err := os.Stat(cleaned)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("manifest %q not found", explicit)
		}
		return "", fmt.Errorf("stat %q: %w", explicit, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("manifest %q is a directory", explicit)
	}
	return mustRelOrClean(root, cleaned), nil
}

func mustRelOrClean(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Clean(path)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
