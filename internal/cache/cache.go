// Package cache stores dependency directories between pipeline runs,
// keyed by the manifest's cache identifier. Every matrix entry restores
// from the same key before its install phase and writes back after a
// successful install; both directions are best-effort.
package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Cache is a filesystem-backed dependency cache rooted at Dir.
//
// Layout: {Dir}/{key}/{slot}/... where each slot mirrors one cached
// directory tree.
type Cache struct {
	Dir string

	mu sync.Mutex
}

// New creates a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{Dir: dir}
}

// DefaultDirs returns the directories a well-known cache key covers.
func DefaultDirs(key string) []string {
	switch key {
	case "pip":
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		return []string{filepath.Join(home, ".cache", "pip")}
	default:
		return nil
	}
}

// Restore copies cached trees for key back into dirs. A missing cache
// entry is not an error; the first install simply runs cold.
func (c *Cache) Restore(key string, dirs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for slot, dir := range dirs {
		src := c.slotPath(key, slot)
		if _, err := os.Stat(src); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("stat cache slot %q: %w", src, err)
		}
		if err := copyTree(src, dir); err != nil {
			return fmt.Errorf("restore cache %q: %w", key, err)
		}
	}
	return nil
}

// Save writes the current contents of dirs into the cache under key,
// replacing whatever was stored before.
func (c *Cache) Save(key string, dirs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for slot, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("stat %q: %w", dir, err)
		}
		dst := c.slotPath(key, slot)
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("clear cache slot %q: %w", dst, err)
		}
		if err := copyTree(dir, dst); err != nil {
			return fmt.Errorf("save cache %q: %w", key, err)
		}
	}
	return nil
}

func (c *Cache) slotPath(key string, slot int) string {
	return filepath.Join(c.Dir, key, fmt.Sprintf("%d", slot))
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !entry.Type().IsRegular() {
			// Symlinks and devices are not cached.
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
