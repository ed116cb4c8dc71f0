package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Cache stores synthesized audio on disk under content-addressed names, so
// identical (text, voice, rate, pitch) tuples always resolve to the same file.
// Entries are never invalidated automatically; Clear removes them all.
type Cache struct {
	dir string
}

func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Fingerprint returns the deterministic cache key for a synthesis request.
func Fingerprint(req Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s",
		req.Text,
		req.Voice,
		strconv.FormatFloat(req.Rate, 'f', -1, 64),
		strconv.FormatFloat(req.Pitch, 'f', -1, 64),
	)
	return hex.EncodeToString(h.Sum(nil))
}

// Path returns where the entry for fingerprint fp lives, whether or not it exists.
func (c *Cache) Path(fp string) string {
	return filepath.Join(c.dir, fp+".mp3")
}

// Lookup returns the stored path for fp and whether it exists.
func (c *Cache) Lookup(fp string) (string, bool) {
	path := c.Path(fp)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Store persists audio under fp and returns its path. A concurrent Store for
// the same fingerprint is harmless: both write identical content and the last
// write wins.
func (c *Cache) Store(fp string, audio []byte) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	path := c.Path(fp)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("failed to write cache entry: %w", err)
	}
	return path, nil
}

// Clear removes every cached entry.
func (c *Cache) Clear() error {
	entries, err := filepath.Glob(filepath.Join(c.dir, "*.mp3"))
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}
	for _, path := range entries {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}
