// Package cache manages the flat directory of downloaded media files and
// their sidecar info documents. Every operation is a pure function of the
// directory's current filesystem state; there is no index to get out of sync.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	mpv_archive "github.com/kweston/mpv-archive"
)

// An Entry describes one cached file at scan time.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
	AgeDays float64
}

// Stats summarizes the cache contents.
type Stats struct {
	FileCount int
	TotalSize int64
	Entries   []Entry
}

type Cache struct {
	dir string
	log *zap.SugaredLogger
}

func New(dir string) *Cache {
	return &Cache{
		dir: dir,
		log: zap.S().Named("cache"),
	}
}

// Dir returns the directory this cache is bound to.
func (c *Cache) Dir() string {
	return c.dir
}

// Scan lists the cached files, oldest first. A missing cache directory is an
// empty cache, not an error. Subdirectories are skipped.
func (c *Cache) Scan() ([]Entry, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan cache: %w", err)
	}
	now := time.Now()
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Deleted between ReadDir and stat; nothing to report.
			continue
		}
		entries = append(entries, Entry{
			Path:    filepath.Join(c.dir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			AgeDays: now.Sub(info.ModTime()).Hours() / 24,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ModTime.Before(entries[j].ModTime)
	})
	return entries, nil
}

// Prune deletes entries strictly older than maxAgeDays, best-effort: one
// failed deletion does not stop the rest. Returns how many files were deleted
// and how many bytes they held, plus any accumulated deletion errors.
func (c *Cache) Prune(maxAgeDays int) (deleted int, freed int64, err error) {
	entries, err := c.Scan()
	if err != nil {
		return 0, 0, err
	}
	c.log.Infow("pruning cache", "dir", c.dir, "max_age_days", maxAgeDays)
	var result error
	for _, e := range entries {
		if e.AgeDays <= float64(maxAgeDays) {
			continue
		}
		if removeErr := os.Remove(e.Path); removeErr != nil {
			c.log.Errorw("failed to delete cache file", "path", e.Path, "error", removeErr)
			result = multierror.Append(result, removeErr)
			continue
		}
		deleted++
		freed += e.Size
		c.log.Debugw("deleted old cache file", "path", e.Path)
	}
	c.log.Infow("cache pruned", "deleted", deleted, "freed", humanize.Bytes(uint64(freed)))
	return deleted, freed, result
}

// Clear deletes every entry, with the same best-effort semantics as Prune.
func (c *Cache) Clear() (deleted int, freed int64, err error) {
	entries, err := c.Scan()
	if err != nil {
		return 0, 0, err
	}
	c.log.Infow("clearing cache", "dir", c.dir)
	var result error
	for _, e := range entries {
		if removeErr := os.Remove(e.Path); removeErr != nil {
			c.log.Errorw("failed to delete cache file", "path", e.Path, "error", removeErr)
			result = multierror.Append(result, removeErr)
			continue
		}
		deleted++
		freed += e.Size
	}
	c.log.Infow("cache cleared", "deleted", deleted, "freed", humanize.Bytes(uint64(freed)))
	return deleted, freed, result
}

// Stats reports the current cache contents without modifying anything.
func (c *Cache) Stats() (Stats, error) {
	entries, err := c.Scan()
	if err != nil {
		return Stats{}, err
	}
	s := Stats{FileCount: len(entries), Entries: entries}
	for _, e := range entries {
		s.TotalSize += e.Size
	}
	return s, nil
}

// Summary formats a human-readable cache report, listing at most maxFiles of
// the oldest entries.
func (c *Cache) Summary(maxFiles int) (string, error) {
	stats, err := c.Stats()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Cache information:\n")
	fmt.Fprintf(&b, "Files: %d\n", stats.FileCount)
	fmt.Fprintf(&b, "Total size: %s", humanize.Bytes(uint64(stats.TotalSize)))
	if stats.FileCount > 0 {
		fmt.Fprintf(&b, "\n\nOldest files:")
		for i, e := range stats.Entries {
			if i >= maxFiles {
				break
			}
			fmt.Fprintf(&b, "\n  %s - %.1f days old", filepath.Base(e.Path), e.AgeDays)
		}
		if stats.FileCount > maxFiles {
			fmt.Fprintf(&b, "\n  ... and %d more files", stats.FileCount-maxFiles)
		}
	}
	return b.String(), nil
}

// CleanupPair deletes a downloaded media file and its sidecar after a
// confirmed upload. Missing files are fine (at-most-once retention); an
// attempted deletion that fails makes the whole call report
// ErrCleanupPartialFailure, but never stops the sibling's deletion.
func (c *Cache) CleanupPair(videoFile, infoFile string) error {
	var result error
	for _, path := range []string{videoFile, infoFile} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := os.Remove(path); err != nil {
			c.log.Errorw("failed to remove cache file", "path", path, "error", err)
			result = multierror.Append(result, err)
			continue
		}
		c.log.Infow("removed cache file", "path", path)
	}
	if result != nil {
		return fmt.Errorf("%w: %v", mpv_archive.ErrCleanupPartialFailure, result)
	}
	return nil
}
