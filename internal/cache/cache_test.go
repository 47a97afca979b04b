package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
)

// writeAged creates a file with the given content and backdated mtime.
func writeAged(t *testing.T, dir, name, content string, ageDays int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	// Back off a minute from the exact day boundary so "strictly older
	// than N days" comparisons are unambiguous.
	mtime := time.Now().Add(-time.Duration(ageDays)*24*time.Hour + time.Minute)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanOldestFirst(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	writeAged(t, dir, "newer.mp4", "aa", 1)
	writeAged(t, dir, "oldest.mp4", "aaa", 5)
	writeAged(t, dir, "middle.mp4", "a", 3)

	entries, err := New(dir).Scan()
	assert.NoError(err)
	assert.Len(entries, 3)
	assert.Equal("oldest.mp4", filepath.Base(entries[0].Path))
	assert.Equal("middle.mp4", filepath.Base(entries[1].Path))
	assert.Equal("newer.mp4", filepath.Base(entries[2].Path))
	assert.Equal(int64(3), entries[0].Size)
	assert.InDelta(5.0, entries[0].AgeDays, 0.1)
}

func TestScanMissingDir(t *testing.T) {
	assert := assert_.New(t)
	entries, err := New(filepath.Join(t.TempDir(), "nope")).Scan()
	assert.NoError(err)
	assert.Empty(entries)
}

func TestScanSkipsSubdirectories(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	writeAged(t, dir, "file.mp4", "a", 0)
	assert.NoError(os.Mkdir(filepath.Join(dir, "subdir"), 0755))

	entries, err := New(dir).Scan()
	assert.NoError(err)
	assert.Len(entries, 1)
}

func TestPrune(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	var expectFreed int64
	for age, content := range map[int]string{
		0: "a",
		1: "bb",
		2: "ccc",
		3: "dddd",
		4: "eeeee",
	} {
		name := writeAged(t, dir, string(rune('a'+age))+".mp4", content, age)
		if age > 2 {
			info, _ := os.Stat(name)
			expectFreed += info.Size()
		}
	}

	c := New(dir)
	deleted, freed, err := c.Prune(2)
	assert.NoError(err)
	assert.Equal(2, deleted)
	assert.Equal(expectFreed, freed)

	entries, err := c.Scan()
	assert.NoError(err)
	assert.Len(entries, 3)
	// Oldest first, and nothing older than the threshold remains.
	for i := 1; i < len(entries); i++ {
		assert.True(entries[i-1].ModTime.Before(entries[i].ModTime) || entries[i-1].ModTime.Equal(entries[i].ModTime))
	}
	for _, e := range entries {
		assert.LessOrEqual(e.AgeDays, 2.1)
	}
}

func TestClear(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	writeAged(t, dir, "a.mp4", "aaaa", 0)
	writeAged(t, dir, "b.mp4", "bb", 9)

	deleted, freed, err := New(dir).Clear()
	assert.NoError(err)
	assert.Equal(2, deleted)
	assert.Equal(int64(6), freed)

	entries, err := New(dir).Scan()
	assert.NoError(err)
	assert.Empty(entries)
}

func TestStatsAndSummary(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	for i := 0; i < 7; i++ {
		writeAged(t, dir, string(rune('a'+i))+".mp4", "xx", i)
	}

	c := New(dir)
	stats, err := c.Stats()
	assert.NoError(err)
	assert.Equal(7, stats.FileCount)
	assert.Equal(int64(14), stats.TotalSize)

	summary, err := c.Summary(5)
	assert.NoError(err)
	assert.Contains(summary, "Files: 7")
	assert.Contains(summary, "Oldest files:")
	assert.Contains(summary, "... and 2 more files")
	// Oldest entry is listed, the two newest are not.
	assert.Contains(summary, "g.mp4")
	assert.NotContains(summary, "a.mp4 -")
}

func TestCleanupPair(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	video := writeAged(t, dir, "v.mp4", "video", 0)
	info := writeAged(t, dir, "v.info.json", "{}", 0)

	assert.NoError(New(dir).CleanupPair(video, info))
	_, err := os.Stat(video)
	assert.True(os.IsNotExist(err))
	_, err = os.Stat(info)
	assert.True(os.IsNotExist(err))
}

func TestCleanupPairMissingFile(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	video := writeAged(t, dir, "v.mp4", "video", 0)
	info := filepath.Join(dir, "v.info.json") // never created

	// Best-effort: a missing sibling is not an error, the existing file
	// still gets deleted.
	assert.NoError(New(dir).CleanupPair(video, info))
	_, err := os.Stat(video)
	assert.True(os.IsNotExist(err))
}
