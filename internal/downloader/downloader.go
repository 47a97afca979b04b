// Package downloader drives the external downloader executable (yt-dlp or
// compatible) and locates the files it produces.
package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	mpv_archive "github.com/kweston/mpv-archive"
	"github.com/kweston/mpv-archive/util"
)

// SidecarSuffix is the extension the downloader gives info documents.
const SidecarSuffix = ".info.json"

// filePrefix namespaces every file we create in the cache directory, so
// nothing else that lands there can be mistaken for our output.
const filePrefix = "mpv-archive-"

// A Pair is the downloaded media file and its sidecar info document.
type Pair struct {
	VideoFile string
	InfoFile  string
}

type Downloader struct {
	bin     string
	dir     string
	formats []string
	timeout time.Duration
	log     *zap.SugaredLogger
}

func New(cfg mpv_archive.Config) *Downloader {
	return &Downloader{
		bin:     cfg.DownloaderPath,
		dir:     cfg.CacheDir,
		formats: cfg.FormatSpecs,
		timeout: cfg.DownloadTimeout,
		log:     zap.S().Named("downloader"),
	}
}

// outputPattern embeds the extractor name and video ID so file names are
// predictable and collision-free across source sites.
func (d *Downloader) outputPattern() string {
	return filepath.Join(d.dir, filePrefix+"%(extractor)s-%(id)s.%(ext)s")
}

// ExpectedFiles asks the downloader what filenames it would use for a URL,
// without downloading anything.
func (d *Downloader) ExpectedFiles(ctx context.Context, url string) (Pair, error) {
	if err := os.MkdirAll(d.dir, 0750); err != nil {
		return Pair{}, fmt.Errorf("failed to create cache dir: %w", err)
	}
	result, err := util.RunCommand(ctx, d.timeout, d.bin,
		"--print", "filename",
		"-o", d.outputPattern(),
		"--skip-download",
		"--no-playlist",
		url,
	)
	if err != nil {
		return Pair{}, fmt.Errorf("%w: %v", mpv_archive.ErrDownloadFailed, err)
	}
	if result.ExitCode != 0 {
		return Pair{}, fmt.Errorf("%w: filename probe exited %d: %s",
			mpv_archive.ErrDownloadFailed, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	videoFile := firstLine(result.Stdout)
	if videoFile == "" {
		return Pair{}, fmt.Errorf("%w: filename probe printed nothing", mpv_archive.ErrDownloadFailed)
	}
	return Pair{VideoFile: videoFile, InfoFile: replaceExt(videoFile, SidecarSuffix)}, nil
}

// Download fetches the URL into the cache directory, trying each format spec
// in order until one yields a usable media file. Each attempt is a full
// downloader invocation; there is no partial-output reuse across specs.
func (d *Downloader) Download(ctx context.Context, url string) (Pair, error) {
	expected, err := d.ExpectedFiles(ctx, url)
	if err != nil {
		return Pair{}, err
	}

	// Reuse files left over from a previous run before downloading again.
	if fileExists(expected.VideoFile) && fileExists(expected.InfoFile) {
		d.log.Infow("using existing download", "video", expected.VideoFile)
		return expected, nil
	}

	var lastErr error
	for _, format := range d.formats {
		pair, err := d.attempt(ctx, url, expected, format)
		if err == nil {
			return pair, nil
		}
		lastErr = err
		d.log.Warnw("format attempt failed", "format", format, "error", err)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no format specs configured", mpv_archive.ErrDownloadFailed)
	}
	return Pair{}, lastErr
}

// attempt runs the downloader once with a single format spec and resolves the
// resulting file pair.
func (d *Downloader) attempt(ctx context.Context, url string, expected Pair, format string) (Pair, error) {
	d.log.Infow("downloading", "url", url, "format", format)
	// The expected name has the final extension resolved; reopen the
	// extension so the downloader can pick its own container.
	pattern := replaceExt(expected.VideoFile, ".%(ext)s")
	result, err := util.RunCommand(ctx, d.timeout, d.bin,
		"-f", format,
		"--no-check-certificate",
		"--write-info-json",
		"--print", "filename",
		"--no-part",
		"--force-overwrites",
		"--no-playlist",
		"-o", pattern,
		url,
	)
	if err != nil {
		return Pair{}, fmt.Errorf("%w: %v", mpv_archive.ErrDownloadFailed, err)
	}
	if result.ExitCode != 0 {
		return Pair{}, fmt.Errorf("%w: downloader exited %d: %s",
			mpv_archive.ErrDownloadFailed, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return d.resolve(result.Stdout, expected)
}

// resolve finds the downloaded media file after a nominally successful
// invocation. Strategies, in order: the filename the tool printed, a glob on
// the expected base name, and finally the newest file carrying our prefix.
// The last two are best-effort heuristics for naming drift, not guarantees.
func (d *Downloader) resolve(stdout string, expected Pair) (Pair, error) {
	var videoFile string
	if printed := firstLine(stdout); printed != "" && fileExists(printed) {
		videoFile = printed
	} else if match := d.globExpected(expected.VideoFile); match != "" {
		videoFile = match
	} else if newest := d.newestWithPrefix(); newest != "" {
		videoFile = newest
	}
	if videoFile == "" {
		return Pair{}, fmt.Errorf("%w: no media file found after download", mpv_archive.ErrDownloadFailed)
	}
	infoFile := replaceExt(videoFile, SidecarSuffix)
	if !fileExists(infoFile) {
		return Pair{}, fmt.Errorf("%w: sidecar %s missing", mpv_archive.ErrIncompleteDownload, infoFile)
	}
	return Pair{VideoFile: videoFile, InfoFile: infoFile}, nil
}

// globExpected looks for any file sharing the expected base name, excluding
// the sidecar, to absorb a container extension different from the probe's.
func (d *Downloader) globExpected(expectedVideo string) string {
	base := strings.TrimSuffix(filepath.Base(expectedVideo), filepath.Ext(expectedVideo))
	matches, err := filepath.Glob(filepath.Join(d.dir, base+".*"))
	if err != nil {
		return ""
	}
	for _, m := range matches {
		if !strings.HasSuffix(m, SidecarSuffix) && fileExists(m) {
			return m
		}
	}
	return ""
}

// newestWithPrefix returns the most recently modified non-sidecar file that
// carries our output prefix, so a concurrent unrelated download in the same
// directory can never be picked up.
func (d *Downloader) newestWithPrefix() string {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return ""
	}
	var newest string
	var newestMod time.Time
	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, filePrefix) || strings.HasSuffix(name, SidecarSuffix) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newestMod) {
			newest = filepath.Join(d.dir, name)
			newestMod = info.ModTime()
		}
	}
	return newest
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

// replaceExt swaps the final extension of a path for another suffix (which
// includes its own dot).
func replaceExt(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
