// Package setup installs and removes the desktop integration: the
// application entry and the x-scheme handler registration that lets
// bookmarklet URLs reach the launcher.
package setup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	mpv_archive "github.com/kweston/mpv-archive"
	"github.com/kweston/mpv-archive/internal/player"
	"github.com/kweston/mpv-archive/util"
)

const desktopFileName = "mpv-archive.desktop"

const desktopEntry = `[Desktop Entry]
Type=Application
Name=mpv-archive
Comment=Play a video and archive it
Exec=%s launch %%u
Terminal=false
NoDisplay=true
MimeType=x-scheme-handler/x-mpv-archive;x-scheme-handler/x-mpv-archives;
`

// Install writes the desktop entry and registers the custom schemes.
func Install(prefix string) error {
	log := zap.S().Named("setup")
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("cannot determine own executable: %w", err)
	}
	dir, err := applicationsDir(prefix)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, desktopFileName)
	if err := os.WriteFile(path, []byte(fmt.Sprintf(desktopEntry, exe)), 0644); err != nil {
		return fmt.Errorf("failed to write desktop entry: %w", err)
	}
	log.Infow("wrote desktop entry", "path", path)

	// Registration helpers are best-effort; the desktop entry alone is
	// enough for most environments.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if util.CommandAvailable("update-desktop-database") {
		_, _ = util.RunCommand(ctx, 0, "update-desktop-database", dir)
	}
	if util.CommandAvailable("xdg-mime") {
		for _, scheme := range []string{"x-scheme-handler/x-mpv-archive", "x-scheme-handler/x-mpv-archives"} {
			_, _ = util.RunCommand(ctx, 0, "xdg-mime", "default", desktopFileName, scheme)
		}
	}
	return nil
}

// Remove deletes the desktop entry. A missing entry is not an error.
func Remove(prefix string) error {
	dir, err := applicationsDir(prefix)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, desktopFileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove desktop entry: %w", err)
	}
	zap.S().Named("setup").Infow("removed desktop entry", "path", path)
	return nil
}

// Setup verifies the runtime environment: external tools present, cache
// directory usable, credentials configured.
func Setup(cfg mpv_archive.Config) error {
	log := zap.S().Named("setup")
	if err := player.CheckDependencies(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.CacheDir, 0750); err != nil {
		return fmt.Errorf("failed to create cache dir %s: %w", cfg.CacheDir, err)
	}
	log.Infow("cache directory ready", "dir", cfg.CacheDir)
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		log.Warn("no archive credentials configured; uploads will be unavailable")
	}
	return nil
}

func applicationsDir(prefix string) (string, error) {
	if prefix != "" {
		return filepath.Join(prefix, "share", "applications"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "applications"), nil
}
