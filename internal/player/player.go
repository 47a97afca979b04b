// Package player wraps the external playback command. Playback itself is an
// opaque subprocess; this package only starts it, waits, and reports.
package player

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	mpv_archive "github.com/kweston/mpv-archive"
	"github.com/kweston/mpv-archive/util"
)

type Player struct {
	bin string
	log *zap.SugaredLogger
}

func New(cfg mpv_archive.Config) *Player {
	return &Player{
		bin: cfg.PlayerPath,
		log: zap.S().Named("player"),
	}
}

// Play blocks until the player exits. Extra arguments are passed through
// verbatim ahead of the URL.
func (p *Player) Play(ctx context.Context, url string, extraArgs ...string) error {
	args := append([]string{}, extraArgs...)
	args = append(args, url)
	p.log.Infow("playing", "url", url)
	result, err := util.RunCommand(ctx, 0, p.bin, args...)
	if err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("player exited %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// CheckTools verifies that each named executable can be found.
func CheckTools(bins ...string) error {
	for _, bin := range bins {
		if !util.CommandAvailable(bin) {
			return fmt.Errorf("%w: %s", mpv_archive.ErrDependencyMissing, bin)
		}
	}
	return nil
}

// CheckDependencies verifies the external tools the full pipeline shells out to.
func CheckDependencies(cfg mpv_archive.Config) error {
	return CheckTools(cfg.PlayerPath, cfg.DownloaderPath)
}
