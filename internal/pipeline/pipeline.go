// Package pipeline sequences a playback session end to end: normalize,
// check existence, play, download, extract metadata, upload, clean up.
// Strictly sequential, single actor; retries live inside the downloader's
// format list and the uploader's attempt count, never here.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/r3labs/diff/v3"
	"go.uber.org/zap"

	mpv_archive "github.com/kweston/mpv-archive"
	"github.com/kweston/mpv-archive/internal/archive"
	"github.com/kweston/mpv-archive/internal/downloader"
	"github.com/kweston/mpv-archive/internal/notify"
)

type Stage string

const (
	StageNormalizing        Stage = "normalizing"
	StageCheckingExistence  Stage = "checking-existence"
	StagePlaying            Stage = "playing"
	StageDecidingArchive    Stage = "deciding-archive"
	StageDownloading        Stage = "downloading"
	StageExtractingMetadata Stage = "extracting-metadata"
	StageUploading          Stage = "uploading"
	StageCleaningUp         Stage = "cleaning-up"
	StageDone               Stage = "done"
	StageFailed             Stage = "failed"
)

// Collaborator capabilities, narrowed to what the controller calls so tests
// can substitute fakes.

type Player interface {
	Play(ctx context.Context, url string, extraArgs ...string) error
}

type Downloader interface {
	Download(ctx context.Context, url string) (downloader.Pair, error)
}

type Checker interface {
	Check(ctx context.Context, url string) (detailURL string, found bool)
}

type Uploader interface {
	Upload(ctx context.Context, videoFile, infoFile, url string, md archive.Metadata) error
}

type CacheManager interface {
	CleanupPair(videoFile, infoFile string) error
	Prune(maxAgeDays int) (deleted int, freed int64, err error)
}

// State is the observable progress of one run; transitions are diffed into
// the debug log.
type State struct {
	Stage     Stage
	URL       string
	Archive   bool
	DetailURL string
	VideoFile string
	InfoFile  string
	Error     string
}

type Controller struct {
	player     Player
	downloader Downloader
	checker    Checker
	uploader   Uploader
	cache      CacheManager
	maxAgeDays int

	// Notify delivers user-facing messages; best-effort desktop
	// notifications by default.
	Notify func(message string)
	// Extract maps a sidecar into upload metadata; only replaced in tests.
	Extract func(infoFile, url string) archive.Metadata
}

func New(cfg mpv_archive.Config, player Player, dl Downloader, checker Checker, uploader Uploader, cache CacheManager) *Controller {
	return &Controller{
		player:     player,
		downloader: dl,
		checker:    checker,
		uploader:   uploader,
		cache:      cache,
		maxAgeDays: cfg.MaxAgeDays,
		Notify:     notify.Send,
		Extract:    archive.ExtractMetadata,
	}
}

// Run processes a raw handler URL as a full playback session.
func (c *Controller) Run(ctx context.Context, rawURL string) error {
	return c.run(ctx, rawURL, true)
}

// ArchiveOnly ensures a URL is archived without playing it; the embedded
// archive flag is ignored because archiving was requested explicitly.
func (c *Controller) ArchiveOnly(ctx context.Context, rawURL string) error {
	return c.run(ctx, rawURL, false)
}

func (c *Controller) run(ctx context.Context, rawURL string, play bool) error {
	log := zap.S().Named("pipeline").With("run_id", uuid.NewString())
	state := State{Stage: StageNormalizing}
	fail := func(err error) error {
		c.transition(log, &state, func(s *State) {
			s.Stage = StageFailed
			s.Error = err.Error()
		})
		return err
	}

	target, err := mpv_archive.Normalize(rawURL)
	if err != nil {
		return fail(err)
	}
	c.transition(log, &state, func(s *State) {
		s.Stage = StageCheckingExistence
		s.URL = target.URL
		s.Archive = target.Archive
	})

	if detailURL, found := c.checker.Check(ctx, target.URL); found {
		c.transition(log, &state, func(s *State) {
			s.Stage = StageDone
			s.DetailURL = detailURL
		})
		log.Infow("already archived", "url", target.URL, "detail_url", detailURL)
		c.Notify(fmt.Sprintf("Already archived: %s", detailURL))
		return nil
	}

	if play {
		c.transition(log, &state, func(s *State) { s.Stage = StagePlaying })
		if err := c.player.Play(ctx, target.URL); err != nil {
			return fail(err)
		}

		c.transition(log, &state, func(s *State) { s.Stage = StageDecidingArchive })
		if !target.Archive {
			c.transition(log, &state, func(s *State) { s.Stage = StageDone })
			log.Infow("archiving skipped as requested", "url", target.URL)
			return nil
		}
	}

	c.transition(log, &state, func(s *State) { s.Stage = StageDownloading })
	pair, err := c.downloader.Download(ctx, target.URL)
	if err != nil {
		c.Notify("Download failed")
		return fail(err)
	}
	c.transition(log, &state, func(s *State) {
		s.Stage = StageExtractingMetadata
		s.VideoFile = pair.VideoFile
		s.InfoFile = pair.InfoFile
	})
	// Extraction never fails; it only degrades metadata quality.
	md := c.Extract(pair.InfoFile, target.URL)
	log.Debugw("extracted metadata", "metadata", md.String())

	c.transition(log, &state, func(s *State) { s.Stage = StageUploading })
	if err := c.uploader.Upload(ctx, pair.VideoFile, pair.InfoFile, target.URL, md); err != nil {
		c.Notify(fmt.Sprintf("Upload failed: %v", err))
		return fail(err)
	}

	c.transition(log, &state, func(s *State) { s.Stage = StageCleaningUp })
	if err := c.cache.CleanupPair(pair.VideoFile, pair.InfoFile); err != nil {
		// The remote copy exists; leftovers are reclaimed by age pruning.
		log.Warnw("cache cleanup incomplete", "error", err)
	}
	if _, _, err := c.cache.Prune(c.maxAgeDays); err != nil {
		log.Warnw("cache prune incomplete", "error", err)
	}

	c.transition(log, &state, func(s *State) { s.Stage = StageDone })
	c.Notify(fmt.Sprintf("Archived: %s", target.URL))
	return nil
}

func (c *Controller) transition(log *zap.SugaredLogger, state *State, f func(*State)) {
	old := *state
	f(state)
	changes, err := diff.Diff(old, *state)
	if err != nil {
		log.Debugw("stage", "stage", state.Stage)
		return
	}
	for _, change := range changes {
		log.Debugf("%v: %#v -> %#v", change.Path, change.From, change.To)
	}
}
