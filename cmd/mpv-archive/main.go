package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	mpv_archive "github.com/kweston/mpv-archive"
	"github.com/kweston/mpv-archive/async"
	"github.com/kweston/mpv-archive/internal/archive"
	"github.com/kweston/mpv-archive/internal/cache"
	"github.com/kweston/mpv-archive/internal/downloader"
	"github.com/kweston/mpv-archive/internal/pipeline"
	"github.com/kweston/mpv-archive/internal/player"
	"github.com/kweston/mpv-archive/internal/setup"
)

const exitInterrupt = 130

func main() {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := logConfig.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var cfg mpv_archive.Config

	app := &cli.App{
		Name:  "mpv-archive",
		Usage: "play a video with mpv, then archive a permanent copy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "load configuration from `FILE`",
			},
		},
		Before: func(c *cli.Context) error {
			// A .env alongside the invocation is a convenience for
			// credentials; missing is fine.
			_ = godotenv.Load()
			loaded, err := mpv_archive.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "install",
				Usage: "install the desktop entry and URL scheme handlers",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "install under `PREFIX` instead of the home directory"},
				},
				Action: func(c *cli.Context) error {
					return setup.Install(c.String("prefix"))
				},
			},
			{
				Name:  "remove",
				Usage: "remove the desktop entry",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "remove from `PREFIX` instead of the home directory"},
				},
				Action: func(c *cli.Context) error {
					return setup.Remove(c.String("prefix"))
				},
			},
			{
				Name:  "setup",
				Usage: "verify dependencies and prepare the cache directory",
				Action: func(c *cli.Context) error {
					return setup.Setup(cfg)
				},
			},
			{
				Name:      "launch",
				Usage:     "play a (possibly custom-scheme) URL, then archive it",
				ArgsUsage: "URL",
				Action: func(c *cli.Context) error {
					url, err := requireURL(c)
					if err != nil {
						return err
					}
					if err := player.CheckDependencies(cfg); err != nil {
						return err
					}
					return newController(cfg).Run(c.Context, url)
				},
			},
			{
				Name:      "play",
				Usage:     "play a URL without archiving",
				ArgsUsage: "URL",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "mpv-arg", Usage: "extra argument passed to the player (repeatable)"},
				},
				Action: func(c *cli.Context) error {
					url, err := requireURL(c)
					if err != nil {
						return err
					}
					if err := player.CheckTools(cfg.PlayerPath); err != nil {
						return err
					}
					target, err := mpv_archive.Normalize(url)
					if err != nil {
						return err
					}
					return player.New(cfg).Play(c.Context, target.URL, c.StringSlice("mpv-arg")...)
				},
			},
			{
				Name:      "archive",
				Usage:     "ensure a URL is archived, without playing it",
				ArgsUsage: "URL",
				Action: func(c *cli.Context) error {
					url, err := requireURL(c)
					if err != nil {
						return err
					}
					if err := player.CheckTools(cfg.DownloaderPath); err != nil {
						return err
					}
					return newController(cfg).ArchiveOnly(c.Context, url)
				},
			},
			{
				Name:      "check",
				Usage:     "report whether a URL has already been archived",
				ArgsUsage: "URL",
				Action: func(c *cli.Context) error {
					url, err := requireURL(c)
					if err != nil {
						return err
					}
					target, err := mpv_archive.Normalize(url)
					if err != nil {
						return err
					}
					client := archive.NewClient(cfg)
					checker := archive.NewChecker(client, cfg)
					if detailURL, found := checker.Check(c.Context, target.URL); found {
						fmt.Println(detailURL)
						return nil
					}
					return cli.Exit("URL not found in archive", 1)
				},
			},
			{
				Name:  "cache",
				Usage: "inspect or clean the download cache",
				Subcommands: []*cli.Command{
					{
						Name:  "info",
						Usage: "show cache statistics",
						Action: func(c *cli.Context) error {
							summary, err := cache.New(cfg.CacheDir).Summary(5)
							if err != nil {
								return err
							}
							fmt.Println(summary)
							return nil
						},
					},
					{
						Name:  "clean",
						Usage: "delete old cache entries",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "days", Value: 7, Usage: "delete entries older than `N` days"},
							&cli.BoolFlag{Name: "all", Usage: "delete every entry"},
						},
						Action: func(c *cli.Context) error {
							store := cache.New(cfg.CacheDir)
							var deleted int
							var freed int64
							var err error
							if c.Bool("all") {
								deleted, freed, err = store.Clear()
							} else {
								deleted, freed, err = store.Prune(c.Int("days"))
							}
							if err != nil {
								return err
							}
							if deleted > 0 {
								fmt.Printf("Removed %d files (%.2f MB)\n", deleted, float64(freed)/1048576)
							} else {
								fmt.Println("No cache files removed")
							}
							return nil
						},
					},
				},
			},
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.RunContext(ctx, os.Args) })

	select {
	case err = <-result:
		if err != nil {
			exitError(logger, err)
		}
	case <-ctx.Done():
		stop()
		if err = <-result; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(err.Error())
		}
		logger.Info("interrupted")
		logger.Sync()
		os.Exit(exitInterrupt)
	}
}

func exitError(logger *zap.Logger, err error) {
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		logger.Error(err.Error())
		logger.Sync()
		os.Exit(exitErr.ExitCode())
	}
	logger.Error(err.Error())
	logger.Sync()
	os.Exit(1)
}

func requireURL(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", cli.Exit("no URL provided", 1)
	}
	return c.Args().First(), nil
}

// newController wires the pipeline from one Config, attaching a progress bar
// to uploads when the client is the real one.
func newController(cfg mpv_archive.Config) *pipeline.Controller {
	client := archive.NewClient(cfg)
	if httpClient, ok := client.(*archive.HTTPClient); ok {
		httpClient.Progress = uploadProgress()
	}
	return pipeline.New(
		cfg,
		player.New(cfg),
		downloader.New(cfg),
		archive.NewChecker(client, cfg),
		archive.NewUploader(client, cfg),
		cache.New(cfg.CacheDir),
	)
}

func uploadProgress() archive.UploadProgress {
	var bar *progressbar.ProgressBar
	var current string
	return func(file string, sent, total int64) {
		if bar == nil || file != current {
			current = file
			bar = progressbar.DefaultBytes(total, "uploading "+file)
		}
		_ = bar.Set64(sent)
	}
}
