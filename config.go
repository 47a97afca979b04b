package mpv_archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Config carries every tunable the pipeline needs. It is constructed once at
// process start and passed into each component constructor; no component
// reads environment or global state directly.
type Config struct {
	// CacheDir is the flat directory holding downloaded media and sidecars.
	CacheDir string `yaml:"cache_dir"`
	// DownloaderPath is the yt-dlp compatible executable.
	DownloaderPath string `yaml:"downloader"`
	// PlayerPath is the mpv compatible executable.
	PlayerPath string `yaml:"player"`
	// Identity is the operator identity embedded in archive identifiers.
	Identity string `yaml:"identity"`

	// Remote archive endpoints.
	S3Endpoint       string `yaml:"s3_endpoint"`
	MetadataEndpoint string `yaml:"metadata_endpoint"`
	DetailsEndpoint  string `yaml:"details_endpoint"`
	AccessKey        string `yaml:"access_key"`
	SecretKey        string `yaml:"secret_key"`

	UploadRetries    int           `yaml:"upload_retries"`
	UploadRetryDelay time.Duration `yaml:"upload_retry_delay"`
	// DownloadTimeout bounds a single downloader invocation; 0 means no limit.
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	// MaxAgeDays is the age threshold for routine cache pruning.
	MaxAgeDays int `yaml:"max_age_days"`

	FormatSpecs []string `yaml:"format_specs"`
}

// DefaultConfig returns the built-in defaults, with paths derived from the
// user's cache directory.
func DefaultConfig() Config {
	cacheDir := "mpv-archive"
	if base, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(base, "mpv-archive")
	}
	return Config{
		CacheDir:         cacheDir,
		DownloaderPath:   "yt-dlp",
		PlayerPath:       "mpv",
		Identity:         DefaultIdentity(),
		S3Endpoint:       "https://s3.us.archive.org",
		MetadataEndpoint: "https://archive.org/metadata",
		DetailsEndpoint:  "https://archive.org/details",
		UploadRetries:    3,
		UploadRetryDelay: 10 * time.Second,
		MaxAgeDays:       30,
		FormatSpecs:      DefaultFormatSpecs,
	}
}

// LoadConfig builds the effective configuration: defaults, overridden by the
// YAML config file (if present), overridden by environment variables.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultConfigPath()
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if path != "" && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg.applyEnv()
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		if access, secret, ok := readIACredentials(); ok {
			cfg.AccessKey, cfg.SecretKey = access, secret
		}
	}
	if len(cfg.FormatSpecs) == 0 {
		cfg.FormatSpecs = DefaultFormatSpecs
	}
	return cfg, nil
}

// DefaultConfigPath is the XDG location of the optional config file.
func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "mpv-archive", "config.yaml")
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString(&c.CacheDir, "MPV_ARCHIVE_CACHE_DIR")
	setString(&c.DownloaderPath, "MPV_ARCHIVE_DOWNLOADER")
	setString(&c.PlayerPath, "MPV_ARCHIVE_PLAYER")
	setString(&c.Identity, "MPV_ARCHIVE_IDENTITY")
	setString(&c.S3Endpoint, "MPV_ARCHIVE_S3_ENDPOINT")
	setString(&c.MetadataEndpoint, "MPV_ARCHIVE_METADATA_ENDPOINT")
	setString(&c.AccessKey, "IA_ACCESS_KEY")
	setString(&c.SecretKey, "IA_SECRET_KEY")
}

// readIACredentials falls back to the internetarchive CLI's ia.ini files,
// checked in the same order that tool uses.
func readIACredentials() (access, secret string, ok bool) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", "", false
	}
	candidates := []string{
		filepath.Join(base, "ia.ini"),
		filepath.Join(base, "internetarchive", "ia.ini"),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			key, value, found := strings.Cut(strings.TrimSpace(line), "=")
			if !found {
				continue
			}
			switch strings.TrimSpace(key) {
			case "access":
				access = strings.TrimSpace(value)
			case "secret":
				secret = strings.TrimSpace(value)
			}
		}
		if access != "" && secret != "" {
			return access, secret, true
		}
	}
	return "", "", false
}
