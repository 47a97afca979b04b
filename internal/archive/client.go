// Package archive talks to the remote content archive: existence checks,
// metadata mapping, and the upload itself.
package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	simplejson "github.com/bitly/go-simplejson"
	"go.uber.org/zap"

	mpv_archive "github.com/kweston/mpv-archive"
)

// Client is the remote archive capability. It is selected once at startup;
// when no credentials are configured the unavailable implementation is used
// and every upload reports ErrClientUnavailable.
type Client interface {
	// Exists reports whether an item with this identifier has been created.
	Exists(ctx context.Context, identifier string) (bool, error)
	// Upload submits the named local files under the identifier. Every part
	// of the submission must succeed for Upload to succeed.
	Upload(ctx context.Context, identifier string, files map[string]string, md Metadata) error
}

// UploadProgress, when set on an HTTPClient, is called as file bytes are
// sent; used by the CLI to drive a progress bar.
type UploadProgress func(file string, sent, total int64)

// HTTPClient implements Client against an archive.org style API: an item
// metadata endpoint for existence, and S3-compatible per-file PUTs with
// x-archive-meta headers for upload.
type HTTPClient struct {
	s3Endpoint       string
	metadataEndpoint string
	accessKey        string
	secretKey        string
	retries          int
	retryDelay       time.Duration
	httpClient       *http.Client
	Progress         UploadProgress
	log              *zap.SugaredLogger
}

// NewClient selects the client implementation from the configuration.
func NewClient(cfg mpv_archive.Config) Client {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return Unavailable{}
	}
	return &HTTPClient{
		s3Endpoint:       strings.TrimRight(cfg.S3Endpoint, "/"),
		metadataEndpoint: strings.TrimRight(cfg.MetadataEndpoint, "/"),
		accessKey:        cfg.AccessKey,
		secretKey:        cfg.SecretKey,
		retries:          cfg.UploadRetries,
		retryDelay:       cfg.UploadRetryDelay,
		httpClient:       &http.Client{},
		log:              zap.S().Named("archive"),
	}
}

// Exists queries the item metadata endpoint. An item that was never created
// returns an empty document.
func (c *HTTPClient) Exists(ctx context.Context, identifier string) (bool, error) {
	url := fmt.Sprintf("%s/%s", c.metadataEndpoint, identifier)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("existence check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("existence check returned %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("existence check failed: %w", err)
	}
	doc, err := simplejson.NewJson(body)
	if err != nil {
		return false, fmt.Errorf("existence check returned malformed JSON: %w", err)
	}
	_, found := doc.CheckGet("metadata")
	return found, nil
}

// Upload PUTs each file in turn, with bounded retries per file and a fixed
// delay between attempts. Metadata headers ride on the first file, which also
// creates the item.
func (c *HTTPClient) Upload(ctx context.Context, identifier string, files map[string]string, md Metadata) error {
	first := true
	for remoteName, localPath := range files {
		if err := c.uploadFile(ctx, identifier, remoteName, localPath, md, first); err != nil {
			return err
		}
		first = false
	}
	return nil
}

func (c *HTTPClient) uploadFile(ctx context.Context, identifier, remoteName, localPath string, md Metadata, withMeta bool) error {
	var lastErr error
	attempts := c.retries
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			c.log.Warnw("retrying upload", "file", remoteName, "attempt", attempt)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", mpv_archive.ErrUploadError, ctx.Err())
			}
		}
		lastErr = c.putFile(ctx, identifier, remoteName, localPath, md, withMeta)
		if lastErr == nil {
			return nil
		}
		c.log.Errorw("upload attempt failed", "file", remoteName, "error", lastErr)
	}
	return lastErr
}

func (c *HTTPClient) putFile(ctx context.Context, identifier, remoteName, localPath string, md Metadata, withMeta bool) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: %v", mpv_archive.ErrUploadError, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", mpv_archive.ErrUploadError, err)
	}

	var body io.Reader = f
	if c.Progress != nil {
		body = &progressReader{r: f, total: info.Size(), file: remoteName, callback: c.Progress}
	}

	url := fmt.Sprintf("%s/%s/%s", c.s3Endpoint, identifier, remoteName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return fmt.Errorf("%w: %v", mpv_archive.ErrUploadError, err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Authorization", fmt.Sprintf("LOW %s:%s", c.accessKey, c.secretKey))
	req.Header.Set("X-Amz-Auto-Make-Bucket", "1")
	if withMeta {
		for key, value := range md.headers() {
			req.Header.Set(key, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", mpv_archive.ErrUploadError, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %s for %s: %s",
			mpv_archive.ErrUploadRejected, resp.Status, remoteName, strings.TrimSpace(string(detail)))
	}
	return nil
}

type progressReader struct {
	r        io.Reader
	total    int64
	sent     int64
	file     string
	callback UploadProgress
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.sent += int64(n)
		p.callback(p.file, p.sent, p.total)
	}
	return n, err
}

// Unavailable is the stub client selected when no credentials are present.
type Unavailable struct{}

func (Unavailable) Exists(ctx context.Context, identifier string) (bool, error) {
	return false, mpv_archive.ErrClientUnavailable
}

func (Unavailable) Upload(ctx context.Context, identifier string, files map[string]string, md Metadata) error {
	return mpv_archive.ErrClientUnavailable
}
