package archive

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	mpv_archive "github.com/kweston/mpv-archive"
)

// Uploader performs the archive submission for a downloaded pair.
type Uploader struct {
	client   Client
	identity string
	log      *zap.SugaredLogger
}

func NewUploader(client Client, cfg mpv_archive.Config) *Uploader {
	return &Uploader{
		client:   client,
		identity: cfg.Identity,
		log:      zap.S().Named("uploader"),
	}
}

// Upload re-derives the identifier, re-checks existence as the authoritative
// guard against duplicate submission, and if absent submits the media file
// together with its sidecar. Both parts must be accepted.
func (u *Uploader) Upload(ctx context.Context, videoFile, infoFile, url string, md Metadata) error {
	identifier := mpv_archive.Identifier(url, u.identity)

	exists, err := u.client.Exists(ctx, identifier)
	if err == nil && exists {
		u.log.Infow("item already exists, skipping upload", "identifier", identifier)
		return nil
	}
	if err != nil {
		// The upload itself is the real test; a failed pre-check is only
		// losing the duplicate guard.
		u.log.Warnw("pre-upload existence check failed", "identifier", identifier, "error", err)
	}

	files := map[string]string{
		filepath.Base(videoFile): videoFile,
		filepath.Base(infoFile):  infoFile,
	}

	u.log.Infow("uploading", "identifier", identifier, "title", md.Title)
	if err := u.client.Upload(ctx, identifier, files, md); err != nil {
		return err
	}
	u.log.Infow("upload succeeded", "identifier", identifier)
	return nil
}
