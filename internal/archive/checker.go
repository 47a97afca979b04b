package archive

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	mpv_archive "github.com/kweston/mpv-archive"
)

// Checker answers "has this URL already been archived?".
type Checker struct {
	client     Client
	identity   string
	detailsURL string
	log        *zap.SugaredLogger
}

func NewChecker(client Client, cfg mpv_archive.Config) *Checker {
	return &Checker{
		client:     client,
		identity:   cfg.Identity,
		detailsURL: strings.TrimRight(cfg.DetailsEndpoint, "/"),
		log:        zap.S().Named("checker"),
	}
}

// Check returns the archive's public detail URL for an already-archived URL,
// or found=false. Any remote failure degrades to not-found: absence of proof
// is not proof of absence, and the uploader re-checks before submitting.
func (c *Checker) Check(ctx context.Context, url string) (detailURL string, found bool) {
	identifier := mpv_archive.Identifier(url, c.identity)
	exists, err := c.client.Exists(ctx, identifier)
	if err != nil {
		c.log.Warnw("existence check failed, treating as not archived",
			"identifier", identifier, "error", err)
		return "", false
	}
	if !exists {
		return "", false
	}
	return fmt.Sprintf("%s/%s", c.detailsURL, identifier), true
}
