// Package notify sends best-effort desktop notifications. Delivery is never
// load-bearing: failures are logged at debug and otherwise ignored.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kweston/mpv-archive/util"
)

const title = "mpv-archive"

const sendTimeout = 5 * time.Second

// Send shows a desktop notification if notify-send is available.
func Send(message string) {
	log := zap.S().Named("notify")
	if !util.CommandAvailable("notify-send") {
		log.Debugw("notify-send not available", "message", message)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if _, err := util.RunCommand(ctx, 0, "notify-send", title, message); err != nil {
		log.Debugw("could not send notification", "message", message, "error", err)
	}
}
