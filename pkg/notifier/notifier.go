// Package notifier sends desktop notifications at run boundaries.
package notifier

import (
	"fmt"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/fluxyoga/batchcaption/pkg/logger"
)

// RunNotifier announces batch run outcomes on the desktop. Notification
// failures are logged and otherwise ignored: they must never affect a run.
type RunNotifier struct {
	enabled bool
	logger  logger.Logger
}

// New creates a run notifier.
func New(enabled bool, log logger.Logger) *RunNotifier {
	return &RunNotifier{
		enabled: enabled,
		logger:  log,
	}
}

// NotifyRunComplete announces a finished run with its counters.
func (n *RunNotifier) NotifyRunComplete(processed, skipped, failed int, elapsed time.Duration) {
	if !n.enabled {
		return
	}

	title := "✅ Captioning Complete"
	if failed > 0 {
		title = "⚠️ Captioning Finished With Failures"
	}
	message := fmt.Sprintf("%d processed, %d skipped, %d failed in %s",
		processed, skipped, failed, formatDuration(elapsed))

	if err := beeep.Notify(title, message, ""); err != nil {
		n.logger.Debug("Failed to send notification", logger.WithField("error", err))
	}
}

// NotifyRunFailed announces a run that aborted before processing anything.
func (n *RunNotifier) NotifyRunFailed(err error) {
	if !n.enabled {
		return
	}

	if nerr := beeep.Notify("❌ Captioning Failed", err.Error(), ""); nerr != nil {
		n.logger.Debug("Failed to send notification", logger.WithField("error", nerr))
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
