// Package watcher feeds newly added images into the captioning engine.
package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fluxyoga/batchcaption/internal/discovery"
	"github.com/fluxyoga/batchcaption/pkg/logger"
	"github.com/fluxyoga/batchcaption/pkg/types"
)

// Handler processes one image file. Handlers are called from the watcher's
// own loop, one at a time, preserving the single-invocation guarantee.
type Handler func(ctx context.Context, img types.ImageFile)

// Watcher monitors a source folder for new image files.
type Watcher struct {
	dir        string
	captionExt string
	settle     time.Duration
	handler    Handler
	logger     logger.Logger
	fsw        *fsnotify.Watcher
}

// New creates a watcher on dir. settle is the delay between a file appearing
// and its dispatch, so partially written images are not captioned.
func New(dir, captionExt string, settle time.Duration, handler Handler, log logger.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:        dir,
		captionExt: captionExt,
		settle:     settle,
		handler:    handler,
		logger:     log,
		fsw:        fsw,
	}, nil
}

// Start blocks, dispatching each newly created image until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("Watching for new images", logger.WithField("folder", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watcher stopped")
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			img, eligible := discovery.FileFor(event.Name, w.captionExt)
			if !eligible {
				w.logger.Debug("Ignoring non-image file", logger.WithField("file", event.Name))
				continue
			}

			w.logger.Info("New image detected", logger.WithField("file", img.Name()))
			if !w.wait(ctx, w.settle) {
				return ctx.Err()
			}
			// Sequential by construction: the next event is not read
			// until this image reaches a terminal state.
			w.handler(ctx, img)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Watcher error", logger.WithField("error", err))
		}
	}
}

// Stop closes the underlying file watcher.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

// wait sleeps for d unless ctx is cancelled first.
func (w *Watcher) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
