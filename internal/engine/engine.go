// Package engine drives the per-image captioning loop: skip policy, backend
// dispatch, result classification, caption persistence, and progress events.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fluxyoga/batchcaption/internal/discovery"
	"github.com/fluxyoga/batchcaption/pkg/config"
	"github.com/fluxyoga/batchcaption/pkg/logger"
	"github.com/fluxyoga/batchcaption/pkg/types"
)

// Invoker runs one backend invocation per request.
type Invoker interface {
	Invoke(ctx context.Context, req types.CaptionRequest) (types.CaptionResult, error)
}

// Store checks and persists caption sidecar files.
type Store interface {
	Exists(img types.ImageFile) bool
	Save(img types.ImageFile, caption, template string) error
}

// Reporter receives the protocol events produced during a run.
type Reporter interface {
	Progress(message string)
	FileProgress(current, total int, filename string)
	FileProcessed(filename, caption string)
	Summary(s types.RunSummary)
	Error(message string)
}

// Engine orchestrates one batch run. Images are processed strictly in
// discovery order, one at a time: backends need exclusive accelerator
// memory, so there is never more than one invocation in flight.
type Engine struct {
	cfg      *config.Config
	invoker  Invoker
	store    Store
	reporter Reporter
	logger   logger.Logger
}

// New creates an engine with its collaborators injected.
func New(cfg *config.Config, inv Invoker, st Store, rep Reporter, log logger.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		invoker:  inv,
		store:    st,
		reporter: rep,
		logger:   log,
	}
}

// Run executes one complete pass over the source folder. Discovery-time
// failures abort with an error event and no summary; per-image failures are
// accumulated and the run always finishes with a summary event.
func (e *Engine) Run(ctx context.Context) (*types.RunSummary, error) {
	files, err := discovery.Discover(e.cfg.SourceFolder, e.cfg.CaptionExt)
	if err != nil {
		e.reporter.Error(fmt.Sprintf("Batch caption generation failed: %v", err))
		return nil, err
	}
	if len(files) == 0 {
		msg := fmt.Sprintf("No image files found in %s", e.cfg.SourceFolder)
		e.reporter.Error(msg)
		return nil, errors.New(msg)
	}

	run := newBatchRun(len(files))
	log := e.logger.WithScope(run.shortID())
	start := time.Now()

	log.Info("Starting batch run",
		logger.WithField("folder", e.cfg.SourceFolder),
		logger.WithField("model", e.cfg.Model),
		logger.WithField("images", run.total))
	e.reporter.Progress(fmt.Sprintf("Found %d images to process", run.total))

	for i, img := range files {
		if ctx.Err() != nil {
			log.Warn("Run interrupted", logger.WithField("remaining", run.total-i))
			break
		}
		e.processImage(ctx, log, run, i, img)
	}

	summary := run.summary(time.Since(start))
	e.reporter.Summary(summary)
	e.reporter.Progress(fmt.Sprintf(
		"Batch caption generation completed! Processed: %d, Skipped: %d, Failed: %d",
		len(summary.Processed), len(summary.Skipped), len(summary.Failed)))

	log.Success("Batch run finished",
		logger.WithField("processed", len(summary.Processed)),
		logger.WithField("skipped", len(summary.Skipped)),
		logger.WithField("failed", len(summary.Failed)),
		logger.WithField("elapsed", summary.Elapsed.Round(time.Second)))

	return &summary, nil
}

// ProcessOne captions a single image outside a batch run, reusing the same
// transition rules and per-file events. Watch mode feeds images through here.
func (e *Engine) ProcessOne(ctx context.Context, img types.ImageFile) types.FileStatus {
	run := newBatchRun(1)
	return e.processImage(ctx, e.logger, run, 0, img)
}

// processImage moves one image from pending to a terminal state.
func (e *Engine) processImage(ctx context.Context, log logger.Logger, run *batchRun, idx int, img types.ImageFile) (status types.FileStatus) {
	name := img.Name()

	// Whatever goes wrong below, the image must land in a terminal state
	// and the run must carry on.
	defer func() {
		if r := recover(); r != nil {
			run.fail(name)
			status = types.FileStatusFailed
			log.Error("Unexpected failure while processing image",
				logger.WithField("file", name),
				logger.WithField("panic", r))
		}
	}()

	if !e.cfg.Overwrite && e.store.Exists(img) {
		run.skip(name)
		e.reporter.Progress(fmt.Sprintf("Skipped %s (caption exists)", name))
		return types.FileStatusSkipped
	}

	e.reporter.FileProgress(idx+1, run.total, name)

	res, err := e.invoker.Invoke(ctx, types.CaptionRequest{
		Backend:   types.Backend(e.cfg.Model),
		Style:     types.Style(e.cfg.Style),
		MaxTokens: e.cfg.MaxTokens,
		ImagePath: img.Path,
	})
	if err != nil {
		run.fail(name)
		log.Error("Caption generation failed",
			logger.WithField("file", name),
			logger.WithField("error", err))
		return types.FileStatusFailed
	}
	if res.Failed() {
		run.fail(name)
		log.Error("Caption generation failed",
			logger.WithField("file", name),
			logger.WithField("reason", res.FailReason))
		return types.FileStatusFailed
	}

	caption := res.Text
	if caption == "" || strings.HasPrefix(caption, types.ErrorMarker) {
		// The worker exited cleanly but flagged the result as an error.
		run.fail(name)
		log.Error("Backend reported an error caption",
			logger.WithField("file", name),
			logger.WithField("caption", caption))
		return types.FileStatusFailed
	}

	if res.Degraded {
		log.Warn("Backend output was malformed, used raw text",
			logger.WithField("file", name))
	}

	if err := e.store.Save(img, caption, e.cfg.Template); err != nil {
		run.fail(name)
		log.Error("Failed to save caption",
			logger.WithField("file", name),
			logger.WithField("error", err))
		return types.FileStatusFailed
	}

	run.process(name)
	e.reporter.FileProcessed(name, caption)
	return types.FileStatusSucceeded
}
