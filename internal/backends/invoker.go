package backends

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/fluxyoga/batchcaption/pkg/config"
	"github.com/fluxyoga/batchcaption/pkg/logger"
	"github.com/fluxyoga/batchcaption/pkg/types"
)

// fallbackCaption is emitted when a JSON worker responds without a caption
// field, matching the worker-side contract.
const fallbackCaption = "No caption generated"

// Invoker runs captioning workers as bounded external processes.
//
// A weighted semaphore of one serializes invocations: the workers load
// models into accelerator memory that cannot be shared, so at most one
// backend process may be alive at any moment.
type Invoker struct {
	python     string
	scriptsDir string
	timeout    time.Duration
	logger     logger.Logger
	slot       *semaphore.Weighted
}

// NewInvoker creates an invoker from the runtime configuration.
func NewInvoker(cfg *config.Config, log logger.Logger) *Invoker {
	return &Invoker{
		python:     cfg.Python,
		scriptsDir: cfg.ScriptsDir,
		timeout:    cfg.Timeout(),
		logger:     log,
		slot:       semaphore.NewWeighted(1),
	}
}

// Invoke runs the worker mapped to req.Backend exactly once and normalizes
// its outcome. Per-invocation failures (timeout, non-zero exit) are reported
// in-band through the result; the returned error is reserved for unsupported
// backends and cancellation of ctx.
func (inv *Invoker) Invoke(ctx context.Context, req types.CaptionRequest) (types.CaptionResult, error) {
	spec, err := lookup(req.Backend)
	if err != nil {
		// Fail fast: no process is spawned for an unknown backend.
		return types.CaptionResult{}, err
	}

	if err := inv.slot.Acquire(ctx, 1); err != nil {
		return types.CaptionResult{}, err
	}
	defer inv.slot.Release(1)

	cctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	args := append([]string{filepath.Join(inv.scriptsDir, spec.script)}, spec.buildArgs(req)...)
	cmd := exec.CommandContext(cctx, inv.python, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// A killed worker may leave orphaned children holding the output pipes;
	// stop waiting on them shortly after the context fires.
	cmd.WaitDelay = 5 * time.Second

	inv.logger.Debug("Invoking captioning worker",
		logger.WithField("backend", req.Backend),
		logger.WithField("image", filepath.Base(req.ImagePath)))

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		// The run itself was cancelled, not this single invocation.
		return types.CaptionResult{}, ctx.Err()
	}

	diag := strings.TrimSpace(stderr.String())

	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		// The context has already killed the process; its output is discarded.
		inv.logger.Warn("Caption worker timed out",
			logger.WithField("backend", req.Backend),
			logger.WithField("timeout", inv.timeout))
		return types.CaptionResult{FailReason: "timeout", Stderr: diag}, nil
	}

	if runErr != nil {
		reason := diag
		if reason == "" {
			reason = "unknown error"
		}
		return types.CaptionResult{FailReason: reason, Stderr: diag}, nil
	}

	inv.logger.Debug("Caption worker finished",
		logger.WithField("backend", req.Backend),
		logger.WithField("elapsed", elapsed.Round(time.Millisecond)))

	raw := strings.TrimSpace(stdout.String())
	if spec.jsonOutput {
		return normalizeJSONOutput(raw), nil
	}
	return types.CaptionResult{Text: raw, Stderr: diag}, nil
}

// normalizeJSONOutput extracts the caption from a JSON worker response.
// Malformed JSON falls back to the raw trimmed output, flagged as degraded:
// a zero exit code must never be reclassified as a failure because of an
// output format discrepancy.
func normalizeJSONOutput(raw string) types.CaptionResult {
	var envelope struct {
		Caption string `json:"caption"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return types.CaptionResult{Text: raw, Degraded: true}
	}
	if envelope.Caption == "" {
		return types.CaptionResult{Text: fallbackCaption}
	}
	return types.CaptionResult{Text: envelope.Caption}
}

// CheckResult is the outcome of a single-backend smoke check.
type CheckResult struct {
	Backend types.Backend
	Result  types.CaptionResult
	Elapsed time.Duration
	Err     error
}

// CheckAll invokes every supported backend once against imagePath and
// collects the outcomes. Backends run strictly one after another.
func (inv *Invoker) CheckAll(ctx context.Context, imagePath string, style types.Style, maxTokens int) ([]CheckResult, error) {
	var results []CheckResult
	for _, b := range Supported() {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		req := types.CaptionRequest{
			Backend:   b,
			Style:     style,
			MaxTokens: maxTokens,
			ImagePath: imagePath,
		}

		start := time.Now()
		res, err := inv.Invoke(ctx, req)
		if err != nil && !errors.Is(err, ErrUnsupportedBackend) {
			return results, fmt.Errorf("check aborted at %s: %w", b, err)
		}
		results = append(results, CheckResult{
			Backend: b,
			Result:  res,
			Elapsed: time.Since(start).Round(time.Millisecond),
			Err:     err,
		})
	}
	return results, nil
}
