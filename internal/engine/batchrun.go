package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/fluxyoga/batchcaption/pkg/types"
)

// batchRun accumulates per-image outcomes for one pass. It is mutated only
// by the engine's own sequential loop, so no locking is needed.
type batchRun struct {
	id        string
	total     int
	processed []string
	skipped   []string
	failed    []string
}

func newBatchRun(total int) *batchRun {
	return &batchRun{
		id:        uuid.New().String(),
		total:     total,
		processed: []string{},
		skipped:   []string{},
		failed:    []string{},
	}
}

// shortID is the log-friendly run identifier.
func (r *batchRun) shortID() string {
	return "run-" + r.id[:8]
}

func (r *batchRun) process(name string) { r.processed = append(r.processed, name) }
func (r *batchRun) skip(name string)    { r.skipped = append(r.skipped, name) }
func (r *batchRun) fail(name string)    { r.failed = append(r.failed, name) }

func (r *batchRun) summary(elapsed time.Duration) types.RunSummary {
	return types.RunSummary{
		RunID:      r.id,
		TotalFiles: r.total,
		Processed:  r.processed,
		Skipped:    r.skipped,
		Failed:     r.failed,
		Elapsed:    elapsed,
	}
}
