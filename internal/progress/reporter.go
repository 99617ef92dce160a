// Package progress emits the line-oriented JSON status protocol consumed by
// an external UI process. One JSON object per line, always on the reporter's
// writer (stdout in production); human-readable logs go elsewhere.
package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/fluxyoga/batchcaption/pkg/types"
)

// maxCaptionPreview bounds the caption text shown in file_processed events.
// Presentation only: the persisted sidecar always holds the full caption.
const maxCaptionPreview = 100

type progressEvent struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Current  int    `json:"current,omitempty"`
	Total    int    `json:"total,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type fileProcessedEvent struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	Caption  string `json:"caption"`
}

type summaryEvent struct {
	Type           string   `json:"type"`
	TotalFiles     int      `json:"total_files"`
	Processed      int      `json:"processed"`
	Skipped        int      `json:"skipped"`
	Failed         int      `json:"failed"`
	ProcessedFiles []string `json:"processed_files"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Reporter serializes protocol events onto a single writer.
type Reporter struct {
	enc *json.Encoder
	mu  sync.Mutex
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	enc := json.NewEncoder(w)
	// Captions may legitimately contain <, > and &.
	enc.SetEscapeHTML(false)
	return &Reporter{enc: enc}
}

func (r *Reporter) emit(event interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Encoding failures are swallowed: the protocol stream has no side
	// channel, and a broken pipe ends the run through the next write anyway.
	_ = r.enc.Encode(event)
}

// Progress emits an informational progress event.
func (r *Reporter) Progress(message string) {
	r.emit(progressEvent{Type: "progress", Message: message})
}

// FileProgress emits the per-image progress event with position fields.
func (r *Reporter) FileProgress(current, total int, filename string) {
	r.emit(progressEvent{
		Type:     "progress",
		Message:  fmt.Sprintf("Processing %d/%d: %s", current, total, filename),
		Current:  current,
		Total:    total,
		Filename: filename,
	})
}

// FileProcessed emits the caption event for one successfully captioned image.
func (r *Reporter) FileProcessed(filename, caption string) {
	r.emit(fileProcessedEvent{
		Type:     "file_processed",
		Filename: filename,
		Caption:  truncateCaption(caption),
	})
}

// Summary emits the end-of-run counters.
func (r *Reporter) Summary(s types.RunSummary) {
	processed := s.Processed
	if processed == nil {
		processed = []string{}
	}
	r.emit(summaryEvent{
		Type:           "summary",
		TotalFiles:     s.TotalFiles,
		Processed:      len(s.Processed),
		Skipped:        len(s.Skipped),
		Failed:         len(s.Failed),
		ProcessedFiles: processed,
	})
}

// Error emits a run-terminating error event.
func (r *Reporter) Error(message string) {
	r.emit(errorEvent{Type: "error", Message: message})
}

// truncateCaption limits the preview to maxCaptionPreview characters with an
// ellipsis marker. Counted in runes so multi-byte text is not cut mid-character.
func truncateCaption(caption string) string {
	runes := []rune(caption)
	if len(runes) <= maxCaptionPreview {
		return caption
	}
	return string(runes[:maxCaptionPreview]) + "..."
}
