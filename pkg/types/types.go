// Package types provides core types shared by the batchcaption components
package types

import (
	"fmt"
	"path/filepath"
	"time"
)

// Backend identifies a supported captioning worker.
type Backend string

const (
	BackendBLIP     Backend = "blip"
	BackendBLIP2    Backend = "blip2"
	BackendGPT4V    Backend = "gpt-4-vision"
	BackendViTGPT2  Backend = "vit-gpt2"
	BackendFlorence Backend = "florence-2"
)

// DefaultBackend is used when no model is selected.
const DefaultBackend = BackendFlorence

// AllBackends lists every supported backend in display order.
func AllBackends() []Backend {
	return []Backend{
		BackendBLIP,
		BackendBLIP2,
		BackendGPT4V,
		BackendViTGPT2,
		BackendFlorence,
	}
}

// ParseBackend validates a backend identifier.
func ParseBackend(s string) (Backend, error) {
	b := Backend(s)
	for _, known := range AllBackends() {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown backend: %s", s)
}

// Style selects the caption tone/format passed through to backends.
type Style string

const (
	StyleDetailed Style = "detailed"
	StyleSimple   Style = "simple"
	StyleTags     Style = "tags"
	StyleArtistic Style = "artistic"
)

// DefaultStyle is used when no style is selected.
const DefaultStyle = StyleDetailed

// AllStyles lists every supported caption style.
func AllStyles() []Style {
	return []Style{StyleDetailed, StyleSimple, StyleTags, StyleArtistic}
}

// ParseStyle validates a style identifier.
func ParseStyle(s string) (Style, error) {
	st := Style(s)
	for _, known := range AllStyles() {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown style: %s", s)
}

// ErrorMarker is the reserved prefix a worker may print on stdout to signal
// failure despite a clean exit. Captions starting with it are never persisted.
const ErrorMarker = "Error:"

// ImageFile is one discovered source image. It is immutable after discovery.
type ImageFile struct {
	// Path to the image as given by discovery.
	Path string
	// Ext is the lower-cased file extension including the dot.
	Ext string
	// CaptionPath is the sidecar text file sharing the image's base name.
	CaptionPath string
}

// Name returns the image's base filename.
func (f ImageFile) Name() string {
	return filepath.Base(f.Path)
}

// CaptionRequest describes one backend invocation.
type CaptionRequest struct {
	Backend   Backend
	Style     Style
	MaxTokens int
	ImagePath string
}

// CaptionResult is the normalized outcome of one backend invocation.
// A failed invocation reports its reason in-band rather than as an error so
// the orchestrator can classify it without unwrapping.
type CaptionResult struct {
	// Text is the caption on success.
	Text string
	// Degraded is set when the worker's structured output could not be
	// parsed and the raw stdout was used instead.
	Degraded bool
	// FailReason is non-empty iff the invocation failed.
	FailReason string
	// Stderr holds the worker's diagnostic output, when any was produced.
	Stderr string
}

// Failed reports whether the invocation produced no usable caption.
func (r CaptionResult) Failed() bool {
	return r.FailReason != ""
}

// FileStatus tracks an image through the batch state machine.
type FileStatus string

const (
	FileStatusPending    FileStatus = "pending"
	FileStatusSkipped    FileStatus = "skipped"
	FileStatusDispatched FileStatus = "dispatched"
	FileStatusSucceeded  FileStatus = "succeeded"
	FileStatusFailed     FileStatus = "failed"
)

// Terminal reports whether no further transition is possible.
func (s FileStatus) Terminal() bool {
	switch s {
	case FileStatusSkipped, FileStatusSucceeded, FileStatusFailed:
		return true
	}
	return false
}

// RunSummary aggregates the outcome of one complete batch run.
type RunSummary struct {
	RunID      string
	TotalFiles int
	Processed  []string
	Skipped    []string
	Failed     []string
	Elapsed    time.Duration
}
