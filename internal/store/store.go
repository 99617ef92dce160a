// Package store persists caption sidecar files next to their images.
package store

import (
	"fmt"
	"os"
	"strings"

	"github.com/fluxyoga/batchcaption/pkg/types"
)

// TemplatePlaceholder is the substitution marker inside caption templates.
const TemplatePlaceholder = "{caption}"

// Sidecar writes captions as plain-text files sharing the image's base name.
// The decision to overwrite belongs to the caller; Save always overwrites.
type Sidecar struct{}

// New creates a sidecar caption store.
func New() *Sidecar {
	return &Sidecar{}
}

// Exists reports whether a caption sidecar is already present for img.
func (s *Sidecar) Exists(img types.ImageFile) bool {
	info, err := os.Stat(img.CaptionPath)
	return err == nil && !info.IsDir()
}

// Save writes the caption sidecar for img. When template contains the
// placeholder marker, the caption is substituted into it; otherwise the raw
// caption is written verbatim. Content is UTF-8 as-is.
func (s *Sidecar) Save(img types.ImageFile, caption, template string) error {
	final := caption
	if template != "" && strings.Contains(template, TemplatePlaceholder) {
		final = strings.ReplaceAll(template, TemplatePlaceholder, caption)
	}

	if err := os.WriteFile(img.CaptionPath, []byte(final), 0o644); err != nil {
		return fmt.Errorf("failed to write caption file: %w", err)
	}
	return nil
}
