package types_test

import (
	"testing"

	"github.com/fluxyoga/batchcaption/pkg/types"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		input   string
		want    types.Backend
		wantErr bool
	}{
		{"blip", types.BackendBLIP, false},
		{"blip2", types.BackendBLIP2, false},
		{"gpt-4-vision", types.BackendGPT4V, false},
		{"vit-gpt2", types.BackendViTGPT2, false},
		{"florence-2", types.BackendFlorence, false},
		{"florence2", "", true},
		{"", "", true},
		{"BLIP", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := types.ParseBackend(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBackend(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBackend(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseStyle(t *testing.T) {
	for _, s := range types.AllStyles() {
		if _, err := types.ParseStyle(string(s)); err != nil {
			t.Errorf("ParseStyle(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := types.ParseStyle("verbose"); err == nil {
		t.Error("expected error for unknown style")
	}
}

func TestDefaultBackendIsSupported(t *testing.T) {
	if _, err := types.ParseBackend(string(types.DefaultBackend)); err != nil {
		t.Fatalf("default backend not in supported set: %v", err)
	}
}

func TestImageFile_Name(t *testing.T) {
	f := types.ImageFile{Path: "/data/images/cat.JPG", Ext: ".jpg", CaptionPath: "/data/images/cat.txt"}
	if f.Name() != "cat.JPG" {
		t.Errorf("Name() = %q, want cat.JPG", f.Name())
	}
}

func TestFileStatus_Terminal(t *testing.T) {
	terminal := []types.FileStatus{
		types.FileStatusSkipped,
		types.FileStatusSucceeded,
		types.FileStatusFailed,
	}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	if types.FileStatusPending.Terminal() || types.FileStatusDispatched.Terminal() {
		t.Error("pending and dispatched must not be terminal")
	}
}

func TestCaptionResult_Failed(t *testing.T) {
	if (types.CaptionResult{Text: "a cat"}).Failed() {
		t.Error("result with text must not report failure")
	}
	if !(types.CaptionResult{FailReason: "timeout"}).Failed() {
		t.Error("result with reason must report failure")
	}
}
