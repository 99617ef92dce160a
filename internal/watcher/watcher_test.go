package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fluxyoga/batchcaption/internal/watcher"
	"github.com/fluxyoga/batchcaption/pkg/logger"
	"github.com/fluxyoga/batchcaption/pkg/types"
)

type recorder struct {
	mu    sync.Mutex
	files []string
}

func (r *recorder) handle(ctx context.Context, img types.ImageFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, img.Name())
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}

func TestWatcher_DispatchesNewImages(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	log := logger.CreateLoggerWithOutput("error", os.Stderr)

	w, err := watcher.New(dir, ".txt", 10*time.Millisecond, rec.handle, log)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()

	// Give the watch loop a moment to come up before creating files.
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "new.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		if files := rec.seen(); len(files) > 0 {
			if files[0] != "new.jpg" {
				t.Errorf("dispatched %q, want new.jpg", files[0])
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for dispatch")
		case <-time.After(20 * time.Millisecond):
		}
	}

	for _, f := range rec.seen() {
		if f == "notes.txt" {
			t.Error("non-image file must not be dispatched")
		}
	}

	cancel()
	<-done
}

func TestWatcher_MissingFolder(t *testing.T) {
	log := logger.CreateLoggerWithOutput("error", os.Stderr)
	_, err := watcher.New(filepath.Join(t.TempDir(), "nope"), ".txt", 0, func(context.Context, types.ImageFile) {}, log)
	if err == nil {
		t.Fatal("expected error for missing folder")
	}
}
