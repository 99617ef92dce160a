// Package discovery enumerates caption-eligible image files in a source folder.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fluxyoga/batchcaption/pkg/types"
)

// ErrFolderNotFound is returned when the source folder does not exist.
var ErrFolderNotFound = errors.New("source folder not found")

// Supported image file extensions (lowercase, with leading dot).
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// Discover returns the image files directly inside folder, non-recursive,
// in lexicographic filename order. captionExt names the sidecar extension
// used to derive each file's caption path.
func Discover(folder, captionExt string) ([]types.ImageFile, error) {
	info, err := os.Stat(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, folder)
		}
		return nil, fmt.Errorf("failed to stat source folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrFolderNotFound, folder)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read source folder: %w", err)
	}

	var files []types.ImageFile
	// os.ReadDir returns entries sorted by filename, which gives the
	// deterministic processing order downstream code relies on.
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if f, ok := FileFor(filepath.Join(folder, e.Name()), captionExt); ok {
			files = append(files, f)
		}
	}

	return files, nil
}

// FileFor builds the ImageFile for path, reporting false when the extension
// is not a supported image type.
func FileFor(path, captionExt string) (types.ImageFile, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if !imageExtensions[ext] {
		return types.ImageFile{}, false
	}
	return types.ImageFile{
		Path:        path,
		Ext:         ext,
		CaptionPath: strings.TrimSuffix(path, filepath.Ext(path)) + captionExt,
	}, true
}
