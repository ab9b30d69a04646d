// Package programstore implements controller.ProgramSource by reading
// print-program files (pre-supplied piece programs, or slicer output) off
// local disk. Grounded on spec.md §4.2's "program_file" being a bare
// filename the external slicer/storefront hands back; no corpus library
// covers local file I/O, so this stays on the standard library
// (os/filepath) rather than a third-party dependency.
package programstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/print-farm/farm-go/internal/domain/device"
)

// FilesystemSource resolves a task's ProgramFile against BaseDir.
type FilesystemSource struct {
	BaseDir string
}

// NewFilesystemSource constructs a FilesystemSource rooted at baseDir.
func NewFilesystemSource(baseDir string) *FilesystemSource {
	return &FilesystemSource{BaseDir: baseDir}
}

// Open reads the task's program file and returns its basename plus content.
func (s *FilesystemSource) Open(ctx context.Context, t *device.Task) (string, []byte, error) {
	path := t.ProgramFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.BaseDir, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(path), content, nil
}
