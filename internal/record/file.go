package record

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileRecorder writes the link record to a local file, truncating it first
type FileRecorder struct {
	Path string
}

func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{Path: path}
}

func (f *FileRecorder) Save(ctx context.Context, links []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create directory for %s", f.Path)
		}
	}
	if err := os.WriteFile(f.Path, Format(links), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", f.Path)
	}
	return nil
}
