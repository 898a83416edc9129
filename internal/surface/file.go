package surface

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// FileSurface writes every presented frame to a single PNG file,
// replacing it atomically so a viewer never reads a half-written
// image. It stands in for the framebuffer in development and tests.
type FileSurface struct {
	logger *zap.Logger
	path   string
	tmp    string
	width  int
	height int
}

// NewFileSurface creates a file surface of the given extents writing
// to path. The parent directory is created if needed.
func NewFileSurface(path string, width, height int, logger *zap.Logger) (*FileSurface, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid file surface size %dx%d", width, height)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}

	// The temp name keeps the .png extension so the encoder picks the
	// right format.
	ext := filepath.Ext(path)
	tmp := strings.TrimSuffix(path, ext) + ".tmp" + ext

	logger.Info("file surface ready",
		zap.String("path", path), zap.Int("width", width), zap.Int("height", height))

	return &FileSurface{
		logger: logger,
		path:   path,
		tmp:    tmp,
		width:  width,
		height: height,
	}, nil
}

func (s *FileSurface) Bounds() (int, int) {
	return s.width, s.height
}

// Present encodes the frame next to the target and renames it into
// place.
func (s *FileSurface) Present(frame *image.NRGBA) error {
	if err := imaging.Save(frame, s.tmp); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	if err := os.Rename(s.tmp, s.path); err != nil {
		return fmt.Errorf("replace frame: %w", err)
	}
	return nil
}

// Release removes any leftover temp frame.
func (s *FileSurface) Release() {
	os.Remove(s.tmp)
}
