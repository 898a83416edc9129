//go:build !linux

package surface

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Development machines have no framebuffer console; frames go to a PNG
// under the temp dir so the rotation can be eyeballed.
func newPlatformSurface(opts Options) (Surface, error) {
	path := filepath.Join(os.TempDir(), "adloop", "frame.png")
	opts.Logger.Info("no framebuffer on this platform, writing frames to file",
		zap.String("path", path))
	return NewFileSurface(path, opts.Width, opts.Height, opts.Logger)
}
