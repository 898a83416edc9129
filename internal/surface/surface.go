// Package surface owns the pixels: it presents composed frames on the
// Linux framebuffer console in production, or into a PNG file for
// development and tests. Exactly one goroutine presents at a time.
package surface

import (
	"image"

	"go.uber.org/zap"
)

// Surface is a fixed-size render target.
type Surface interface {
	// Bounds returns the surface dimensions in pixels.
	Bounds() (width, height int)
	// Present displays one full frame. Frames must match Bounds.
	Present(frame *image.NRGBA) error
	// Release frees the underlying resources.
	Release()
}

// Options configure surface creation.
type Options struct {
	// Device is the framebuffer device path (default /dev/fb0).
	Device string
	// FramePath, when set, bypasses the framebuffer and writes frames
	// to this PNG file instead.
	FramePath string
	// Width and Height are the wanted canvas extents; the framebuffer
	// path requests this mode best-effort and then adopts whatever the
	// hardware reports.
	Width  int
	Height int
	Logger *zap.Logger
}

// New opens the platform surface: the framebuffer on Linux, a frame
// file elsewhere. A set FramePath always wins. Failure to open a
// surface is fatal to the player, so New returns the error untouched.
func New(opts Options) (Surface, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.FramePath != "" {
		return NewFileSurface(opts.FramePath, opts.Width, opts.Height, opts.Logger)
	}
	return newPlatformSurface(opts)
}
