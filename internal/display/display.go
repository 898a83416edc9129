// Package display resolves the target canvas geometry. Orientation is
// fixed for the lifetime of the process: either forced through settings
// or detected once from the attached display.
package display

import (
	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
)

// Orientation classifies the canvas as landscape or portrait.
type Orientation int

const (
	Landscape Orientation = iota
	Portrait
)

func (o Orientation) String() string {
	if o == Portrait {
		return "portrait"
	}
	return "landscape"
}

// Canonical signage resolutions, used when an orientation is forced or
// when detection is unavailable.
const (
	LandscapeWidth  = 1920
	LandscapeHeight = 1080
	PortraitWidth   = 1080
	PortraitHeight  = 1920
)

// Geometry is the resolved canvas: an orientation plus pixel extents.
type Geometry struct {
	Orientation Orientation
	Width       int
	Height      int
}

// Resolve determines the canvas geometry. A forced orientation always
// wins and maps to the canonical resolution for that orientation.
// Otherwise the primary display is probed and classified by aspect
// ratio; probe failure falls back to landscape 1920x1080 and is never
// fatal.
func Resolve(forced string, logger *zap.Logger) Geometry {
	switch forced {
	case "landscape":
		logger.Info("orientation forced", zap.String("orientation", "landscape"))
		return Geometry{Landscape, LandscapeWidth, LandscapeHeight}
	case "portrait":
		logger.Info("orientation forced", zap.String("orientation", "portrait"))
		return Geometry{Portrait, PortraitWidth, PortraitHeight}
	}

	if screenshot.NumActiveDisplays() < 1 {
		logger.Warn("no active display detected, assuming landscape 1920x1080")
		return Geometry{Landscape, LandscapeWidth, LandscapeHeight}
	}

	bounds := screenshot.GetDisplayBounds(0)
	g := Classify(bounds.Dx(), bounds.Dy())
	logger.Info("display detected",
		zap.Int("width", g.Width),
		zap.Int("height", g.Height),
		zap.Stringer("orientation", g.Orientation))
	return g
}

// Classify buckets a resolution by aspect ratio: wider than tall is
// landscape, everything else portrait. Degenerate dimensions fall back
// to canonical landscape.
func Classify(width, height int) Geometry {
	if width <= 0 || height <= 0 {
		return Geometry{Landscape, LandscapeWidth, LandscapeHeight}
	}
	if width > height {
		return Geometry{Landscape, width, height}
	}
	return Geometry{Portrait, width, height}
}

// Fit describes a scaled placement centered on a canvas.
type Fit struct {
	Width   int
	Height  int
	OffsetX int
	OffsetY int
}

// FitRect scales media dimensions onto a canvas preserving aspect
// ratio: media relatively wider than the canvas is bounded by canvas
// width, relatively taller media by canvas height. The scaled rect is
// centered; offsets may be zero but never negative.
func FitRect(mediaW, mediaH, canvasW, canvasH int) Fit {
	if mediaW <= 0 || mediaH <= 0 || canvasW <= 0 || canvasH <= 0 {
		return Fit{}
	}

	// Cross-multiplied aspect comparison keeps this in integer math:
	// mediaW/mediaH > canvasW/canvasH equals mediaW*canvasH > canvasW*mediaH.
	var w, h int
	if mediaW*canvasH > canvasW*mediaH {
		w = canvasW
		h = canvasW * mediaH / mediaW
	} else {
		h = canvasH
		w = canvasH * mediaW / mediaH
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	return Fit{
		Width:   w,
		Height:  h,
		OffsetX: (canvasW - w) / 2,
		OffsetY: (canvasH - h) / 2,
	}
}
