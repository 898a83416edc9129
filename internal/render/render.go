// Package render composes full-canvas frames: scaled ad images,
// centered status messages, and the animated placeholder shown when a
// video has no working external backend.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"adloop/internal/display"
)

// labelFace is the bitmap face used for overlays and status text.
var labelFace = basicfont.Face7x13

const lineSpacing = 8

// Compositor builds frames for a fixed canvas size and background
// color. It holds no mutable state and is safe for reuse across ads.
type Compositor struct {
	width      int
	height     int
	background color.NRGBA
}

// NewCompositor creates a compositor for a width x height canvas with
// the given RGB background.
func NewCompositor(width, height int, bg [3]uint8) *Compositor {
	return &Compositor{
		width:      width,
		height:     height,
		background: color.NRGBA{R: bg[0], G: bg[1], B: bg[2], A: 255},
	}
}

// Size returns the canvas dimensions.
func (c *Compositor) Size() (int, int) {
	return c.width, c.height
}

// Canvas returns a fresh frame filled with the background color.
func (c *Compositor) Canvas() *image.NRGBA {
	return imaging.New(c.width, c.height, c.background)
}

// ImageFrame scales src to fit the canvas preserving aspect ratio and
// centers it over the background.
func (c *Compositor) ImageFrame(src image.Image) *image.NRGBA {
	b := src.Bounds()
	fit := display.FitRect(b.Dx(), b.Dy(), c.width, c.height)
	if fit.Width < 1 || fit.Height < 1 {
		return c.Canvas()
	}
	scaled := imaging.Resize(src, fit.Width, fit.Height, imaging.Lanczos)
	return imaging.Paste(c.Canvas(), scaled, image.Pt(fit.OffsetX, fit.OffsetY))
}

// MessageFrame centers one or more text lines on the background. Used
// for the empty-playlist notice and unreadable-media placeholders.
func (c *Compositor) MessageFrame(lines ...string) *image.NRGBA {
	frame := c.Canvas()
	c.drawCentered(frame, lines, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return frame
}

// PlaceholderFrame is one frame of the in-process video placeholder: a
// slowly pulsating background with the file name and elapsed time
// overlaid. The pulse phase derives from now, so consecutive frames
// animate; the period is two seconds.
func (c *Compositor) PlaceholderFrame(name string, elapsed time.Duration, now time.Time) *image.NRGBA {
	phase := math.Abs(math.Mod(float64(now.UnixMilli())/1000.0, 2) - 1)
	intensity := 128 + int(127*phase)

	bg := color.NRGBA{
		R: uint8(intensity / 4),
		G: uint8(intensity / 6),
		B: uint8(intensity / 8),
		A: 255,
	}
	frame := imaging.New(c.width, c.height, bg)

	lines := []string{
		"VIDEO: " + name,
		fmt.Sprintf("Time: %.1fs", elapsed.Seconds()),
	}
	c.drawCentered(frame, lines, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return frame
}

// drawCentered paints lines centered on the canvas with a one-pixel
// drop shadow.
func (c *Compositor) drawCentered(dst *image.NRGBA, lines []string, col color.NRGBA) {
	lineHeight := labelFace.Metrics().Height.Ceil() + lineSpacing
	startY := c.height/2 - lineHeight*(len(lines)-1)/2
	for i, line := range lines {
		x := (c.width - MeasureLabel(line)) / 2
		y := startY + i*lineHeight
		DrawLabel(dst, line, x, y, col)
	}
}

// MeasureLabel returns the pixel width of s in the label face.
func MeasureLabel(s string) int {
	return font.MeasureString(labelFace, s).Ceil()
}

// DrawLabel draws s at (x, y) in the label face with a one-pixel drop
// shadow. y is the text baseline.
func DrawLabel(dst *image.NRGBA, s string, x, y int, col color.NRGBA) {
	drawString(dst, s, x+1, y+1, color.NRGBA{A: 255})
	drawString(dst, s, x, y, col)
}

func drawString(dst *image.NRGBA, s string, x, y int, col color.NRGBA) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: labelFace,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
