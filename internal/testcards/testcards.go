// Package testcards generates sample ad images so a fresh install has
// content to rotate before real creative lands. Cards cover the common
// landscape and portrait signage resolutions plus a few generic ads.
package testcards

import (
	"fmt"
	"image"
	"image/color"
	"math/rand"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"adloop/internal/render"
	"adloop/internal/system"
)

// palette holds the card background colors; each card draws one at
// random.
var palette = []color.NRGBA{
	{R: 231, G: 76, B: 60, A: 255},  // red
	{R: 46, G: 204, B: 113, A: 255}, // green
	{R: 52, G: 152, B: 219, A: 255}, // blue
	{R: 241, G: 196, B: 15, A: 255}, // yellow
	{R: 155, G: 89, B: 182, A: 255}, // purple
	{R: 26, G: 188, B: 156, A: 255}, // teal
	{R: 230, G: 126, B: 34, A: 255}, // orange
	{R: 52, G: 73, B: 94, A: 255},   // slate
}

var landscapeSizes = [][2]int{
	{1920, 1080},
	{1366, 768},
	{1280, 720},
}

var portraitSizes = [][2]int{
	{1080, 1920},
	{768, 1366},
	{720, 1280},
}

var genericLabels = []string{
	"Welcome to Digital Signage!",
	"Your Ad Could Be Here",
	"Raspberry Pi Powered",
	"Professional Display Solution",
	"Auto-Scaling Content",
}

const cornerMarkerSize = 40

// Generate writes the full card set into dir and returns the created
// paths.
func Generate(dir string, logger *zap.Logger) ([]string, error) {
	if err := system.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create cards dir: %w", err)
	}

	var paths []string
	save := func(name string, img *image.NRGBA) error {
		path := filepath.Join(dir, name)
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
		paths = append(paths, path)
		return nil
	}

	for _, size := range landscapeSizes {
		name := fmt.Sprintf("landscape_%dx%d.png", size[0], size[1])
		card := renderCard(size[0], size[1],
			"Landscape Test Card",
			fmt.Sprintf("%d x %d", size[0], size[1]))
		if err := save(name, card); err != nil {
			return paths, err
		}
	}

	for _, size := range portraitSizes {
		name := fmt.Sprintf("portrait_%dx%d.png", size[0], size[1])
		card := renderCard(size[0], size[1],
			"Portrait Test Card",
			fmt.Sprintf("%d x %d", size[0], size[1]))
		if err := save(name, card); err != nil {
			return paths, err
		}
	}

	// Generic ads come in both orientations so a portrait deployment
	// gets full-bleed samples too.
	for i, label := range genericLabels {
		name := fmt.Sprintf("generic_landscape_ad%d.png", i+1)
		if err := save(name, renderCard(1920, 1080, label, "1920 x 1080")); err != nil {
			return paths, err
		}
		name = fmt.Sprintf("generic_portrait_ad%d.png", i+1)
		if err := save(name, renderCard(1080, 1920, label, "1080 x 1920")); err != nil {
			return paths, err
		}
	}

	logger.Info("test cards generated",
		zap.Int("count", len(paths)), zap.String("dir", dir))
	return paths, nil
}

// renderCard paints one card: random background, corner markers, and
// centered shadowed labels.
func renderCard(width, height int, lines ...string) *image.NRGBA {
	bg := palette[rand.Intn(len(palette))]
	img := imaging.New(width, height, bg)

	drawCornerMarkers(img, cornerMarkerSize)

	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	lineHeight := 26
	startY := height/2 - lineHeight*(len(lines)-1)/2
	for i, line := range lines {
		x := (width - render.MeasureLabel(line)) / 2
		render.DrawLabel(img, line, x, startY+i*lineHeight, white)
	}

	return img
}

// drawCornerMarkers paints a white triangle in each corner, making
// cropping or mis-scaling on the display obvious at a glance.
func drawCornerMarkers(img *image.NRGBA, size int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}

	for y := 0; y < size && y < h; y++ {
		for x := 0; x < size-y && x < w; x++ {
			img.SetNRGBA(x, y, white)
			img.SetNRGBA(w-1-x, y, white)
			img.SetNRGBA(x, h-1-y, white)
			img.SetNRGBA(w-1-x, h-1-y, white)
		}
	}
}
