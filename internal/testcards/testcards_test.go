package testcards

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

func TestGenerateWritesFullCardSet(t *testing.T) {
	dir := t.TempDir()

	paths, err := Generate(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// 3 landscape + 3 portrait + 5 generic labels in both orientations.
	if len(paths) != 16 {
		t.Fatalf("generated %d cards, want 16", len(paths))
	}

	// Every card must decode at its advertised orientation.
	for _, p := range paths {
		img, err := imaging.Open(p)
		if err != nil {
			t.Errorf("card %s unreadable: %v", filepath.Base(p), err)
			continue
		}
		b := img.Bounds()
		name := filepath.Base(p)
		switch {
		case strings.HasPrefix(name, "landscape_"), strings.HasPrefix(name, "generic_landscape_"):
			if b.Dx() <= b.Dy() {
				t.Errorf("%s is %dx%d, want landscape", name, b.Dx(), b.Dy())
			}
		case strings.HasPrefix(name, "portrait_"), strings.HasPrefix(name, "generic_portrait_"):
			if b.Dx() >= b.Dy() {
				t.Errorf("%s is %dx%d, want portrait", name, b.Dx(), b.Dy())
			}
		default:
			t.Errorf("unexpected card name %s", name)
		}
	}
}

func TestGenerateSpecificResolutions(t *testing.T) {
	dir := t.TempDir()
	if _, err := Generate(dir, zap.NewNop()); err != nil {
		t.Fatal(err)
	}

	img, err := imaging.Open(filepath.Join(dir, "portrait_1080x1920.png"))
	if err != nil {
		t.Fatalf("portrait card missing: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1080 || b.Dy() != 1920 {
		t.Errorf("portrait card is %dx%d, want 1080x1920", b.Dx(), b.Dy())
	}
}

func TestGenerateCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "ads")
	paths, err := Generate(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("Generate into missing dir: %v", err)
	}
	if len(paths) == 0 {
		t.Fatal("no cards generated")
	}
}
