package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLoadMissingFileCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	s := Load(path, zap.NewNop())
	if s.DisplayDuration != 10 || s.AdsDirectory != "ads" || s.FPS != 30 {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if !s.LoopAds || !s.Fullscreen || !s.AutodetectOrientation || !s.HardwareAcceleration {
		t.Errorf("boolean defaults not applied: %+v", s)
	}

	// The file must now exist and parse as JSON.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default settings file not created: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("created settings file is not valid JSON: %v", err)
	}
	if _, ok := raw["display_duration"]; !ok {
		t.Error("created settings file missing display_duration key")
	}
}

func TestLoadEmptyObjectYieldsFullDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	write(t, path, `{}`)

	s := Load(path, zap.NewNop())
	d := Default()
	if s.AdsDirectory != d.AdsDirectory ||
		s.DisplayDuration != d.DisplayDuration ||
		s.TransitionEffect != d.TransitionEffect ||
		s.ForceOrientation != d.ForceOrientation ||
		s.BackgroundColor != d.BackgroundColor ||
		s.FPS != d.FPS ||
		s.Volume != d.Volume {
		t.Errorf("empty object did not yield defaults: %+v", s)
	}
	if len(s.SupportedFormats) != len(d.SupportedFormats) {
		t.Errorf("SupportedFormats = %v, want defaults %v", s.SupportedFormats, d.SupportedFormats)
	}
}

func TestLoadPartialFileKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	write(t, path, `{"display_duration": 5, "shuffle_ads": true}`)

	s := Load(path, zap.NewNop())
	if s.DisplayDuration != 5 {
		t.Errorf("DisplayDuration = %d, want 5", s.DisplayDuration)
	}
	if !s.ShuffleAds {
		t.Error("ShuffleAds = false, want true")
	}
	if s.AdsDirectory != "ads" {
		t.Errorf("AdsDirectory = %q, want default %q", s.AdsDirectory, "ads")
	}
	if s.FPS != 30 {
		t.Errorf("FPS = %d, want default 30", s.FPS)
	}
}

func TestLoadExplicitFalseSurvivesMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	write(t, path, `{"loop_ads": false, "hardware_acceleration": false}`)

	s := Load(path, zap.NewNop())
	if s.LoopAds {
		t.Error("LoopAds = true, explicit false should survive the merge")
	}
	if s.HardwareAcceleration {
		t.Error("HardwareAcceleration = true, explicit false should survive the merge")
	}
}

func TestLoadMalformedFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	write(t, path, `{"display_duration": 5,`)

	s := Load(path, zap.NewNop())
	if s.DisplayDuration != 10 {
		t.Errorf("DisplayDuration = %d, want default 10 after malformed file", s.DisplayDuration)
	}
}

func TestSanitizeInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	write(t, path, `{
		"display_duration": 0,
		"fps": -1,
		"volume": 3.5,
		"transition_effect": "spin",
		"force_orientation": "diagonal",
		"supported_formats": ["PNG", "jpg", ".Mp4"]
	}`)

	s := Load(path, zap.NewNop())
	if s.DisplayDuration != 10 {
		t.Errorf("DisplayDuration = %d, want 10", s.DisplayDuration)
	}
	if s.FPS != 30 {
		t.Errorf("FPS = %d, want 30", s.FPS)
	}
	if s.Volume != 0.7 {
		t.Errorf("Volume = %v, want 0.7", s.Volume)
	}
	if s.TransitionEffect != "fade" {
		t.Errorf("TransitionEffect = %q, want fade", s.TransitionEffect)
	}
	if s.ForceOrientation != "" {
		t.Errorf("ForceOrientation = %q, want empty", s.ForceOrientation)
	}
	want := []string{".png", ".jpg", ".mp4"}
	if len(s.SupportedFormats) != len(want) {
		t.Fatalf("SupportedFormats = %v, want %v", s.SupportedFormats, want)
	}
	for i := range want {
		if s.SupportedFormats[i] != want[i] {
			t.Errorf("SupportedFormats[%d] = %q, want %q", i, s.SupportedFormats[i], want[i])
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	in := Default()
	in.DisplayDuration = 42
	in.ForceOrientation = "portrait"
	in.BackgroundColor = [3]uint8{10, 20, 30}
	if err := Save(path, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out := Load(path, zap.NewNop())
	if out.DisplayDuration != 42 {
		t.Errorf("DisplayDuration = %d, want 42", out.DisplayDuration)
	}
	if out.ForceOrientation != "portrait" {
		t.Errorf("ForceOrientation = %q, want portrait", out.ForceOrientation)
	}
	if out.BackgroundColor != [3]uint8{10, 20, 30} {
		t.Errorf("BackgroundColor = %v, want [10 20 30]", out.BackgroundColor)
	}
}

func TestDurationHelpers(t *testing.T) {
	s := Default()
	if s.Duration() != 10*time.Second {
		t.Errorf("Duration() = %v, want 10s", s.Duration())
	}
	s.FPS = 30
	if s.FrameInterval() != time.Second/30 {
		t.Errorf("FrameInterval() = %v, want %v", s.FrameInterval(), time.Second/30)
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
