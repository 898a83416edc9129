// Package config loads and persists the player settings file.
//
// The settings file is a single flat JSON object. Keys missing from the
// file keep their defaults, a missing file is written out with full
// defaults, and malformed content falls back to defaults entirely, so
// loading never blocks startup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultPath is where the player looks for settings unless told
// otherwise on the command line.
const DefaultPath = "config.json"

// Settings is a snapshot of the recognized options. It is loaded once
// at startup and handed by value to the components that need it.
//
// transition_effect, fullscreen, volume, loop_ads and
// autodetect_orientation are recognized and validated but currently
// inert: the rotation always wraps, external players run muted, the
// surface is inherently fullscreen, and detection runs whenever
// force_orientation is unset.
type Settings struct {
	AdsDirectory          string   `json:"ads_directory"`
	DisplayDuration       int      `json:"display_duration"`
	TransitionEffect      string   `json:"transition_effect"`
	AutodetectOrientation bool     `json:"autodetect_orientation"`
	ForceOrientation      string   `json:"force_orientation"`
	Fullscreen            bool     `json:"fullscreen"`
	BackgroundColor       [3]uint8 `json:"background_color"`
	SupportedFormats      []string `json:"supported_formats"`
	HardwareAcceleration  bool     `json:"hardware_acceleration"`
	FPS                   int      `json:"fps"`
	Volume                float64  `json:"volume"`
	LoopAds               bool     `json:"loop_ads"`
	ShuffleAds            bool     `json:"shuffle_ads"`
}

// Default returns the documented default settings.
func Default() Settings {
	return Settings{
		AdsDirectory:          "ads",
		DisplayDuration:       10,
		TransitionEffect:      "fade",
		AutodetectOrientation: true,
		ForceOrientation:      "",
		Fullscreen:            true,
		BackgroundColor:       [3]uint8{0, 0, 0},
		SupportedFormats: []string{
			".jpg", ".jpeg", ".png", ".bmp",
			".mp4", ".avi", ".mov",
		},
		HardwareAcceleration: true,
		FPS:                  30,
		Volume:               0.7,
		LoopAds:              true,
		ShuffleAds:           false,
	}
}

// Load reads the settings file at path. A missing file is created with
// full defaults, unreadable or malformed content falls back to
// defaults, and out-of-range values are replaced by their defaults with
// a warning. The returned snapshot is always usable.
func Load(path string, logger *zap.Logger) Settings {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if werr := Save(path, s); werr != nil {
				logger.Warn("could not write default settings file",
					zap.String("path", path), zap.Error(werr))
			} else {
				logger.Info("created default settings file", zap.String("path", path))
			}
			return s
		}
		logger.Warn("settings file unreadable, using defaults",
			zap.String("path", path), zap.Error(err))
		return s
	}

	// Unmarshal over the defaults so absent keys keep their default
	// values while explicit zero values (false, 0) survive.
	if err := json.Unmarshal(data, &s); err != nil {
		logger.Warn("settings file malformed, using defaults",
			zap.String("path", path), zap.Error(err))
		return Default()
	}

	return sanitize(s, logger)
}

// Save writes s to path as indented JSON, matching the layout of a
// generated default file.
func Save(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// sanitize replaces invalid values with their defaults so downstream
// components never have to guard against zero durations or unknown
// orientation names.
func sanitize(s Settings, logger *zap.Logger) Settings {
	def := Default()

	if s.DisplayDuration <= 0 {
		logger.Warn("invalid display_duration, using default",
			zap.Int("value", s.DisplayDuration), zap.Int("default", def.DisplayDuration))
		s.DisplayDuration = def.DisplayDuration
	}
	if s.FPS <= 0 {
		logger.Warn("invalid fps, using default",
			zap.Int("value", s.FPS), zap.Int("default", def.FPS))
		s.FPS = def.FPS
	}
	if s.Volume < 0 || s.Volume > 1 {
		logger.Warn("volume out of range, using default",
			zap.Float64("value", s.Volume), zap.Float64("default", def.Volume))
		s.Volume = def.Volume
	}
	switch s.TransitionEffect {
	case "fade", "none":
	default:
		logger.Warn("unknown transition_effect, using default",
			zap.String("value", s.TransitionEffect))
		s.TransitionEffect = def.TransitionEffect
	}
	switch s.ForceOrientation {
	case "", "landscape", "portrait":
	default:
		logger.Warn("unknown force_orientation, falling back to autodetect",
			zap.String("value", s.ForceOrientation))
		s.ForceOrientation = ""
	}

	for i, ext := range s.SupportedFormats {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.SupportedFormats[i] = ext
	}

	return s
}

// Duration returns the per-ad display time.
func (s Settings) Duration() time.Duration {
	return time.Duration(s.DisplayDuration) * time.Second
}

// FrameInterval returns the tick period derived from fps.
func (s Settings) FrameInterval() time.Duration {
	return time.Second / time.Duration(s.FPS)
}
