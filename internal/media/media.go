// Package media provides centralized media type detection
// for the player, distinguishing between video and image content.
package media

import (
	"path/filepath"
	"strings"
)

// Kind represents the playback class of a media file.
type Kind int

const (
	Unknown Kind = iota
	Video
	Image
)

func (k Kind) String() string {
	switch k {
	case Video:
		return "video"
	case Image:
		return "image"
	default:
		return "unknown"
	}
}

// Video file extensions.
var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".ts":   true,
	".m4v":  true,
	".hevc": true,
	".flv":  true,
	".wmv":  true,
}

// Image file extensions.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
	".tiff": true,
}

// Detect returns the media kind for a given file path based on extension.
func Detect(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if videoExts[ext] {
		return Video
	}
	if imageExts[ext] {
		return Image
	}
	return Unknown
}

// Classify returns the playback kind for a file already admitted to the
// playlist: Video when the extension is in the video set, Image for
// everything else. Classification happens once at scan time and is
// never recomputed during playback.
func Classify(path string) Kind {
	if videoExts[strings.ToLower(filepath.Ext(path))] {
		return Video
	}
	return Image
}

// IsSupported returns true if the file has a recognized media extension.
func IsSupported(path string) bool {
	return Detect(path) != Unknown
}

// Entry is a single playlist item.
type Entry struct {
	Path string
	Kind Kind
}

// NewEntry builds an Entry for path, classifying it by extension.
func NewEntry(path string) Entry {
	return Entry{Path: path, Kind: Classify(path)}
}

// Base returns the file name portion of the entry path.
func (e Entry) Base() string {
	return filepath.Base(e.Path)
}
