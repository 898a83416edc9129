// Package playlist builds and reorders the ad rotation from a flat
// media directory, and optionally watches the directory for changes.
package playlist

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"adloop/internal/media"
)

// Catalog scans the ads directory into an ordered list of entries.
type Catalog struct {
	logger  *zap.Logger
	dir     string
	allowed map[string]bool
}

// NewCatalog creates a catalog over dir admitting only the given
// extensions (lowercase, dot-prefixed, as produced by config).
func NewCatalog(dir string, formats []string, logger *zap.Logger) *Catalog {
	allowed := make(map[string]bool, len(formats))
	for _, f := range formats {
		allowed[strings.ToLower(f)] = true
	}
	return &Catalog{logger: logger, dir: dir, allowed: allowed}
}

// Dir returns the directory the catalog scans.
func (c *Catalog) Dir() string {
	return c.dir
}

// Scan lists the ads directory (non-recursive) and returns entries
// whose extension is admitted, in directory order. Each entry is
// classified image-or-video once, here. A missing directory is created
// and yields an empty playlist; scan problems are warnings, never
// errors.
func (c *Catalog) Scan() []media.Entry {
	dirents, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(c.dir, 0o755); mkErr != nil {
				c.logger.Warn("could not create ads directory",
					zap.String("dir", c.dir), zap.Error(mkErr))
			} else {
				c.logger.Warn("ads directory was missing, created empty",
					zap.String("dir", c.dir))
			}
			return nil
		}
		c.logger.Warn("ads directory unreadable",
			zap.String("dir", c.dir), zap.Error(err))
		return nil
	}

	var list []media.Entry
	for _, ent := range dirents {
		if ent.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(ent.Name()))
		if !c.allowed[ext] {
			continue
		}
		list = append(list, media.NewEntry(filepath.Join(c.dir, ent.Name())))
	}

	c.logger.Info("ads loaded",
		zap.Int("count", len(list)), zap.String("dir", c.dir))
	if len(list) == 0 {
		c.logger.Warn("no ads found, add media files to the ads directory",
			zap.String("dir", c.dir))
	}
	return list
}

// Shuffle returns a randomly permuted copy of list. The input is left
// untouched.
func Shuffle(list []media.Entry) []media.Entry {
	out := make([]media.Entry, len(list))
	copy(out, list)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
