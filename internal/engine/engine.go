// Package engine runs the playback loop: a fixed-rate tick that
// rotates the playlist, paints images onto the surface, and hands
// videos to the external-player delegate. All playback state lives on
// the loop goroutine; control arrives over channels.
package engine

import (
	"context"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"adloop/internal/config"
	"adloop/internal/input"
	"adloop/internal/media"
	"adloop/internal/playlist"
	"adloop/internal/render"
	"adloop/internal/surface"
	"adloop/internal/video"
)

// noAdsKey marks the cached frame as the empty-playlist notice. Real
// entries are keyed by path, which never takes this form.
const noAdsKey = ":no-ads:"

// Player is the slice of the video delegate the engine drives.
type Player interface {
	// Play blocks for up to the given duration and never fails.
	Play(ctx context.Context, path string, duration time.Duration) video.Outcome
	// Stop ends any active playback.
	Stop()
}

// Options wire an Engine.
type Options struct {
	Settings   config.Settings
	Catalog    *playlist.Catalog
	Compositor *render.Compositor
	Surface    surface.Surface
	Player     Player
	// Events carries keyboard control events. May be nil.
	Events <-chan input.Event
	// Changes carries ads-directory change signals. May be nil.
	Changes <-chan struct{}
}

// Engine owns the rotation: the playlist, the current index, and the
// transition clock.
type Engine struct {
	logger   *zap.Logger
	settings config.Settings
	catalog  *playlist.Catalog
	comp     *render.Compositor
	surf     surface.Surface
	player   Player
	events   <-chan input.Event
	changes  <-chan struct{}

	now func() time.Time

	list     []media.Entry
	index    int
	lastSwap time.Time

	// The composed frame for the current entry, re-presented every
	// tick and rebuilt only when the entry changes.
	frame    *image.NRGBA
	frameKey string
}

// New assembles an engine from its wired components.
func New(opts Options, logger *zap.Logger) *Engine {
	return &Engine{
		logger:   logger,
		settings: opts.Settings,
		catalog:  opts.Catalog,
		comp:     opts.Compositor,
		surf:     opts.Surface,
		player:   opts.Player,
		events:   opts.Events,
		changes:  opts.Changes,
		now:      time.Now,
	}
}

// Run drives the loop until ctx is cancelled or the quit key arrives.
// The initial scan happens here, so a playlist that is empty at
// startup simply rotates the empty-playlist notice until content
// appears.
func (e *Engine) Run(ctx context.Context) error {
	e.list = e.catalog.Scan()
	if e.settings.ShuffleAds {
		e.list = playlist.Shuffle(e.list)
		e.logger.Info("playlist shuffled at startup")
	}
	e.lastSwap = e.now()

	ticker := time.NewTicker(e.settings.FrameInterval())
	defer ticker.Stop()
	defer e.player.Stop()

	e.logger.Info("rotation started",
		zap.Int("ads", len(e.list)),
		zap.Int("fps", e.settings.FPS),
		zap.Duration("display_duration", e.settings.Duration()))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("rotation stopped")
			return nil

		case ev := <-e.events:
			if e.apply(ev) {
				e.logger.Info("quit requested")
				return nil
			}

		case <-e.changes:
			e.logger.Info("ads directory changed, reloading playlist")
			e.reload()

		case <-ticker.C:
			if e.tick(ctx) {
				e.logger.Info("quit requested")
				return nil
			}
		}
	}
}

// tick first drains keys that queued up while a video dispatch blocked
// the loop, then advances the rotation if the display duration has
// elapsed, then paints or dispatches the current entry. Returns true
// when a drained quit key should end the loop.
func (e *Engine) tick(ctx context.Context) bool {
	for drained := false; !drained; {
		select {
		case ev := <-e.events:
			if e.apply(ev) {
				return true
			}
		default:
			drained = true
		}
	}

	now := e.now()
	if len(e.list) > 0 && now.Sub(e.lastSwap) >= e.settings.Duration() {
		e.advance()
		e.lastSwap = now
	}

	e.dispatch(ctx)
	return false
}

// apply handles one control event. Reports whether the loop should
// exit.
func (e *Engine) apply(ev input.Event) bool {
	switch ev {
	case input.Quit:
		return true
	case input.Advance:
		if len(e.list) > 0 {
			e.advance()
			e.lastSwap = e.now()
			e.logger.Info("advanced by key", zap.String("file", e.list[e.index].Base()))
		}
	case input.Reload:
		e.logger.Info("reloading playlist by key")
		e.reload()
	case input.Shuffle:
		e.shuffle()
	}
	return false
}

// advance moves to the next entry, wrapping at the end.
func (e *Engine) advance() {
	if len(e.list) == 0 {
		return
	}
	e.index = (e.index + 1) % len(e.list)
}

// reload rescans the ads directory. The index is kept so an unrelated
// change does not restart the rotation, clamping to 0 only when it
// falls outside the new playlist.
func (e *Engine) reload() {
	e.list = e.catalog.Scan()
	if e.settings.ShuffleAds {
		e.list = playlist.Shuffle(e.list)
	}
	if e.index >= len(e.list) {
		e.index = 0
	}
	e.frameKey = ""
}

// shuffle permutes the playlist and restarts it from the front.
func (e *Engine) shuffle() {
	if len(e.list) == 0 {
		return
	}
	e.list = playlist.Shuffle(e.list)
	e.index = 0
	e.logger.Info("playlist shuffled", zap.Int("ads", len(e.list)))
}

// dispatch shows the current entry: images are composed and presented
// here, videos block in the delegate until their slot ends.
func (e *Engine) dispatch(ctx context.Context) {
	if len(e.list) == 0 {
		e.show(noAdsKey, func() *image.NRGBA {
			return e.comp.MessageFrame(
				"No Ads Available",
				"Add media files to "+e.catalog.Dir(),
			)
		})
		return
	}

	entry := e.list[e.index]
	if entry.Kind == media.Video {
		out := e.player.Play(ctx, entry.Path, e.settings.Duration())
		e.logger.Info("video slot ended",
			zap.String("file", entry.Base()),
			zap.String("backend", out.Backend),
			zap.Int("fallbacks", out.Fallbacks),
			zap.Duration("elapsed", out.Elapsed))
		// The video owned the screen; recompose whatever comes next.
		e.frameKey = ""
		return
	}

	e.showImage(entry)
}

// showImage presents entry, composing it only when it differs from the
// cached frame. An unreadable file becomes a notice frame and the
// rotation carries on.
func (e *Engine) showImage(entry media.Entry) {
	if e.frameKey != entry.Path {
		src, err := imaging.Open(entry.Path)
		if err != nil {
			e.logger.Warn("image unreadable, showing notice",
				zap.String("file", entry.Base()), zap.Error(err))
			e.frame = e.comp.MessageFrame("Unavailable: " + entry.Base())
		} else {
			e.frame = e.comp.ImageFrame(src)
			e.logger.Info("displaying image", zap.String("file", entry.Base()))
		}
		e.frameKey = entry.Path
	}
	e.present(e.frame)
}

// show presents a keyed frame, composing it at most once.
func (e *Engine) show(key string, compose func() *image.NRGBA) {
	if e.frameKey != key {
		e.frame = compose()
		e.frameKey = key
	}
	e.present(e.frame)
}

func (e *Engine) present(frame *image.NRGBA) {
	if err := e.surf.Present(frame); err != nil {
		e.logger.Warn("present failed", zap.Error(err))
	}
}
