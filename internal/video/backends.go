package video

import (
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"adloop/internal/input"
	"adloop/internal/render"
	"adloop/internal/surface"
)

// placeholderFrameInterval paces the in-process placeholder animation.
const placeholderFrameInterval = 100 * time.Millisecond

// omxBackend drives omxplayer, the Raspberry Pi hardware-accelerated
// player. Ads run muted and letterboxed with the on-screen display
// suppressed; omxplayer enforces the slot duration natively through
// --timeout.
type omxBackend struct {
	d        *Delegate
	lookPath func(string) (string, error)
}

func (b *omxBackend) name() string { return "omxplayer" }

func (b *omxBackend) available() bool {
	_, err := b.lookPath("omxplayer")
	return err == nil
}

func (b *omxBackend) play(_ context.Context, path string, duration time.Duration) error {
	args := []string{
		"--no-osd",
		"--no-keys",
		"--aspect-mode", "letterbox",
		"--vol", "0",
	}
	if duration > 0 {
		args = append(args, "--timeout", strconv.Itoa(int(duration.Seconds())))
	}
	args = append(args, path)

	cmd := exec.Command("omxplayer", args...)
	s, err := b.d.startSession(cmd)
	if err != nil {
		return err
	}
	return b.d.waitSession(s, 0)
}

// vlcBackend drives command-line VLC fullscreen with audio off. VLC
// has no per-invocation timeout, so the delegate stops the process
// when the slot elapses.
type vlcBackend struct {
	d        *Delegate
	lookPath func(string) (string, error)
}

func (b *vlcBackend) name() string { return "cvlc" }

func (b *vlcBackend) available() bool {
	_, err := b.lookPath("cvlc")
	return err == nil
}

func (b *vlcBackend) play(_ context.Context, path string, duration time.Duration) error {
	cmd := exec.Command("cvlc",
		"--intf", "dummy",
		"--no-audio",
		"--fullscreen",
		"--play-and-exit",
		path,
	)
	s, err := b.d.startSession(cmd)
	if err != nil {
		return err
	}
	return b.d.waitSession(s, duration)
}

// placeholderBackend is the last resort: it animates an in-process
// frame instead of real video so the rotation keeps moving on machines
// with no player installed. It is always available and never fails.
type placeholderBackend struct {
	logger *zap.Logger
	comp   *render.Compositor
	surf   surface.Surface
	keys   <-chan input.Event
	now    func() time.Time // test seam
}

func (b *placeholderBackend) name() string { return "placeholder" }

func (b *placeholderBackend) available() bool { return true }

func (b *placeholderBackend) play(ctx context.Context, path string, duration time.Duration) error {
	name := filepath.Base(path)
	b.logger.Info("showing video placeholder",
		zap.String("file", name), zap.Duration("duration", duration))

	now := b.now
	if now == nil {
		now = time.Now
	}
	start := now()

	ticker := time.NewTicker(placeholderFrameInterval)
	defer ticker.Stop()

	for {
		elapsed := now().Sub(start)
		if duration > 0 && elapsed >= duration {
			return nil
		}

		if b.comp != nil && b.surf != nil {
			frame := b.comp.PlaceholderFrame(name, elapsed, now())
			if err := b.surf.Present(frame); err != nil {
				b.logger.Warn("placeholder present failed", zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case ev := <-b.keys:
			// The quit key cancels the placeholder only; the scheduler
			// decides what happens next. Other keys are swallowed while
			// the placeholder owns the screen.
			if ev == input.Quit {
				b.logger.Info("video placeholder cancelled")
				return nil
			}
		case <-ticker.C:
		}
	}
}
