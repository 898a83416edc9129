// Package video hands video ads to external player processes, falling
// back through an ordered backend chain so a missing player never
// takes the rotation down. The chain ends at an in-process placeholder
// that always works.
package video

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"adloop/internal/input"
	"adloop/internal/render"
	"adloop/internal/surface"
)

// stopGrace is how long a terminated player process gets to exit
// before it is killed.
const stopGrace = 5 * time.Second

// Outcome is the result of one video dispatch: which backend carried
// the slot, how many were skipped on the way, and how long the
// dispatch blocked.
type Outcome struct {
	Backend   string
	Fallbacks int
	Elapsed   time.Duration
}

// backend is a single playback strategy, tried in priority order.
type backend interface {
	name() string
	available() bool
	play(ctx context.Context, path string, duration time.Duration) error
}

// session tracks one running external player process.
type session struct {
	cmd  *exec.Cmd
	done chan struct{} // closed once Wait returns
	err  error
}

// Delegate owns the ordered backend chain and at most one active
// playback session. Play blocks the caller; Stop may arrive from any
// goroutine.
type Delegate struct {
	logger   *zap.Logger
	backends []backend

	mu      sync.Mutex
	session *session
	cancel  context.CancelFunc
	playing bool
}

// Options configure the delegate.
type Options struct {
	// HardwareAcceleration enables the omxplayer backend; without it
	// the chain starts at VLC.
	HardwareAcceleration bool
	// Compositor and Surface drive the in-process placeholder.
	Compositor *render.Compositor
	Surface    surface.Surface
	// Keys lets the placeholder honor a cancel key while it owns the
	// screen. May be nil.
	Keys <-chan input.Event
	// LookPath resolves player executables; defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// NewDelegate builds the backend chain: omxplayer when hardware
// acceleration is on, then command-line VLC, then the placeholder.
func NewDelegate(opts Options, logger *zap.Logger) *Delegate {
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	d := &Delegate{logger: logger}
	if opts.HardwareAcceleration {
		d.backends = append(d.backends, &omxBackend{d: d, lookPath: lookPath})
	}
	d.backends = append(d.backends,
		&vlcBackend{d: d, lookPath: lookPath},
		&placeholderBackend{
			logger: logger,
			comp:   opts.Compositor,
			surf:   opts.Surface,
			keys:   opts.Keys,
		},
	)
	return d
}

// Play dispatches path to the first working backend and blocks until
// the slot ends. It never returns an error: an absent or failing
// backend falls through to the next, and the placeholder always
// succeeds. The caller's display timing is unaffected by which backend
// ran.
func (d *Delegate) Play(ctx context.Context, path string, duration time.Duration) Outcome {
	start := time.Now()

	playCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.playing = true
	d.mu.Unlock()
	defer func() {
		cancel()
		d.mu.Lock()
		d.playing = false
		d.cancel = nil
		d.mu.Unlock()
	}()

	if _, err := os.Stat(path); err != nil {
		// Unreadable content still owns its slot; the placeholder
		// carries it so the rotation timing stays intact.
		d.logger.Warn("video file unreadable, showing placeholder",
			zap.String("path", path), zap.Error(err))
		last := d.backends[len(d.backends)-1]
		_ = last.play(playCtx, path, duration)
		return Outcome{
			Backend:   last.name(),
			Fallbacks: len(d.backends) - 1,
			Elapsed:   time.Since(start),
		}
	}

	fallbacks := 0
	for _, b := range d.backends {
		if playCtx.Err() != nil {
			break
		}
		if !b.available() {
			d.logger.Debug("video backend unavailable", zap.String("backend", b.name()))
			fallbacks++
			continue
		}

		err := b.play(playCtx, path, duration)
		if err == nil {
			return Outcome{Backend: b.name(), Fallbacks: fallbacks, Elapsed: time.Since(start)}
		}
		if playCtx.Err() != nil {
			// Stopped from outside mid-playback; the exit error is
			// expected, not a backend failure.
			break
		}
		d.logger.Warn("video backend failed, falling back",
			zap.String("backend", b.name()), zap.Error(err))
		fallbacks++
	}

	return Outcome{Fallbacks: fallbacks, Elapsed: time.Since(start)}
}

// IsPlaying reports whether a dispatch (external or placeholder) is
// active.
func (d *Delegate) IsPlaying() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

// Stop ends any active playback: cancel the dispatch, ask the external
// process to terminate, give it five seconds, then kill it. Safe to
// call from any goroutine and safe to call when nothing is playing.
func (d *Delegate) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	s := d.session
	d.session = nil
	d.playing = false
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if s == nil {
		return
	}

	if s.cmd.Process != nil {
		if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			_ = s.cmd.Process.Kill()
		}
	}

	select {
	case <-s.done:
	case <-time.After(stopGrace):
		d.logger.Warn("player process ignored SIGTERM, killing",
			zap.String("cmd", s.cmd.Path))
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		<-s.done
	}
}

// startSession launches cmd as the active external session and begins
// reaping it on a goroutine.
func (d *Delegate) startSession(cmd *exec.Cmd) (*session, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	s := &session{cmd: cmd, done: make(chan struct{})}
	go func() {
		s.err = cmd.Wait()
		close(s.done)
	}()

	d.mu.Lock()
	d.session = s
	d.mu.Unlock()
	return s, nil
}

// waitSession blocks until the session process exits. For backends
// with no native duration limit, enforce > 0 stops the process once
// the slot elapses; an enforced stop is a normal end, not an error.
func (d *Delegate) waitSession(s *session, enforce time.Duration) error {
	var timeout <-chan time.Time
	if enforce > 0 {
		t := time.NewTimer(enforce)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-s.done:
		d.endSession(s)
		return s.err
	case <-timeout:
		d.Stop()
		<-s.done
		return nil
	}
}

// endSession clears the active session if it is still s.
func (d *Delegate) endSession(s *session) {
	d.mu.Lock()
	if d.session == s {
		d.session = nil
	}
	d.mu.Unlock()
}
