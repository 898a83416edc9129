// Package input turns raw keyboard bytes into playback control events.
package input

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// Event is a playback control request.
type Event int

const (
	None Event = iota
	Quit
	Advance
	Reload
	Shuffle
)

func (e Event) String() string {
	switch e {
	case Quit:
		return "quit"
	case Advance:
		return "advance"
	case Reload:
		return "reload"
	case Shuffle:
		return "shuffle"
	default:
		return "none"
	}
}

// Reader owns raw-mode stdin and emits control events. When stdin is
// not a terminal (typical under systemd) the reader stays inert and
// its channel never fires; the player then runs without keyboard
// controls.
type Reader struct {
	logger *zap.Logger
	events chan Event
	fd     int
	saved  *term.State
}

// NewReader creates a keyboard reader bound to stdin.
func NewReader(logger *zap.Logger) *Reader {
	return &Reader{
		logger: logger,
		events: make(chan Event, 4),
		fd:     int(os.Stdin.Fd()),
	}
}

// Events is the control event stream.
func (r *Reader) Events() <-chan Event {
	return r.events
}

// Start switches stdin to raw mode and begins decoding keys on its own
// goroutine. On a non-terminal stdin it logs and returns nil with
// controls disabled.
func (r *Reader) Start() error {
	if !term.IsTerminal(r.fd) {
		r.logger.Info("stdin is not a terminal, keyboard controls disabled")
		return nil
	}

	saved, err := term.MakeRaw(r.fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	r.saved = saved

	go r.loop()

	r.logger.Info("keyboard controls ready",
		zap.String("keys", "q/esc quit, space next, r reload, s shuffle"))
	return nil
}

func (r *Reader) loop() {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}

		ev := mapKey(buf[0])
		if ev == None {
			continue
		}
		select {
		case r.events <- ev:
		default:
			// The scheduler is behind; dropping is better than queueing
			// a stale burst of key presses.
		}
		if ev == Quit {
			return
		}
	}
}

// mapKey decodes a single raw byte. Raw mode delivers Ctrl-C as a
// plain byte, so it maps to quit here rather than raising SIGINT.
func mapKey(b byte) Event {
	switch b {
	case 'q', 'Q', 0x1b, 0x03: // q, Esc, Ctrl-C
		return Quit
	case ' ':
		return Advance
	case 'r', 'R':
		return Reload
	case 's', 'S':
		return Shuffle
	default:
		return None
	}
}

// Restore reverts the terminal to cooked mode. Safe to call when Start
// never switched it, and safe to call more than once.
func (r *Reader) Restore() {
	if r.saved != nil {
		term.Restore(r.fd, r.saved)
		r.saved = nil
	}
}
