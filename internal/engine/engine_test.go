package engine

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"adloop/internal/config"
	"adloop/internal/input"
	"adloop/internal/playlist"
	"adloop/internal/render"
	"adloop/internal/video"
)

// recordSurface counts presents and keeps the last frame.
type recordSurface struct {
	mu       sync.Mutex
	w, h     int
	presents int
	last     *image.NRGBA
}

func (s *recordSurface) Bounds() (int, int) { return s.w, s.h }

func (s *recordSurface) Present(frame *image.NRGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presents++
	s.last = frame
	return nil
}

func (s *recordSurface) Release() {}

func (s *recordSurface) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presents
}

// fakePlayer records dispatches and returns immediately.
type fakePlayer struct {
	mu    sync.Mutex
	paths []string
	durs  []time.Duration
	stops int
}

func (p *fakePlayer) Play(_ context.Context, path string, duration time.Duration) video.Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append(p.paths, path)
	p.durs = append(p.durs, duration)
	return video.Outcome{Backend: "fake", Elapsed: duration}
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

// writeImage drops a small real image so imaging.Open succeeds.
func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	img := imaging.New(8, 8, color.NRGBA{R: 128, G: 64, B: 32, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("write test image %s: %v", name, err)
	}
	return path
}

func testSettings() config.Settings {
	s := config.Default()
	s.DisplayDuration = 10
	s.FPS = 30
	return s
}

// newTestEngine builds an engine over dir with a fake clock starting
// at a fixed instant. Returns the engine, its surface, its player, and
// a function advancing the clock.
func newTestEngine(t *testing.T, dir string, settings config.Settings, events <-chan input.Event, changes <-chan struct{}) (*Engine, *recordSurface, *fakePlayer, func(time.Duration)) {
	t.Helper()

	surf := &recordSurface{w: 64, h: 36}
	player := &fakePlayer{}
	e := New(Options{
		Settings:   settings,
		Catalog:    playlist.NewCatalog(dir, settings.SupportedFormats, zap.NewNop()),
		Compositor: render.NewCompositor(64, 36, settings.BackgroundColor),
		Surface:    surf,
		Player:     player,
		Events:     events,
		Changes:    changes,
	}, zap.NewNop())

	cur := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return cur }
	advance := func(d time.Duration) { cur = cur.Add(d) }
	return e, surf, player, advance
}

func TestTickAdvancesExactlyOncePerDisplayDuration(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png")
	writeImage(t, dir, "b.png")
	writeImage(t, dir, "c.png")

	e, surf, _, tickClock := newTestEngine(t, dir, testSettings(), nil, nil)
	e.list = e.catalog.Scan()
	e.lastSwap = e.now()

	// Simulate 10.1 seconds of 100ms ticks with a 10s display duration:
	// the rotation must advance exactly once.
	advances := 0
	prev := e.index
	for i := 0; i < 101; i++ {
		tickClock(100 * time.Millisecond)
		e.tick(context.Background())
		if e.index != prev {
			advances++
			prev = e.index
		}
	}

	if advances != 1 {
		t.Errorf("advances = %d over 10.1s, want exactly 1", advances)
	}
	if e.index != 1 {
		t.Errorf("index = %d, want 1", e.index)
	}
	if surf.count() != 101 {
		t.Errorf("presents = %d, want one per tick (101)", surf.count())
	}
}

func TestAdvanceWrapsAround(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png")
	writeImage(t, dir, "b.png")
	writeImage(t, dir, "c.png")

	e, _, _, _ := newTestEngine(t, dir, testSettings(), nil, nil)
	e.list = e.catalog.Scan()

	for want := 1; want <= 3; want++ {
		e.advance()
		if e.index != want%3 {
			t.Fatalf("after %d advances index = %d, want %d", want, e.index, want%3)
		}
	}
}

func TestAdvanceKeyResetsTimer(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png")
	writeImage(t, dir, "b.png")

	e, _, _, tickClock := newTestEngine(t, dir, testSettings(), nil, nil)
	e.list = e.catalog.Scan()
	e.lastSwap = e.now()

	tickClock(7 * time.Second)
	if quit := e.apply(input.Advance); quit {
		t.Fatal("advance reported quit")
	}
	if e.index != 1 {
		t.Fatalf("index = %d, want 1", e.index)
	}
	if !e.lastSwap.Equal(e.now()) {
		t.Error("manual advance did not reset the transition timer")
	}

	// 9 more seconds must not auto-advance (only 9 since the key).
	tickClock(9 * time.Second)
	e.tick(context.Background())
	if e.index != 1 {
		t.Errorf("index = %d after 9s, auto-advance fired too early", e.index)
	}
}

func TestVideoEntryDispatchesToPlayer(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "clip.mp4")
	os.WriteFile(videoPath, []byte("v"), 0644)

	e, _, player, _ := newTestEngine(t, dir, testSettings(), nil, nil)
	e.list = e.catalog.Scan()
	e.lastSwap = e.now()

	e.tick(context.Background())

	player.mu.Lock()
	defer player.mu.Unlock()
	if len(player.paths) != 1 {
		t.Fatalf("player dispatches = %d, want 1", len(player.paths))
	}
	if player.paths[0] != videoPath {
		t.Errorf("dispatched %q, want %q", player.paths[0], videoPath)
	}
	if player.durs[0] != 10*time.Second {
		t.Errorf("duration = %v, want 10s", player.durs[0])
	}
}

func TestEmptyPlaylistShowsNotice(t *testing.T) {
	e, surf, _, _ := newTestEngine(t, t.TempDir(), testSettings(), nil, nil)
	e.list = e.catalog.Scan()
	e.lastSwap = e.now()

	e.tick(context.Background())
	e.tick(context.Background())

	if surf.count() != 2 {
		t.Fatalf("presents = %d, want 2", surf.count())
	}
	if e.frameKey != noAdsKey {
		t.Errorf("frameKey = %q, want the no-ads notice", e.frameKey)
	}
	if surf.last == nil {
		t.Fatal("no frame presented")
	}
}

func TestUnreadableImageShowsNoticeAndContinues(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.png")
	os.WriteFile(bad, []byte("not a png"), 0644)

	e, surf, _, _ := newTestEngine(t, dir, testSettings(), nil, nil)
	e.list = e.catalog.Scan()
	e.lastSwap = e.now()

	e.tick(context.Background())
	if surf.count() != 1 {
		t.Fatalf("presents = %d, want 1", surf.count())
	}
	if e.frameKey != bad {
		t.Errorf("frameKey = %q, want %q", e.frameKey, bad)
	}
}

func TestReloadKeepsIndexWhenStillValid(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png")
	writeImage(t, dir, "b.png")
	writeImage(t, dir, "c.png")

	e, _, _, _ := newTestEngine(t, dir, testSettings(), nil, nil)
	e.list = e.catalog.Scan()
	e.index = 2

	e.reload()
	if e.index != 2 {
		t.Errorf("index = %d after no-op reload, want 2", e.index)
	}
	if len(e.list) != 3 {
		t.Errorf("list length = %d, want 3", len(e.list))
	}
}

func TestReloadClampsIndexWhenListShrinks(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png")
	b := writeImage(t, dir, "b.png")
	c := writeImage(t, dir, "c.png")

	e, _, _, _ := newTestEngine(t, dir, testSettings(), nil, nil)
	e.list = e.catalog.Scan()
	e.index = 2

	os.Remove(b)
	os.Remove(c)
	e.reload()

	if len(e.list) != 1 {
		t.Fatalf("list length = %d, want 1", len(e.list))
	}
	if e.index != 0 {
		t.Errorf("index = %d, want clamped to 0", e.index)
	}
}

func TestShuffleKeyResetsIndexAndKeepsContents(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.png")
	writeImage(t, dir, "b.png")
	writeImage(t, dir, "c.png")
	writeImage(t, dir, "d.png")

	e, _, _, _ := newTestEngine(t, dir, testSettings(), nil, nil)
	e.list = e.catalog.Scan()
	e.index = 3

	before := make(map[string]bool)
	for _, en := range e.list {
		before[en.Path] = true
	}

	e.apply(input.Shuffle)
	if e.index != 0 {
		t.Errorf("index = %d after shuffle, want 0", e.index)
	}
	if len(e.list) != len(before) {
		t.Fatalf("list length changed: %d", len(e.list))
	}
	for _, en := range e.list {
		if !before[en.Path] {
			t.Errorf("unexpected entry %s after shuffle", en.Path)
		}
	}
}

func TestRunQuitKey(t *testing.T) {
	events := make(chan input.Event, 1)
	e, _, player, _ := newTestEngine(t, t.TempDir(), testSettings(), events, nil)
	e.now = time.Now

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	events <- input.Quit

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not exit on quit key")
	}

	player.mu.Lock()
	defer player.mu.Unlock()
	if player.stops != 1 {
		t.Errorf("player.Stop calls = %d, want 1", player.stops)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	e, _, _, _ := newTestEngine(t, t.TempDir(), testSettings(), nil, nil)
	e.now = time.Now

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not exit on context cancel")
	}
}

func TestRunReloadsOnChangeSignal(t *testing.T) {
	dir := t.TempDir()
	events := make(chan input.Event, 1)
	changes := make(chan struct{}, 1)
	e, _, _, _ := newTestEngine(t, dir, testSettings(), events, changes)
	e.now = time.Now

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	// Start empty, then land a file and signal the change.
	time.Sleep(50 * time.Millisecond)
	writeImage(t, dir, "late.png")
	changes <- struct{}{}
	time.Sleep(100 * time.Millisecond)

	events <- input.Quit
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not exit")
	}

	// Run has returned, so its state is settled.
	if len(e.list) != 1 {
		t.Errorf("list length = %d after change signal, want 1", len(e.list))
	}
}
