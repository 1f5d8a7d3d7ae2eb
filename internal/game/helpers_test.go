package game

import (
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// rig drives an engine one frame at a time.
type rig struct {
	engine *Engine
	sched  *ManualScheduler
	clock  *ManualClock
}

func newRig(t *testing.T, opts ...Option) *rig {
	t.Helper()
	r := &rig{
		sched: NewManualScheduler(),
		clock: NewManualClock(epoch),
	}
	base := []Option{WithScheduler(r.sched), WithClock(r.clock)}
	r.engine = NewEngine(append(base, opts...)...)
	t.Cleanup(r.engine.Dispose)
	return r
}

// frame advances the clock by d and runs whatever frame is pending.
func (r *rig) frame(d time.Duration) int {
	r.clock.Advance(d)
	return r.sched.Step()
}

// eventRecorder collects events by type.
type eventRecorder struct {
	mu     sync.Mutex
	events []GameEvent
}

func (r *eventRecorder) handle(ev GameEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *eventRecorder) ofType(t EventType) []GameEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []GameEvent
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// fakeCanvas records draw calls.
type fakeCanvas struct {
	clears   int
	rects    []fakeRect
	texts    []string
	presents int
}

type fakeRect struct {
	x, y, w, h float64
	c          color.Color
}

func (c *fakeCanvas) Clear(width, height float64) {
	c.clears++
	c.rects = c.rects[:0]
	c.texts = c.texts[:0]
}

func (c *fakeCanvas) FillRect(x, y, w, h float64, col color.Color) {
	c.rects = append(c.rects, fakeRect{x, y, w, h, col})
}

func (c *fakeCanvas) FillText(text string, x, y float64, col color.Color) {
	c.texts = append(c.texts, text)
}

func (c *fakeCanvas) Present() { c.presents++ }

// fakeSurface is a resizable surface with an optional context error.
type fakeSurface struct {
	mu        sync.Mutex
	w, h      int
	canvas    *fakeCanvas
	ctxErr    error
	listeners map[int]func()
	nextID    int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{canvas: &fakeCanvas{}, listeners: make(map[int]func())}
}

func (s *fakeSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w, s.h
}

func (s *fakeSurface) Resize(w, h int) {
	s.mu.Lock()
	s.w, s.h = w, h
	s.mu.Unlock()
}

func (s *fakeSurface) Context2D() (Canvas, error) {
	if s.ctxErr != nil {
		return nil, s.ctxErr
	}
	return s.canvas, nil
}

func (s *fakeSurface) OnResize(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// userResize simulates the host window changing size.
func (s *fakeSurface) userResize(w, h int) {
	s.Resize(w, h)
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *fakeSurface) listenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

var errNoGPU = errors.New("no gpu")
