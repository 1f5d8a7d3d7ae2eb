package game

import (
	"sync"
	"time"
)

// FrameHandle identifies a scheduled frame so it can be cancelled.
type FrameHandle uint64

// Scheduler runs one callback per request, some time later.
// The engine schedules exactly one frame at a time.
type Scheduler interface {
	Schedule(fn func()) FrameHandle
	Cancel(h FrameHandle)
}

// =============================================================================
// TIMER SCHEDULER
// =============================================================================

// TimerScheduler fires each callback once after a fixed interval on its own
// goroutine. It is the production frame source.
type TimerScheduler struct {
	mu       sync.Mutex
	interval time.Duration
	next     FrameHandle
	timers   map[FrameHandle]*time.Timer
}

// NewTimerScheduler creates a scheduler that fires after interval.
func NewTimerScheduler(interval time.Duration) *TimerScheduler {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &TimerScheduler{
		interval: interval,
		timers:   make(map[FrameHandle]*time.Timer),
	}
}

// SetInterval changes the delay used by later Schedule calls.
func (s *TimerScheduler) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()
}

// Interval returns the current frame delay.
func (s *TimerScheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Schedule arms a timer for fn.
func (s *TimerScheduler) Schedule(fn func()) FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	h := s.next
	// Registered before the lock is released, so the callback always finds it
	s.timers[h] = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		_, live := s.timers[h]
		delete(s.timers, h)
		s.mu.Unlock()

		if live {
			fn()
		}
	})
	return h
}

// Cancel stops the timer for h if it has not fired.
func (s *TimerScheduler) Cancel(h FrameHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[h]; ok {
		t.Stop()
		delete(s.timers, h)
	}
}

// Pending returns the number of armed timers.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// =============================================================================
// MANUAL SCHEDULER
// =============================================================================

type scheduledFrame struct {
	handle FrameHandle
	fn     func()
}

// ManualScheduler queues callbacks until Step is called. Tests drive the
// engine loop with it one frame at a time.
type ManualScheduler struct {
	mu      sync.Mutex
	next    FrameHandle
	pending []scheduledFrame
}

// NewManualScheduler creates an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule queues fn.
func (s *ManualScheduler) Schedule(fn func()) FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	s.pending = append(s.pending, scheduledFrame{handle: s.next, fn: fn})
	return s.next
}

// Cancel drops the queued callback for h.
func (s *ManualScheduler) Cancel(h FrameHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, f := range s.pending {
		if f.handle != h {
			s.pending[n] = f
			n++
		}
	}
	clear(s.pending[n:])
	s.pending = s.pending[:n]
}

// Step runs the callbacks queued before the call, in order. Callbacks they
// schedule wait for the next Step. Returns how many ran.
func (s *ManualScheduler) Step() int {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, f := range batch {
		f.fn()
	}
	return len(batch)
}

// Pending returns the number of queued callbacks.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
