package game

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize = 1024  // Default ring size
	MaxEventsPerSec = 10000 // Default global rate limit
)

// LoggedEvent is a GameEvent with its position in the log.
type LoggedEvent struct {
	Sequence  uint64    `json:"sequence"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// EventLogStats reports log throughput.
type EventLogStats struct {
	Total    uint64 `json:"total"`
	Dropped  uint64 `json:"dropped"`
	Buffered int    `json:"buffered"`
	Capacity int    `json:"capacity"`
}

// EventLog keeps the most recent engine events in memory for inspection.
//
// It is a bounded ring: once full, new events overwrite the oldest. Events
// other than state changes pass a token-bucket limiter first so a collision
// storm cannot starve the log; rejected events are counted as dropped.
// Nothing is persisted.
type EventLog struct {
	mu        sync.Mutex
	buffer    []LoggedEvent
	writeHead uint64 // sequence of the next stored event

	limiter *rate.Limiter

	droppedCount atomic.Uint64
	totalCount   atomic.Uint64
}

// NewEventLog creates a ring of capacity events limited to perSecond
// (non-positive means unlimited).
func NewEventLog(capacity int, perSecond float64) *EventLog {
	if capacity <= 0 {
		capacity = EventBufferSize
	}

	limit := rate.Inf
	burst := 0
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = max(1, int(perSecond/10))
	}

	return &EventLog{
		buffer:  make([]LoggedEvent, capacity),
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Record stores ev. Returns false if it was rate limited.
func (el *EventLog) Record(ev GameEvent) bool {
	if ev.Type != EventTypeStateChange && !el.limiter.Allow() {
		el.droppedCount.Add(1)
		return false
	}

	el.mu.Lock()
	seq := el.writeHead
	el.buffer[seq%uint64(len(el.buffer))] = LoggedEvent{
		Sequence:  seq,
		Type:      ev.Type,
		Timestamp: ev.Timestamp,
		Data:      ev.Data,
	}
	el.writeHead++
	el.mu.Unlock()

	el.totalCount.Add(1)
	return true
}

// Handle records ev; it matches the engine's event callback signature.
func (el *EventLog) Handle(ev GameEvent) {
	el.Record(ev)
}

// Recent returns up to n of the newest events, oldest first.
// n <= 0 returns everything buffered.
func (el *EventLog) Recent(n int) []LoggedEvent {
	el.mu.Lock()
	defer el.mu.Unlock()

	size := uint64(len(el.buffer))
	buffered := min(el.writeHead, size)
	if n <= 0 || uint64(n) > buffered {
		n = int(buffered)
	}

	out := make([]LoggedEvent, 0, n)
	for seq := el.writeHead - uint64(n); seq < el.writeHead; seq++ {
		out = append(out, el.buffer[seq%size])
	}
	return out
}

// Stats returns counters for monitoring.
func (el *EventLog) Stats() EventLogStats {
	el.mu.Lock()
	buffered := min(el.writeHead, uint64(len(el.buffer)))
	el.mu.Unlock()

	return EventLogStats{
		Total:    el.totalCount.Load(),
		Dropped:  el.droppedCount.Load(),
		Buffered: int(buffered),
		Capacity: len(el.buffer),
	}
}

// Reset empties the ring. Counters are kept.
func (el *EventLog) Reset() {
	el.mu.Lock()
	clear(el.buffer)
	el.writeHead = 0
	el.mu.Unlock()
}
