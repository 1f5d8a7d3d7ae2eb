package spawn

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Request asks for a bubble with a specific word.
type Request struct {
	Word       string
	Source     string // client address, for logging
	ReceivedAt time.Time
}

// Queue decouples HTTP handlers from the engine lock: requests are buffered
// and a small worker pool spawns them.
type Queue struct {
	requests chan Request
	spawner  *WordSpawner
	workers  int
	wg       sync.WaitGroup
	running  atomic.Bool
	stopChan chan struct{}

	// Metrics
	enqueued    atomic.Uint64
	processed   atomic.Uint64
	dropped     atomic.Uint64
	avgWaitTime atomic.Int64 // nanoseconds, exponential moving average
}

// QueueConfig holds configuration for the request queue.
type QueueConfig struct {
	BufferSize int // default 64
	Workers    int // default 2
}

// DefaultQueueConfig returns the defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		BufferSize: 64,
		Workers:    2,
	}
}

// NewQueue creates a queue feeding spawner.
func NewQueue(spawner *WordSpawner, cfg QueueConfig) *Queue {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}

	return &Queue{
		requests: make(chan Request, cfg.BufferSize),
		spawner:  spawner,
		workers:  cfg.Workers,
		stopChan: make(chan struct{}),
	}
}

// Start launches the workers.
func (q *Queue) Start() {
	if q.running.Swap(true) {
		return
	}

	log.Printf("🚀 Spawn queue starting with %d workers, buffer size %d", q.workers, cap(q.requests))

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Stop shuts the workers down. Requests still buffered are discarded.
func (q *Queue) Stop() {
	if !q.running.Swap(false) {
		return
	}

	close(q.stopChan)
	q.wg.Wait()

	log.Printf("📊 Spawn queue stopped - enqueued: %d, processed: %d, dropped: %d",
		q.enqueued.Load(), q.processed.Load(), q.dropped.Load())
}

// Enqueue adds a request without blocking. Returns false if the buffer is
// full and the request was dropped.
func (q *Queue) Enqueue(req Request) bool {
	req.ReceivedAt = time.Now()

	select {
	case q.requests <- req:
		q.enqueued.Add(1)
		return true
	default:
		if q.dropped.Add(1)%100 == 1 {
			log.Printf("⚠️ Spawn queue full, dropped request from %s (total dropped: %d)",
				req.Source, q.dropped.Load())
		}
		return false
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopChan:
			return
		case req := <-q.requests:
			q.updateAvgWaitTime(time.Since(req.ReceivedAt))
			q.spawner.SpawnWord(req.Word)
			q.processed.Add(1)
		}
	}
}

func (q *Queue) updateAvgWaitTime(wait time.Duration) {
	current := q.avgWaitTime.Load()
	q.avgWaitTime.Store((current*9 + wait.Nanoseconds()) / 10)
}

// QueueStats holds queue metrics.
type QueueStats struct {
	Enqueued      uint64  `json:"enqueued"`
	Processed     uint64  `json:"processed"`
	Dropped       uint64  `json:"dropped"`
	Pending       int     `json:"pending"`
	BufferSize    int     `json:"bufferSize"`
	AvgWaitTimeMs float64 `json:"avgWaitTimeMs"`
}

// Stats returns current queue statistics.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Enqueued:      q.enqueued.Load(),
		Processed:     q.processed.Load(),
		Dropped:       q.dropped.Load(),
		Pending:       len(q.requests),
		BufferSize:    cap(q.requests),
		AvgWaitTimeMs: float64(q.avgWaitTime.Load()) / 1e6,
	}
}
