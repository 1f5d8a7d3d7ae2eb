package spawn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueProcessesRequests(t *testing.T) {
	e := newEngine(t)
	q := NewQueue(NewWordSpawner(e, nil, WithSeed(5)), DefaultQueueConfig())
	q.Start()
	defer q.Stop()

	for _, w := range []string{"uno", "dos", "tres"} {
		assert.True(t, q.Enqueue(Request{Word: w, Source: "test"}))
	}

	assert.Eventually(t, func() bool { return q.Stats().Processed == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, e.ObjectCount())
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(NewWordSpawner(newEngine(t), nil), QueueConfig{BufferSize: 1, Workers: 1})

	// Not started, so nothing drains the buffer
	assert.True(t, q.Enqueue(Request{Word: "a"}))
	assert.False(t, q.Enqueue(Request{Word: "b"}))

	stats := q.Stats()
	assert.Equal(t, uint64(1), stats.Enqueued)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, 1, stats.Pending)
}

func TestQueueStartStopIdempotent(t *testing.T) {
	q := NewQueue(NewWordSpawner(newEngine(t), nil), QueueConfig{})
	assert.NotPanics(t, func() {
		q.Start()
		q.Start()
		q.Stop()
		q.Stop()
	})
	assert.Equal(t, 64, q.Stats().BufferSize)
}
