package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collision(a, b string) GameEvent {
	return newEvent(EventTypeCollision, epoch, CollisionPayload{A: a, B: b})
}

func TestEventLogRecent(t *testing.T) {
	el := NewEventLog(8, 0)

	for _, id := range []string{"a", "b", "c"} {
		require.True(t, el.Record(collision(id, "x")))
	}

	recent := el.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, uint64(1), recent[0].Sequence)
	assert.Equal(t, "b", recent[0].Data.(CollisionPayload).A)
	assert.Equal(t, "c", recent[1].Data.(CollisionPayload).A)

	assert.Len(t, el.Recent(0), 3, "non-positive n returns everything")
	assert.Len(t, el.Recent(100), 3)
}

func TestEventLogRingOverwritesOldest(t *testing.T) {
	el := NewEventLog(4, 0)

	for i := 0; i < 10; i++ {
		el.Record(collision("a", "b"))
	}

	recent := el.Recent(0)
	require.Len(t, recent, 4)
	assert.Equal(t, uint64(6), recent[0].Sequence)
	assert.Equal(t, uint64(9), recent[3].Sequence)

	stats := el.Stats()
	assert.Equal(t, uint64(10), stats.Total)
	assert.Equal(t, 4, stats.Buffered)
	assert.Equal(t, 4, stats.Capacity)
	assert.Zero(t, stats.Dropped)
}

func TestEventLogRateLimit(t *testing.T) {
	// 10/s with a burst of 1: a second immediate event is rejected
	el := NewEventLog(16, 10)

	assert.True(t, el.Record(collision("a", "b")))
	assert.False(t, el.Record(collision("a", "c")))

	// State changes are never limited
	assert.True(t, el.Record(newEvent(EventTypeStateChange, epoch, StatePayload{From: StateMenu, To: StatePlaying})))

	stats := el.Stats()
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, uint64(2), stats.Total)
}

func TestEventLogReset(t *testing.T) {
	el := NewEventLog(4, 0)
	el.Record(collision("a", "b"))

	el.Reset()

	assert.Empty(t, el.Recent(0))
	assert.Equal(t, uint64(1), el.Stats().Total)
}

func TestEventLogAsSubscriber(t *testing.T) {
	r := newRig(t)
	el := NewEventLog(32, 0)
	r.engine.OnEvent(el.Handle)

	r.engine.AddObject(NewGameObject("a", TypeWordBubble, 10, 10, 5, 5))
	r.engine.Start()

	types := []EventType{}
	for _, ev := range el.Recent(0) {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{EventTypeObjectSpawn, EventTypeStateChange}, types)
}

func TestEventTypeNames(t *testing.T) {
	assert.Equal(t, "object_spawn", EventTypeObjectSpawn.String())
	assert.Equal(t, "object_destroy", EventTypeObjectDestroy.String())
	assert.Equal(t, "collision", EventTypeCollision.String())
	assert.Equal(t, "state_change", EventTypeStateChange.String())
	assert.Equal(t, "unknown", EventType(99).String())

	text, err := EventTypeCollision.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "collision", string(text))
}
