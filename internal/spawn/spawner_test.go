package spawn

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"word-arena/internal/config"
	"word-arena/internal/game"
)

func newEngine(t *testing.T, opts ...game.Option) *game.Engine {
	t.Helper()
	base := []game.Option{
		game.WithScheduler(game.NewManualScheduler()),
		game.WithClock(game.NewManualClock(time.Unix(0, 0))),
		game.WithWorldSize(400, 300),
	}
	e := game.NewEngine(append(base, opts...)...)
	t.Cleanup(e.Dispose)
	return e
}

// TestSpawnOneStaysInWorld verifies bubbles start inside the world with a
// speed inside the configured band.
func TestSpawnOneStaysInWorld(t *testing.T) {
	e := newEngine(t)
	cfg := config.DefaultSpawn()
	s := NewWordSpawner(e, []string{"gato", "perro"}, WithSeed(7), WithConfig(cfg))

	for i := 0; i < 50; i++ {
		id, ok := s.SpawnOne()
		require.True(t, ok)

		obj, found := e.GetObject(id)
		require.True(t, found)
		assert.Equal(t, game.TypeWordBubble, obj.Type)
		assert.True(t, strings.HasPrefix(id, "gato-") || strings.HasPrefix(id, "perro-"), id)

		assert.GreaterOrEqual(t, obj.Position.X, 0.0)
		assert.LessOrEqual(t, obj.Position.X+obj.BoundingBox.Width, 400.0)
		assert.GreaterOrEqual(t, obj.Position.Y, 0.0)
		assert.LessOrEqual(t, obj.Position.Y+obj.BoundingBox.Height, 300.0)

		speed := math.Hypot(obj.Velocity.X, obj.Velocity.Y)
		assert.GreaterOrEqual(t, speed, cfg.MaxSpeed*minSpeedRatio-1e-9)
		assert.LessOrEqual(t, speed, cfg.MaxSpeed+1e-9)
	}
	assert.Equal(t, uint64(50), s.Stats().Spawned)
}

func TestSpawnIsReproducibleWithSeed(t *testing.T) {
	a := NewWordSpawner(newEngine(t), nil, WithSeed(42))
	b := NewWordSpawner(newEngine(t), nil, WithSeed(42))

	idA, _ := a.SpawnOne()
	idB, _ := b.SpawnOne()

	objA, _ := a.engine.(*game.Engine).GetObject(idA)
	objB, _ := b.engine.(*game.Engine).GetObject(idB)
	assert.Equal(t, objA.Position, objB.Position)
	assert.Equal(t, objA.Velocity, objB.Velocity)
	assert.NotEqual(t, idA, idB, "ids are unique")
}

func TestLongWordsGetWiderBubbles(t *testing.T) {
	e := newEngine(t)
	s := NewWordSpawner(e, nil, WithSeed(1))

	short, _ := s.SpawnWord("sí")
	long, _ := s.SpawnWord("desafortunadamente")

	shortObj, _ := e.GetObject(short)
	longObj, _ := e.GetObject(long)
	assert.Equal(t, config.DefaultSpawn().BubbleWidth, shortObj.BoundingBox.Width)
	assert.Equal(t, float64(18*glyphWidth+bubblePadding), longObj.BoundingBox.Width)
}

func TestSpawnRejectedAtCapacity(t *testing.T) {
	e := newEngine(t, game.WithMaxObjects(1))
	s := NewWordSpawner(e, []string{"agua"}, WithSeed(3))

	_, ok := s.SpawnOne()
	require.True(t, ok)
	_, ok = s.SpawnOne()
	assert.False(t, ok)

	assert.Equal(t, Stats{Spawned: 1, Rejected: 1}, s.Stats())
	assert.Equal(t, 1, e.ObjectCount())
}

func TestEmptyWordListFallsBack(t *testing.T) {
	s := NewWordSpawner(newEngine(t), nil, WithConfig(config.SpawnConfig{BubbleWidth: 40, BubbleHeight: 20}))
	assert.Equal(t, config.DefaultSpawn().Words, s.words)
}

// TestRunSpawnsOnlyWhilePlaying verifies the timer loop waits for a round.
func TestRunSpawnsOnlyWhilePlaying(t *testing.T) {
	e := newEngine(t)
	cfg := config.DefaultSpawn()
	cfg.IntervalMilli = 5
	s := NewWordSpawner(e, nil, WithConfig(cfg), WithSeed(9))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, e.ObjectCount(), "menu state spawns nothing")

	e.Start()
	assert.Eventually(t, func() bool { return e.ObjectCount() > 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
