package game

import (
	"fmt"
	"math/rand"
	"testing"
	"time"
)

// =============================================================================
// BENCHMARK SUITE: CRITICAL PATH PERFORMANCE TESTS
// Run with: go test -bench=. -benchmem ./internal/game/...
// =============================================================================

// -----------------------------------------------------------------------------
// ENGINE TICK BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkEngineTick_100Objects(b *testing.B)  { benchmarkEngineTick(b, 100, true) }
func BenchmarkEngineTick_500Objects(b *testing.B)  { benchmarkEngineTick(b, 500, true) }
func BenchmarkEngineTick_1000Objects(b *testing.B) { benchmarkEngineTick(b, 1000, true) }

func BenchmarkEngineTick_1000Objects_NoCollisions(b *testing.B) {
	benchmarkEngineTick(b, 1000, false)
}

// populate fills e with n randomly placed moving bubbles.
func populate(e *Engine, n int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		obj := e.NewObject(fmt.Sprintf("obj-%d", i), TypeWordBubble,
			rng.Float64()*1240, rng.Float64()*680, 24, 16)
		obj.Velocity = Vec2{X: rng.Float64()*200 - 100, Y: rng.Float64()*200 - 100}
		e.AddObject(obj)
	}
}

func benchmarkEngineTick(b *testing.B, objectCount int, collisions bool) {
	clock := NewManualClock(epoch)
	engine := NewEngine(
		WithScheduler(NewManualScheduler()),
		WithClock(clock),
		WithWorldSize(1280, 720),
		WithMaxObjects(objectCount),
		WithCollisions(collisions),
	)
	populate(engine, objectCount, 1)
	engine.Start()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		clock.Advance(16 * time.Millisecond)
		engine.mu.Lock()
		engine.tickLocked()
		engine.pending = engine.pending[:0]
		engine.mu.Unlock()
	}
}

// -----------------------------------------------------------------------------
// SNAPSHOT BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkPublishSnapshot_1000Objects(b *testing.B) {
	engine := NewEngine(WithScheduler(NewManualScheduler()), WithMaxObjects(1000))
	populate(engine, 1000, 2)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		engine.mu.Lock()
		engine.publishSnapshotLocked(epoch)
		engine.mu.Unlock()
	}
}

// -----------------------------------------------------------------------------
// COLLISION BENCHMARKS
// -----------------------------------------------------------------------------

// Dense cluster: most objects share a handful of cells.
func BenchmarkCollision_DenseCluster(b *testing.B) {
	engine := NewEngine(WithScheduler(NewManualScheduler()), WithMaxObjects(200))
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		engine.AddObject(bubble(fmt.Sprint(i), 300+rng.Float64()*100, 300+rng.Float64()*100, 20, 20))
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		engine.mu.Lock()
		engine.detectCollisionsLocked()
		engine.pending = engine.pending[:0]
		engine.mu.Unlock()
	}
}
