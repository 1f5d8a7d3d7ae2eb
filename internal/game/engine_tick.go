package game

import (
	"fmt"
	"log"
	"math"
	"time"

	"word-arena/internal/game/spatial"
)

const (
	fpsWindow = time.Second

	// Collision response factors
	obstacleBounce = 0.8
	exchangeDamp   = 0.9
)

// tickLocked runs one frame: timing, update, collisions, prune, render and
// snapshot publication.
func (e *Engine) tickLocked() {
	now := e.clock.Now()
	dt := float64(now.Sub(e.lastFrame)) / float64(time.Millisecond)
	if dt < 0 {
		dt = 0
	}
	e.lastFrame = now
	e.deltaTime = dt
	e.tickCount++

	e.updateFPSLocked(now)
	e.updateObjectsLocked(dt)
	if e.config.CollisionEnabled {
		e.detectCollisionsLocked()
	}
	e.pruneLocked()
	e.renderLocked()
	e.publishSnapshotLocked(now)
}

// updateFPSLocked counts frames and publishes the count once per window.
func (e *Engine) updateFPSLocked(now time.Time) {
	e.fpsFrames++
	if elapsed := now.Sub(e.fpsWindowStart); elapsed >= fpsWindow {
		e.fps = float64(e.fpsFrames)
		e.fpsFrames = 0
		e.fpsWindowStart = now
	}
}

// updateObjectsLocked integrates velocity over dt (ms), clamps to the world
// and rebuilds the grid from the new positions.
func (e *Engine) updateObjectsLocked(dt float64) {
	e.grid.Clear()

	worldW := float64(e.config.CanvasWidth)
	worldH := float64(e.config.CanvasHeight)
	step := dt / 1000

	for _, obj := range e.objects {
		if !obj.Active {
			continue
		}

		obj.Position.X += obj.Velocity.X * step
		obj.Position.Y += obj.Velocity.Y * step

		obj.Position.X, obj.Velocity.X = clampAxis(obj.Position.X, obj.Velocity.X, worldW-obj.BoundingBox.Width)
		obj.Position.Y, obj.Velocity.Y = clampAxis(obj.Position.Y, obj.Velocity.Y, worldH-obj.BoundingBox.Height)

		obj.syncBounds()
		e.grid.Insert(obj)
	}
}

// clampAxis keeps pos within [0, limit] and reflects the velocity on contact.
// An object larger than the world is pinned at 0.
func clampAxis(pos, vel, limit float64) (float64, float64) {
	limit = math.Max(0, limit)
	switch {
	case pos < 0:
		return 0, -vel
	case pos > limit:
		return limit, -vel
	}
	return pos, vel
}

// pairKey identifies an unordered pair of objects.
type pairKey struct {
	a, b string
}

func makePairKey(x, y string) pairKey {
	if y < x {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// detectCollisionsLocked runs broad phase through the grid and the exact AABB
// test on each candidate pair once per tick.
func (e *Engine) detectCollisionsLocked() {
	clear(e.pairSeen)

	for _, a := range e.objects {
		if !a.Active {
			continue
		}
		for _, b := range e.grid.QueryRange(a.BoundingBox) {
			if b == a || !b.Active {
				continue
			}
			key := makePairKey(a.ID, b.ID)
			if _, done := e.pairSeen[key]; done {
				continue
			}
			e.pairSeen[key] = struct{}{}

			if !spatial.Intersects(a.BoundingBox, b.BoundingBox) {
				continue
			}

			e.emitLocked(EventTypeCollision, CollisionPayload{
				A:     a.ID,
				B:     b.ID,
				TypeA: a.Type,
				TypeB: b.Type,
			})
			resolveCollision(a, b)
		}
	}
}

// resolveCollision applies the velocity response for a colliding pair.
// A player hitting an obstacle bounces back; anything else trades velocities.
func resolveCollision(a, b *GameObject) {
	switch {
	case a.Type == TypePlayer && b.Type == TypeObstacle:
		a.Velocity = a.Velocity.Scale(-obstacleBounce)
	case a.Type == TypeObstacle && b.Type == TypePlayer:
		b.Velocity = b.Velocity.Scale(-obstacleBounce)
	default:
		a.Velocity, b.Velocity = b.Velocity.Scale(exchangeDamp), a.Velocity.Scale(exchangeDamp)
	}
}

// pruneLocked drops inactive objects (in-place filter), returning them to
// the pool.
func (e *Engine) pruneLocked() {
	n := 0
	for _, obj := range e.objects {
		if obj.Active {
			e.objects[n] = obj
			n++
			continue
		}
		e.grid.Remove(obj)
		delete(e.byID, obj.ID)
		e.pool.Release(obj)
	}

	removed := len(e.objects) - n
	if removed == 0 {
		return
	}
	clear(e.objects[n:])
	e.objects = e.objects[:n]

	e.emitLocked(EventTypeObjectDestroy, DestroyPayload{Count: removed})
}

// renderLocked draws the frame onto the attached canvas, if any.
func (e *Engine) renderLocked() {
	if e.canvas == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil && !e.renderWarned {
			log.Printf("❌ Render failed: %v", r)
			e.renderWarned = true
		}
	}()

	e.canvas.Clear(float64(e.config.CanvasWidth), float64(e.config.CanvasHeight))

	for _, obj := range e.objects {
		if !obj.Active {
			continue
		}
		bb := obj.BoundingBox
		e.canvas.FillRect(obj.Position.X, obj.Position.Y, bb.Width, bb.Height, ColorFor(obj.Type))
	}

	if e.config.Debug {
		e.drawDebugLocked()
	}

	if p, ok := e.canvas.(Presenter); ok {
		p.Present()
	}
}

func (e *Engine) drawDebugLocked() {
	lines := []string{
		fmt.Sprintf("FPS: %.0f", e.fps),
		fmt.Sprintf("Objects: %d", len(e.objects)),
		fmt.Sprintf("State: %s", e.state),
		fmt.Sprintf("Delta: %.2fms", e.deltaTime),
	}
	for i, line := range lines {
		e.canvas.FillText(line, 10, 20+float64(i)*16, ColorDebugText)
	}
}

// publishSnapshotLocked copies the world into a fresh immutable snapshot.
func (e *Engine) publishSnapshotLocked(now time.Time) {
	snap := &GameSnapshot{
		Timestamp:   now,
		TickNumber:  e.tickCount,
		State:       e.state.String(),
		FPS:         e.fps,
		DeltaTime:   e.deltaTime,
		Objects:     make([]ObjectSnapshot, 0, len(e.objects)),
		ObjectCount: len(e.objects),
		Grid:        e.grid.Stats(),
	}
	for _, obj := range e.objects {
		snap.Objects = append(snap.Objects, obj.Snapshot())
	}
	e.snapshots.Publish(snap)
}

// publishIfIdleLocked refreshes the snapshot when no tick will do it soon.
func (e *Engine) publishIfIdleLocked() {
	if !e.running || e.paused {
		e.publishSnapshotLocked(e.clock.Now())
	}
}
