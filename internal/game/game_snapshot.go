package game

import (
	"sync/atomic"
	"time"

	"word-arena/internal/game/spatial"
)

// ObjectSnapshot is an immutable copy of object state for rendering.
// Uses value types (not pointers) to ensure immutability.
type ObjectSnapshot struct {
	ID     string     `json:"id" msgpack:"id"`
	Type   ObjectType `json:"type" msgpack:"type"`
	X      float64    `json:"x" msgpack:"x"`
	Y      float64    `json:"y" msgpack:"y"`
	VX     float64    `json:"vx" msgpack:"vx"`
	VY     float64    `json:"vy" msgpack:"vy"`
	Width  float64    `json:"width" msgpack:"w"`
	Height float64    `json:"height" msgpack:"h"`
	Active bool       `json:"active" msgpack:"active"`
}

// Snapshot copies o into an ObjectSnapshot.
func (o *GameObject) Snapshot() ObjectSnapshot {
	return ObjectSnapshot{
		ID:     o.ID,
		Type:   o.Type,
		X:      o.Position.X,
		Y:      o.Position.Y,
		VX:     o.Velocity.X,
		VY:     o.Velocity.Y,
		Width:  o.BoundingBox.Width,
		Height: o.BoundingBox.Height,
		Active: o.Active,
	}
}

// GameSnapshot is a complete immutable view of one frame. Published snapshots
// are never written again, so readers need no lock.
// FPS counts frames in the last full second; DeltaTime is in milliseconds.
type GameSnapshot struct {
	Sequence   uint64    `json:"sequence" msgpack:"seq"`
	Timestamp  time.Time `json:"timestamp" msgpack:"ts"`
	TickNumber uint64    `json:"tick" msgpack:"tick"`
	State      string    `json:"state" msgpack:"state"`
	FPS        float64   `json:"fps" msgpack:"fps"`
	DeltaTime  float64   `json:"deltaTime" msgpack:"dt"`

	Objects     []ObjectSnapshot  `json:"objects" msgpack:"objects"`
	ObjectCount int               `json:"objectCount" msgpack:"count"`
	Grid        spatial.GridStats `json:"grid" msgpack:"grid"`
}

// SnapshotBuffer publishes the latest snapshot to concurrent readers.
// The producer (engine tick) builds a fresh snapshot and swaps it in; readers
// load whatever is current.
type SnapshotBuffer struct {
	latest   atomic.Pointer[GameSnapshot]
	sequence atomic.Uint64
}

// NewSnapshotBuffer creates a buffer holding an empty menu snapshot.
func NewSnapshotBuffer() *SnapshotBuffer {
	b := &SnapshotBuffer{}
	b.latest.Store(&GameSnapshot{
		State:     StateMenu.String(),
		Timestamp: time.Now(),
		Objects:   []ObjectSnapshot{},
	})
	return b
}

// Publish stamps snap with the next sequence number and makes it current.
// snap must not be modified afterwards.
func (b *SnapshotBuffer) Publish(snap *GameSnapshot) {
	snap.Sequence = b.sequence.Add(1)
	b.latest.Store(snap)
}

// Latest returns the most recently published snapshot. Never nil.
func (b *SnapshotBuffer) Latest() *GameSnapshot {
	return b.latest.Load()
}
