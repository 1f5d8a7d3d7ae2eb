package game

import (
	"time"

	"word-arena/internal/game/spatial"
)

// Vec2 is a 2D vector in world units. Velocities are in units per second.
type Vec2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Scale returns v multiplied by k.
func (v Vec2) Scale(k float64) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// ObjectType classifies a game object. The set is closed; collision and
// rendering rules switch on it.
type ObjectType string

const (
	TypePlayer     ObjectType = "player"
	TypeWordBubble ObjectType = "word_bubble"
	TypeObstacle   ObjectType = "obstacle"
	TypePowerup    ObjectType = "powerup"
	TypeParticle   ObjectType = "particle"
)

// Valid reports whether t is one of the known object types.
func (t ObjectType) Valid() bool {
	switch t {
	case TypePlayer, TypeWordBubble, TypeObstacle, TypePowerup, TypeParticle:
		return true
	}
	return false
}

// GameObject is an entity simulated by the engine.
//
// BoundingBox.X/Y mirror Position after every update pass; Width/Height are
// the object's size and are never changed by the engine.
type GameObject struct {
	ID          string       `json:"id"`
	Position    Vec2         `json:"position"`
	Velocity    Vec2         `json:"velocity"`
	BoundingBox spatial.Rect `json:"boundingBox"`
	Type        ObjectType   `json:"type"`
	Active      bool         `json:"active"`
	Created     time.Time    `json:"created"`
}

// NewGameObject builds an active object at (x, y) with the given size.
func NewGameObject(id string, typ ObjectType, x, y, width, height float64) *GameObject {
	obj := &GameObject{}
	obj.init(id, typ, x, y, width, height)
	return obj
}

func (o *GameObject) init(id string, typ ObjectType, x, y, width, height float64) {
	o.ID = id
	o.Type = typ
	o.Position = Vec2{X: x, Y: y}
	o.Velocity = Vec2{}
	o.BoundingBox = spatial.Rect{X: x, Y: y, Width: width, Height: height}
	o.Active = true
}

// Bounds implements spatial.Item.
func (o *GameObject) Bounds() spatial.Rect {
	return o.BoundingBox
}

// syncBounds moves the bounding box onto the current position.
func (o *GameObject) syncBounds() {
	o.BoundingBox.X = o.Position.X
	o.BoundingBox.Y = o.Position.Y
}

// reset clears every field so a pooled object carries nothing over.
func (o *GameObject) reset() {
	*o = GameObject{}
}
