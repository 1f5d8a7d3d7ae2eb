package game

import (
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeObjectSpawn
	EventTypeObjectDestroy
	EventTypeCollision
	EventTypeStateChange
)

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeObjectSpawn:
		return "object_spawn"
	case EventTypeObjectDestroy:
		return "object_destroy"
	case EventTypeCollision:
		return "collision"
	case EventTypeStateChange:
		return "state_change"
	default:
		return "unknown"
	}
}

// MarshalText encodes the event type by name.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// GameEvent is delivered to every OnEvent subscriber.
// Data holds one of the typed payloads below.
type GameEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Typed payloads for different event types

// SpawnPayload is attached to object_spawn events.
type SpawnPayload struct {
	ObjectID string     `json:"objectId"`
	Type     ObjectType `json:"type"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
}

// DestroyPayload is attached to object_destroy events. An explicit removal
// carries the object ID; the per-tick prune reports only how many went.
type DestroyPayload struct {
	ObjectID string `json:"objectId,omitempty"`
	Count    int    `json:"count"`
}

// CollisionPayload names both participants of a narrow-phase hit.
type CollisionPayload struct {
	A     string     `json:"a"`
	B     string     `json:"b"`
	TypeA ObjectType `json:"typeA"`
	TypeB ObjectType `json:"typeB"`
}

// StatePayload is attached to state_change events.
type StatePayload struct {
	From GameState `json:"from"`
	To   GameState `json:"to"`
}

func newEvent(t EventType, ts time.Time, data any) GameEvent {
	return GameEvent{Type: t, Timestamp: ts, Data: data}
}
