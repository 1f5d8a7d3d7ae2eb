// Package spawn feeds word bubbles into the engine the way the lesson UI
// does: on a timer while a round is playing, or on request.
package spawn

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"word-arena/internal/config"
	"word-arena/internal/game"
)

const (
	glyphWidth    = 7 // basicfont advance
	bubblePadding = 12
	minSpeedRatio = 0.25
)

// Engine is the part of the game engine the spawner needs.
type Engine interface {
	NewObject(id string, typ game.ObjectType, x, y, width, height float64) *game.GameObject
	AddObject(obj *game.GameObject) bool
	Config() game.Config
	State() game.GameState
}

// WordSpawner creates word_bubble objects at random positions with random
// headings.
type WordSpawner struct {
	engine Engine
	cfg    config.SpawnConfig
	words  []string

	mu  sync.Mutex
	rng *rand.Rand

	spawned  atomic.Uint64
	rejected atomic.Uint64
}

// Option configures a WordSpawner.
type Option func(*WordSpawner)

// WithConfig replaces the spawn configuration.
func WithConfig(cfg config.SpawnConfig) Option {
	return func(s *WordSpawner) { s.cfg = cfg }
}

// WithSeed makes positions and headings reproducible.
func WithSeed(seed int64) Option {
	return func(s *WordSpawner) { s.rng = rand.New(rand.NewSource(seed)) }
}

// NewWordSpawner creates a spawner drawing from words. With no words it uses
// the configured list.
func NewWordSpawner(engine Engine, words []string, opts ...Option) *WordSpawner {
	s := &WordSpawner{
		engine: engine,
		cfg:    config.DefaultSpawn(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.words = append([]string(nil), words...)
	if len(s.words) == 0 {
		s.words = append(s.words, s.cfg.Words...)
	}
	if len(s.words) == 0 {
		s.words = config.DefaultSpawn().Words
	}
	return s
}

// Stats counts spawn attempts.
type Stats struct {
	Spawned  uint64 `json:"spawned"`
	Rejected uint64 `json:"rejected"`
}

// Stats returns spawn counters.
func (s *WordSpawner) Stats() Stats {
	return Stats{Spawned: s.spawned.Load(), Rejected: s.rejected.Load()}
}

// SpawnOne spawns a bubble for a random word. It returns the new object's ID
// and whether the engine accepted it.
func (s *WordSpawner) SpawnOne() (string, bool) {
	s.mu.Lock()
	word := s.words[s.rng.Intn(len(s.words))]
	s.mu.Unlock()
	return s.SpawnWord(word)
}

// SpawnWord spawns a bubble labelled word. The ID embeds the word so viewers
// can show it.
func (s *WordSpawner) SpawnWord(word string) (string, bool) {
	cfg := s.engine.Config()

	width := math.Max(s.cfg.BubbleWidth, float64(utf8.RuneCountInString(word)*glyphWidth+bubblePadding))
	height := s.cfg.BubbleHeight

	s.mu.Lock()
	x := s.rng.Float64() * math.Max(0, float64(cfg.CanvasWidth)-width)
	y := s.rng.Float64() * math.Max(0, float64(cfg.CanvasHeight)-height)
	angle := s.rng.Float64() * 2 * math.Pi
	speed := s.cfg.MaxSpeed * (minSpeedRatio + s.rng.Float64()*(1-minSpeedRatio))
	s.mu.Unlock()

	id := fmt.Sprintf("%s-%s", word, uuid.NewString())
	obj := s.engine.NewObject(id, game.TypeWordBubble, x, y, width, height)
	obj.Velocity = game.Vec2{X: math.Cos(angle) * speed, Y: math.Sin(angle) * speed}

	if !s.engine.AddObject(obj) {
		s.rejected.Add(1)
		return id, false
	}
	s.spawned.Add(1)
	return id, true
}

// Run spawns a bubble every interval while the engine is playing, until ctx
// is cancelled.
func (s *WordSpawner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval())
	defer ticker.Stop()

	log.Printf("🫧 Word spawner started (every %v, %d words)", s.cfg.Interval(), len(s.words))
	defer func() {
		st := s.Stats()
		log.Printf("🫧 Word spawner stopped - spawned: %d, rejected: %d", st.Spawned, st.Rejected)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.engine.State() != game.StatePlaying {
				continue
			}
			s.SpawnOne()
		}
	}
}
