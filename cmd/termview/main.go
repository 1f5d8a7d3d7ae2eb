// =============================================================================
// WORD ARENA - TERMINAL VIEW
// =============================================================================
// Runs the engine locally and renders it into the terminal.
//
// Keys: arrows steer the player, space pauses/resumes, w spawns a word,
// g ends the round, r restarts, q or Esc quits.
// =============================================================================
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"

	"word-arena/internal/config"
	"word-arena/internal/game"
	"word-arena/internal/render"
	"word-arena/internal/spawn"
)

const (
	playerID    = "player"
	playerSpeed = 160.0
)

func main() {
	_ = godotenv.Load(".env")

	// The screen owns stdout; logs go to a file when requested
	log.SetOutput(io.Discard)
	if path := os.Getenv("TERMVIEW_LOG"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			defer f.Close()
			log.SetOutput(f)
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "termview: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("⚠️ Config file ignored, using defaults and environment: %v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	surface := render.NewTerminalSurface(screen)
	width, height := surface.Size()

	engine := game.NewEngine(
		game.WithConfig(cfg.Engine),
		game.WithWorldSize(width, height),
		game.WithDebug(true),
	)
	defer engine.Dispose()

	if err := engine.Initialize(surface); err != nil {
		return err
	}

	spawner := spawn.NewWordSpawner(engine, nil, spawn.WithConfig(cfg.Spawn))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go spawner.Run(ctx)

	engine.OnStateChange(func(state game.GameState) {
		if state == game.StatePlaying {
			seedWorld(engine)
		}
	})
	engine.Start()

	for {
		ev := screen.PollEvent()
		if ev == nil {
			return nil
		}
		if surface.HandleEvent(ev) {
			continue
		}

		key, ok := ev.(*tcell.EventKey)
		if !ok {
			continue
		}
		if quit := handleKey(engine, spawner, key); quit {
			return nil
		}
	}
}

// seedWorld places the player and a few obstacles when a round starts.
func seedWorld(engine *game.Engine) {
	cfg := engine.Config()
	w, h := float64(cfg.CanvasWidth), float64(cfg.CanvasHeight)

	if _, ok := engine.GetObject(playerID); !ok {
		engine.AddObject(engine.NewObject(playerID, game.TypePlayer, w/2, h/2, 16, 32))
	}
	for i, pos := range [][2]float64{{0.2, 0.25}, {0.75, 0.3}, {0.3, 0.75}, {0.7, 0.7}} {
		id := fmt.Sprintf("rock-%d", i)
		if _, ok := engine.GetObject(id); ok {
			continue
		}
		engine.AddObject(engine.NewObject(id, game.TypeObstacle, pos[0]*w, pos[1]*h, 48, 32))
	}
}

func handleKey(engine *game.Engine, spawner *spawn.WordSpawner, key *tcell.EventKey) bool {
	steer := func(vx, vy float64) {
		engine.Mutate(playerID, func(o *game.GameObject) {
			o.Velocity = game.Vec2{X: vx, Y: vy}
		})
	}

	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		steer(0, -playerSpeed)
	case tcell.KeyDown:
		steer(0, playerSpeed)
	case tcell.KeyLeft:
		steer(-playerSpeed, 0)
	case tcell.KeyRight:
		steer(playerSpeed, 0)
	case tcell.KeyRune:
		switch key.Rune() {
		case 'q':
			return true
		case ' ':
			if engine.State() == game.StatePaused {
				engine.Resume()
			} else {
				engine.Pause()
			}
		case 'w':
			spawner.SpawnOne()
		case 'g':
			engine.GameOver()
		case 'r':
			engine.Stop()
			engine.Start()
		}
	}
	return false
}
