package main

import (
	"context"
	"log"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"word-arena/internal/api"
	"word-arena/internal/config"
	"word-arena/internal/game"
	"word-arena/internal/render"
	"word-arena/internal/spawn"
)

func main() {
	// .env from the parent directory, then the current one
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  WORD ARENA - GO ENGINE")
	log.Println("🎮 ================================")

	cfg, err := config.Load()
	if err != nil {
		log.Printf("⚠️ Config file ignored, using defaults and environment: %v", err)
	}
	engineCfg := cfg.Engine
	log.Printf("🎮 Config: %dx%d world, %d FPS, %d max objects, collisions=%v",
		engineCfg.CanvasWidth, engineCfg.CanvasHeight, engineCfg.TargetFPS, engineCfg.MaxObjects, engineCfg.CollisionEnabled)

	engine := game.NewEngine(
		game.WithConfig(engineCfg),
		game.WithTickObserver(api.RecordTick),
	)

	var rasterOpts []render.RasterOption
	if fontPath := render.FindFont(); fontPath != "" {
		rasterOpts = append(rasterOpts, render.WithFontFile(fontPath, 13))
	}
	surface := render.NewRasterSurface(engineCfg.CanvasWidth, engineCfg.CanvasHeight, rasterOpts...)
	if err := engine.Initialize(surface); err != nil {
		log.Fatalf("❌ Engine initialization failed: %v", err)
	}

	events := game.NewEventLog(game.EventBufferSize, game.MaxEventsPerSec)
	engine.OnEvent(events.Handle)
	engine.OnEvent(api.RecordEvent)
	prometheus.MustRegister(api.NewEngineCollector(engine))

	if cfg.Server.DebugServer {
		api.StartDebugServer(api.DefaultObservabilityConfig())
	}

	spawner := spawn.NewWordSpawner(engine, nil, spawn.WithConfig(cfg.Spawn))
	queue := spawn.NewQueue(spawner, spawn.DefaultQueueConfig())
	queue.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go spawner.Run(ctx)

	server := api.NewServer(engine, api.ServerOptions{
		Events:            events,
		Frames:            surface,
		Words:             queue,
		BroadcastInterval: time.Duration(cfg.Server.BroadcastMilli) * time.Millisecond,
	})

	engine.Start()

	serverErr := make(chan error, 1)
	go func() {
		addr := ":" + strconv.Itoa(cfg.Server.Port)
		log.Printf("🌐 API:    http://localhost%s/api/state", addr)
		log.Printf("🖼️ Frame:  http://localhost%s/api/frame.png", addr)
		serverErr <- server.Start(addr)
	}()

	log.Println("✅ Server ready! Press Ctrl+C to stop.")

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			log.Printf("❌ API server failed: %v", err)
		}
	}

	log.Println("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ API shutdown: %v", err)
	}
	stop()
	queue.Stop()
	engine.Dispose()

	st := events.Stats()
	log.Printf("📊 Events: %d logged, %d dropped", st.Total, st.Dropped)
	log.Println("👋 Goodbye!")
}
