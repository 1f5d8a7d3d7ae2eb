// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for engine, server and spawner settings.
//
// Values come from three layers, later layers win:
//  1. compiled defaults (DefaultX functions below)
//  2. an optional YAML file (ENGINE_CONFIG or an explicit path)
//  3. environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// ENGINE CONFIGURATION
// =============================================================================

// EngineConfig holds the per-session tunables of the game engine.
// It is treated as immutable once a session is running.
type EngineConfig struct {
	CanvasWidth      int     `yaml:"canvas_width"`    // World/canvas width in pixels
	CanvasHeight     int     `yaml:"canvas_height"`   // World/canvas height in pixels
	TargetFPS        int     `yaml:"target_fps"`      // Nominal frame rate
	FixedTimeStep    float64 `yaml:"fixed_time_step"` // Nominal frame interval in ms
	MaxObjects       int     `yaml:"max_objects"`     // Hard cap on live objects
	CollisionEnabled bool    `yaml:"collision_enabled"`
	Debug            bool    `yaml:"debug"`     // Draw the FPS/state overlay
	CellSize         float64 `yaml:"cell_size"` // Spatial grid cell size in pixels
	PoolSize         int     `yaml:"pool_size"` // Max idle objects kept for reuse
}

// DefaultEngine returns the default engine configuration.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		CanvasWidth:      800,
		CanvasHeight:     600,
		TargetFPS:        60,
		FixedTimeStep:    1000.0 / 60.0, // 16.67ms
		MaxObjects:       1000,
		CollisionEnabled: true,
		Debug:            false,
		CellSize:         64,
		PoolSize:         100,
	}
}

// FrameInterval returns FixedTimeStep as a duration, falling back to TargetFPS.
func (c EngineConfig) FrameInterval() time.Duration {
	if c.FixedTimeStep > 0 {
		return time.Duration(c.FixedTimeStep * float64(time.Millisecond))
	}
	if c.TargetFPS > 0 {
		return time.Second / time.Duration(c.TargetFPS)
	}
	return time.Second / 60
}

// applyEngineEnv overlays environment variables onto cfg.
func applyEngineEnv(cfg *EngineConfig) {
	if w := getEnvInt("CANVAS_WIDTH", 0); w > 0 {
		cfg.CanvasWidth = w
	}
	if h := getEnvInt("CANVAS_HEIGHT", 0); h > 0 {
		cfg.CanvasHeight = h
	}
	if fps := getEnvInt("TARGET_FPS", 0); fps > 0 {
		cfg.TargetFPS = fps
		cfg.FixedTimeStep = 1000.0 / float64(fps)
	}
	if m := getEnvInt("MAX_OBJECTS", 0); m > 0 {
		cfg.MaxObjects = m
	}
	if cs := getEnvFloat("GRID_CELL_SIZE", 0); cs > 0 {
		cfg.CellSize = cs
	}
	if v := os.Getenv("COLLISIONS_ENABLED"); v != "" {
		cfg.CollisionEnabled = v != "false"
	}
	if os.Getenv("ENGINE_DEBUG") == "true" {
		cfg.Debug = true
	}
}

// EngineFromEnv returns engine configuration with environment variable overrides.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()
	applyEngineEnv(&cfg)
	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int  `yaml:"port"`
	DebugServer    bool `yaml:"debug_server"` // pprof + /metrics on localhost
	BroadcastMilli int  `yaml:"broadcast_ms"` // WebSocket snapshot interval
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		DebugServer:    true,
		BroadcastMilli: 100,
	}
}

func applyServerEnv(cfg *ServerConfig) {
	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.DebugServer = false
	}
}

// =============================================================================
// SPAWNER CONFIGURATION
// =============================================================================

// SpawnConfig controls the demo word-bubble spawner.
type SpawnConfig struct {
	IntervalMilli int      `yaml:"interval_ms"`
	MaxSpeed      float64  `yaml:"max_speed"` // units per second
	BubbleWidth   float64  `yaml:"bubble_width"`
	BubbleHeight  float64  `yaml:"bubble_height"`
	Words         []string `yaml:"words"`
}

// DefaultSpawn returns the default spawner configuration.
func DefaultSpawn() SpawnConfig {
	return SpawnConfig{
		IntervalMilli: 750,
		MaxSpeed:      120,
		BubbleWidth:   72,
		BubbleHeight:  28,
		Words:         []string{"hola", "gracias", "perro", "gato", "casa", "agua", "libro", "verde"},
	}
}

// Interval returns the spawn interval as a duration.
func (c SpawnConfig) Interval() time.Duration {
	if c.IntervalMilli <= 0 {
		return 750 * time.Millisecond
	}
	return time.Duration(c.IntervalMilli) * time.Millisecond
}

func applySpawnEnv(cfg *SpawnConfig) {
	if ms := getEnvInt("SPAWN_INTERVAL_MS", 0); ms > 0 {
		cfg.IntervalMilli = ms
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Engine EngineConfig `yaml:"engine"`
	Server ServerConfig `yaml:"server"`
	Spawn  SpawnConfig  `yaml:"spawn"`
}

// Default returns the complete configuration with compiled defaults only.
func Default() AppConfig {
	return AppConfig{
		Engine: DefaultEngine(),
		Server: DefaultServer(),
		Spawn:  DefaultSpawn(),
	}
}

// Load returns the complete configuration: defaults, then the YAML file named
// by ENGINE_CONFIG (if set), then environment overrides.
func Load() (AppConfig, error) {
	return LoadFile(os.Getenv("ENGINE_CONFIG"))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file
// layer. When the file cannot be used the error is returned together with
// defaults plus environment overrides, so callers may log it and carry on.
func LoadFile(path string) (AppConfig, error) {
	cfg, err := readFile(path)

	applyEngineEnv(&cfg.Engine)
	applyServerEnv(&cfg.Server)
	applySpawnEnv(&cfg.Spawn)

	return cfg, err
}

func readFile(path string) (AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
