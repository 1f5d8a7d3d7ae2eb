package api

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"word-arena/internal/game"
	"word-arena/internal/game/spatial"
	"word-arena/internal/spawn"
)

// EngineInterface defines the game engine methods used by the API.
// This interface enables mocking for tests without spinning up the game loop.
type EngineInterface interface {
	Stats() game.Stats
	Snapshot() *game.GameSnapshot
	GetObject(id string) (game.GameObject, bool)
	QueryRange(r spatial.Rect) []game.GameObject
	NewObject(id string, typ game.ObjectType, x, y, width, height float64) *game.GameObject
	TryAddObject(obj *game.GameObject) error
	ReleaseObject(obj *game.GameObject)
	RemoveObject(id string) bool

	Start()
	Pause()
	Resume()
	Stop()
	GameOver()
}

// EventSource serves recent engine events (game.EventLog).
type EventSource interface {
	Recent(n int) []game.LoggedEvent
	Stats() game.EventLogStats
}

// FrameSource encodes the last presented frame (render.RasterSurface).
type FrameSource interface {
	EncodePNG(w io.Writer) error
}

// WordQueue accepts asynchronous word-bubble requests (spawn.Queue).
type WordQueue interface {
	Enqueue(req spawn.Request) bool
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000,
//	        Burst:             1000,
//	    },
//	}
//	ts := httptest.NewServer(api.NewRouter(cfg))
type RouterConfig struct {
	// Engine is the game engine (required)
	Engine EngineInterface

	// Events, Frames and Words are optional; their routes are only mounted
	// when set.
	Events EventSource
	Frames FrameSource
	Words  WordQueue

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil. If both are nil,
	// DefaultRateLimitConfig applies.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins overrides the allowed CORS origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the dependencies shared by handler methods.
type routerHandlers struct {
	engine EngineInterface
	events EventSource
	frames FrameSource
	words  WordQueue
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// NewRouter has no side effects beyond the rate limiter's cleanup goroutine
// (avoid it by passing RateLimiter): no listeners are opened and no engine
// methods are called until a request arrives.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Rate limiting before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	h := &routerHandlers{
		engine: cfg.Engine,
		events: cfg.Events,
		frames: cfg.Frames,
		words:  cfg.Words,
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)

		r.Get("/objects", h.handleListObjects)
		r.Post("/objects", h.handleCreateObject)
		r.Get("/objects/{id}", h.handleGetObject)
		r.Delete("/objects/{id}", h.handleDeleteObject)

		r.Post("/engine/{action}", h.handleEngineAction)

		if h.events != nil {
			r.Get("/events", h.handleGetEvents)
		}
		if h.frames != nil {
			r.Get("/frame.png", h.handleGetFrame)
		}
		if h.words != nil {
			r.Post("/words", h.handleEnqueueWord)
		}
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/state", http.StatusFound)
	})

	return r
}

// requestMetrics records latency and status per route pattern.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}
