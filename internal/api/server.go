package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"word-arena/internal/game"
)

// ServerOptions carries the optional collaborators of a Server.
type ServerOptions struct {
	Events            EventSource
	Frames            FrameSource
	Words             WordQueue
	BroadcastInterval time.Duration
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the WebSocket hub for live viewers.
type Server struct {
	engine      *game.Engine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	interval    time.Duration

	startOnce   sync.Once
	mu          sync.Mutex
	httpServer  *http.Server
	unsubscribe func()
}

// NewServer creates a new API server.
//
// Background workers do not start until StartBackground or Start is called,
// so tests can construct the server and use Router() without them.
func NewServer(engine *game.Engine, opts ServerOptions) *Server {
	s := &Server{
		engine:      engine,
		wsHub:       NewWebSocketHub(),
		rateLimiter: NewIPRateLimiter(DefaultRateLimitConfig),
		interval:    opts.BroadcastInterval,
	}

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		Events:      opts.Events,
		Frames:      opts.Frames,
		Words:       opts.Words,
		RateLimiter: s.rateLimiter,
	})
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// StartBackground starts the hub, the snapshot broadcast loop and the
// state-change push. Safe to call more than once.
func (s *Server) StartBackground() {
	s.startOnce.Do(func() {
		go s.wsHub.Run()
		s.wsHub.StartBroadcastLoop(s.engine, s.interval)

		unsubscribe := s.engine.OnStateChange(func(state game.GameState) {
			s.wsHub.Broadcast("game:state", state.String())
		})
		s.mu.Lock()
		s.unsubscribe = unsubscribe
		s.mu.Unlock()
	})
}

// Start starts the background workers and serves HTTP on addr until
// Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	s.StartBackground()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Printf("🌐 API server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the WebSocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown stops the listener, the background workers and closes viewer
// connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.wsHub.Stop()
	s.rateLimiter.Stop()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
