package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"word-arena/internal/game"
)

// Metrics with bounded cardinality (no per-object labels)
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_tick_duration_seconds",
		Help:    "Time spent in game tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025},
	})

	gameEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_events_total",
		Help: "Game events emitted by the engine",
	}, []string{"type"}) // Bounded: the EventType names

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket broadcasts sent",
	})
)

// RecordTick records tick timing. Pass it to game.WithTickObserver.
func RecordTick(duration time.Duration) {
	tickDuration.Observe(duration.Seconds())
}

// RecordEvent counts an engine event. Subscribe it with Engine.OnEvent.
func RecordEvent(ev game.GameEvent) {
	gameEvents.WithLabelValues(ev.Type.String()).Inc()
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

// =============================================================================
// ENGINE COLLECTOR
// =============================================================================

// StatsSource is what EngineCollector reads on each scrape.
type StatsSource interface {
	Stats() game.Stats
}

// EngineCollector exports engine gauges at scrape time, so the tick loop
// never touches Prometheus for them.
type EngineCollector struct {
	source StatsSource

	objects       *prometheus.Desc
	maxObjects    *prometheus.Desc
	poolIdle      *prometheus.Desc
	fps           *prometheus.Desc
	ticks         *prometheus.Desc
	occupiedCells *prometheus.Desc
	state         *prometheus.Desc
}

var allStates = []game.GameState{
	game.StateMenu, game.StatePlaying, game.StatePaused, game.StateGameOver, game.StateLoading,
}

// NewEngineCollector creates a collector for source.
func NewEngineCollector(source StatsSource) *EngineCollector {
	return &EngineCollector{
		source:        source,
		objects:       prometheus.NewDesc("game_objects", "Live objects in the world", nil, nil),
		maxObjects:    prometheus.NewDesc("game_objects_max", "Configured object limit", nil, nil),
		poolIdle:      prometheus.NewDesc("game_pool_idle", "Idle objects held by the pool", nil, nil),
		fps:           prometheus.NewDesc("game_fps", "Frames in the last full second", nil, nil),
		ticks:         prometheus.NewDesc("game_ticks_total", "Ticks run since start", nil, nil),
		occupiedCells: prometheus.NewDesc("game_grid_occupied_cells", "Grid cells holding at least one object", nil, nil),
		state:         prometheus.NewDesc("game_state", "1 for the current engine state", []string{"state"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *EngineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.objects
	ch <- c.maxObjects
	ch <- c.poolIdle
	ch <- c.fps
	ch <- c.ticks
	ch <- c.occupiedCells
	ch <- c.state
}

// Collect implements prometheus.Collector.
func (c *EngineCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.objects, prometheus.GaugeValue, float64(st.ObjectCount))
	ch <- prometheus.MustNewConstMetric(c.maxObjects, prometheus.GaugeValue, float64(st.MaxObjects))
	ch <- prometheus.MustNewConstMetric(c.poolIdle, prometheus.GaugeValue, float64(st.PoolIdle))
	ch <- prometheus.MustNewConstMetric(c.fps, prometheus.GaugeValue, st.FPS)
	ch <- prometheus.MustNewConstMetric(c.ticks, prometheus.CounterValue, float64(st.TickCount))
	ch <- prometheus.MustNewConstMetric(c.occupiedCells, prometheus.GaugeValue, float64(st.Grid.OccupiedCells))

	for _, s := range allStates {
		v := 0.0
		if s == st.State {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, v, s.String())
	}
}

// =============================================================================
// DEBUG SERVER
// =============================================================================

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // keep on localhost; pprof is not safe to expose
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// NewDebugMux builds the debug handler: pprof, /metrics and /health.
func NewDebugMux(cfg ObservabilityConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.BasicAuthUser != "" {
		return basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}
	return mux
}

// StartDebugServer serves NewDebugMux in the background. Non-local addresses
// are forced back to localhost unless ALLOW_DEBUG_EXTERNAL=true.
func StartDebugServer(cfg ObservabilityConfig) {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return
	}

	if !isLocalAddr(cfg.ListenAddr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Println("⚠️ Debug server forced to localhost")
		cfg.ListenAddr = DefaultObservabilityConfig().ListenAddr
	}

	handler := NewDebugMux(cfg)

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()
}

func isLocalAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	return host == "127.0.0.1" || host == "localhost" || host == "::1"
}

func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
