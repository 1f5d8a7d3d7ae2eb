package game

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"word-arena/internal/config"
	"word-arena/internal/game/spatial"
)

// Config is the engine's per-session configuration.
type Config = config.EngineConfig

// StateCallback is invoked after every state transition with the new state.
type StateCallback func(GameState)

// EventCallback receives every event the engine emits.
type EventCallback func(GameEvent)

type stateSub struct {
	id int
	fn StateCallback
}

type eventSub struct {
	id int
	fn EventCallback
}

// Engine owns the object list, the spatial grid and the object pool, and
// drives the fixed-rate update/collide/prune/render loop.
//
// All state is guarded by mu. Callbacks are collected while the lock is held
// and invoked after it is released, so a callback may call back into the
// engine.
type Engine struct {
	mu sync.Mutex

	config  Config
	surface Surface
	canvas  Canvas

	objects []*GameObject
	byID    map[string]*GameObject
	grid    *spatial.Grid[*GameObject]
	pool    *ObjectPool[*GameObject]

	// Frame source. Exactly one frame is pending while the loop runs.
	scheduler      Scheduler
	ownsScheduler  bool
	clock          Clock
	frame          FrameHandle
	frameGen       uint64
	framePending   bool
	state          GameState
	running        bool
	paused         bool
	lastFrame      time.Time
	deltaTime      float64 // ms
	tickCount      uint64
	lastTickTime   time.Duration
	fps            float64
	fpsFrames      int
	fpsWindowStart time.Time

	// Reused per tick for pair deduplication
	pairSeen map[pairKey]struct{}

	stateSubs []stateSub
	eventSubs []eventSub
	nextSubID int
	pending   []GameEvent // emitted under lock, dispatched after unlock

	detachResize func()
	tickObserver func(time.Duration)
	snapshots    *SnapshotBuffer

	capacityWarned bool
	renderWarned   bool
}

// Option configures an Engine at construction or Initialize time.
type Option func(*Engine)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.config = cfg }
}

// WithWorldSize sets the canvas/world dimensions.
func WithWorldSize(width, height int) Option {
	return func(e *Engine) {
		if width > 0 {
			e.config.CanvasWidth = width
		}
		if height > 0 {
			e.config.CanvasHeight = height
		}
	}
}

// WithTargetFPS sets the frame rate and the matching fixed time step.
func WithTargetFPS(fps int) Option {
	return func(e *Engine) {
		if fps > 0 {
			e.config.TargetFPS = fps
			e.config.FixedTimeStep = 1000.0 / float64(fps)
		}
	}
}

// WithFixedTimeStep sets the nominal frame interval in milliseconds.
func WithFixedTimeStep(ms float64) Option {
	return func(e *Engine) {
		if ms > 0 {
			e.config.FixedTimeStep = ms
		}
	}
}

// WithMaxObjects caps the number of live objects.
func WithMaxObjects(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.config.MaxObjects = n
		}
	}
}

// WithCollisions toggles the collision pass.
func WithCollisions(enabled bool) Option {
	return func(e *Engine) { e.config.CollisionEnabled = enabled }
}

// WithDebug toggles the FPS/state overlay.
func WithDebug(enabled bool) Option {
	return func(e *Engine) { e.config.Debug = enabled }
}

// WithCellSize sets the spatial grid cell size.
func WithCellSize(size float64) Option {
	return func(e *Engine) {
		if size > 0 {
			e.config.CellSize = size
		}
	}
}

// WithPoolSize sets how many idle objects the pool keeps.
func WithPoolSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.config.PoolSize = n
		}
	}
}

// WithScheduler replaces the frame source.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.scheduler = s
			e.ownsScheduler = false
		}
	}
}

// WithClock replaces the time source.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithTickObserver registers fn to receive the wall time of every tick.
func WithTickObserver(fn func(time.Duration)) Option {
	return func(e *Engine) { e.tickObserver = fn }
}

// NewEngine creates an engine in the menu state. It simulates without a
// surface; Initialize attaches one for rendering.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		config:    config.DefaultEngine(),
		clock:     SystemClock{},
		state:     StateMenu,
		byID:      make(map[string]*GameObject),
		pairSeen:  make(map[pairKey]struct{}),
		snapshots: NewSnapshotBuffer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.config = normalizeConfig(e.config)

	if e.scheduler == nil {
		e.scheduler = NewTimerScheduler(e.config.FrameInterval())
		e.ownsScheduler = true
	}

	e.grid = e.newGrid()
	e.pool = NewObjectPool(
		func() *GameObject { return &GameObject{} },
		(*GameObject).reset,
		e.config.PoolSize,
	)
	e.objects = make([]*GameObject, 0, min(e.config.MaxObjects, 256))

	return e
}

// normalizeConfig replaces unusable values with defaults.
func normalizeConfig(cfg Config) Config {
	def := config.DefaultEngine()
	if cfg.CanvasWidth <= 0 {
		cfg.CanvasWidth = def.CanvasWidth
	}
	if cfg.CanvasHeight <= 0 {
		cfg.CanvasHeight = def.CanvasHeight
	}
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = def.TargetFPS
	}
	if cfg.FixedTimeStep <= 0 {
		cfg.FixedTimeStep = 1000.0 / float64(cfg.TargetFPS)
	}
	if cfg.MaxObjects <= 0 {
		cfg.MaxObjects = def.MaxObjects
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = def.CellSize
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = def.PoolSize
	}
	return cfg
}

func (e *Engine) newGrid() *spatial.Grid[*GameObject] {
	return spatial.NewGrid[*GameObject](
		float64(e.config.CanvasWidth),
		float64(e.config.CanvasHeight),
		e.config.CellSize,
	)
}

// Initialize attaches a rendering surface. Options are merged into the
// current configuration first; the surface is then sized to the canvas.
//
// Returns ErrNilSurface or ErrNoContext (wrapped with the surface's error)
// without changing the attached surface.
func (e *Engine) Initialize(surface Surface, opts ...Option) error {
	if surface == nil {
		return ErrNilSurface
	}

	e.mu.Lock()
	for _, opt := range opts {
		opt(e)
	}
	e.config = normalizeConfig(e.config)

	surface.Resize(e.config.CanvasWidth, e.config.CanvasHeight)
	canvas, err := surface.Context2D()
	if err != nil || canvas == nil {
		e.mu.Unlock()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNoContext, err)
		}
		return ErrNoContext
	}

	e.surface = surface
	e.canvas = canvas
	e.rebuildGridLocked()
	if ts, ok := e.scheduler.(*TimerScheduler); ok && e.ownsScheduler {
		ts.SetInterval(e.config.FrameInterval())
	}

	detach := e.detachResize
	e.detachResize = nil
	width, height := e.config.CanvasWidth, e.config.CanvasHeight
	e.mu.Unlock()

	if detach != nil {
		detach()
	}
	// Subscribed outside the lock: a notifier may call back synchronously
	if rn, ok := surface.(ResizeNotifier); ok {
		cancel := rn.OnResize(e.HandleResize)
		e.mu.Lock()
		e.detachResize = cancel
		e.mu.Unlock()
	}

	log.Printf("🖼️ Engine initialized (%dx%d)", width, height)
	return nil
}

// HandleResize adopts the surface's current size as the world size and
// rebuilds the grid. Object positions are not rescaled.
func (e *Engine) HandleResize() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.surface == nil {
		return
	}
	w, h := e.surface.Size()
	if w <= 0 || h <= 0 {
		return
	}
	if w == e.config.CanvasWidth && h == e.config.CanvasHeight {
		return
	}

	e.config.CanvasWidth = w
	e.config.CanvasHeight = h
	e.rebuildGridLocked()
}

// rebuildGridLocked replaces the grid to match the world size and reindexes
// active objects.
func (e *Engine) rebuildGridLocked() {
	e.grid = e.newGrid()
	for _, obj := range e.objects {
		if obj.Active {
			e.grid.Insert(obj)
		}
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start begins the game loop. No-op while already running.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}

	e.running = true
	e.paused = false
	now := e.clock.Now()
	e.lastFrame = now
	e.fpsWindowStart = now
	e.fpsFrames = 0
	e.setStateLocked(StatePlaying)
	e.scheduleFrameLocked()
	fps := e.config.TargetFPS
	e.unlockAndDispatch()

	log.Printf("🎮 Game engine started at %d FPS", fps)
}

// Stop ends the loop and returns to the menu. No-op unless running.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}

	e.running = false
	e.paused = false
	e.cancelFrameLocked()
	e.setStateLocked(StateMenu)
	e.unlockAndDispatch()

	log.Println("🛑 Game engine stopped")
}

// Pause suspends ticking. No-op unless running and not paused.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.running || e.paused {
		e.mu.Unlock()
		return
	}

	e.paused = true
	e.cancelFrameLocked()
	e.setStateLocked(StatePaused)
	e.unlockAndDispatch()
}

// Resume continues a paused loop. The first tick after resuming measures
// delta time from the resume, not from the pause.
func (e *Engine) Resume() {
	e.mu.Lock()
	if !e.running || !e.paused {
		e.mu.Unlock()
		return
	}

	e.paused = false
	e.lastFrame = e.clock.Now()
	e.setStateLocked(StatePlaying)
	e.scheduleFrameLocked()
	e.unlockAndDispatch()
}

// GameOver ends a running session in the game_over state. Objects are kept;
// a later Start continues with them.
func (e *Engine) GameOver() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}

	e.running = false
	e.paused = false
	e.cancelFrameLocked()
	e.setStateLocked(StateGameOver)
	e.unlockAndDispatch()

	log.Println("🏁 Game over")
}

// Dispose stops the loop, drops every object, clears the grid and pool,
// detaches from the surface's resize notifications and forgets all
// subscribers. The engine is back in the menu state afterwards and may be
// started again.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.running {
		e.running = false
		e.paused = false
		e.cancelFrameLocked()
		e.setStateLocked(StateMenu)
	}
	e.state = StateMenu

	clear(e.objects)
	e.objects = e.objects[:0]
	clear(e.byID)
	e.grid.Clear()
	e.pool.Clear()

	detach := e.detachResize
	e.detachResize = nil
	e.surface = nil
	e.canvas = nil

	// Pending notifications still reach the subscribers being dropped
	events := e.pending
	e.pending = nil
	stateSubs, eventSubs := e.stateSubs, e.eventSubs
	e.stateSubs = nil
	e.eventSubs = nil
	e.publishSnapshotLocked(e.clock.Now())
	e.mu.Unlock()

	dispatch(events, stateSubs, eventSubs)
	if detach != nil {
		detach()
	}
}

// scheduleFrameLocked requests the next frame. Each request carries a
// generation so a frame that fires after being superseded does nothing.
func (e *Engine) scheduleFrameLocked() {
	e.frameGen++
	gen := e.frameGen
	e.frame = e.scheduler.Schedule(func() { e.runFrame(gen) })
	e.framePending = true
}

func (e *Engine) cancelFrameLocked() {
	if e.framePending {
		e.scheduler.Cancel(e.frame)
		e.framePending = false
	}
	e.frameGen++
}

// runFrame is the scheduled frame callback.
func (e *Engine) runFrame(gen uint64) {
	e.mu.Lock()
	if gen != e.frameGen || !e.running || e.paused {
		e.mu.Unlock()
		return
	}
	e.framePending = false

	start := time.Now()
	e.tickLocked()
	e.lastTickTime = time.Since(start)

	if e.running && !e.paused {
		e.scheduleFrameLocked()
	}
	observer := e.tickObserver
	elapsed := e.lastTickTime
	e.unlockAndDispatch()

	if observer != nil {
		observer(elapsed)
	}
}

// =============================================================================
// STATE AND EVENTS
// =============================================================================

// setStateLocked records a transition and queues its notification.
func (e *Engine) setStateLocked(to GameState) {
	from := e.state
	if from == to {
		return
	}
	e.state = to
	e.emitLocked(EventTypeStateChange, StatePayload{From: from, To: to})
	if !e.running || e.paused {
		e.publishSnapshotLocked(e.clock.Now())
	}
}

func (e *Engine) emitLocked(t EventType, data any) {
	e.pending = append(e.pending, newEvent(t, e.clock.Now(), data))
}

// unlockAndDispatch releases mu and then delivers queued notifications.
func (e *Engine) unlockAndDispatch() {
	events := e.pending
	e.pending = nil
	stateSubs, eventSubs := e.stateSubs, e.eventSubs
	e.mu.Unlock()

	dispatch(events, stateSubs, eventSubs)
}

func dispatch(events []GameEvent, stateSubs []stateSub, eventSubs []eventSub) {
	for _, ev := range events {
		if ev.Type == EventTypeStateChange {
			if p, ok := ev.Data.(StatePayload); ok {
				for _, sub := range stateSubs {
					safeCall("state", func() { sub.fn(p.To) })
				}
			}
		}
		for _, sub := range eventSubs {
			safeCall("event", func() { sub.fn(ev) })
		}
	}
}

// safeCall runs a subscriber, logging instead of propagating a panic.
func safeCall(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ %s callback panicked: %v", kind, r)
		}
	}()
	fn()
}

// OnStateChange subscribes cb to state transitions. Subscribers run in
// registration order after the transition completes. The returned function
// unsubscribes.
func (e *Engine) OnStateChange(cb StateCallback) (unsubscribe func()) {
	if cb == nil {
		return func() {}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextSubID++
	id := e.nextSubID
	e.stateSubs = append(slices.Clip(e.stateSubs), stateSub{id: id, fn: cb})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.stateSubs = slices.DeleteFunc(slices.Clone(e.stateSubs), func(s stateSub) bool { return s.id == id })
	}
}

// OnEvent subscribes cb to every emitted event. The returned function
// unsubscribes.
func (e *Engine) OnEvent(cb EventCallback) (unsubscribe func()) {
	if cb == nil {
		return func() {}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextSubID++
	id := e.nextSubID
	e.eventSubs = append(slices.Clip(e.eventSubs), eventSub{id: id, fn: cb})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.eventSubs = slices.DeleteFunc(slices.Clone(e.eventSubs), func(s eventSub) bool { return s.id == id })
	}
}

// =============================================================================
// OBJECTS
// =============================================================================

// NewObject takes an object from the pool and initialises it. The object is
// not part of the world until passed to AddObject.
func (e *Engine) NewObject(id string, typ ObjectType, x, y, width, height float64) *GameObject {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj := e.pool.Get()
	obj.init(id, typ, x, y, width, height)
	obj.Created = e.clock.Now()
	return obj
}

var (
	// ErrNilObject is returned by TryAddObject for a nil object.
	ErrNilObject = errors.New("game: nil object")
	// ErrDuplicateObject is returned when the ID is already in the world.
	ErrDuplicateObject = errors.New("game: object id already present")
	// ErrObjectLimit is returned when the world holds MaxObjects objects.
	ErrObjectLimit = errors.New("game: object limit reached")
)

// AddObject appends obj to the world. It returns false, changing nothing,
// when obj is nil, its ID is already present, or the world is at MaxObjects.
func (e *Engine) AddObject(obj *GameObject) bool {
	return e.TryAddObject(obj) == nil
}

// TryAddObject is AddObject reporting why an object was refused. A refused
// object still belongs to the caller; see ReleaseObject.
func (e *Engine) TryAddObject(obj *GameObject) error {
	if obj == nil {
		return ErrNilObject
	}

	e.mu.Lock()
	if _, dup := e.byID[obj.ID]; dup {
		e.mu.Unlock()
		return ErrDuplicateObject
	}
	if len(e.objects) >= e.config.MaxObjects {
		if !e.capacityWarned {
			log.Printf("⚠️ Object limit reached (%d), rejecting new objects", e.config.MaxObjects)
			e.capacityWarned = true
		}
		e.mu.Unlock()
		return ErrObjectLimit
	}

	if obj.Created.IsZero() {
		obj.Created = e.clock.Now()
	}
	e.objects = append(e.objects, obj)
	e.byID[obj.ID] = obj
	if obj.Active {
		e.grid.Insert(obj)
	}
	e.capacityWarned = false

	e.emitLocked(EventTypeObjectSpawn, SpawnPayload{
		ObjectID: obj.ID,
		Type:     obj.Type,
		X:        obj.Position.X,
		Y:        obj.Position.Y,
	})
	e.publishIfIdleLocked()
	e.unlockAndDispatch()
	return nil
}

// ReleaseObject returns an object from NewObject that never joined the world
// to the pool. Live objects are left alone.
func (e *Engine) ReleaseObject(obj *GameObject) {
	if obj == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if live, ok := e.byID[obj.ID]; ok && live == obj {
		return
	}
	e.pool.Release(obj)
}

// RemoveObject deletes the object with id immediately and returns it to the
// pool. Returns false if no such object exists.
func (e *Engine) RemoveObject(id string) bool {
	e.mu.Lock()
	obj, ok := e.byID[id]
	if !ok {
		e.mu.Unlock()
		return false
	}

	if i := slices.Index(e.objects, obj); i >= 0 {
		e.objects = slices.Delete(e.objects, i, i+1)
	}
	delete(e.byID, id)
	e.grid.Remove(obj)
	e.pool.Release(obj)

	e.emitLocked(EventTypeObjectDestroy, DestroyPayload{ObjectID: id, Count: 1})
	e.publishIfIdleLocked()
	e.unlockAndDispatch()
	return true
}

// GetObject returns a copy of the object with id.
func (e *Engine) GetObject(id string) (GameObject, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj, ok := e.byID[id]
	if !ok {
		return GameObject{}, false
	}
	return *obj, true
}

// Objects returns copies of every live object in insertion order.
func (e *Engine) Objects() []GameObject {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]GameObject, len(e.objects))
	for i, obj := range e.objects {
		out[i] = *obj
	}
	return out
}

// ObjectCount returns the number of live objects.
func (e *Engine) ObjectCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.objects)
}

// Mutate applies fn to the object with id under the engine lock. fn must not
// retain the pointer; an ID change is undone. Position wins over
// BoundingBox.X/Y, and the grid follows the change at once.
func (e *Engine) Mutate(id string, fn func(*GameObject)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj, ok := e.byID[id]
	if !ok {
		return false
	}
	e.grid.Remove(obj)
	fn(obj)
	obj.ID = id
	obj.syncBounds()
	if obj.Active {
		e.grid.Insert(obj)
	}
	return true
}

// Deactivate marks the object inactive; the next tick prunes it.
func (e *Engine) Deactivate(id string) bool {
	return e.Mutate(id, func(o *GameObject) { o.Active = false })
}

// =============================================================================
// QUERIES
// =============================================================================

// Stats is a point-in-time summary of the engine.
type Stats struct {
	State        GameState         `json:"state"`
	Running      bool              `json:"running"`
	Paused       bool              `json:"paused"`
	TickCount    uint64            `json:"tickCount"`
	FPS          float64           `json:"fps"`
	DeltaTime    float64           `json:"deltaTime"`
	LastTickTime time.Duration     `json:"lastTickNs"`
	ObjectCount  int               `json:"objectCount"`
	MaxObjects   int               `json:"maxObjects"`
	PoolIdle     int               `json:"poolIdle"`
	Grid         spatial.GridStats `json:"grid"`
}

// State returns the current state.
func (e *Engine) State() GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsRunning reports whether the loop is active (playing or paused).
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// Stats returns a summary of the engine.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Stats{
		State:        e.state,
		Running:      e.running,
		Paused:       e.paused,
		TickCount:    e.tickCount,
		FPS:          e.fps,
		DeltaTime:    e.deltaTime,
		LastTickTime: e.lastTickTime,
		ObjectCount:  len(e.objects),
		MaxObjects:   e.config.MaxObjects,
		PoolIdle:     e.pool.Size(),
		Grid:         e.grid.Stats(),
	}
}

// Snapshot returns the latest published frame. Safe from any goroutine
// without touching the engine lock.
func (e *Engine) Snapshot() *GameSnapshot {
	return e.snapshots.Latest()
}

// QueryRange returns copies of active objects whose boxes intersect r.
func (e *Engine) QueryRange(r spatial.Rect) []GameObject {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []GameObject
	for _, obj := range e.grid.QueryRange(r) {
		if obj.Active && spatial.Intersects(obj.BoundingBox, r) {
			out = append(out, *obj)
		}
	}
	return out
}
