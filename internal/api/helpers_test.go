package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"word-arena/internal/game"
	"word-arena/internal/game/spatial"
	"word-arena/internal/spawn"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockEngine implements EngineInterface without a game loop.
type mockEngine struct {
	mu      sync.Mutex
	objects map[string]*game.GameObject
	order   []string
	limit    int
	state    game.GameState
	released int
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		objects: make(map[string]*game.GameObject),
		limit:   100,
	}
}

func (m *mockEngine) Stats() game.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return game.Stats{
		State:       m.state,
		Running:     m.state == game.StatePlaying || m.state == game.StatePaused,
		Paused:      m.state == game.StatePaused,
		ObjectCount: len(m.order),
		MaxObjects:  m.limit,
	}
}

func (m *mockEngine) Snapshot() *game.GameSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &game.GameSnapshot{State: m.state.String(), ObjectCount: len(m.order)}
	for _, id := range m.order {
		snap.Objects = append(snap.Objects, m.objects[id].Snapshot())
	}
	return snap
}

func (m *mockEngine) GetObject(id string) (game.GameObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[id]
	if !ok {
		return game.GameObject{}, false
	}
	return *obj, true
}

func (m *mockEngine) QueryRange(r spatial.Rect) []game.GameObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []game.GameObject
	for _, id := range m.order {
		if obj := m.objects[id]; spatial.Intersects(obj.BoundingBox, r) {
			out = append(out, *obj)
		}
	}
	return out
}

func (m *mockEngine) NewObject(id string, typ game.ObjectType, x, y, w, h float64) *game.GameObject {
	return game.NewGameObject(id, typ, x, y, w, h)
}

func (m *mockEngine) AddObject(obj *game.GameObject) bool {
	return m.TryAddObject(obj) == nil
}

func (m *mockEngine) TryAddObject(obj *game.GameObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.objects[obj.ID]; dup {
		return game.ErrDuplicateObject
	}
	if len(m.order) >= m.limit {
		return game.ErrObjectLimit
	}
	m.objects[obj.ID] = obj
	m.order = append(m.order, obj.ID)
	return nil
}

func (m *mockEngine) ReleaseObject(*game.GameObject) {
	m.mu.Lock()
	m.released++
	m.mu.Unlock()
}

func (m *mockEngine) releasedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

func (m *mockEngine) RemoveObject(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[id]; !ok {
		return false
	}
	delete(m.objects, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

func (m *mockEngine) setState(s game.GameState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *mockEngine) Start()    { m.setState(game.StatePlaying) }
func (m *mockEngine) Pause()    { m.setState(game.StatePaused) }
func (m *mockEngine) Resume()   { m.setState(game.StatePlaying) }
func (m *mockEngine) Stop()     { m.setState(game.StateMenu) }
func (m *mockEngine) GameOver() { m.setState(game.StateGameOver) }

// fakeFrames serves a fixed payload as the frame.
type fakeFrames struct{ payload []byte }

func (f fakeFrames) EncodePNG(w io.Writer) error {
	_, err := w.Write(f.payload)
	return err
}

// fakeWords records requests and refuses once full.
type fakeWords struct {
	mu   sync.Mutex
	got  []spawn.Request
	full bool
}

func (f *fakeWords) Enqueue(req spawn.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.got = append(f.got, req)
	return true
}

func (f *fakeWords) requests() []spawn.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]spawn.Request(nil), f.got...)
}

func (f *fakeWords) setFull(full bool) {
	f.mu.Lock()
	f.full = full
	f.mu.Unlock()
}

// ============================================================================
// Helpers
// ============================================================================

// newTestServer builds a router with a generous rate limit and no request log.
func newTestServer(t *testing.T, cfg RouterConfig) *httptest.Server {
	t.Helper()
	if cfg.RateLimiter == nil {
		rl := NewIPRateLimiter(RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			CleanupInterval:   time.Hour,
		})
		t.Cleanup(rl.Stop)
		cfg.RateLimiter = rl
	}
	cfg.DisableLogging = true

	ts := httptest.NewServer(NewRouter(cfg))
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func getList(t *testing.T, url string) []map[string]interface{} {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
