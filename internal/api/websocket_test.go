package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"word-arena/internal/game"
)

type wireMessage struct {
	Event string             `msgpack:"event"`
	Data  msgpack.RawMessage `msgpack:"data"`
}

func startWSServer(t *testing.T, e *game.Engine) (*Server, string) {
	t.Helper()
	s := NewServer(e, ServerOptions{BroadcastInterval: 10 * time.Millisecond})
	s.StartBackground()

	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		ts.Close()
		s.Shutdown(context.Background())
	})
	return s, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dialViewer(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	header := http.Header{"Origin": []string{"http://localhost:3000"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEvent reads frames until one with the given event name arrives.
func readEvent(t *testing.T, conn *websocket.Conn, event string) wireMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.BinaryMessage, kind)

		var msg wireMessage
		require.NoError(t, msgpack.Unmarshal(data, &msg))
		if msg.Event == event {
			return msg
		}
	}
}

// TestWebSocketStreamsSnapshots verifies viewers receive msgpack snapshots.
func TestWebSocketStreamsSnapshots(t *testing.T) {
	e := newManualEngine(t)
	e.AddObject(game.NewGameObject("bubble", game.TypeWordBubble, 40, 50, 70, 28))

	_, url := startWSServer(t, e)
	conn := dialViewer(t, url)

	msg := readEvent(t, conn, "game:snapshot")

	var snap game.GameSnapshot
	require.NoError(t, msgpack.Unmarshal(msg.Data, &snap))
	assert.Equal(t, "menu", snap.State)
	require.Len(t, snap.Objects, 1)
	assert.Equal(t, "bubble", snap.Objects[0].ID)
	assert.Equal(t, 70.0, snap.Objects[0].Width)
}

func TestWebSocketPushesStateChanges(t *testing.T) {
	e := newManualEngine(t)
	s, url := startWSServer(t, e)
	conn := dialViewer(t, url)

	require.Eventually(t, func() bool { return s.Hub().ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	e.Start()

	msg := readEvent(t, conn, "game:state")
	var state string
	require.NoError(t, msgpack.Unmarshal(msg.Data, &state))
	assert.Equal(t, "playing", state)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	_, url := startWSServer(t, newManualEngine(t))

	header := http.Header{"Origin": []string{"https://example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocketDisconnectReleasesSlot(t *testing.T) {
	s, url := startWSServer(t, newManualEngine(t))

	conn := dialViewer(t, url)
	require.Eventually(t, func() bool { return s.Hub().ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return s.Hub().ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, s.Hub().wsLimiter.GetConnectionCount("127.0.0.1"))
}
