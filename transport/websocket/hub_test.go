package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/merge2048/game/engine"
)

func testState() *engine.GameState {
	return &engine.GameState{
		Grid:   engine.Grid{{2, 0}, {0, 4}},
		Score:  12,
		Status: engine.InProgress,
	}
}

// startHub runs a hub behind an httptest server that serves /ws?session=<id>
func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(WithLogger(zap.NewNop()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))

	t.Cleanup(func() {
		server.Close()
		cancel()
		<-done
	})
	return hub, server
}

func dial(t *testing.T, hub *Hub, server *httptest.Server, sessionID string, wantClients int) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == wantClients }, time.Second, 5*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	require.NotNil(t, hub)
	assert.NotNil(t, hub.sessions)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.Zero(t, hub.ClientCount())
}

func TestHubRegisterAndUnregisterClient(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, sessionID: "test-session", send: make(chan []byte, 1)}
	other := &Client{hub: hub, sessionID: "test-session", send: make(chan []byte, 1)}

	hub.registerClient(client)
	hub.registerClient(other)
	assert.True(t, hub.sessions["test-session"][client])
	assert.Equal(t, 2, hub.ClientCount())

	hub.unregisterClient(client)
	assert.False(t, hub.sessions["test-session"][client])
	assert.Equal(t, 1, hub.ClientCount())
	_, open := <-client.send
	assert.False(t, open, "send channel is closed")

	// unregistering twice is harmless
	hub.unregisterClient(client)
	assert.Equal(t, 1, hub.ClientCount())

	hub.unregisterClient(other)
	_, exists := hub.sessions["test-session"]
	assert.False(t, exists, "empty sessions are removed")
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "s", send: make(chan []byte, 1)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "s", Event: "one"})
	hub.broadcastMessage(&Message{SessionID: "s", Event: "two"})

	assert.Zero(t, hub.ClientCount())
}

func TestHubBroadcastToSession(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, hub, server, "abc", 1)
	otherConn := dial(t, hub, server, "xyz", 2)

	hub.BroadcastToSession("abc", testState())

	msg := readMessage(t, conn)
	assert.Equal(t, EventStateUpdate, msg.Event)
	assert.Equal(t, "abc", msg.SessionID)
	require.NotNil(t, msg.GameState)
	assert.Equal(t, 12, msg.GameState.Score)
	assert.Equal(t, engine.Grid{{2, 0}, {0, 4}}, msg.GameState.Grid)

	// the other session hears nothing
	otherConn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := otherConn.ReadMessage()
	assert.Error(t, err)
}

func TestHubBroadcastEvent(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, hub, server, "abc", 1)

	hub.BroadcastEvent("abc", "won", map[string]int{"score": 2048})

	msg := readMessage(t, conn)
	assert.Equal(t, "won", msg.Event)
	assert.Equal(t, map[string]interface{}{"score": float64(2048)}, msg.Data)
}

func TestHubCommands(t *testing.T) {
	t.Run("handled command broadcasts the new state", func(t *testing.T) {
		hub, server := startHub(t)

		commands := make(chan Command, 1)
		hub.SetCommandHandler(func(ctx context.Context, sessionID string, cmd Command) (*engine.GameState, error) {
			if sessionID != "abc" {
				return nil, errors.New("wrong session " + sessionID)
			}
			commands <- cmd
			return testState(), nil
		})

		conn := dial(t, hub, server, "abc", 1)
		watcher := dial(t, hub, server, "abc", 2)

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"move","direction":"left"}`)))

		for _, c := range []*websocket.Conn{conn, watcher} {
			msg := readMessage(t, c)
			assert.Equal(t, EventStateUpdate, msg.Event)
			assert.Equal(t, 12, msg.GameState.Score)
		}
		assert.Equal(t, Command{Action: "move", Direction: "left"}, <-commands)
	})

	t.Run("handler error goes to the sender only", func(t *testing.T) {
		hub, server := startHub(t)
		hub.SetCommandHandler(func(ctx context.Context, sessionID string, cmd Command) (*engine.GameState, error) {
			return nil, errors.New("invalid argument: unknown direction")
		})

		conn := dial(t, hub, server, "abc", 1)
		watcher := dial(t, hub, server, "abc", 2)

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"move","direction":"sideways"}`)))

		msg := readMessage(t, conn)
		assert.Equal(t, EventError, msg.Event)
		assert.Equal(t, map[string]interface{}{"error": "invalid argument: unknown direction"}, msg.Data)

		watcher.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		_, _, err := watcher.ReadMessage()
		assert.Error(t, err)
	})

	t.Run("malformed command", func(t *testing.T) {
		hub, server := startHub(t)
		conn := dial(t, hub, server, "abc", 1)

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))

		msg := readMessage(t, conn)
		assert.Equal(t, EventError, msg.Event)
	})

	t.Run("no handler installed", func(t *testing.T) {
		hub, server := startHub(t)
		conn := dial(t, hub, server, "abc", 1)

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"reset"}`)))

		msg := readMessage(t, conn)
		assert.Equal(t, EventError, msg.Event)
		assert.Equal(t, map[string]interface{}{"error": "commands are not supported"}, msg.Data)
	})
}

func TestHubClientDisconnect(t *testing.T) {
	hub, server := startHub(t)
	conn := dial(t, hub, server, "abc", 1)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubRunStopsOnCancel(t *testing.T) {
	hub := NewHub(WithLogger(zap.NewNop()))
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- hub.Run(ctx) }()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "abc")
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Zero(t, hub.ClientCount())

	// publishing after shutdown does not block
	hub.BroadcastToSession("abc", testState())
}
