package stream

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwestergaard/killhouse/internal/sim"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newHubServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialHub(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(payload, &f))
	return f
}

func TestHubBroadcastsSnapshots(t *testing.T) {
	hub, url := newHubServer(t)
	conn := dialHub(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	ts := sim.NewTestSim(
		sim.WithPlayer(10, 10),
		sim.WithGuard(sim.DefaultGuardConfig(), 10, 14, -math.Pi/2),
	)
	ts.RunTicks(3)
	hub.BroadcastSnapshot(ts.Sim.Snapshot())

	f := readFrame(t, conn)
	assert.Equal(t, "snapshot", f.Type)

	var snap sim.Snapshot
	require.NoError(t, json.Unmarshal(f.Data, &snap))
	assert.Equal(t, 3, snap.Tick)
	require.Len(t, snap.Agents, 1)
	require.NotNil(t, snap.Player)
}

func TestHubStreamsEventsToAllClients(t *testing.T) {
	hub, url := newHubServer(t)
	first := dialHub(t, url)
	second := dialHub(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 },
		time.Second, 10*time.Millisecond)

	hub.HandleSimEvent(sim.SimLogEntry{
		Tick:     7,
		Actor:    "G1",
		Side:     "guard",
		Category: "vision",
		Key:      "contact",
	})

	for _, conn := range []*websocket.Conn{first, second} {
		f := readFrame(t, conn)
		assert.Equal(t, "event", f.Type)

		var e sim.SimLogEntry
		require.NoError(t, json.Unmarshal(f.Data, &e))
		assert.Equal(t, 7, e.Tick)
		assert.Equal(t, "vision", e.Category)
	}
}

func TestHubRemovesDisconnectedClients(t *testing.T) {
	hub, url := newHubServer(t)
	conn := dialHub(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)

	// Broadcasting to an empty hub is a no-op.
	hub.BroadcastSnapshot(sim.Snapshot{Tick: 1})
}
