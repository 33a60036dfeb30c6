package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dialHub(t *testing.T, hub *Hub, tenant string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, hub.Serve(w, r, tenant))
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial(strings.Replace(srv.URL, "http", "ws", 1), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastReachesTenantClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := dialHub(t, hub, "demo")

	// Give the hub a moment to register the client.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients["demo"]) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast("demo", Event{Type: EventSheetLocked, SheetID: "s1", By: "Alice"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, EventSheetLocked, got.Type)
	assert.Equal(t, "s1", got.SheetID)
	assert.Equal(t, "Alice", got.By)
}

func TestBroadcastIsTenantScoped(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := dialHub(t, hub, "other")

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients["other"]) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast("demo", Event{Type: EventSheetUpdated, SheetID: "s1"})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var got Event
	err := conn.ReadJSON(&got)
	assert.Error(t, err) // nothing arrives for the other tenant
}

func TestClientCountCallback(t *testing.T) {
	hub := NewHub(zap.NewNop())
	counts := make(chan int, 4)
	hub.OnClientCount(func(tenant string, n int) {
		if tenant == "demo" {
			counts <- n
		}
	})

	conn := dialHub(t, hub, "demo")
	select {
	case n := <-counts:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("no count update after connect")
	}

	conn.Close()
	select {
	case n := <-counts:
		assert.Equal(t, 0, n)
	case <-time.After(2 * time.Second):
		t.Fatal("no count update after disconnect")
	}
}
