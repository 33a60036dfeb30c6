// Package live pushes advisory change events to connected Mini App
// clients over WebSockets. The socket only tells clients to re-poll
// early; the 8 second inventory poll remains the reconciliation path, so
// dropping a slow consumer is safe.
package live

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event types broadcast to clients.
const (
	EventSheetUpdated      = "sheet.updated"
	EventSheetLocked       = "sheet.locked"
	EventSheetUnlocked     = "sheet.unlocked"
	EventSchedulePublished = "schedule.published"
)

// Event is the JSON payload written to clients.
type Event struct {
	Type    string `json:"type"`
	SheetID string `json:"sheetId,omitempty"`
	By      string `json:"by,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The Mini App is served from the Telegram webview origin.
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans events out to the clients of each tenant.
type Hub struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}

	// onCount, when set, observes client counts per tenant (metrics).
	onCount func(tenant string, n int)
}

// NewHub returns an empty hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[string]map[*client]struct{}),
	}
}

// OnClientCount registers a callback invoked whenever a tenant's client
// count changes.
func (h *Hub) OnClientCount(fn func(tenant string, n int)) {
	h.onCount = fn
}

// Broadcast sends the event to every client of the tenant. Clients whose
// buffers are full miss the event; their next poll catches them up.
func (h *Hub) Broadcast(tenant string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[tenant] {
		select {
		case c.send <- ev:
		default:
			h.log.Debug("dropping live event, client buffer full",
				zap.String("tenant", tenant), zap.String("type", ev.Type))
		}
	}
}

// Serve upgrades the request and pumps events until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, tenant string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{conn: conn, send: make(chan Event, 256)}
	h.add(tenant, c)

	go h.writePump(tenant, c)
	go h.readPump(tenant, c)
	return nil
}

func (h *Hub) add(tenant string, c *client) {
	h.mu.Lock()
	if h.clients[tenant] == nil {
		h.clients[tenant] = make(map[*client]struct{})
	}
	h.clients[tenant][c] = struct{}{}
	n := len(h.clients[tenant])
	h.mu.Unlock()
	if h.onCount != nil {
		h.onCount(tenant, n)
	}
}

func (h *Hub) remove(tenant string, c *client) {
	h.mu.Lock()
	if _, ok := h.clients[tenant][c]; ok {
		delete(h.clients[tenant], c)
		close(c.send)
	}
	n := len(h.clients[tenant])
	h.mu.Unlock()
	if h.onCount != nil {
		h.onCount(tenant, n)
	}
}

// readPump discards client messages; the socket is server-to-client only.
// It exists to process pongs and notice closes.
func (h *Hub) readPump(tenant string, c *client) {
	defer func() {
		h.remove(tenant, c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(tenant string, c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
