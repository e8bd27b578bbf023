package notify

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client wraps a websocket connection with a write lock. gorilla/websocket
// allows at most one concurrent writer per connection, and both the hub's
// broadcasts and the keepalive pings write to the same socket.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *Client) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *Client) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *Client) close() {
	_ = c.conn.Close()
}

// Hub fans staff notifications out over websocket, keyed by tenant so
// one dive shop never sees another shop's events. Connections are
// per-member; a reconnect replaces the previous socket.
type Hub struct {
	connections map[int64]map[int64]*Client
	mutex       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[int64]map[int64]*Client),
	}
}

// Register wraps the connection and returns the client; all further
// writes, pings included, must go through it.
func (h *Hub) Register(tenantID, memberID int64, conn *websocket.Conn) *Client {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	tenant, ok := h.connections[tenantID]
	if !ok {
		tenant = make(map[int64]*Client)
		h.connections[tenantID] = tenant
	}
	if old, exists := tenant[memberID]; exists && old != nil {
		old.close()
	}
	client := &Client{conn: conn}
	tenant[memberID] = client
	return client
}

func (h *Hub) Unregister(tenantID, memberID int64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	tenant, ok := h.connections[tenantID]
	if !ok {
		return
	}
	if client, exists := tenant[memberID]; exists && client != nil {
		client.close()
		delete(tenant, memberID)
	}
	if len(tenant) == 0 {
		delete(h.connections, tenantID)
	}
}

// Broadcast sends the event to every connected member of the tenant.
// Sockets that fail to write are dropped.
func (h *Hub) Broadcast(tenantID int64, event interface{}) {
	h.mutex.RLock()
	tenant := h.connections[tenantID]
	targets := make(map[int64]*Client, len(tenant))
	for memberID, client := range tenant {
		targets[memberID] = client
	}
	h.mutex.RUnlock()

	for memberID, client := range targets {
		if client == nil {
			continue
		}
		if err := client.writeJSON(event); err != nil {
			h.Unregister(tenantID, memberID)
		}
	}
}

func (h *Hub) OnlineCount(tenantID int64) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections[tenantID])
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for tenantID, tenant := range h.connections {
		for _, client := range tenant {
			if client != nil {
				client.close()
			}
		}
		delete(h.connections, tenantID)
	}
}
