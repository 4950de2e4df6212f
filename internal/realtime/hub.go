package realtime

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/services"
)

// Conn is the subset of *websocket.Conn the hub needs; tests substitute
// their own.
type Conn interface {
	WriteJSON(v interface{}) error
}

// member tracks which room a connection sits in and serializes writes to
// it. Websocket connections allow only one concurrent writer, so every
// write to a registered conn must go through member.write.
type member struct {
	userID string
	write  sync.Mutex
}

// Hub maps user ids to the websocket connections that joined their room.
// One instance is created in main and handed to the service and the WS
// handler; there is no package-level state.
//
// Delivery is at-most-once: a user with no joined connection simply
// misses the event, and nothing is replayed on reconnect.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[Conn]struct{}
	conns map[Conn]*member
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[Conn]struct{}),
		conns: make(map[Conn]*member),
	}
}

// Join adds conn to userID's room. A connection sits in at most one room;
// re-joining moves it. Several connections (browser tabs) may share a
// room.
func (h *Hub) Join(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[conn]
	if !ok {
		m = &member{}
		h.conns[conn] = m
	} else if m.userID != userID {
		h.removeFromRoomLocked(m.userID, conn)
	}
	m.userID = userID

	if h.rooms[userID] == nil {
		h.rooms[userID] = make(map[Conn]struct{})
	}
	h.rooms[userID][conn] = struct{}{}
	slog.Info("user joined room", "user", userID, "tabs", len(h.rooms[userID]))
}

// Drop forgets conn entirely; called on disconnect.
func (h *Hub) Drop(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if m, ok := h.conns[conn]; ok {
		h.removeFromRoomLocked(m.userID, conn)
		delete(h.conns, conn)
	}
}

func (h *Hub) removeFromRoomLocked(userID string, conn Conn) {
	if room, ok := h.rooms[userID]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, userID)
		}
	}
}

// Count returns the number of live connections, for health reporting.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Send writes one message to a single connection, serialized against any
// concurrent Publish to the same conn. Unregistered conns are written
// directly; nothing else can be racing on them yet.
func (h *Hub) Send(conn Conn, v interface{}) error {
	h.mu.Lock()
	m, ok := h.conns[conn]
	h.mu.Unlock()

	if !ok {
		return conn.WriteJSON(v)
	}
	m.write.Lock()
	defer m.write.Unlock()
	return conn.WriteJSON(v)
}

// Publish writes the event to every connection in the target room. The
// room is snapshotted under the hub lock and the writes happen outside
// it, so a stalled client never blocks Join, Drop or other rooms; each
// write holds only that connection's write lock. A failed write does not
// stop delivery to the remaining connections; the last error is returned
// for logging.
func (h *Hub) Publish(ev services.Event) error {
	type delivery struct {
		conn Conn
		m    *member
	}

	h.mu.Lock()
	room := h.rooms[ev.TargetUserID]
	targets := make([]delivery, 0, len(room))
	for conn := range room {
		targets = append(targets, delivery{conn: conn, m: h.conns[conn]})
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return nil
	}

	msg := struct {
		Event string      `json:"event"`
		Data  interface{} `json:"data"`
	}{Event: "jobUpdate", Data: ev.Payload}

	var lastErr error
	for _, t := range targets {
		t.m.write.Lock()
		err := t.conn.WriteJSON(msg)
		t.m.write.Unlock()
		if err != nil {
			lastErr = fmt.Errorf("write to room %s: %w", ev.TargetUserID, err)
		}
	}
	return lastErr
}
