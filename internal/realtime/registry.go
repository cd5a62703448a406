package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Registry maps each user to the set of their live connections.
// Any number of connections per user is allowed; all of them receive the user's events.
type Registry struct {
	mu    sync.RWMutex
	rooms map[int64]map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[int64]map[string]*Connection),
	}
}

func (r *Registry) Join(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[conn.UserID]
	if room == nil {
		room = make(map[string]*Connection)
		r.rooms[conn.UserID] = room
	}
	room[conn.ID] = conn
}

// Leave forgets the connection. It reports whether the connection was registered.
func (r *Registry) Leave(conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[conn.UserID]
	if _, ok := room[conn.ID]; !ok {
		return false
	}
	delete(room, conn.ID)
	if len(room) == 0 {
		delete(r.rooms, conn.UserID)
	}
	return true
}

// SendToUser queues payload on every connection of userID and returns how many accepted it.
func (r *Registry) SendToUser(userID int64, payload []byte) int {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.rooms[userID]))
	for _, conn := range r.rooms[userID] {
		conns = append(conns, conn)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range conns {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

func (r *Registry) IsOnline(userID int64) bool {
	return r.ConnectionCount(userID) > 0
}

func (r *Registry) ConnectionCount(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[userID])
}

// OnlineCount is the number of distinct users with at least one connection.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Close disconnects everyone and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	var conns []*Connection
	for _, room := range r.rooms {
		for _, conn := range room {
			conns = append(conns, conn)
		}
	}
	r.rooms = make(map[int64]map[string]*Connection)
	r.mu.Unlock()

	for _, conn := range conns {
		conn.Close(websocket.CloseGoingAway, "server shutdown")
	}
}
