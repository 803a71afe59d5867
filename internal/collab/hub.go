package collab

import (
	"context"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrRoomClosed is returned when a dispatch loses the race against the
// room shutting down; callers simply retry, which creates a new room.
var ErrRoomClosed = errors.New("room closed")

// Hub owns the rooms, one per layout.  A room exists while anyone holds
// a reference to it: every connected client holds one for its lifetime,
// and REST dispatches hold one for the duration of a single command.
// When the last reference is released the room stops and its state is
// reloaded from the store on the next join.  Pinning one room per
// layout to one process is what keeps a single writer per layout.
type Hub struct {
	store    Store
	presence Presence
	gridUnit float64

	mu    sync.Mutex
	rooms map[uint64]*roomRef
}

type roomRef struct {
	room *Room
	refs int
}

// NewHub builds a hub over the given store.  presence may be nil.
func NewHub(store Store, presence Presence, gridUnit float64) *Hub {
	return &Hub{
		store:    store,
		presence: presence,
		gridUnit: gridUnit,
		rooms:    make(map[uint64]*roomRef),
	}
}

// acquire returns the live room for a layout, creating and loading it
// when absent, and takes a reference on it.
func (h *Hub) acquire(ctx context.Context, layoutID uint64) (*Room, error) {
	h.mu.Lock()
	if ref, ok := h.rooms[layoutID]; ok {
		ref.refs++
		h.mu.Unlock()
		return ref.room, nil
	}
	h.mu.Unlock()

	// Load outside the lock; room loading hits the database.
	room, err := newRoom(ctx, layoutID, h.store, h.presence, h.gridUnit)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if ref, ok := h.rooms[layoutID]; ok {
		// Lost the creation race; discard ours.
		go room.stop()
		ref.refs++
		return ref.room, nil
	}
	h.rooms[layoutID] = &roomRef{room: room, refs: 1}
	return room, nil
}

// release drops a reference; the last one out stops the room.
func (h *Hub) release(room *Room) {
	h.mu.Lock()
	ref, ok := h.rooms[room.layoutID]
	if !ok || ref.room != room {
		h.mu.Unlock()
		return
	}
	ref.refs--
	if ref.refs > 0 {
		h.mu.Unlock()
		return
	}
	delete(h.rooms, room.layoutID)
	h.mu.Unlock()
	room.stop()
}

// Join attaches an upgraded WebSocket connection to a layout's room and
// runs its pumps until the connection drops.  The room sends the full
// snapshot before any further events are delivered.  Join blocks for
// the lifetime of the connection.
func (h *Hub) Join(ctx context.Context, layoutID uint64, userID string, conn *websocket.Conn) error {
	room, err := h.acquire(ctx, layoutID)
	if err != nil {
		return err
	}
	defer h.release(room)

	c := newClient(room, conn, userID)
	room.attach <- c
	go c.writePump()
	c.readPump() // returns when the connection drops
	return nil
}

// Dispatch applies one mutation event for a layout through its room,
// preserving the same receipt-order serialization the socket path gets.
// The returned envelope is either the broadcast result or an error
// event; protocol errors are not Go errors here because they belong to
// the requester the same way socket errors do.
func (h *Hub) Dispatch(ctx context.Context, layoutID uint64, env Envelope) (Envelope, error) {
	room, err := h.acquire(ctx, layoutID)
	if err != nil {
		return Envelope{}, err
	}
	defer h.release(room)

	reply := make(chan Envelope, 1)
	select {
	case room.cmds <- command{env: env, reply: reply}:
	case <-room.done:
		return Envelope{}, ErrRoomClosed
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
	select {
	case out := <-reply:
		return out, nil
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}

// NotifyPreferencesChanged tells a live room to reload its preference
// cache and re-broadcast violations.  A layout without an active room
// needs nothing: the next room load reads fresh state.
func (h *Hub) NotifyPreferencesChanged(layoutID uint64) {
	h.mu.Lock()
	ref, ok := h.rooms[layoutID]
	h.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ref.room.reload <- struct{}{}:
	default:
		// A reload is already queued.
	}
}
