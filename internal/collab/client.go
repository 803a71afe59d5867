package collab

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single socket write.
	writeWait = 10 * time.Second
	// pongWait is how long we wait for a pong before declaring the
	// connection dead; pings go out at a fraction of it.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize caps inbound frames; mutation intents are small.
	maxMessageSize = 32 * 1024
	// sendQueueSize is the per-client outbound buffer.  A client that
	// cannot drain it is dropped rather than allowed to stall the room.
	sendQueueSize = 64
)

// Client is one connected editor: a WebSocket connection plus its
// outbound queue.  The read pump feeds events into the room loop; the
// write pump drains the queue.  The room goroutine is the only writer
// of room state, so the client itself holds no seating data.
type Client struct {
	id     string
	userID string
	room   *Room
	conn   *websocket.Conn
	send   chan Envelope
}

// newClient wraps an upgraded connection for the given room.
func newClient(room *Room, conn *websocket.Conn, userID string) *Client {
	return &Client{
		id:     uuid.New().String(),
		userID: userID,
		room:   room,
		conn:   conn,
		send:   make(chan Envelope, sendQueueSize),
	}
}

// UserID returns the authenticated identity of this editor.
func (c *Client) UserID() string { return c.userID }

// trySend queues an envelope without blocking the room loop.  It
// reports false when the queue is full so the room can drop the client.
// The send channel is never closed; both pumps exit when the room or a
// pump closes the underlying connection.
func (c *Client) trySend(env Envelope) bool {
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// drop tears the connection down; called by the room goroutine only.
func (c *Client) drop() {
	_ = c.conn.Close()
}

// readPump relays inbound envelopes into the room until the connection
// drops, then detaches the client.  Malformed frames are answered with
// an error event instead of killing the connection.
func (c *Client) readPump() {
	defer func() {
		c.room.detach <- c
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("collab: client %s read error: %v", c.id, err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
			c.trySend(NewEnvelope(EvtError, ErrorPayload{Code: CodeBadRequest, Message: "malformed event"}))
			continue
		}
		// Cursor events carry the sender's identity; stamp it so a
		// client cannot relay someone else's cursor.
		if env.Type == EvtCursorMove {
			var p CursorPayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				continue
			}
			p.UserID = c.userID
			env = NewEnvelope(EvtCursorMove, p)
		}
		c.room.cmds <- command{client: c, env: env}
	}
}

// writePump drains the send queue onto the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case env := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
