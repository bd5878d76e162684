package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/crewlink/relay/internal/protocol"
	"github.com/crewlink/relay/internal/relay"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware
		return true
	},
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// client is one WebSocket connection. It satisfies relay.Peer: the relay
// addresses it by its transport-assigned identity and hands it outbound
// messages without waiting for delivery.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func (c *client) ID() string { return c.id }

// Send marshals and queues a message for the write pump. A full buffer
// means the client is not keeping up; the message is dropped.
func (c *client) Send(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal message for %s: %v", c.id, err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("Dropping message to %s, buffer full", c.id)
	}
}

func (c *client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Signaling upgrades the connection and runs the session protocol over it.
// Each connection gets a fresh identity valid only for its lifetime.
func Signaling(r *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("Failed to upgrade connection: %v", err)
			return
		}

		cl := &client{
			id:   uuid.New().String(),
			conn: conn,
			send: make(chan []byte, 256),
		}

		r.Connect(cl)

		go cl.writePump()
		go cl.readPump(r)
	}
}

// readPump reads frames until the connection dies or the client violates
// the protocol, then runs teardown. Events are dispatched sequentially,
// which gives each connection ordered processing of its own events.
func (c *client) readPump(r *relay.Relay) {
	defer func() {
		r.Disconnecting(c)
		r.Disconnect(c)
		c.closeSend()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		event, err := protocol.Parse(message)
		if err != nil {
			// Malformed input is never recovered per-message: the sender
			// is dropped without a reply and the event has no effect.
			log.Printf("Socket %s sent invalid command: %v", c.id, err)
			return
		}

		switch ev := event.(type) {
		case protocol.Join:
			r.Join(c, ev.Room, ev.PlayerID)
		case protocol.SetID:
			r.SetIdentifier(c, ev.PlayerID)
		case protocol.Leave:
			r.Leave(c)
		case protocol.Signal:
			r.Signal(c, ev.To, ev.Data)
		}
	}
}

// writePump drains the send queue and keeps the connection alive with
// pings. It exits when the queue is closed or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
