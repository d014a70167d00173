package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // a full 33-landmark frame is well under 2KB
	sendBuffer     = 64
)

// MessageHandler receives the lifecycle and inbound messages of a connection.
// OnMessage returns the reply to send back, or nil for none.
type MessageHandler interface {
	OnOpen(ctx context.Context, c *Client) error
	OnMessage(ctx context.Context, c *Client, data []byte) interface{}
	OnClose(ctx context.Context, c *Client)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	// ID is the connection identifier; it doubles as the workout session id.
	ID string

	// UserID is set when the handshake carried a valid token.
	UserID string

	// Buffered channel of outbound messages.
	Send chan []byte

	handler MessageHandler
}

// readPump handles inbound messages one at a time, which keeps the frames of
// a connection strictly ordered.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.handler.OnClose(ctx, c)
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{"conn_id": c.ID, "error": err.Error()})
			}
			return
		}
		// Any traffic proves the peer is alive.
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		if reply := c.handler.OnMessage(ctx, c, data); reply != nil {
			c.Reply(reply)
		}
	}
}

// Reply encodes v and queues it. When the peer cannot keep up the message is
// dropped; the next frame response supersedes it anyway.
func (c *Client) Reply(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.Hub.logger.Error("Client", "Failed to encode reply", map[string]interface{}{"conn_id": c.ID, "error": err.Error()})
		return
	}
	select {
	case c.Send <- data:
	default:
		c.Hub.logger.Warn("Client", "Send buffer full, dropping message", map[string]interface{}{"conn_id": c.ID})
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One JSON document per websocket message; the client parses
			// each frame on its own.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Hub.logger.Debug("Client", "Ping failed", map[string]interface{}{"conn_id": c.ID, "error": err.Error()})
				return
			}
		}
	}
}
