package websocket

import (
	"context"

	"github.com/gofiber/websocket/v2"
)

// ServeWs runs a connection until the peer goes away. The handler's OnOpen
// must succeed before any message is read.
func ServeWs(hub *Hub, c *websocket.Conn, connID, userID string, handler MessageHandler) {
	client := &Client{
		Hub:     hub,
		Conn:    c,
		ID:      connID,
		UserID:  userID,
		Send:    make(chan []byte, sendBuffer),
		handler: handler,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := handler.OnOpen(ctx, client); err != nil {
		hub.logger.Error("Hub", "Rejecting connection", map[string]interface{}{"conn_id": connID, "error": err.Error()})
		c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session unavailable"))
		c.Close()
		return
	}

	if !hub.Register(client) {
		handler.OnClose(ctx, client)
		c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		c.Close()
		return
	}

	go client.writePump()
	client.readPump(ctx) // Run readPump in current goroutine (handler)
}
