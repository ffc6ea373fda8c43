package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/openmbot/mbotlink/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Per-client outbound buffer; slow clients beyond this are dropped
	sendBuffer = 32
)

// client is one WebSocket consumer with its own write pump.
type client struct {
	srv  *Server
	conn *websocket.Conn
	send chan []byte
}

// readPump consumes inbound command requests until the connection drops.
func (c *client) readPump() {
	defer func() {
		c.srv.removeClient(c)
		c.conn.Close()
		logging.LogConnection(c.conn.RemoteAddr().String(), "websocket_closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn("WebSocket read failed",
					zap.String("remote_addr", c.conn.RemoteAddr().String()),
					zap.Error(err),
				)
			}
			return
		}

		var cmd wsCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.trySend(encodeError(err))
			continue
		}
		if cmd.Command == "" {
			continue
		}

		logging.Debug("WebSocket command",
			zap.String("remote_addr", c.conn.RemoteAddr().String()),
			zap.String("command", cmd.Command),
		)
		if err := c.srv.engine.Execute(cmd.Command, cmd.Params); err != nil {
			c.trySend(encodeError(err))
		}
	}
}

// writePump drains the send channel to the socket and keeps the connection
// alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// trySend queues a message without blocking the read pump.
func (c *client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}
