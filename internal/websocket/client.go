package websocket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// The feed is push-only; inbound frames are drained solely to keep
	// the control-frame machinery (pong, close) running.
	maxInboundBytes = 512

	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	writeWait  = 10 * time.Second

	sendBuffer = 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one balance-feed subscription. A user may hold several at
// once (one per open browser tab); each gets its own send queue.
type Client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte

	closeOnce sync.Once
}

// ServeWS upgrades the request and pumps balance updates until the peer
// goes away. It blocks for the lifetime of the connection.
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return
	}
	client := &Client{
		hub:    hub,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	hub.Register(userID, client)
	go client.writePump()
	client.readPump()
}

// teardown is shared by both pumps; whichever notices the dead peer
// first wins.
func (c *Client) teardown() {
	c.closeOnce.Do(func() {
		c.hub.Unregister(c.userID, c)
		_ = c.conn.Close()
	})
}

func (c *Client) readPump() {
	defer c.teardown()
	c.conn.SetReadLimit(maxInboundBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.teardown()
	}()
	for {
		select {
		case payload, open := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
