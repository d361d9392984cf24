package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsConnection answers each ratings message with a recommendation, in order.
// done is closed when writePump exits; ctx is cancelled when either pump
// exits.
type wsConnection struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	server *Server
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	// The request context ends when this handler returns.
	ctx, cancel := context.WithCancel(context.Background())
	ws := &wsConnection{
		conn:   conn,
		send:   make(chan []byte, 16),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		server: s,
	}
	go ws.writePump()
	go ws.readPump()
}

// readPump handles requests until the client goes away, then closes send so
// writePump exits.
func (c *wsConnection) readPump() {
	defer func() {
		close(c.send)
		c.cancel()
	}()

	c.conn.SetReadLimit(64 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		if !c.deliver(c.handleMessage(message)) {
			return
		}
	}
}

// deliver queues a reply. It reports false once writePump has gone.
func (c *wsConnection) deliver(message []byte) bool {
	select {
	case c.send <- message:
		return true
	case <-c.done:
		return false
	}
}

func (c *wsConnection) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
		c.cancel()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsConnection) handleMessage(message []byte) []byte {
	var req RatingsRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return errorMessage(err)
	}
	r, err := req.Ratings()
	if err != nil {
		return errorMessage(err)
	}

	rec, err := c.server.svc.Recommend(c.ctx, r)
	if err != nil {
		return errorMessage(err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errorMessage(err)
	}
	return data
}

func errorMessage(err error) []byte {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return data
}
