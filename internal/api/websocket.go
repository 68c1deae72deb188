package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"maitred/internal/engine"
	"maitred/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// wsConn maintains one live chat connection. Unlike the HTTP endpoint,
// the connection carries its conversation history and pending action
// across turns so clients can just send messages.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte
	api  *WaiterAPI

	mu              sync.Mutex
	restaurantID    uint
	tableNumber     int
	history         []models.ChatMessage
	pendingActionID string
}

// wsMessage is an inbound chat message
type wsMessage struct {
	RestaurantID uint   `json:"restaurant_id"`
	TableNumber  int    `json:"table_number"`
	Message      string `json:"message"`
}

// handleWebSocket upgrades the connection and starts the pumps
func (w *WaiterAPI) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	ws := &wsConn{
		conn: conn,
		send: make(chan []byte, 256),
		api:  w,
	}

	go ws.writePump()
	go ws.readPump()
}

// readPump pumps messages from the WebSocket connection to the engine
func (c *wsConn) readPump() {
	defer func() {
		c.conn.Close()
		close(c.send)
	}()

	c.conn.SetReadLimit(64 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump pumps responses back to the client
func (c *wsConn) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage runs one turn through the engine and tracks the
// conversation state on the connection
func (c *wsConn) handleMessage(raw []byte) {
	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.reply(gin.H{"error": "invalid message"})
		return
	}

	c.mu.Lock()
	if msg.RestaurantID != 0 {
		c.restaurantID = msg.RestaurantID
	}
	if msg.TableNumber != 0 {
		c.tableNumber = msg.TableNumber
	}
	restaurantID := c.restaurantID
	tableNumber := c.tableNumber
	history := append([]models.ChatMessage(nil), c.history...)
	pendingID := c.pendingActionID
	c.mu.Unlock()

	var pending *engine.CandidateAction
	if pendingID != "" {
		pending, _ = c.api.actions.Get(pendingID)
	}

	result, err := c.api.engine.Decide(context.Background(), engine.Request{
		RestaurantID:  restaurantID,
		TableNumber:   tableNumber,
		Message:       msg.Message,
		History:       history,
		PendingAction: pending,
	})
	if err != nil {
		log.Printf("websocket decision failed: %v", err)
		c.reply(gin.H{"error": "The waiter is unavailable right now. Please try again shortly."})
		return
	}

	resp := c.api.buildChatResponse(context.Background(), ChatRequest{
		RestaurantID:    restaurantID,
		TableNumber:     tableNumber,
		Message:         msg.Message,
		History:         history,
		PendingActionID: pendingID,
	}, result, pending)

	c.mu.Lock()
	c.history = append(c.history,
		models.ChatMessage{Role: models.RoleCustomer, Content: msg.Message, Timestamp: time.Now()},
		models.ChatMessage{Role: models.RoleWaiter, Content: resp.Reply, Timestamp: time.Now()},
	)
	c.pendingActionID = resp.ActionID
	c.mu.Unlock()

	c.reply(resp)
}

// reply marshals and queues a response
func (c *wsConn) reply(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("websocket send buffer full, dropping message")
	}
}
