package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"casedrop-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// sendBuffer bounds the per-client outbound queue. A client that cannot
// keep up has messages dropped rather than blocking the hub.
const sendBuffer = 16

// WebSocketHandler runs the live drop feed: every committed opening is
// broadcast to all connected clients, and balance updates go to the
// owning player only. It implements engine.Broadcaster.
//
// All writes to a connection go through its client's send queue and are
// performed by that client's single writer goroutine; the websocket
// package allows at most one concurrent writer per connection.
type WebSocketHandler struct {
	hub *WebSocketHub
}

type WebSocketHub struct {
	// clients is keyed by connection, not player id: one player may
	// hold several connections at once.
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	PlayerID int64
	conn     *websocket.Conn
	send     chan *Message
}

type Message struct {
	Type     string      `json:"type"`
	PlayerID int64       `json:"player_id,omitempty"`
	Data     interface{} `json:"data"`
}

func NewWebSocketHandler() *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{hub: hub}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	playerID := c.GetInt64("player_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		PlayerID: playerID,
		conn:     conn,
		send:     make(chan *Message, sendBuffer),
	}

	h.hub.register <- client
	go client.writePump()

	defer func() {
		h.hub.unregister <- client
	}()

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if msg.Type == "PING" {
			client.enqueue(pongMessage())
		}
	}
}

func pongMessage() *Message {
	return &Message{
		Type: "PONG",
		Data: gin.H{
			"timestamp": time.Now().Unix(),
		},
	}
}

// enqueue hands a message to the client's writer goroutine, dropping it
// if the queue is full.
func (c *Client) enqueue(msg *Message) {
	select {
	case c.send <- msg:
	default:
	}
}

// writePump is the sole writer for this connection. It exits, closing
// the connection, when the hub closes the send queue on unregister.
func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client] = true

		case client := <-hub.unregister:
			if hub.clients[client] {
				delete(hub.clients, client)
				close(client.send)
			}

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)
		}
	}
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	for client := range hub.clients {
		if message.PlayerID != 0 && client.PlayerID != message.PlayerID {
			continue
		}
		client.enqueue(message)
	}
}

// BroadcastOpening pushes a committed opening to every connected
// client. Seed material is left out of the public feed.
func (h *WebSocketHandler) BroadcastOpening(playerID int64, result *models.OpeningResult) {
	msg := &Message{
		Type: "CASE_OPENED",
		Data: gin.H{
			"player_id":  playerID,
			"case_id":    result.CaseID,
			"item_name":  result.Item.Name,
			"tier":       result.Item.Tier,
			"amount":     result.Amount,
			"opening_id": result.OpeningID,
			"timestamp":  result.CreatedAt,
		},
	}

	h.hub.broadcast <- msg
}

// BroadcastBalance pushes a new balance to its owner only.
func (h *WebSocketHandler) BroadcastBalance(playerID int64, balance int64) {
	msg := &Message{
		Type:     "BALANCE_UPDATE",
		PlayerID: playerID,
		Data: gin.H{
			"balance":   balance,
			"timestamp": time.Now().Unix(),
		},
	}

	h.hub.broadcast <- msg
}
