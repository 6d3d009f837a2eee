package web

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"cricket-score-service/scoring"
)

// WSMessage WebSocket消息结构
type WSMessage struct {
	Type    string      `json:"type"`
	MatchID int64       `json:"match_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Client WebSocket客户端
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	matchIDs map[int64]bool // 比赛频道过滤器
}

// Hub WebSocket Hub：按比赛频道把记分快照扇出给所有订阅者
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *WSMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub 创建新的Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *WSMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run 运行Hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("[WS] Client registered. Total clients: %d", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("[WS] Client unregistered. Total clients: %d", len(h.clients))

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.shouldReceive(message) {
					continue
				}

				// 投递是尽力而为：发不进去的慢客户端直接断开，不阻塞记分
				select {
				case client.send <- h.marshalMessage(message):
				default:
					h.mu.RUnlock()
					h.mu.Lock()
					close(client.send)
					delete(h.clients, client)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ConsumeEvents 把引擎经 broker 发出的事件搬进 Hub 的广播通道
// 在独立 goroutine 中运行，broker 关闭后退出
func (h *Hub) ConsumeEvents(events <-chan scoring.Event) {
	for ev := range events {
		h.broadcast <- &WSMessage{
			Type:    string(ev.Type),
			MatchID: ev.MatchID,
			Data:    ev.Payload,
		}
	}
	log.Println("[WS] Event stream closed")
}

// marshalMessage 序列化消息
func (h *Hub) marshalMessage(message *WSMessage) []byte {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Failed to marshal message: %v", err)
		return []byte("{}")
	}
	return data
}

// shouldReceive 检查客户端是否订阅了该比赛频道
func (c *Client) shouldReceive(message *WSMessage) bool {
	// 没有设置过滤器时接收所有消息
	if len(c.matchIDs) == 0 {
		return true
	}
	if message.MatchID == 0 {
		return false
	}
	return c.matchIDs[message.MatchID]
}

// readPump 读取客户端消息
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] WebSocket error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump 向客户端写入消息
func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()

	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// handleMessage 处理客户端发送的消息 (订阅/退订比赛频道)
func (c *Client) handleMessage(message []byte) {
	var msg struct {
		Type     string  `json:"type"`
		MatchIDs []int64 `json:"match_ids"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("[WS] Failed to unmarshal client message: %v", err)
		return
	}

	switch msg.Type {
	case "subscribe":
		c.matchIDs = make(map[int64]bool)
		for _, id := range msg.MatchIDs {
			c.matchIDs[id] = true
		}
		log.Printf("[WS] Client subscribed to matches: %v", msg.MatchIDs)

	case "unsubscribe":
		c.matchIDs = make(map[int64]bool)
		log.Println("[WS] Client unsubscribed")
	}
}
