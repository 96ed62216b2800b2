package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"actify_engage/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境需要检查 Origin
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second

	// Redis Pub/Sub channel 名称（跨 Pod 推送参与事件）
	redisBroadcastChannel = "engage:broadcast"
)

// Client WebSocket 客户端
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub

	mu     sync.Mutex
	closed bool
}

// BroadcastMessage 跨 Pod 广播消息格式
type BroadcastMessage struct {
	UserID  string `json:"user_id,omitempty"` // 空表示广播给所有在线用户
	PodID   string `json:"pod_id"`            // 发送方 Pod ID，用于去重
	Payload []byte `json:"payload"`
}

// Hub WebSocket 连接管理中心：把参与事件（闸门解锁、动态更新、
// 关系变化）推给在线客户端，客户端不用轮询服务端
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[uuid.UUID]*Client // map[userID]map[clientID]

	rdb        *redis.Client
	podID      string
	stopPubSub chan struct{}
}

func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[uuid.UUID]*Client),
		rdb:        rdb,
		podID:      uuid.New().String(),
		stopPubSub: make(chan struct{}),
	}
}

// Register 注册客户端（支持多设备）
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.clients[client.UserID][client.ID] = client
	devices := len(h.clients[client.UserID])
	h.mu.Unlock()

	log.Printf("User %s connected (client: %s), devices: %d", client.UserID, client.ID, devices)
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if userClients, exists := h.clients[client.UserID]; exists {
		if _, found := userClients[client.ID]; found {
			delete(userClients, client.ID)
			if len(userClients) == 0 {
				delete(h.clients, client.UserID)
			}
		}
	}
	h.mu.Unlock()

	// 安全关闭 Send channel
	client.mu.Lock()
	if !client.closed {
		close(client.Send)
		client.closed = true
	}
	client.mu.Unlock()
}

// sendLocal 发送给本 Pod 的目标用户所有设备；userID 为 Nil 时发给所有人
func (h *Hub) sendLocal(userID uuid.UUID, message []byte) {
	h.mu.RLock()
	var targets []*Client
	if userID == uuid.Nil {
		for _, userClients := range h.clients {
			for _, c := range userClients {
				targets = append(targets, c)
			}
		}
	} else {
		for _, c := range h.clients[userID] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.Send <- message:
		default:
			// 发送通道满了，断开该设备
			log.Printf("[ERROR] Send channel full: user=%s client=%s, closing", client.UserID, client.ID)
			go h.Unregister(client)
		}
	}
}

// publish 本地发送 + Redis 广播（其他 Pod 上的设备也要收到）
func (h *Hub) publish(userID uuid.UUID, message []byte) {
	h.sendLocal(userID, message)

	if h.rdb == nil {
		return
	}
	broadcast := BroadcastMessage{PodID: h.podID, Payload: message}
	if userID != uuid.Nil {
		broadcast.UserID = userID.String()
	}
	msgBytes, err := json.Marshal(broadcast)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal broadcast message: %v", err)
		return
	}
	if err := h.rdb.Publish(context.Background(), redisBroadcastChannel, msgBytes).Err(); err != nil {
		log.Printf("[ERROR] Failed to publish to Redis: %v", err)
	}
}

// event 组装统一的事件载荷
func event(eventType string, data interface{}) []byte {
	payload, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": data,
	})
	if err != nil {
		log.Printf("[ERROR] Failed to marshal %s event: %v", eventType, err)
		return nil
	}
	return payload
}

// NotifyGateChanged 推送闸门状态变化给指定用户
func (h *Hub) NotifyGateChanged(userID uuid.UUID, state string, challengeID uuid.UUID) {
	if msg := event("gate_update", gin.H{"status": state, "challenge_id": challengeID}); msg != nil {
		h.publish(userID, msg)
	}
}

// BroadcastVoteUpdate 广播某投稿的权威票数给所有在线用户
func (h *Hub) BroadcastVoteUpdate(submissionID uuid.UUID, voteCount int) {
	if msg := event("vote_update", gin.H{
		"submission_id": submissionID,
		"vote_count":    voteCount,
	}); msg != nil {
		h.publish(uuid.Nil, msg)
	}
}

// BroadcastCommentUpdate 广播某投稿的权威评论数给所有在线用户
func (h *Hub) BroadcastCommentUpdate(submissionID uuid.UUID, commentCount int) {
	if msg := event("comment_update", gin.H{
		"submission_id": submissionID,
		"comment_count": commentCount,
	}); msg != nil {
		h.publish(uuid.Nil, msg)
	}
}

// BroadcastNewSubmission 广播新投稿
func (h *Hub) BroadcastNewSubmission(submissionID, authorID uuid.UUID) {
	if msg := event("submission_created", gin.H{
		"submission_id": submissionID,
		"author_id":     authorID,
	}); msg != nil {
		h.publish(uuid.Nil, msg)
	}
}

// NotifyRelationshipChanged 推送关系变化给边两端的用户
func (h *Hub) NotifyRelationshipChanged(followerID, followingID uuid.UUID, following bool) {
	msg := event("relationship_update", gin.H{
		"follower_id":  followerID,
		"following_id": followingID,
		"following":    following,
	})
	if msg == nil {
		return
	}
	h.publish(followerID, msg)
	h.publish(followingID, msg)
}

// StartPubSub 启动 Redis Pub/Sub 订阅（跨 Pod 事件广播）
func (h *Hub) StartPubSub() {
	if h.rdb == nil {
		return
	}
	go func() {
		ctx := context.Background()
		pubsub := h.rdb.Subscribe(ctx, redisBroadcastChannel)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-h.stopPubSub:
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				h.handleBroadcastMessage([]byte(msg.Payload))
			}
		}
	}()
}

// StopPubSub 停止 Redis Pub/Sub 订阅
func (h *Hub) StopPubSub() {
	close(h.stopPubSub)
}

func (h *Hub) handleBroadcastMessage(data []byte) {
	var msg BroadcastMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("[ERROR] Failed to unmarshal broadcast message: %v", err)
		return
	}
	// 忽略自己发的消息（避免重复推送）
	if msg.PodID == h.podID {
		return
	}

	userID := uuid.Nil
	if msg.UserID != "" {
		parsed, err := uuid.Parse(msg.UserID)
		if err != nil {
			log.Printf("[ERROR] Invalid user ID in broadcast message: %v", err)
			return
		}
		userID = parsed
	}
	h.sendLocal(userID, msg.Payload)
}

// HandleWebSocket 建立 WebSocket 连接（token 通过 query 参数认证）
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		userID, err := middleware.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ERROR] WebSocket upgrade failed: %v", err)
			return
		}

		client := &Client{
			ID:     uuid.New(),
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 64),
			Hub:    hub,
		}
		hub.Register(client)

		go client.writePump()
		go client.readPump()
	}
}

// readPump 读循环：客户端只收不发，读循环负责心跳和断线清理
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(1024)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ERROR] WebSocket read error: user=%s err=%v", c.UserID, err)
			}
			return
		}
	}
}

// writePump 写循环：推送事件 + 定期 ping
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
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
