package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now (TODO: Configure CORS properly in production)
		return true
	},
}

// Server handles WebSocket connections and event acknowledgments
type Server struct {
	hub   *Hub
	redis *redis.Client
}

// NewServer creates a new Server instance
func NewServer(hub *Hub, redisClient *redis.Client) *Server {
	return &Server{
		hub:   hub,
		redis: redisClient,
	}
}

// HandleWebSocket handles WebSocket upgrade and registration
// URL: /ws?actor=inspector-7
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Extract actor from query parameter
	actorID := r.URL.Query().Get("actor")
	if actorID == "" {
		http.Error(w, "actor query parameter required", http.StatusBadRequest)
		return
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	// Create client
	client := NewClient(s.hub, conn, actorID)

	// Register client with hub
	s.hub.register <- client

	log.Printf("New WebSocket connection: actor=%s, remote=%s", actorID, r.RemoteAddr)

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// AckRequest marks a pushed record event as seen by the actor. Review
// dashboards use this to stop re-highlighting records the actor has
// already looked at.
type AckRequest struct {
	ItemType string `json:"itemType"`
	ItemID   string `json:"itemId"`
	Seq      int64  `json:"seq"`
}

// HandleAck handles event read receipts
// POST /api/ack
func (s *Server) HandleAck(w http.ResponseWriter, r *http.Request) {
	// Only accept POST requests
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Extract actor from header (set by middleware or authentication)
	actorID := r.Header.Get("X-Actor-ID")
	if actorID == "" {
		http.Error(w, "X-Actor-ID header required", http.StatusBadRequest)
		return
	}

	// Parse request body
	var req AckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Validate required fields
	if req.ItemType == "" || req.ItemID == "" {
		http.Error(w, "itemType and itemId are required", http.StatusBadRequest)
		return
	}

	log.Printf("Received ack: actor=%s, item_type=%s, item_id=%s, seq=%d",
		actorID, req.ItemType, req.ItemID, req.Seq)

	ackData := map[string]interface{}{
		"itemType": req.ItemType,
		"itemId":   req.ItemID,
		"seq":      req.Seq,
		"ackedBy":  actorID,
		"ackedAt":  time.Now().Unix(),
	}

	ackJSON, err := json.Marshal(ackData)
	if err != nil {
		log.Printf("Failed to marshal ack data: %v", err)
		http.Error(w, "Failed to record ack", http.StatusInternalServerError)
		return
	}

	// Receipts expire after 24 hours, the trail itself lives in the
	// main service's audit store
	ctx := context.Background()
	ackKey := "qms:ack:" + req.ItemID + ":" + actorID
	if err := s.redis.Set(ctx, ackKey, ackJSON, 24*time.Hour).Err(); err != nil {
		log.Printf("Failed to record ack in Redis: %v", err)
		http.Error(w, "Failed to record ack", http.StatusInternalServerError)
		return
	}

	// Send success response
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"message":  "Acknowledgment recorded",
		"itemId":   req.ItemID,
		"ackedBy":  actorID,
	})
}
