package main

import (
	"context"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisSubscriber listens to Redis PubSub and forwards messages to Hub
type RedisSubscriber struct {
	redis *redis.Client
	hub   *Hub
}

// NewRedisSubscriber creates a new RedisSubscriber instance
func NewRedisSubscriber(redisClient *redis.Client, hub *Hub) *RedisSubscriber {
	return &RedisSubscriber{
		redis: redisClient,
		hub:   hub,
	}
}

// Start begins listening to Redis PubSub channels
func (s *RedisSubscriber) Start(ctx context.Context) {
	// Subscribe to pattern: qms:events:*
	// One channel per actor, so we receive events for everyone
	pubsub := s.redis.PSubscribe(ctx, "qms:events:*")
	defer pubsub.Close()

	log.Println("Redis subscriber started, listening to: qms:events:*")

	// Wait for confirmation that subscription was successful
	_, err := pubsub.Receive(ctx)
	if err != nil {
		log.Fatalf("Failed to subscribe to Redis: %v", err)
	}

	log.Println("Redis subscription confirmed")

	// Listen for messages
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Println("Redis subscriber stopping")
			return

		case msg := <-ch:
			if msg == nil {
				continue
			}

			// Extract actor from channel name
			// Channel format: qms:events:{actorID}
			actorID := extractActorFromChannel(msg.Channel)
			if actorID == "" {
				log.Printf("Invalid channel format: %s", msg.Channel)
				continue
			}

			log.Printf("Received event for actor=%s, size=%d bytes", actorID, len(msg.Payload))

			// Forward to hub
			s.hub.broadcast <- &Message{
				ActorID: actorID,
				Data:    []byte(msg.Payload),
			}
		}
	}
}

// extractActorFromChannel extracts the actor ID from a channel name
// Example: "qms:events:inspector-7" → "inspector-7"
func extractActorFromChannel(channel string) string {
	parts := strings.Split(channel, ":")
	if len(parts) != 3 || parts[0] != "qms" || parts[1] != "events" {
		return ""
	}
	return parts[2]
}
