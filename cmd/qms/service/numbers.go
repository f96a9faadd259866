package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/forgeline/qms/common/models"
	"github.com/forgeline/qms/common/redis"
)

// NumberGenerator issues human-readable record numbers like NCR-2026-000042.
// Sequences live in Redis so numbers stay unique across instances; without
// Redis a process-local counter serves dev and tests.
type NumberGenerator struct {
	redis *redis.Client
	local map[string]int64
	mu    sync.Mutex
}

// NewNumberGenerator creates a number generator. redisClient may be nil.
func NewNumberGenerator(redisClient *redis.Client) *NumberGenerator {
	return &NumberGenerator{
		redis: redisClient,
		local: make(map[string]int64),
	}
}

// Next issues the next number for a record type
func (g *NumberGenerator) Next(ctx context.Context, itemType models.ItemType) (string, error) {
	year := time.Now().Year()
	key := fmt.Sprintf("qms:seq:%s:%d", itemType, year)

	var seq int64
	if g.redis != nil {
		var err error
		seq, err = g.redis.Increment(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to allocate %s number: %w", itemType, err)
		}
	} else {
		g.mu.Lock()
		g.local[key]++
		seq = g.local[key]
		g.mu.Unlock()
	}

	return fmt.Sprintf("%s-%d-%06d", strings.ToUpper(string(itemType)), year, seq), nil
}
