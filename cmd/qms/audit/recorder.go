package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forgeline/qms/common/logger"
	"github.com/forgeline/qms/common/models"
	"github.com/forgeline/qms/common/redis"
	"github.com/forgeline/qms/common/repository"
)

const (
	// auditStream is the cold path: durable history for downstream consumers
	auditStream = "qms.audit.events"
	// eventChannelPrefix is the hot path: live pub/sub feed fanned out to
	// dashboard sessions
	eventChannelPrefix = "qms:events:"
)

// Recorder appends audit entries for every logical mutation and publishes
// them to Redis best effort. Exactly one entry per mutation: callers invoke
// Record once after a successful change, never before.
type Recorder struct {
	store         repository.AuditStore
	redis         *redis.Client
	logger        *logger.Logger
	streamEnabled bool
}

// NewRecorder creates an audit recorder. redisClient may be nil; publishing
// is then skipped entirely.
func NewRecorder(store repository.AuditStore, redisClient *redis.Client, log *logger.Logger, streamEnabled bool) *Recorder {
	return &Recorder{
		store:         store,
		redis:         redisClient,
		logger:        log,
		streamEnabled: streamEnabled,
	}
}

// Record computes the field diff between two snapshots of one record and
// appends an audit entry. before is nil for creations; the entry then
// carries the full initial snapshot instead of a diff. Append failures are
// returned; publish failures are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, action, actor, reason string, before, after models.Item) (*models.AuditEntry, error) {
	details := models.AuditDetails{Reason: reason}

	afterMap, err := models.ToMap(after)
	if err != nil {
		return nil, err
	}

	if before == nil {
		details.After = afterMap
	} else {
		beforeMap, err := models.ToMap(before)
		if err != nil {
			return nil, err
		}

		details.Fields, err = ComputeChanges(beforeMap, afterMap)
		if err != nil {
			return nil, err
		}
	}

	entry := &models.AuditEntry{
		ID:        uuid.New(),
		Timestamp: time.Now(),
		ActorID:   actor,
		Action:    action,
		ItemID:    after.GetID(),
		ItemType:  after.GetItemType(),
		Details:   details,
	}

	if err := r.store.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append audit entry for %s %s: %w", entry.ItemType, entry.ItemID, err)
	}

	r.publish(ctx, entry)
	return entry, nil
}

// publish pushes the entry to the audit stream and the actor's live channel.
// Best effort: the entry is already durable in the audit store.
func (r *Recorder) publish(ctx context.Context, entry *models.AuditEntry) {
	if r.redis == nil || !r.streamEnabled {
		return
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		r.logger.Warn("failed to marshal audit entry for publish", "entry_id", entry.ID, "error", err)
		return
	}

	pipeline := r.redis.NewPipeline()
	pipeline.AddToStream(ctx, auditStream, map[string]interface{}{
		"entry_id":  entry.ID.String(),
		"item_id":   entry.ItemID.String(),
		"item_type": string(entry.ItemType),
		"action":    entry.Action,
		"actor_id":  entry.ActorID,
		"payload":   string(payload),
	})
	pipeline.PublishEvent(ctx, eventChannelPrefix+entry.ActorID, string(payload))

	if err := pipeline.Exec(ctx); err != nil {
		r.logger.Warn("audit event publish failed", "entry_id", entry.ID, "error", err)
	}
}

// Query reads an item's audit trail in sequence order
func (r *Recorder) Query(ctx context.Context, itemID uuid.UUID, filter models.AuditFilter) ([]*models.AuditEntry, error) {
	return r.store.List(ctx, itemID, filter)
}

// Count returns the number of entries on an item's trail
func (r *Recorder) Count(ctx context.Context, itemID uuid.UUID) (int64, error) {
	return r.store.Count(ctx, itemID)
}
