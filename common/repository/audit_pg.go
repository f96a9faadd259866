package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forgeline/qms/common/db"
	"github.com/forgeline/qms/common/models"
)

// AuditRepository persists the append-only audit trail. The table has no
// UPDATE or DELETE path; sequence numbers are assigned per item inside the
// insert so they stay dense and monotonic.
type AuditRepository struct {
	db *db.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(database *db.DB) *AuditRepository {
	return &AuditRepository{db: database}
}

// Append inserts a new entry, assigning its ID and per-item sequence number
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_entry (entry_id, item_id, item_type, seq, action, actor_id, details, created_at)
		SELECT $1, $2, $3, COALESCE(MAX(seq), 0) + 1, $4, $5, $6, $7
		FROM audit_entry
		WHERE item_id = $2
		RETURNING seq
	`

	err = r.db.QueryRow(
		ctx,
		query,
		entry.ID,
		entry.ItemID,
		entry.ItemType,
		entry.Action,
		entry.ActorID,
		details,
		entry.Timestamp,
	).Scan(&entry.Seq)

	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// List retrieves entries for an item in sequence order
func (r *AuditRepository) List(ctx context.Context, itemID uuid.UUID, filter models.AuditFilter) ([]*models.AuditEntry, error) {
	query := `
		SELECT entry_id, item_id, item_type, seq, action, actor_id, details, created_at
		FROM audit_entry
		WHERE item_id = $1
		  AND ($2 = '' OR action = $2)
		  AND ($3 = '' OR actor_id = $3)
		ORDER BY seq ASC
		LIMIT $4
	`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.db.Query(ctx, query, itemID, filter.Action, filter.ActorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		entry := &models.AuditEntry{}
		var details []byte

		err := rows.Scan(
			&entry.ID,
			&entry.ItemID,
			&entry.ItemType,
			&entry.Seq,
			&entry.Action,
			&entry.ActorID,
			&details,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		if err := json.Unmarshal(details, &entry.Details); err != nil {
			return nil, fmt.Errorf("failed to decode audit details: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// Count returns the number of entries recorded for an item
func (r *AuditRepository) Count(ctx context.Context, itemID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM audit_entry
		WHERE item_id = $1
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, itemID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return count, nil
}
