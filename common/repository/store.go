package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/forgeline/qms/common/models"
)

// RecordStore is the only mutable shared state in the engine. Implementations
// must enforce optimistic concurrency: Update and UpdateAll compare the
// version the caller observed against the stored one and fail with a
// StaleWriteError on mismatch. There is no delete: closed records stay
// readable forever.
type RecordStore interface {
	Create(ctx context.Context, item models.Item) error
	Get(ctx context.Context, itemType models.ItemType, id uuid.UUID) (models.Item, error)
	GetByNumber(ctx context.Context, itemType models.ItemType, number string) (models.Item, error)
	Update(ctx context.Context, item models.Item) error
	// UpdateAll applies several record updates atomically; either every
	// record is written or none is (linkage symmetry depends on this).
	UpdateAll(ctx context.Context, items ...models.Item) error
	List(ctx context.Context, itemType models.ItemType, limit int) ([]models.Item, error)
}

// AuditStore persists the append-only trail. Append assigns the entry ID and
// the next per-item sequence number. No update or delete operation exists.
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, itemID uuid.UUID, filter models.AuditFilter) ([]*models.AuditEntry, error)
	Count(ctx context.Context, itemID uuid.UUID) (int64, error)
}
