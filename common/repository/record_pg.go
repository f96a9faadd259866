package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/forgeline/qms/common/db"
	"github.com/forgeline/qms/common/models"
)

// RecordRepository stores quality records as JSONB documents with an
// optimistic-concurrency version column
type RecordRepository struct {
	db *db.DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(database *db.DB) *RecordRepository {
	return &RecordRepository{db: database}
}

// Create inserts a new record at version 1
func (r *RecordRepository) Create(ctx context.Context, item models.Item) error {
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", item.GetItemType(), err)
	}

	query := `
		INSERT INTO quality_record (record_id, item_type, number, status, version, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.Exec(
		ctx,
		query,
		item.GetID(),
		item.GetItemType(),
		item.GetNumber(),
		item.GetStatus(),
		item.GetVersion(),
		doc,
		time.Now(),
		item.GetUpdatedAt(),
	)

	if err != nil {
		return fmt.Errorf("failed to create %s: %w", item.GetItemType(), err)
	}

	return nil
}

// Get retrieves a record by ID
func (r *RecordRepository) Get(ctx context.Context, itemType models.ItemType, id uuid.UUID) (models.Item, error) {
	query := `
		SELECT doc
		FROM quality_record
		WHERE record_id = $1 AND item_type = $2
	`

	var doc []byte
	err := r.db.QueryRow(ctx, query, id, itemType).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NewNotFoundError(itemType, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", itemType, err)
	}

	return decodeItem(itemType, doc)
}

// GetByNumber retrieves a record by its human-readable number
func (r *RecordRepository) GetByNumber(ctx context.Context, itemType models.ItemType, number string) (models.Item, error) {
	query := `
		SELECT doc
		FROM quality_record
		WHERE item_type = $1 AND number = $2
	`

	var doc []byte
	err := r.db.QueryRow(ctx, query, itemType, number).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{ItemType: itemType, Ref: number}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s by number: %w", itemType, err)
	}

	return decodeItem(itemType, doc)
}

// Update writes a record if the stored version still matches the version the
// caller read. On mismatch it returns a StaleWriteError carrying the current
// record.
func (r *RecordRepository) Update(ctx context.Context, item models.Item) error {
	return r.updateTx(ctx, r.db, item)
}

// UpdateAll writes several records in one transaction. Used by the linkage
// service so both sides of a reference change together or not at all.
func (r *RecordRepository) UpdateAll(ctx context.Context, items ...models.Item) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, item := range items {
		if err := r.updateTx(ctx, tx, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit record updates: %w", err)
	}

	return nil
}

// pgxExecutor covers both the pool and a transaction
type pgxExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *RecordRepository) updateTx(ctx context.Context, exec pgxExecutor, item models.Item) error {
	expected := item.GetVersion()
	item.SetVersion(expected + 1)

	doc, err := json.Marshal(item)
	if err != nil {
		item.SetVersion(expected)
		return fmt.Errorf("failed to marshal %s: %w", item.GetItemType(), err)
	}

	query := `
		UPDATE quality_record
		SET status = $3, version = $4, doc = $5, updated_at = $6
		WHERE record_id = $1 AND item_type = $2 AND version = $7
	`

	tag, err := exec.Exec(
		ctx,
		query,
		item.GetID(),
		item.GetItemType(),
		item.GetStatus(),
		item.GetVersion(),
		doc,
		item.GetUpdatedAt(),
		expected,
	)

	if err != nil {
		item.SetVersion(expected)
		return fmt.Errorf("failed to update %s: %w", item.GetItemType(), err)
	}

	if tag.RowsAffected() == 0 {
		item.SetVersion(expected)

		current, getErr := r.Get(ctx, item.GetItemType(), item.GetID())
		if getErr != nil {
			return getErr
		}

		return &StaleWriteError{
			ItemType:        item.GetItemType(),
			ID:              item.GetID(),
			ExpectedVersion: expected,
			CurrentVersion:  current.GetVersion(),
			Current:         current,
		}
	}

	return nil
}

// List retrieves records of one type, most recently updated first
func (r *RecordRepository) List(ctx context.Context, itemType models.ItemType, limit int) ([]models.Item, error) {
	query := `
		SELECT doc
		FROM quality_record
		WHERE item_type = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, itemType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", itemType, err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", itemType, err)
		}

		item, err := decodeItem(itemType, doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s records: %w", itemType, err)
	}

	return items, nil
}

func decodeItem(itemType models.ItemType, doc []byte) (models.Item, error) {
	item, err := models.NewItem(itemType)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(doc, item); err != nil {
		return nil, fmt.Errorf("failed to decode %s document: %w", itemType, err)
	}

	return item, nil
}
