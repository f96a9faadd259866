package repository

import (
	"context"
	"fmt"

	"github.com/forgeline/qms/common/db"
)

// schemaStatements create the record and audit tables on first start.
// Records are stored as JSONB documents; the relational columns carry
// only what queries filter or order on.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS quality_record (
		record_id  UUID        NOT NULL,
		item_type  TEXT        NOT NULL,
		number     TEXT        NOT NULL,
		status     TEXT        NOT NULL,
		version    BIGINT      NOT NULL,
		doc        JSONB       NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (record_id, item_type)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS quality_record_number_idx
		ON quality_record (item_type, number)`,
	`CREATE INDEX IF NOT EXISTS quality_record_updated_idx
		ON quality_record (item_type, updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_entry (
		entry_id   UUID        PRIMARY KEY,
		item_id    UUID        NOT NULL,
		item_type  TEXT        NOT NULL,
		seq        BIGINT      NOT NULL,
		action     TEXT        NOT NULL,
		actor_id   TEXT        NOT NULL,
		details    JSONB       NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (item_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS audit_entry_item_idx
		ON audit_entry (item_id, seq)`,
}

// InitSchema creates the tables if they do not exist. Run through the
// bootstrap DB init hook at service start.
func InitSchema(ctx context.Context, database *db.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := database.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
