package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/aximo-tui/internal/logger"
	"github.com/j-veylop/aximo-tui/internal/models"
)

// ReplaceModels stores records as the current catalog snapshot, in order.
// Models absent from records are marked removed. It returns the IDs that
// had never been stored before.
func (db *DB) ReplaceModels(records []models.ModelRecord) ([]string, error) {
	for i := range records {
		if records[i].ID == "" {
			return nil, fmt.Errorf("record %d (%q) has no id", i, records[i].Name)
		}
	}

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	known, err := knownModelIDs(ctx, tx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(sqlTimeFormat)
	if _, err := tx.ExecContext(ctx, `UPDATE models SET removed_at = ? WHERE removed_at IS NULL`, now); err != nil {
		return nil, fmt.Errorf("failed to mark models removed: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO models (
			id, position, name, framework, use_case, dataset, description,
			image_url, created_by, price, purchased, created_at, first_seen, last_seen, removed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			position = excluded.position,
			name = excluded.name,
			framework = excluded.framework,
			use_case = excluded.use_case,
			dataset = excluded.dataset,
			description = excluded.description,
			image_url = excluded.image_url,
			created_by = excluded.created_by,
			price = excluded.price,
			purchased = excluded.purchased,
			created_at = excluded.created_at,
			last_seen = excluded.last_seen,
			removed_at = NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare model upsert: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			logger.Error("failed to close statement", "error", err)
		}
	}()

	var added []string
	for i := range records {
		r := &records[i]
		_, err := stmt.ExecContext(ctx,
			r.ID,
			i,
			r.Name,
			r.Framework,
			r.UseCase,
			r.Dataset,
			r.Description,
			r.ImageURL,
			r.CreatedBy,
			r.Price,
			r.PurchasedCount,
			sqlTime(r.CreatedAt),
			now,
			now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert model %s: %w", r.ID, err)
		}
		if _, ok := known[r.ID]; !ok {
			known[r.ID] = struct{}{}
			added = append(added, r.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit models: %w", err)
	}
	return added, nil
}

func knownModelIDs(ctx context.Context, tx *sql.Tx) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id FROM models")
	if err != nil {
		return nil, fmt.Errorf("failed to query model ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	known := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan model id: %w", err)
		}
		known[id] = struct{}{}
	}
	return known, rows.Err()
}

// ListModels returns the cached catalog in the order it was last stored.
func (db *DB) ListModels() ([]models.ModelRecord, error) {
	query := `
		SELECT id, name, framework, use_case, dataset, description, image_url,
			   created_by, price, purchased, created_at
		FROM models
		WHERE removed_at IS NULL
		ORDER BY position ASC
	`

	rows, err := db.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	records := []models.ModelRecord{}
	for rows.Next() {
		var r models.ModelRecord
		var createdAt sql.NullString

		err := rows.Scan(
			&r.ID,
			&r.Name,
			&r.Framework,
			&r.UseCase,
			&r.Dataset,
			&r.Description,
			&r.ImageURL,
			&r.CreatedBy,
			&r.Price,
			&r.PurchasedCount,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		if createdAt.Valid {
			r.CreatedAt, _ = parseTimeString(createdAt.String)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
