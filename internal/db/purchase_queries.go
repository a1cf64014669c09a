package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/aximo-tui/internal/logger"
	"github.com/j-veylop/aximo-tui/internal/models"
)

// InsertPurchase records a purchase. A second purchase of the same model by
// the same buyer is ignored; the result reports whether a row was added.
func (db *DB) InsertPurchase(p *models.Purchase) (bool, error) {
	if p.ModelID == "" || p.BuyerEmail == "" {
		return false, fmt.Errorf("purchase requires model id and buyer email")
	}

	query := `
		INSERT INTO purchases (
			remote_id, model_id, model_name, buyer_email, buyer_name, price, purchased_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(model_id, buyer_email) DO NOTHING
	`

	purchasedAt := p.PurchasedAt
	if purchasedAt.IsZero() {
		purchasedAt = time.Now()
	}

	result, err := db.ExecContext(context.Background(), query,
		nullString(p.ID.String()),
		p.ModelID,
		p.ModelName,
		p.BuyerEmail,
		nullString(p.BuyerName),
		p.Price,
		purchasedAt.UTC().Format(sqlTimeFormat),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert purchase: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, nil
	}
	return n > 0, nil
}

// ListPurchases returns a buyer's purchases, newest first.
func (db *DB) ListPurchases(email string) ([]models.Purchase, error) {
	query := `
		SELECT remote_id, model_id, model_name, buyer_email, buyer_name, price, purchased_at
		FROM purchases
		WHERE buyer_email = ? COLLATE NOCASE
		ORDER BY purchased_at DESC, id DESC
	`

	rows, err := db.QueryContext(context.Background(), query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var purchases []models.Purchase
	for rows.Next() {
		var p models.Purchase
		var remoteID, buyerName, purchasedAt sql.NullString

		err := rows.Scan(
			&remoteID,
			&p.ModelID,
			&p.ModelName,
			&p.BuyerEmail,
			&buyerName,
			&p.Price,
			&purchasedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}

		p.ID = models.ObjectID(remoteID.String)
		p.BuyerName = buyerName.String
		if purchasedAt.Valid {
			p.PurchasedAt, _ = parseTimeString(purchasedAt.String)
		}
		purchases = append(purchases, p)
	}

	return purchases, rows.Err()
}

// HasPurchased reports whether email already bought modelID.
func (db *DB) HasPurchased(email, modelID string) (bool, error) {
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM purchases WHERE buyer_email = ? COLLATE NOCASE AND model_id = ?",
		email, modelID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query purchase: %w", err)
	}
	return n > 0, nil
}
