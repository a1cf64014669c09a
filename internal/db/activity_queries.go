package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/aximo-tui/internal/models"
)

// SyncRecord describes one catalog refresh.
type SyncRecord struct {
	SyncedAt       time.Time
	Source         string
	TotalModels    int
	TotalPurchases int
	NewModels      int
}

// RecordSync logs a catalog refresh.
func (db *DB) RecordSync(s SyncRecord) error {
	syncedAt := s.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now()
	}

	_, err := db.ExecContext(context.Background(), `
		INSERT INTO catalog_syncs (synced_at, source, total_models, total_purchases, new_models)
		VALUES (?, ?, ?, ?, ?)
	`, syncedAt.UTC().Format(sqlTimeFormat), s.Source, s.TotalModels, s.TotalPurchases, s.NewModels)
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}
	return nil
}

// GetLastSync returns the most recent sync, or nil if none was recorded.
func (db *DB) GetLastSync() (*SyncRecord, error) {
	var s SyncRecord
	var syncedAt sql.NullString
	err := db.QueryRowContext(context.Background(), `
		SELECT synced_at, source, total_models, total_purchases, new_models
		FROM catalog_syncs
		ORDER BY synced_at DESC, id DESC
		LIMIT 1
	`).Scan(&syncedAt, &s.Source, &s.TotalModels, &s.TotalPurchases, &s.NewModels)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last sync: %w", err)
	}
	s.SyncedAt, _ = parseTimeString(syncedAt.String)
	return &s, nil
}

// GetDailyAdditions counts models per creation day. Models without a
// creation time count on the day they were first cached.
func (db *DB) GetDailyAdditions(days int) ([]models.DailyCount, error) {
	return db.dailyCounts(`
		SELECT date(COALESCE(created_at, first_seen)) AS day, COUNT(*)
		FROM models
		WHERE removed_at IS NULL %s
		GROUP BY day
		ORDER BY day ASC
	`, "COALESCE(created_at, first_seen)", days)
}

// GetDailyPurchases counts cached purchases per day. An empty email counts
// every buyer.
func (db *DB) GetDailyPurchases(email string, days int) ([]models.DailyCount, error) {
	if email == "" {
		return db.dailyCounts(`
			SELECT date(purchased_at) AS day, COUNT(*)
			FROM purchases
			WHERE 1 = 1 %s
			GROUP BY day
			ORDER BY day ASC
		`, "purchased_at", days)
	}
	return db.dailyCounts(`
		SELECT date(purchased_at) AS day, COUNT(*)
		FROM purchases
		WHERE buyer_email = ? COLLATE NOCASE %s
		GROUP BY day
		ORDER BY day ASC
	`, "purchased_at", days, email)
}

// GetCatalogTrend returns the largest catalog size seen on each day.
func (db *DB) GetCatalogTrend(days int) ([]models.DailyCount, error) {
	return db.dailyCounts(`
		SELECT date(synced_at) AS day, MAX(total_models)
		FROM catalog_syncs
		WHERE 1 = 1 %s
		GROUP BY day
		ORDER BY day ASC
	`, "synced_at", days)
}

// dailyCounts runs a (day, count) query. The %s verb in query is replaced by
// a time window on column when days > 0.
func (db *DB) dailyCounts(query, column string, days int, args ...any) ([]models.DailyCount, error) {
	timeFilter := ""
	if window, ok := windowArg(days); ok {
		timeFilter = fmt.Sprintf("AND %s >= datetime('now', ?)", column)
		args = append(args, window)
	}

	rows, err := db.QueryContext(context.Background(), fmt.Sprintf(query, timeFilter), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	points := []models.DailyCount{}
	for rows.Next() {
		var dateStr sql.NullString
		var p models.DailyCount
		if err := rows.Scan(&dateStr, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		if !dateStr.Valid {
			continue
		}
		t, err := time.Parse(sqlDateFormat, dateStr.String)
		if err != nil {
			continue
		}
		p.Date = t
		points = append(points, p)
	}

	return points, rows.Err()
}

// GetActivityStats collects everything the activity view charts for one buyer.
func (db *DB) GetActivityStats(email string, timeRange models.TimeRange) (*models.ActivityStats, error) {
	days := timeRange.Days()
	stats := &models.ActivityStats{TimeRange: timeRange}

	additions, err := db.GetDailyAdditions(days)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily additions: %w", err)
	}
	stats.DailyAdditions = additions

	purchases, err := db.GetDailyPurchases(email, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily purchases: %w", err)
	}
	stats.DailyPurchases = purchases

	trend, err := db.GetCatalogTrend(days)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog trend: %w", err)
	}
	stats.CatalogTrend = trend

	for _, d := range additions {
		stats.TotalAdded += d.Count
	}
	for _, d := range purchases {
		stats.TotalPurchased += d.Count
	}

	if err := db.getActivityBounds(email, days, stats); err != nil {
		return nil, err
	}

	return stats, nil
}

func (db *DB) getActivityBounds(email string, days int, stats *models.ActivityStats) error {
	var firstSeen, lastSync sql.NullString
	err := db.QueryRowContext(context.Background(), `
		SELECT
			(SELECT MIN(first_seen) FROM models),
			(SELECT MAX(synced_at) FROM catalog_syncs)
	`).Scan(&firstSeen, &lastSync)
	if err != nil {
		return fmt.Errorf("failed to query activity bounds: %w", err)
	}
	if firstSeen.Valid {
		stats.FirstSeen, _ = parseTimeString(firstSeen.String)
	}
	if lastSync.Valid {
		stats.LastSync, _ = parseTimeString(lastSync.String)
	}

	query := "SELECT COALESCE(SUM(price), 0) FROM purchases WHERE 1 = 1"
	var args []any
	if email != "" {
		query += " AND buyer_email = ? COLLATE NOCASE"
		args = append(args, email)
	}
	if window, ok := windowArg(days); ok {
		query += " AND purchased_at >= datetime('now', ?)"
		args = append(args, window)
	}
	if err := db.QueryRowContext(context.Background(), query, args...).Scan(&stats.Revenue); err != nil {
		return fmt.Errorf("failed to query purchase total: %w", err)
	}
	return nil
}
