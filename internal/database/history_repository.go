package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// PredictionRecord is one stored prediction. Only a hash of the complaint
// text is kept; the raw text never reaches the database.
type PredictionRecord struct {
	ID               int64     `db:"id"               json:"id"`
	TextHash         string    `db:"text_hash"        json:"text_hash"`
	Category         string    `db:"category"         json:"category"`
	Priority         string    `db:"priority"         json:"priority"`
	Confidence       float64   `db:"confidence"       json:"confidence"`
	FakeScore        float64   `db:"fake_score"       json:"fake_score"`
	ProcessingTimeMs int64     `db:"processing_time_ms" json:"processing_time_ms"`
	CreatedAt        time.Time `db:"created_at"       json:"created_at"`
}

// PredictionStats summarises the stored history.
type PredictionStats struct {
	TotalPredictions    int            `json:"total_predictions"`
	AvgConfidence       float64        `json:"avg_confidence"`
	AvgFakeScore        float64        `json:"avg_fake_score"`
	AvgProcessingTimeMs float64        `json:"avg_processing_time_ms"`
	Categories          map[string]int `json:"categories"`
}

// HashText returns the hex SHA-256 digest of the complaint text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// HistoryRepository handles database operations for prediction history.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a repository over an open database.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS prediction_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text_hash TEXT NOT NULL,
	category TEXT NOT NULL,
	priority TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL,
	fake_score REAL NOT NULL,
	processing_time_ms INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_prediction_history_category
	ON prediction_history (category);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS prediction_history (
	id BIGSERIAL PRIMARY KEY,
	text_hash TEXT NOT NULL,
	category TEXT NOT NULL,
	priority TEXT NOT NULL DEFAULT '',
	confidence DOUBLE PRECISION NOT NULL,
	fake_score DOUBLE PRECISION NOT NULL,
	processing_time_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_prediction_history_category
	ON prediction_history (category);
`

// Migrate creates the history table if it does not exist.
func (r *HistoryRepository) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if r.db.DriverName() == "sqlite3" {
		schema = sqliteSchema
	}
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate prediction_history: %w", err)
		}
	}
	return nil
}

// Insert stores one prediction record.
func (r *HistoryRepository) Insert(ctx context.Context, rec *PredictionRecord) error {
	query := r.db.Rebind(`
		INSERT INTO prediction_history (
			text_hash, category, priority, confidence, fake_score,
			processing_time_ms, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		rec.TextHash,
		rec.Category,
		rec.Priority,
		rec.Confidence,
		rec.FakeScore,
		rec.ProcessingTimeMs,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert prediction history: %w", err)
	}
	return nil
}

// Stats aggregates the stored history.
func (r *HistoryRepository) Stats(ctx context.Context) (*PredictionStats, error) {
	stats := &PredictionStats{Categories: map[string]int{}}

	query := `
		SELECT
			COUNT(*) AS total_predictions,
			COALESCE(AVG(confidence), 0) AS avg_confidence,
			COALESCE(AVG(fake_score), 0) AS avg_fake_score,
			COALESCE(AVG(processing_time_ms), 0) AS avg_processing_time_ms
		FROM prediction_history
	`
	row := r.db.QueryRowContext(ctx, query)
	if err := row.Scan(
		&stats.TotalPredictions,
		&stats.AvgConfidence,
		&stats.AvgFakeScore,
		&stats.AvgProcessingTimeMs,
	); err != nil {
		return nil, fmt.Errorf("aggregate prediction history: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT category, COUNT(*) AS count
		FROM prediction_history
		GROUP BY category
		ORDER BY count DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("aggregate per-category counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		stats.Categories[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category counts: %w", err)
	}

	return stats, nil
}

// Recent returns the newest records, up to limit.
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.db.Rebind(`
		SELECT id, text_hash, category, priority, confidence, fake_score,
		       processing_time_ms, created_at
		FROM prediction_history
		ORDER BY created_at DESC
		LIMIT ?
	`)

	records := []PredictionRecord{}
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("select recent predictions: %w", err)
	}
	return records, nil
}
