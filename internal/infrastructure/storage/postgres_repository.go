package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"NewsDispatch/internal/domain"
	"NewsDispatch/internal/ports"
)

// PostgresRepository records delivered articles into Postgres for audit.
// It is an inspection trail, not a dedup mechanism; re-delivery suppression
// is the watermark store's job.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.DeliveryLog = (*PostgresRepository)(nil)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Record upserts one delivery snapshot.
func (r *PostgresRepository) Record(ctx context.Context, rec domain.DeliveryRecord) error {
	if r.db == nil {
		return nil
	}

	query, args, err := builder.
		Insert("deliveries").
		Columns("url", "category", "destination", "published_at", "delivered_at").
		Values(rec.URL, rec.Category, rec.Destination, rec.PublishedAt, rec.DeliveredAt).
		Suffix(`ON CONFLICT (url, category) DO UPDATE
                SET destination = EXCLUDED.destination,
                    delivered_at = EXCLUDED.delivered_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert delivery: %w", err)
	}

	return nil
}
