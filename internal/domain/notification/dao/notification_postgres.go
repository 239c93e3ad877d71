package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/neo-studio/internal/domain/notification/entity"
)

// NotificationPostgres stores notifications in PostgreSQL
type NotificationPostgres struct {
	pool *pgxpool.Pool
}

// NewNotificationPostgres creates a new PostgreSQL notification repository
func NewNotificationPostgres(pool *pgxpool.Pool) *NotificationPostgres {
	return &NotificationPostgres{pool: pool}
}

// Save inserts a notification
func (r *NotificationPostgres) Save(ctx context.Context, n entity.Notification) error {
	query := `
		INSERT INTO notifications (id, level, message, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.pool.Exec(ctx, query, n.ID, n.Level, n.Message, n.Detail, n.CreatedAt); err != nil {
		return fmt.Errorf("saving notification: %w", err)
	}

	return nil
}

// Recent returns the latest notifications, newest first
func (r *NotificationPostgres) Recent(ctx context.Context, limit int) ([]entity.Notification, error) {
	query := `
		SELECT id, level, message, detail, created_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Notification, error) {
		var n entity.Notification
		err := row.Scan(&n.ID, &n.Level, &n.Message, &n.Detail, &n.CreatedAt)
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning notifications: %w", err)
	}

	return out, nil
}
