package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/tosembanda/internal/domain/notification/entity"
)

const notificationColumns = `id::text, user_id::text, type, message, metadata, is_read, created_at`

// NotificationPostgres implements notification repository for PostgreSQL
type NotificationPostgres struct {
	pool *pgxpool.Pool
}

// NewNotificationPostgres creates a new PostgreSQL notification repository
func NewNotificationPostgres(pool *pgxpool.Pool) *NotificationPostgres {
	return &NotificationPostgres{pool: pool}
}

// Create inserts a notification and returns the stored row
func (r *NotificationPostgres) Create(ctx context.Context, n *entity.Notification) (*entity.Notification, error) {
	query := `
		INSERT INTO notifications (user_id, type, message, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + notificationColumns

	metadata := n.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	row := r.pool.QueryRow(ctx, query, n.UserID, n.Type, n.Message, metadata)
	out, err := scanNotification(row)
	if err != nil {
		return nil, fmt.Errorf("inserting notification: %w", err)
	}
	return out, nil
}

// ListByUser returns the user's notifications, newest first
func (r *NotificationPostgres) ListByUser(ctx context.Context, userID string, limit int) ([]entity.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	notifications, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Notification, error) {
		n, err := scanNotification(row)
		if err != nil {
			return entity.Notification{}, err
		}
		return *n, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning notification rows: %w", err)
	}

	return notifications, nil
}

// CountUnread returns the number of unread notifications of a user
func (r *NotificationPostgres) CountUnread(ctx context.Context, userID string) (int64, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`

	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkAllRead marks every unread notification of a user as read
func (r *NotificationPostgres) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE notifications SET is_read = true WHERE user_id = $1 AND NOT is_read`

	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkRead marks one of the user's notifications as read
func (r *NotificationPostgres) MarkRead(ctx context.Context, userID, id string) error {
	query := `UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrNotificationNotFound
	}
	return nil
}

// DeleteReadBefore removes read notifications created before cutoff
func (r *NotificationPostgres) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE is_read AND created_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting read notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (*entity.Notification, error) {
	var n entity.Notification
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&n.Message,
		&n.Metadata,
		&n.IsRead,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
