package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
)

const messageColumns = `
	id::text, conversation_id::text, sender_id::text, receiver_id::text,
	content, listing_id::text, created_at
`

// MessagePostgres implements message repository for PostgreSQL
type MessagePostgres struct {
	pool *pgxpool.Pool
}

// NewMessagePostgres creates a new PostgreSQL message repository
func NewMessagePostgres(pool *pgxpool.Pool) *MessagePostgres {
	return &MessagePostgres{pool: pool}
}

// Insert stores a message; the database assigns id and created_at.
// The listing id is stored only when the conversation has no messages yet.
func (r *MessagePostgres) Insert(ctx context.Context, msg *entity.Message) (*entity.Message, error) {
	query := `
		INSERT INTO messages (conversation_id, sender_id, receiver_id, content, listing_id)
		SELECT $1::uuid, $2::uuid, $3::uuid, $4::text,
		       CASE WHEN EXISTS (SELECT 1 FROM messages WHERE conversation_id = $1::uuid)
		            THEN NULL ELSE $5::uuid END
		RETURNING ` + messageColumns

	var out entity.Message
	err := r.pool.QueryRow(ctx, query,
		msg.ConversationID,
		msg.SenderID,
		msg.ReceiverID,
		msg.Content,
		msg.ListingID,
	).Scan(
		&out.ID,
		&out.ConversationID,
		&out.SenderID,
		&out.ReceiverID,
		&out.Content,
		&out.ListingID,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	return &out, nil
}

// ListByConversation retrieves every message of a conversation, oldest first
func (r *MessagePostgres) ListByConversation(ctx context.Context, conversationID string) ([]entity.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Message, error) {
		var msg entity.Message
		err := row.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.Content,
			&msg.ListingID,
			&msg.CreatedAt,
		)
		return msg, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning message rows: %w", err)
	}

	return messages, nil
}
