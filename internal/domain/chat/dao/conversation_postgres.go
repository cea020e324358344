package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
)

const conversationColumns = `
	id::text, participant_a::text, participant_b::text, listing_id::text,
	deleted_by_a, deleted_by_b, last_message_at, created_at
`

// ConversationPostgres implements conversation repository for PostgreSQL
type ConversationPostgres struct {
	pool *pgxpool.Pool
}

// NewConversationPostgres creates a new PostgreSQL conversation repository
func NewConversationPostgres(pool *pgxpool.Pool) *ConversationPostgres {
	return &ConversationPostgres{pool: pool}
}

// GetByID retrieves a conversation by ID
func (r *ConversationPostgres) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`

	return r.scanConversation(r.pool.QueryRow(ctx, query, id))
}

// FindByPair finds the conversation between two users regardless of slot order.
// If legacy duplicates exist, the most recently active one wins.
func (r *ConversationPostgres) FindByPair(ctx context.Context, userA, userB string) (*entity.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE (participant_a = $1 AND participant_b = $2)
		   OR (participant_a = $2 AND participant_b = $1)
		ORDER BY last_message_at DESC NULLS LAST, created_at DESC
		LIMIT 1
	`

	return r.scanConversation(r.pool.QueryRow(ctx, query, userA, userB))
}

// Create inserts a conversation unless one already exists for the unordered pair.
// It returns nil, nil when the pair index rejected the insert.
func (r *ConversationPostgres) Create(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, error) {
	query := `
		INSERT INTO conversations (participant_a, participant_b, listing_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
		RETURNING ` + conversationColumns

	return r.scanConversation(r.pool.QueryRow(ctx, query,
		conv.ParticipantA,
		conv.ParticipantB,
		conv.ListingID,
	))
}

// SetDeleted sets the soft-delete flag of a single slot
func (r *ConversationPostgres) SetDeleted(ctx context.Context, id string, slot entity.Slot, deleted bool) error {
	var query string
	switch slot {
	case entity.SlotA:
		query = `UPDATE conversations SET deleted_by_a = $2, updated_at = now() WHERE id = $1`
	case entity.SlotB:
		query = `UPDATE conversations SET deleted_by_b = $2, updated_at = now() WHERE id = $1`
	default:
		return fmt.Errorf("invalid slot %d", slot)
	}

	tag, err := r.pool.Exec(ctx, query, id, deleted)
	if err != nil {
		return fmt.Errorf("updating deleted flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrConversationNotFound
	}
	return nil
}

// Touch records activity on the conversation
func (r *ConversationPostgres) Touch(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE conversations
		SET last_message_at = GREATEST(COALESCE(last_message_at, $2), $2), updated_at = now()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("touching conversation: %w", err)
	}
	return nil
}

// scanConversation scans a single conversation row
func (r *ConversationPostgres) scanConversation(row pgx.Row) (*entity.Conversation, error) {
	var conv entity.Conversation

	err := row.Scan(
		&conv.ID,
		&conv.ParticipantA,
		&conv.ParticipantB,
		&conv.ListingID,
		&conv.DeletedByA,
		&conv.DeletedByB,
		&conv.LastMessageAt,
		&conv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning conversation: %w", err)
	}

	return &conv, nil
}
