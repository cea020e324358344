package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
)

// SummaryPostgres reads conversation summaries computed by get_user_conversations
type SummaryPostgres struct {
	pool *pgxpool.Pool
}

// NewSummaryPostgres creates a new summary reader
func NewSummaryPostgres(pool *pgxpool.Pool) *SummaryPostgres {
	return &SummaryPostgres{pool: pool}
}

// ListForUser returns the user's visible conversations, most recently active first
func (r *SummaryPostgres) ListForUser(ctx context.Context, userID string) ([]entity.Summary, error) {
	query := `
		SELECT conversation_id::text, other_participant_id::text, other_first_name,
		       other_last_name, other_avatar_key, last_message, last_message_at
		FROM get_user_conversations($1)
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying conversation summaries: %w", err)
	}
	defer rows.Close()

	var summaries []entity.Summary
	for rows.Next() {
		var (
			s                   entity.Summary
			firstName, lastName *string
			avatarKey, lastText *string
		)
		if err := rows.Scan(
			&s.ConversationID,
			&s.OtherParticipantID,
			&firstName,
			&lastName,
			&avatarKey,
			&lastText,
			&s.LastMessageAt,
		); err != nil {
			return nil, fmt.Errorf("scanning summary row: %w", err)
		}

		s.OtherParticipantName = entity.DisplayName(deref(firstName), deref(lastName), DefaultDisplayName)
		s.OtherAvatarKey = deref(avatarKey)
		s.LastMessage = deref(lastText)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summary rows: %w", err)
	}

	return summaries, nil
}

// DefaultDisplayName is shown when a profile has no name
const DefaultDisplayName = "Usuário"

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
