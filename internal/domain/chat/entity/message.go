package entity

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength is the maximum length of a message in runes
const MaxMessageLength = 2000

// Message is an immutable chat message
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Content        string    `json:"content"`
	ListingID      *string   `json:"listing_id,omitempty"` // only on the first message of a listing contact
	CreatedAt      time.Time `json:"created_at"`
}

// NormalizeText trims the text and validates it against a rune limit; limit <= 0 means MaxMessageLength
func NormalizeText(text string, limit int) (string, error) {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > limit {
		return "", ErrMessageTooLong
	}
	return text, nil
}
