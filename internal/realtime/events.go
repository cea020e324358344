package realtime

import (
	"time"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
)

// MessageEvent is emitted on the conversation feed for every inserted message
type MessageEvent struct {
	Message entity.Message `json:"message"`
}

// TypingEvent is an ephemeral "is typing" signal scoped to one conversation
type TypingEvent struct {
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	IsTyping       bool      `json:"is_typing"`
	SentAt         time.Time `json:"sent_at"`
}

// InboxEvent tells a user that one of their conversations received a message
type InboxEvent struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
}

// NotificationEvent tells a user that a notification was created for them
type NotificationEvent struct {
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
	Type           string `json:"type"`
}
