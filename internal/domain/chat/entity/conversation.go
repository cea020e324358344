package entity

import "time"

// Slot identifies which participant column a user occupies in a conversation
type Slot int

const (
	SlotNone Slot = iota
	SlotA
	SlotB
)

// Conversation is the unique thread between two participants
type Conversation struct {
	ID            string     `json:"id"`
	ParticipantA  string     `json:"participant_a"`
	ParticipantB  string     `json:"participant_b"`
	ListingID     *string    `json:"listing_id,omitempty"` // originating announcement, set only at creation
	DeletedByA    bool       `json:"deleted_by_a"`
	DeletedByB    bool       `json:"deleted_by_b"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SlotOf returns the slot userID occupies, or SlotNone
func (c *Conversation) SlotOf(userID string) Slot {
	switch userID {
	case c.ParticipantA:
		return SlotA
	case c.ParticipantB:
		return SlotB
	default:
		return SlotNone
	}
}

// HasParticipant reports whether userID is one of the two participants
func (c *Conversation) HasParticipant(userID string) bool {
	return c.SlotOf(userID) != SlotNone
}

// OtherParticipant returns the participant that is not userID
func (c *Conversation) OtherParticipant(userID string) string {
	if userID == c.ParticipantA {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// DeletedBy reports whether userID has soft-deleted the conversation on their side
func (c *Conversation) DeletedBy(userID string) bool {
	switch c.SlotOf(userID) {
	case SlotA:
		return c.DeletedByA
	case SlotB:
		return c.DeletedByB
	default:
		return false
	}
}

// OriginatingListing returns the listing id or an empty string
func (c *Conversation) OriginatingListing() string {
	if c.ListingID == nil {
		return ""
	}
	return *c.ListingID
}

// Summary is the per-user view of a conversation in the conversation list
type Summary struct {
	ConversationID       string     `json:"conversation_id"`
	OtherParticipantID   string     `json:"other_participant_id"`
	OtherParticipantName string     `json:"other_participant_name"`
	OtherAvatarURL       string     `json:"other_avatar_url,omitempty"`
	OtherAvatarKey       string     `json:"-"`
	LastMessage          string     `json:"last_message,omitempty"`
	LastMessageAt        *time.Time `json:"last_message_at,omitempty"`
}
