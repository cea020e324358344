package entity

import (
	"strings"
	"time"
)

// Notification types
const (
	TypeProfileView = "profile_view"
)

// DefaultVisitorName is used when the visitor has no name on their profile
const DefaultVisitorName = "Alguém"

// Notification is a message addressed to a single user
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
}

// ProfileViewMessage builds the text shown to a profile owner
func ProfileViewMessage(visitorName string) string {
	name := strings.TrimSpace(visitorName)
	if name == "" {
		name = DefaultVisitorName
	}
	return name + " visitou seu perfil."
}
