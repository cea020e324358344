package client

import (
	"time"

	"github.com/google/uuid"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
)

// EntryState tells whether an entry is still waiting for the server
type EntryState int

const (
	Pending EntryState = iota
	Confirmed
)

func (s EntryState) String() string {
	if s == Pending {
		return "pending"
	}
	return "confirmed"
}

// Entry is one row of the local message list.
// Pending entries carry only a LocalID; confirmed entries carry the server's Message.ID.
type Entry struct {
	State   EntryState
	LocalID string
	Message entity.Message
}

// ID returns the server id for confirmed entries and the local id otherwise
func (e Entry) ID() string {
	if e.State == Pending {
		return e.LocalID
	}
	return e.Message.ID
}

func confirmedEntry(msg entity.Message) Entry {
	return Entry{State: Confirmed, Message: msg}
}

func newLocalID() string {
	return "local-" + uuid.NewString()
}

func pendingEntry(localID string, conv *entity.Conversation, senderID, text string, listingID *string, now time.Time) Entry {
	return Entry{
		State:   Pending,
		LocalID: localID,
		Message: entity.Message{
			ConversationID: conv.ID,
			SenderID:       senderID,
			ReceiverID:     conv.OtherParticipant(senderID),
			Content:        text,
			ListingID:      listingID,
			CreatedAt:      now,
		},
	}
}

// reconcile replaces the pending entry localID with the stored message, keeping its position.
// If the stored message is already present the pending entry is dropped instead.
func reconcile(entries []Entry, localID string, msg entity.Message) []Entry {
	present := containsMessage(entries, msg.ID)

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.State == Pending && e.LocalID == localID {
			if !present {
				out = append(out, confirmedEntry(msg))
			}
			continue
		}
		out = append(out, e)
	}
	return out
}

// rollback removes the pending entry localID
func rollback(entries []Entry, localID string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.State == Pending && e.LocalID == localID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// mergeBacklog puts the loaded history first and keeps entries that were added meanwhile after it
func mergeBacklog(history []entity.Message, current []Entry) []Entry {
	out := make([]Entry, 0, len(history)+len(current))
	seen := make(map[string]struct{}, len(history))
	for _, msg := range history {
		if _, ok := seen[msg.ID]; ok {
			continue
		}
		seen[msg.ID] = struct{}{}
		out = append(out, confirmedEntry(msg))
	}
	for _, e := range current {
		if e.State == Confirmed {
			if _, ok := seen[e.Message.ID]; ok {
				continue
			}
			seen[e.Message.ID] = struct{}{}
		}
		out = append(out, e)
	}
	return out
}

func containsMessage(entries []Entry, id string) bool {
	for _, e := range entries {
		if e.State == Confirmed && e.Message.ID == id {
			return true
		}
	}
	return false
}
