package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vadim/tosembanda/internal/apperr"
	"github.com/vadim/tosembanda/internal/domain/chat/entity"
	"github.com/vadim/tosembanda/internal/realtime"
)

const defaultRequestTimeout = 10 * time.Second

// MessageAPI is the part of the chat API a conversation session calls
type MessageAPI interface {
	LoadMessages(ctx context.Context, conversationID string) ([]entity.Message, error)
	SendMessage(ctx context.Context, conversationID, text string, listingID *string) (*entity.Message, error)
}

// Session keeps the local message list of one conversation in sync with the server
type Session struct {
	mu       sync.Mutex
	api      MessageAPI
	conv     *entity.Conversation
	selfID   string
	entries  []Entry
	loaded   bool
	typing   *TypingSignaler
	notifier Notifier
	timeout  time.Duration
	maxLen   int
	onChange func([]Entry)
	now      func() time.Time
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithNotifier sets where send and load failures are reported
func WithNotifier(n Notifier) SessionOption {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithRequestTimeout bounds every API call of the session
func WithRequestTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.timeout = d
	}
}

// WithMaxMessageLength overrides entity.MaxMessageLength
func WithMaxMessageLength(n int) SessionOption {
	return func(s *Session) {
		s.maxLen = n
	}
}

// WithTypingSignaler makes Send stop the typing broadcast before submitting
func WithTypingSignaler(t *TypingSignaler) SessionOption {
	return func(s *Session) {
		s.typing = t
	}
}

// OnEntriesChange registers a callback receiving a snapshot after every change
func OnEntriesChange(fn func([]Entry)) SessionOption {
	return func(s *Session) {
		s.onChange = fn
	}
}

// NewSession creates a session for conv as seen by selfID
func NewSession(api MessageAPI, conv *entity.Conversation, selfID string, opts ...SessionOption) *Session {
	s := &Session{
		api:      api,
		conv:     conv,
		selfID:   selfID,
		notifier: LogNotifier(nil),
		timeout:  defaultRequestTimeout,
		maxLen:   entity.MaxMessageLength,
		onChange: func([]Entry) {},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Conversation returns the conversation the session belongs to
func (s *Session) Conversation() *entity.Conversation {
	return s.conv
}

// Entries returns a snapshot of the local message list
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Load fetches the history. Messages that arrived on the feed meanwhile stay after it.
func (s *Session) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	history, err := s.api.LoadMessages(ctx, s.conv.ID)
	if err != nil {
		err = apperr.Classify(apperr.KindLoad, "failed to load messages", err)
		s.notifier.Notify(err)
		return err
	}

	s.update(func(entries []Entry) []Entry {
		s.loaded = true
		return mergeBacklog(history, entries)
	})
	return nil
}

// HandleMessage applies a message event from the conversation feed.
// The user's own messages are already in the list through Send and are ignored.
func (s *Session) HandleMessage(evt realtime.MessageEvent) {
	msg := evt.Message
	if msg.ConversationID != s.conv.ID || msg.SenderID == s.selfID {
		return
	}

	s.update(func(entries []Entry) []Entry {
		if containsMessage(entries, msg.ID) {
			return entries
		}
		return append(entries, confirmedEntry(msg))
	})
}

// Send submits text optimistically. Whitespace-only text is ignored and returns nil, nil.
func (s *Session) Send(ctx context.Context, text string) (*entity.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	content, err := entity.NormalizeText(text, s.maxLen)
	if err != nil {
		s.notifier.Notify(err)
		return nil, err
	}

	if s.typing != nil {
		s.typing.Stop()
	}

	localID := newLocalID()
	var listingID *string
	s.update(func(entries []Entry) []Entry {
		// the listing travels only with the first message of a listing contact;
		// without a loaded history the list says nothing about that
		if s.loaded && len(entries) == 0 && s.conv.ListingID != nil {
			id := *s.conv.ListingID
			listingID = &id
		}
		return append(entries, pendingEntry(localID, s.conv, s.selfID, content, listingID, s.now()))
	})

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.api.SendMessage(ctx, s.conv.ID, content, listingID)
	if err != nil {
		s.update(func(entries []Entry) []Entry {
			return rollback(entries, localID)
		})
		err = apperr.Classify(apperr.KindSend, "failed to send message", err)
		s.notifier.Notify(err)
		return nil, err
	}

	s.update(func(entries []Entry) []Entry {
		return reconcile(entries, localID, *msg)
	})
	return msg, nil
}

func (s *Session) update(fn func([]Entry) []Entry) {
	s.mu.Lock()
	s.entries = fn(s.entries)
	snapshot := append([]Entry(nil), s.entries...)
	s.mu.Unlock()

	s.onChange(snapshot)
}
