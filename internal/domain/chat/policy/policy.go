package policy

import (
	"context"
	"time"

	"github.com/vadim/tosembanda/internal/apperr"
	"github.com/vadim/tosembanda/internal/auth"
	"github.com/vadim/tosembanda/internal/domain/chat/entity"
	"github.com/vadim/tosembanda/internal/domain/chat/service"
)

// ChatService defines the interface for the chat service
type ChatService interface {
	Resolve(ctx context.Context, in service.ResolveInput) (*entity.Conversation, error)
	Conversation(ctx context.Context, userID, conversationID string) (*entity.Conversation, error)
	LoadMessages(ctx context.Context, userID, conversationID string) ([]entity.Message, error)
	SendMessage(ctx context.Context, in service.SendMessageInput) (*entity.Message, error)
	ListSummaries(ctx context.Context, userID string) ([]entity.Summary, error)
	HideConversation(ctx context.Context, userID, conversationID string) error
	BroadcastTyping(ctx context.Context, userID, conversationID string, isTyping bool) error
}

// Policy binds chat operations to the authenticated caller, bounds them with
// a timeout and classifies failures for the presentation layer
type Policy struct {
	svc     ChatService
	timeout time.Duration
}

// New creates a new chat policy
func New(svc ChatService, timeout time.Duration) *Policy {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Policy{
		svc:     svc,
		timeout: timeout,
	}
}

func (p *Policy) caller(ctx context.Context) (string, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return "", entity.ErrUnauthenticated
	}
	return id.UserID, nil
}

// ResolveInput represents input for resolving a conversation
type ResolveInput struct {
	TargetID  string
	ListingID string
}

// Resolve finds or creates the caller's conversation with a profile or a listing owner
func (p *Policy) Resolve(ctx context.Context, in ResolveInput) (*entity.Conversation, error) {
	userID, err := p.caller(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conv, err := p.svc.Resolve(ctx, service.ResolveInput{
		UserID:    userID,
		TargetID:  in.TargetID,
		ListingID: in.ListingID,
	})
	if err != nil {
		return nil, apperr.Classify(apperr.KindLoad, "failed to open conversation", err)
	}
	return conv, nil
}

// Conversation returns a conversation the caller participates in
func (p *Policy) Conversation(ctx context.Context, conversationID string) (*entity.Conversation, error) {
	userID, err := p.caller(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conv, err := p.svc.Conversation(ctx, userID, conversationID)
	if err != nil {
		return nil, apperr.Classify(apperr.KindLoad, "failed to load conversation", err)
	}
	return conv, nil
}

// LoadMessages returns the conversation history, oldest first
func (p *Policy) LoadMessages(ctx context.Context, conversationID string) ([]entity.Message, error) {
	userID, err := p.caller(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	messages, err := p.svc.LoadMessages(ctx, userID, conversationID)
	if err != nil {
		return nil, apperr.Classify(apperr.KindLoad, "failed to load messages", err)
	}
	return messages, nil
}

// SendMessageInput represents input for sending a message
type SendMessageInput struct {
	ConversationID string
	Text           string
	ListingID      *string
}

// SendMessage submits a message as the caller
func (p *Policy) SendMessage(ctx context.Context, in SendMessageInput) (*entity.Message, error) {
	userID, err := p.caller(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg, err := p.svc.SendMessage(ctx, service.SendMessageInput{
		UserID:         userID,
		ConversationID: in.ConversationID,
		Text:           in.Text,
		ListingID:      in.ListingID,
	})
	if err != nil {
		return nil, apperr.Classify(apperr.KindSend, "failed to send message", err)
	}
	return msg, nil
}

// ListSummaries returns the caller's conversation list
func (p *Policy) ListSummaries(ctx context.Context) ([]entity.Summary, error) {
	userID, err := p.caller(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	summaries, err := p.svc.ListSummaries(ctx, userID)
	if err != nil {
		return nil, apperr.Classify(apperr.KindLoad, "failed to load conversations", err)
	}
	return summaries, nil
}

// HideConversation removes the conversation from the caller's list
func (p *Policy) HideConversation(ctx context.Context, conversationID string) error {
	userID, err := p.caller(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.svc.HideConversation(ctx, userID, conversationID); err != nil {
		return apperr.Classify(apperr.KindInternal, "failed to remove conversation", err)
	}
	return nil
}

// BroadcastTyping relays the caller's typing state
func (p *Policy) BroadcastTyping(ctx context.Context, conversationID string, isTyping bool) error {
	userID, err := p.caller(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.svc.BroadcastTyping(ctx, userID, conversationID, isTyping)
}
