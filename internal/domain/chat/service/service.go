package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
	"github.com/vadim/tosembanda/internal/realtime"
)

// ConversationRepository defines the interface for conversation storage
type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	FindByPair(ctx context.Context, userA, userB string) (*entity.Conversation, error)
	Create(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, error)
	SetDeleted(ctx context.Context, id string, slot entity.Slot, deleted bool) error
	Touch(ctx context.Context, id string, at time.Time) error
}

// MessageRepository defines the interface for message storage
type MessageRepository interface {
	// Insert keeps msg.ListingID only on the first message of the conversation
	Insert(ctx context.Context, msg *entity.Message) (*entity.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]entity.Message, error)
}

// SummaryRepository computes per-user conversation summaries
type SummaryRepository interface {
	ListForUser(ctx context.Context, userID string) ([]entity.Summary, error)
}

// Directory looks up listings and profiles
type Directory interface {
	GetListing(ctx context.Context, id string) (*entity.Listing, error)
	GetProfile(ctx context.Context, id string) (*entity.Profile, error)
}

// AvatarResolver turns stored avatar keys into URLs
type AvatarResolver interface {
	AvatarURL(ctx context.Context, key string) (string, error)
}

// EventPublisher publishes chat events to the realtime platform
type EventPublisher interface {
	PublishMessage(ctx context.Context, evt realtime.MessageEvent) error
	PublishTyping(ctx context.Context, evt realtime.TypingEvent) error
	PublishInbox(ctx context.Context, userID string, evt realtime.InboxEvent) error
}

// Service handles chat business logic
type Service struct {
	convRepo  ConversationRepository
	msgRepo   MessageRepository
	summaries SummaryRepository
	directory Directory
	events    EventPublisher
	avatars   AvatarResolver
	logger    *slog.Logger
	maxLength int
	now       func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithAvatarResolver sets the avatar URL resolver; without one summaries carry no avatar URL
func WithAvatarResolver(r AvatarResolver) Option {
	return func(s *Service) { s.avatars = r }
}

// WithMaxMessageLength overrides entity.MaxMessageLength
func WithMaxMessageLength(n int) Option {
	return func(s *Service) { s.maxLength = n }
}

// New creates a new chat service
func New(
	convRepo ConversationRepository,
	msgRepo MessageRepository,
	summaries SummaryRepository,
	directory Directory,
	events EventPublisher,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		summaries: summaries,
		directory: directory,
		events:    events,
		logger:    logger,
		maxLength: entity.MaxMessageLength,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveInput represents input for resolving a conversation
type ResolveInput struct {
	UserID    string
	TargetID  string
	ListingID string
}

// Resolve returns the unique conversation between the user and the target,
// creating it on first contact. When a listing is given its owner is the target.
func (s *Service) Resolve(ctx context.Context, in ResolveInput) (*entity.Conversation, error) {
	if in.UserID == "" {
		return nil, entity.ErrUnauthenticated
	}

	target, listingID, err := s.resolveTarget(ctx, in)
	if err != nil {
		return nil, err
	}

	conv, err := s.convRepo.FindByPair(ctx, in.UserID, target)
	if err != nil {
		return nil, fmt.Errorf("finding conversation: %w", err)
	}

	if conv == nil {
		conv, err = s.create(ctx, in.UserID, target, listingID)
		if err != nil {
			return nil, err
		}
	}

	if conv.DeletedBy(in.UserID) {
		slot := conv.SlotOf(in.UserID)
		if err := s.convRepo.SetDeleted(ctx, conv.ID, slot, false); err != nil {
			return nil, fmt.Errorf("restoring conversation: %w", err)
		}
		if slot == entity.SlotA {
			conv.DeletedByA = false
		} else {
			conv.DeletedByB = false
		}
	}

	return conv, nil
}

func (s *Service) resolveTarget(ctx context.Context, in ResolveInput) (string, *string, error) {
	if in.ListingID != "" {
		if !validID(in.ListingID) {
			return "", nil, entity.ErrListingNotFound
		}
		listing, err := s.directory.GetListing(ctx, in.ListingID)
		if err != nil {
			return "", nil, fmt.Errorf("getting listing: %w", err)
		}
		if listing == nil {
			return "", nil, entity.ErrListingNotFound
		}
		if listing.OwnerID == in.UserID {
			return "", nil, entity.ErrSelfContact
		}
		id := listing.ID
		return listing.OwnerID, &id, nil
	}

	if in.TargetID == "" {
		return "", nil, entity.ErrTargetRequired
	}
	if in.TargetID == in.UserID {
		return "", nil, entity.ErrSelfContact
	}
	if !validID(in.TargetID) {
		return "", nil, entity.ErrProfileNotFound
	}

	profile, err := s.directory.GetProfile(ctx, in.TargetID)
	if err != nil {
		return "", nil, fmt.Errorf("getting profile: %w", err)
	}
	if profile == nil {
		return "", nil, entity.ErrProfileNotFound
	}

	return profile.ID, nil, nil
}

// create inserts the conversation with the initiator in slot A.
// If the peer created it concurrently the pair index rejects the insert and the existing row is returned.
func (s *Service) create(ctx context.Context, userID, target string, listingID *string) (*entity.Conversation, error) {
	conv, err := s.convRepo.Create(ctx, &entity.Conversation{
		ParticipantA: userID,
		ParticipantB: target,
		ListingID:    listingID,
	})
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	if conv != nil {
		s.logger.Info("conversation created", "conversation_id", conv.ID, "listing_id", conv.OriginatingListing())
		return conv, nil
	}

	conv, err = s.convRepo.FindByPair(ctx, userID, target)
	if err != nil {
		return nil, fmt.Errorf("finding conversation after conflict: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("conversation for pair missing after conflict")
	}
	return conv, nil
}

// Conversation returns the conversation if userID participates in it
func (s *Service) Conversation(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	if userID == "" {
		return nil, entity.ErrUnauthenticated
	}
	if !validID(conversationID) {
		return nil, entity.ErrConversationNotFound
	}

	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	if conv == nil || !conv.HasParticipant(userID) {
		return nil, entity.ErrConversationNotFound
	}
	return conv, nil
}

// LoadMessages returns all messages of a conversation, oldest first
func (s *Service) LoadMessages(ctx context.Context, userID, conversationID string) ([]entity.Message, error) {
	if _, err := s.Conversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	messages, err := s.msgRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	if messages == nil {
		messages = []entity.Message{}
	}
	return messages, nil
}

// SendMessageInput represents input for sending a message
type SendMessageInput struct {
	UserID         string
	ConversationID string
	Text           string
	ListingID      *string
}

// SendMessage stores a message and publishes it on the conversation feed and both inboxes
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*entity.Message, error) {
	if in.UserID == "" {
		return nil, entity.ErrUnauthenticated
	}

	text, err := entity.NormalizeText(in.Text, s.maxLength)
	if err != nil {
		return nil, err
	}

	conv, err := s.Conversation(ctx, in.UserID, in.ConversationID)
	if err != nil {
		return nil, err
	}

	if in.ListingID != nil && *in.ListingID != "" && *in.ListingID != conv.OriginatingListing() {
		return nil, entity.ErrListingMismatch
	}

	// the store keeps the originating listing on the first message only
	var listingID *string
	if conv.ListingID != nil {
		id := *conv.ListingID
		listingID = &id
	}

	msg, err := s.msgRepo.Insert(ctx, &entity.Message{
		ConversationID: conv.ID,
		SenderID:       in.UserID,
		ReceiverID:     conv.OtherParticipant(in.UserID),
		Content:        text,
		ListingID:      listingID,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	if err := s.convRepo.Touch(ctx, conv.ID, msg.CreatedAt); err != nil {
		s.logger.Warn("failed to update conversation activity", "conversation_id", conv.ID, "error", err)
	}

	s.publishMessage(ctx, msg)

	return msg, nil
}

// publishMessage fans the message out; the message is already durable so failures are only logged
func (s *Service) publishMessage(ctx context.Context, msg *entity.Message) {
	if err := s.events.PublishMessage(ctx, realtime.MessageEvent{Message: *msg}); err != nil {
		s.logger.Warn("failed to publish message event", "message_id", msg.ID, "error", err)
	}

	evt := realtime.InboxEvent{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		SenderID:       msg.SenderID,
		ReceiverID:     msg.ReceiverID,
	}
	for _, userID := range []string{msg.ReceiverID, msg.SenderID} {
		if err := s.events.PublishInbox(ctx, userID, evt); err != nil {
			s.logger.Warn("failed to publish inbox event", "user_id", userID, "error", err)
		}
	}
}

// ListSummaries returns the user's visible conversations, most recently active first
func (s *Service) ListSummaries(ctx context.Context, userID string) ([]entity.Summary, error) {
	if userID == "" {
		return nil, entity.ErrUnauthenticated
	}

	summaries, err := s.summaries.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing summaries: %w", err)
	}
	if summaries == nil {
		return []entity.Summary{}, nil
	}

	if s.avatars != nil {
		for i := range summaries {
			url, err := s.avatars.AvatarURL(ctx, summaries[i].OtherAvatarKey)
			if err != nil {
				s.logger.Warn("failed to resolve avatar", "user_id", summaries[i].OtherParticipantID, "error", err)
				continue
			}
			summaries[i].OtherAvatarURL = url
		}
	}

	return summaries, nil
}

// HideConversation soft-deletes the conversation on the user's side only
func (s *Service) HideConversation(ctx context.Context, userID, conversationID string) error {
	conv, err := s.Conversation(ctx, userID, conversationID)
	if err != nil {
		return err
	}

	if err := s.convRepo.SetDeleted(ctx, conv.ID, conv.SlotOf(userID), true); err != nil {
		return fmt.Errorf("hiding conversation: %w", err)
	}

	// other sessions of the same user refresh their list
	evt := realtime.InboxEvent{ConversationID: conv.ID}
	if err := s.events.PublishInbox(ctx, userID, evt); err != nil {
		s.logger.Warn("failed to publish inbox event", "user_id", userID, "error", err)
	}

	return nil
}

// BroadcastTyping relays a typing signal for a conversation the user participates in
func (s *Service) BroadcastTyping(ctx context.Context, userID, conversationID string, isTyping bool) error {
	conv, err := s.Conversation(ctx, userID, conversationID)
	if err != nil {
		return err
	}

	return s.events.PublishTyping(ctx, realtime.TypingEvent{
		ConversationID: conv.ID,
		SenderID:       userID,
		IsTyping:       isTyping,
		SentAt:         s.now().UTC(),
	})
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
