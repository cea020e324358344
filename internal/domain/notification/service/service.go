package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	chatentity "github.com/vadim/tosembanda/internal/domain/chat/entity"
	"github.com/vadim/tosembanda/internal/domain/notification/entity"
	"github.com/vadim/tosembanda/internal/realtime"
)

const defaultListLimit = 50

// Repository defines the interface for notification storage
type Repository interface {
	Create(ctx context.Context, n *entity.Notification) (*entity.Notification, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]entity.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ProfileDirectory looks up profiles
type ProfileDirectory interface {
	GetProfile(ctx context.Context, id string) (*chatentity.Profile, error)
}

// EventPublisher publishes notification events
type EventPublisher interface {
	PublishNotification(ctx context.Context, evt realtime.NotificationEvent) error
}

// Service handles notification business logic
type Service struct {
	repo      Repository
	profiles  ProfileDirectory
	events    EventPublisher
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a new notification service; read notifications older than retention are pruned
func New(repo Repository, profiles ProfileDirectory, events EventPublisher, retention time.Duration, logger *slog.Logger) *Service {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &Service{
		repo:      repo,
		profiles:  profiles,
		events:    events,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordProfileView notifies ownerID that visitorID viewed their profile.
// Viewing one's own profile records nothing and returns nil.
func (s *Service) RecordProfileView(ctx context.Context, visitorID, ownerID string) (*entity.Notification, error) {
	if visitorID == "" {
		return nil, entity.ErrUnauthenticated
	}
	if visitorID == ownerID {
		return nil, nil
	}
	if _, err := uuid.Parse(ownerID); err != nil {
		return nil, entity.ErrProfileNotFound
	}

	owner, err := s.profiles.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("getting owner profile: %w", err)
	}
	if owner == nil {
		return nil, entity.ErrProfileNotFound
	}

	var visitorName string
	visitor, err := s.profiles.GetProfile(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("getting visitor profile: %w", err)
	}
	if visitor != nil {
		visitorName = visitor.DisplayName("")
	}

	n, err := s.repo.Create(ctx, &entity.Notification{
		UserID:   ownerID,
		Type:     entity.TypeProfileView,
		Message:  entity.ProfileViewMessage(visitorName),
		Metadata: map[string]string{"visitor_id": visitorID},
	})
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}

	evt := realtime.NotificationEvent{NotificationID: n.ID, UserID: n.UserID, Type: n.Type}
	if err := s.events.PublishNotification(ctx, evt); err != nil {
		s.logger.Warn("failed to publish notification event", "notification_id", n.ID, "error", err)
	}

	return n, nil
}

// List returns the user's most recent notifications
func (s *Service) List(ctx context.Context, userID string, limit int) ([]entity.Notification, error) {
	if userID == "" {
		return nil, entity.ErrUnauthenticated
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	notifications, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	if notifications == nil {
		notifications = []entity.Notification{}
	}
	return notifications, nil
}

// UnreadCount returns how many notifications the user has not read
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, entity.ErrUnauthenticated
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("counting unread: %w", err)
	}
	return count, nil
}

// MarkAllRead marks all of the user's notifications as read
func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	if userID == "" {
		return entity.ErrUnauthenticated
	}

	if _, err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("marking all read: %w", err)
	}
	return nil
}

// MarkRead marks one notification as read; only its owner may do so
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	if userID == "" {
		return entity.ErrUnauthenticated
	}
	if _, err := uuid.Parse(notificationID); err != nil {
		return entity.ErrNotificationNotFound
	}

	if err := s.repo.MarkRead(ctx, userID, notificationID); err != nil {
		return err
	}
	return nil
}

// PruneReadNotifications deletes read notifications past the retention window
func (s *Service) PruneReadNotifications(ctx context.Context) error {
	cutoff := s.now().Add(-s.retention)

	deleted, err := s.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("pruning notifications: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("pruned read notifications", "deleted", deleted, "cutoff", cutoff)
	}
	return nil
}
