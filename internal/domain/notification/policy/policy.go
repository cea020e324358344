package policy

import (
	"context"
	"time"

	"github.com/vadim/tosembanda/internal/apperr"
	"github.com/vadim/tosembanda/internal/auth"
	"github.com/vadim/tosembanda/internal/domain/notification/entity"
)

// NotificationService defines the interface for the notification service
type NotificationService interface {
	RecordProfileView(ctx context.Context, visitorID, ownerID string) (*entity.Notification, error)
	List(ctx context.Context, userID string, limit int) ([]entity.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAllRead(ctx context.Context, userID string) error
	MarkRead(ctx context.Context, userID, notificationID string) error
}

// Policy binds notification operations to the authenticated caller
type Policy struct {
	svc     NotificationService
	timeout time.Duration
}

// New creates a new notification policy
func New(svc NotificationService, timeout time.Duration) *Policy {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Policy{svc: svc, timeout: timeout}
}

func (p *Policy) caller(ctx context.Context) (string, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return "", entity.ErrUnauthenticated
	}
	return id.UserID, nil
}

// RecordProfileView records that the caller viewed ownerID's profile
func (p *Policy) RecordProfileView(ctx context.Context, ownerID string) (*entity.Notification, error) {
	userID, err := p.caller(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	n, err := p.svc.RecordProfileView(ctx, userID, ownerID)
	if err != nil {
		return nil, apperr.Classify(apperr.KindSend, "failed to record profile view", err)
	}
	return n, nil
}

// List returns the caller's notifications
func (p *Policy) List(ctx context.Context, limit int) ([]entity.Notification, error) {
	userID, err := p.caller(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	list, err := p.svc.List(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Classify(apperr.KindLoad, "failed to load notifications", err)
	}
	return list, nil
}

// UnreadCount returns the caller's unread count
func (p *Policy) UnreadCount(ctx context.Context) (int64, error) {
	userID, err := p.caller(ctx)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	count, err := p.svc.UnreadCount(ctx, userID)
	if err != nil {
		return 0, apperr.Classify(apperr.KindLoad, "failed to load unread count", err)
	}
	return count, nil
}

// MarkAllRead marks all of the caller's notifications as read
func (p *Policy) MarkAllRead(ctx context.Context) error {
	userID, err := p.caller(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return apperr.Classify(apperr.KindInternal, "failed to mark notifications read", p.svc.MarkAllRead(ctx, userID))
}

// MarkRead marks one of the caller's notifications as read
func (p *Policy) MarkRead(ctx context.Context, notificationID string) error {
	userID, err := p.caller(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return apperr.Classify(apperr.KindInternal, "failed to mark notification read", p.svc.MarkRead(ctx, userID, notificationID))
}
