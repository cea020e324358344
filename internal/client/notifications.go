package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vadim/tosembanda/internal/apperr"
	"github.com/vadim/tosembanda/internal/realtime"
)

// NotificationAPI is the part of the chat API the unread counter calls
type NotificationAPI interface {
	UnreadCount(ctx context.Context) (int64, error)
	MarkAllRead(ctx context.Context) error
	MarkRead(ctx context.Context, notificationID string) error
}

// Notifications keeps the user's unread notification count
type Notifications struct {
	mu       sync.Mutex
	api      NotificationAPI
	userID   string
	notifier Notifier
	timeout  time.Duration
	unread   int64
	onChange func(int64)
	sub      realtime.Subscription
}

// NewNotifications creates a zero counter for userID
func NewNotifications(api NotificationAPI, userID string, notifier Notifier, timeout time.Duration) *Notifications {
	if notifier == nil {
		notifier = LogNotifier(nil)
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Notifications{
		api:      api,
		userID:   userID,
		notifier: notifier,
		timeout:  timeout,
		onChange: func(int64) {},
	}
}

// OnChange registers a callback receiving the count after every change
func (n *Notifications) OnChange(fn func(int64)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = fn
}

// Unread returns the current count
func (n *Notifications) Unread() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.unread
}

// Refresh fetches the authoritative count
func (n *Notifications) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	count, err := n.api.UnreadCount(ctx)
	if err != nil {
		return apperr.Classify(apperr.KindLoad, "failed to load notifications", err)
	}
	n.set(func(int64) int64 { return count })
	return nil
}

// Watch increments the count for every notification event of the user until Close
func (n *Notifications) Watch(ctx context.Context, sub realtime.Subscriber) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sub != nil {
		return errors.New("notifications are already watched")
	}

	s, err := sub.SubscribeNotifications(ctx, n.userID, func(realtime.NotificationEvent) {
		n.set(func(c int64) int64 { return c + 1 })
	})
	if err != nil {
		return err
	}
	n.sub = s
	return nil
}

// MarkAllRead zeroes the count at once; on failure the count is re-fetched
func (n *Notifications) MarkAllRead(ctx context.Context) error {
	n.set(func(int64) int64 { return 0 })

	return n.confirm(ctx, "failed to mark notifications as read", n.api.MarkAllRead)
}

// MarkRead decrements the count at once; on failure the count is re-fetched
func (n *Notifications) MarkRead(ctx context.Context, notificationID string) error {
	n.set(func(c int64) int64 {
		if c <= 0 {
			return 0
		}
		return c - 1
	})

	return n.confirm(ctx, "failed to mark notification as read", func(ctx context.Context) error {
		return n.api.MarkRead(ctx, notificationID)
	})
}

// Close stops watching
func (n *Notifications) Close() error {
	n.mu.Lock()
	sub := n.sub
	n.sub = nil
	n.mu.Unlock()

	if sub == nil {
		return nil
	}
	return sub.Unsubscribe()
}

func (n *Notifications) confirm(ctx context.Context, message string, call func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := call(callCtx); err != nil {
		err = apperr.Classify(apperr.KindInternal, message, err)
		n.notifier.Notify(err)
		if rerr := n.Refresh(ctx); rerr != nil {
			n.notifier.Notify(rerr)
		}
		return err
	}
	return nil
}

func (n *Notifications) set(fn func(int64) int64) {
	n.mu.Lock()
	n.unread = fn(n.unread)
	count, onChange := n.unread, n.onChange
	n.mu.Unlock()

	onChange(count)
}
