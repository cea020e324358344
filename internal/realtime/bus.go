package realtime

import (
	"context"
	"fmt"
)

// Subscription is a live handler registration; Unsubscribe is safe to call more than once
type Subscription interface {
	Unsubscribe() error
}

// Publisher publishes change-feed and broadcast events
type Publisher interface {
	PublishMessage(ctx context.Context, evt MessageEvent) error
	PublishTyping(ctx context.Context, evt TypingEvent) error
	PublishInbox(ctx context.Context, userID string, evt InboxEvent) error
	PublishNotification(ctx context.Context, evt NotificationEvent) error
}

// Subscriber subscribes to change-feed and broadcast events.
// Handlers run on the bus's delivery goroutine and must not block.
type Subscriber interface {
	SubscribeMessages(ctx context.Context, conversationID string, h func(MessageEvent)) (Subscription, error)
	SubscribeTyping(ctx context.Context, conversationID string, h func(TypingEvent)) (Subscription, error)
	SubscribeInbox(ctx context.Context, userID string, h func(InboxEvent)) (Subscription, error)
	SubscribeNotifications(ctx context.Context, userID string, h func(NotificationEvent)) (Subscription, error)
}

// Bus is both sides of the realtime platform
type Bus interface {
	Publisher
	Subscriber
	Close()
}

// Subjects builds subject names under a common prefix
type Subjects struct {
	Prefix string
}

func (s Subjects) Messages(conversationID string) string {
	return fmt.Sprintf("%s.messages.%s", s.Prefix, conversationID)
}

// MessagesWildcard matches every conversation feed
func (s Subjects) MessagesWildcard() string {
	return s.Prefix + ".messages.*"
}

func (s Subjects) Typing(conversationID string) string {
	return fmt.Sprintf("%s.typing.%s", s.Prefix, conversationID)
}

func (s Subjects) Inbox(userID string) string {
	return fmt.Sprintf("%s.inbox.%s", s.Prefix, userID)
}

func (s Subjects) Notifications(userID string) string {
	return fmt.Sprintf("%s.notifications.%s", s.Prefix, userID)
}
