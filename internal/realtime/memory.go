package realtime

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus used when no NATS URL is configured
// and in tests. Handlers run synchronously on the publishing goroutine.
type MemoryBus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string]map[uint64]func(any)
	subjects Subjects
}

// NewMemoryBus creates an empty in-process bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[string]map[uint64]func(any)),
		subjects: Subjects{Prefix: "chat"},
	}
}

func (b *MemoryBus) PublishMessage(_ context.Context, evt MessageEvent) error {
	b.publish(b.subjects.Messages(evt.Message.ConversationID), evt)
	return nil
}

func (b *MemoryBus) PublishTyping(_ context.Context, evt TypingEvent) error {
	b.publish(b.subjects.Typing(evt.ConversationID), evt)
	return nil
}

func (b *MemoryBus) PublishInbox(_ context.Context, userID string, evt InboxEvent) error {
	b.publish(b.subjects.Inbox(userID), evt)
	return nil
}

func (b *MemoryBus) PublishNotification(_ context.Context, evt NotificationEvent) error {
	b.publish(b.subjects.Notifications(evt.UserID), evt)
	return nil
}

func (b *MemoryBus) SubscribeMessages(_ context.Context, conversationID string, h func(MessageEvent)) (Subscription, error) {
	return subscribeMemory(b, b.subjects.Messages(conversationID), h), nil
}

func (b *MemoryBus) SubscribeTyping(_ context.Context, conversationID string, h func(TypingEvent)) (Subscription, error) {
	return subscribeMemory(b, b.subjects.Typing(conversationID), h), nil
}

func (b *MemoryBus) SubscribeInbox(_ context.Context, userID string, h func(InboxEvent)) (Subscription, error) {
	return subscribeMemory(b, b.subjects.Inbox(userID), h), nil
}

func (b *MemoryBus) SubscribeNotifications(_ context.Context, userID string, h func(NotificationEvent)) (Subscription, error) {
	return subscribeMemory(b, b.subjects.Notifications(userID), h), nil
}

// Ping always succeeds
func (b *MemoryBus) Ping() error { return nil }

// Close drops every subscriber
func (b *MemoryBus) Close() {
	b.mu.Lock()
	b.handlers = make(map[string]map[uint64]func(any))
	b.mu.Unlock()
}

// SubscriberCount reports active subscriptions on a subject
func (b *MemoryBus) SubscriberCount(subject string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[subject])
}

// Subjects returns the subject naming used by the bus
func (b *MemoryBus) Subjects() Subjects { return b.subjects }

func (b *MemoryBus) publish(subject string, evt any) {
	b.mu.RLock()
	hs := make([]func(any), 0, len(b.handlers[subject]))
	for _, h := range b.handlers[subject] {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(evt)
	}
}

func subscribeMemory[T any](b *MemoryBus, subject string, h func(T)) Subscription {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.handlers[subject] == nil {
		b.handlers[subject] = make(map[uint64]func(any))
	}
	b.handlers[subject][id] = func(v any) {
		if evt, ok := v.(T); ok {
			h(evt)
		}
	}
	b.mu.Unlock()

	return &onceSubscription{stop: func() error {
		b.mu.Lock()
		delete(b.handlers[subject], id)
		if len(b.handlers[subject]) == 0 {
			delete(b.handlers, subject)
		}
		b.mu.Unlock()
		return nil
	}}
}
