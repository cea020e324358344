package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
	"github.com/vadim/tosembanda/internal/realtime"
)

// Bus is what an open conversation needs from the realtime platform
type Bus interface {
	realtime.Subscriber
	TypingPublisher
}

// ViewHooks receives view updates; nil hooks are ignored
type ViewHooks struct {
	OnEntries    func([]Entry)
	OnPeerTyping func(bool)
}

// View is an open conversation: its message list, composer and both live subscriptions
type View struct {
	Session  *Session
	Composer *Composer

	typing    *TypingSignaler
	watcher   *TypingWatcher
	msgSub    realtime.Subscription
	typingSub realtime.Subscription

	closeOnce sync.Once
	closeErr  error
}

// OpenView subscribes to the conversation feed and typing broadcast, then loads the history.
// If either subscription fails nothing stays subscribed. A failed load leaves the view open;
// Session.Load can be retried.
func OpenView(ctx context.Context, api MessageAPI, bus Bus, conv *entity.Conversation, selfID string, cfg Config, hooks ViewHooks) (*View, error) {
	cfg = cfg.withDefaults()
	if hooks.OnEntries == nil {
		hooks.OnEntries = func([]Entry) {}
	}
	if hooks.OnPeerTyping == nil {
		hooks.OnPeerTyping = func(bool) {}
	}

	typing := NewTypingSignaler(bus, conv.ID, selfID, cfg.TypingIdle, cfg.Notifier)
	session := NewSession(api, conv, selfID,
		WithNotifier(cfg.Notifier),
		WithRequestTimeout(cfg.RequestTimeout),
		WithMaxMessageLength(cfg.MaxMessageLength),
		WithTypingSignaler(typing),
		OnEntriesChange(hooks.OnEntries),
	)

	v := &View{
		Session:  session,
		Composer: NewComposer(session, typing),
		typing:   typing,
		watcher:  NewTypingWatcher(selfID, cfg.TypingExpiry, hooks.OnPeerTyping),
	}

	msgSub, err := bus.SubscribeMessages(ctx, conv.ID, session.HandleMessage)
	if err != nil {
		return nil, fmt.Errorf("subscribing to messages: %w", err)
	}

	typingSub, err := bus.SubscribeTyping(ctx, conv.ID, v.watcher.Handle)
	if err != nil {
		return nil, errors.Join(
			fmt.Errorf("subscribing to typing: %w", err),
			msgSub.Unsubscribe(),
		)
	}

	v.msgSub, v.typingSub = msgSub, typingSub

	// load errors are already reported through the notifier
	_ = session.Load(ctx)

	return v, nil
}

// PeerTyping reports whether the other participant is typing
func (v *View) PeerTyping() bool {
	return v.watcher.PeerTyping()
}

// Close releases both subscriptions. Later calls return the first result.
func (v *View) Close() error {
	v.closeOnce.Do(func() {
		v.typing.Reset()
		v.watcher.Stop()
		v.closeErr = errors.Join(
			v.msgSub.Unsubscribe(),
			v.typingSub.Unsubscribe(),
		)
	})
	return v.closeErr
}
