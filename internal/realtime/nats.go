package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSConfig holds connection settings for the NATS bus
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	StreamName    string
	StreamMaxAge  time.Duration
	Name          string // connection name shown in NATS monitoring
}

// NATSBus carries the message feed on JetStream and the ephemeral
// broadcasts (typing, inbox, notifications) on core NATS subjects
type NATSBus struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	stream   string
	subjects Subjects
	logger   *slog.Logger
}

// NewNATSBus connects to NATS and makes sure the message stream exists
func NewNATSBus(ctx context.Context, cfg NATSConfig, logger *slog.Logger) (*NATSBus, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}

	b := &NATSBus{
		nc:       nc,
		js:       js,
		stream:   cfg.StreamName,
		subjects: Subjects{Prefix: cfg.SubjectPrefix},
		logger:   logger,
	}

	if err := b.ensureStream(ctx, cfg.StreamMaxAge); err != nil {
		nc.Close()
		return nil, err
	}

	return b, nil
}

func (b *NATSBus) ensureStream(ctx context.Context, maxAge time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := b.js.Stream(ctx, b.stream); err == nil {
		b.logger.Info("found message stream", "stream", b.stream)
		return nil
	}

	_, err := b.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        b.stream,
		Description: "Chat message inserts per conversation",
		Subjects:    []string{b.subjects.MessagesWildcard()},
		MaxAge:      maxAge,
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("creating stream %q: %w", b.stream, err)
	}
	b.logger.Info("created message stream", "stream", b.stream)
	return nil
}

// Ping reports whether the connection is usable
func (b *NATSBus) Ping() error {
	if !b.nc.IsConnected() {
		return fmt.Errorf("nats status %s", b.nc.Status())
	}
	return nil
}

// Close drains the connection
func (b *NATSBus) Close() {
	if err := b.nc.Drain(); err != nil {
		b.nc.Close()
	}
}

// PublishMessage appends a message event to the conversation's feed
func (b *NATSBus) PublishMessage(ctx context.Context, evt MessageEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshaling message event: %w", err)
	}

	subject := b.subjects.Messages(evt.Message.ConversationID)
	if _, err := b.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

func (b *NATSBus) PublishTyping(_ context.Context, evt TypingEvent) error {
	return b.publishCore(b.subjects.Typing(evt.ConversationID), evt)
}

func (b *NATSBus) PublishInbox(_ context.Context, userID string, evt InboxEvent) error {
	return b.publishCore(b.subjects.Inbox(userID), evt)
}

func (b *NATSBus) PublishNotification(_ context.Context, evt NotificationEvent) error {
	return b.publishCore(b.subjects.Notifications(evt.UserID), evt)
}

func (b *NATSBus) publishCore(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

// SubscribeMessages delivers inserts published after the subscription starts.
// History comes from the store, not from the stream.
func (b *NATSBus) SubscribeMessages(ctx context.Context, conversationID string, h func(MessageEvent)) (Subscription, error) {
	subject := b.subjects.Messages(conversationID)

	cons, err := b.js.OrderedConsumer(ctx, b.stream, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{subject},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("creating consumer for %s: %w", subject, err)
	}

	consumeCtx, err := cons.Consume(func(msg jetstream.Msg) {
		var evt MessageEvent
		if err := json.Unmarshal(msg.Data(), &evt); err != nil {
			b.logger.Warn("dropping malformed message event", "subject", msg.Subject(), "error", err)
			return
		}
		h(evt)
	})
	if err != nil {
		return nil, fmt.Errorf("consuming %s: %w", subject, err)
	}

	return &onceSubscription{stop: func() error {
		consumeCtx.Stop()
		return nil
	}}, nil
}

func (b *NATSBus) SubscribeTyping(_ context.Context, conversationID string, h func(TypingEvent)) (Subscription, error) {
	return subscribeCore(b, b.subjects.Typing(conversationID), h)
}

func (b *NATSBus) SubscribeInbox(_ context.Context, userID string, h func(InboxEvent)) (Subscription, error) {
	return subscribeCore(b, b.subjects.Inbox(userID), h)
}

func (b *NATSBus) SubscribeNotifications(_ context.Context, userID string, h func(NotificationEvent)) (Subscription, error) {
	return subscribeCore(b, b.subjects.Notifications(userID), h)
}

func subscribeCore[T any](b *NATSBus, subject string, h func(T)) (Subscription, error) {
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		var evt T
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			b.logger.Warn("dropping malformed event", "subject", msg.Subject, "error", err)
			return
		}
		h(evt)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}

	return &onceSubscription{stop: sub.Unsubscribe}, nil
}

// onceSubscription makes Unsubscribe idempotent
type onceSubscription struct {
	once sync.Once
	stop func() error
	err  error
}

func (s *onceSubscription) Unsubscribe() error {
	s.once.Do(func() {
		s.err = s.stop()
	})
	return s.err
}
