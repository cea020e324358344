package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
)

// Config holds the client's timing and limits
type Config struct {
	RequestTimeout   time.Duration
	TypingIdle       time.Duration
	TypingExpiry     time.Duration
	MaxMessageLength int
	Notifier         Notifier
}

func (c Config) withDefaults() Config {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.TypingIdle <= 0 {
		c.TypingIdle = 2 * time.Second
	}
	if c.TypingExpiry < 0 {
		c.TypingExpiry = 0
	}
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = entity.MaxMessageLength
	}
	if c.Notifier == nil {
		c.Notifier = LogNotifier(slog.Default())
	}
	return c
}

// API is the whole chat API as seen by the client
type API interface {
	MessageAPI
	InboxAPI
	NotificationAPI
	Me(ctx context.Context) (string, error)
	Resolve(ctx context.Context, targetID, listingID string) (*entity.Conversation, error)
}

// ErrNotStarted is returned when the client is used before Start or after Close
var ErrNotStarted = errors.New("chat client is not started")

// Client holds the signed-in user's state: identity, conversation list and unread count.
// Start fetches it and Close clears it.
type Client struct {
	api API
	bus Bus
	cfg Config

	mu            sync.Mutex
	userID        string
	inbox         *Inbox
	notifications *Notifications
}

// New creates a client; call Start before use
func New(api API, bus Bus, cfg Config) *Client {
	return &Client{api: api, bus: bus, cfg: cfg.withDefaults()}
}

// Start resolves the user and begins watching their conversation list and notifications.
// Failing initial fetches are reported but do not prevent the start.
func (c *Client) Start(ctx context.Context) error {
	meCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	userID, err := c.api.Me(meCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("fetching session: %w", err)
	}

	inbox := NewInbox(c.api, userID, c.cfg.Notifier, c.cfg.RequestTimeout)
	if err := inbox.Watch(ctx, c.bus); err != nil {
		return fmt.Errorf("watching inbox: %w", err)
	}
	if err := inbox.Refresh(ctx); err != nil {
		c.cfg.Notifier.Notify(err)
	}

	notifications := NewNotifications(c.api, userID, c.cfg.Notifier, c.cfg.RequestTimeout)
	if err := notifications.Watch(ctx, c.bus); err != nil {
		return errors.Join(fmt.Errorf("watching notifications: %w", err), inbox.Close())
	}
	if err := notifications.Refresh(ctx); err != nil {
		c.cfg.Notifier.Notify(err)
	}

	c.mu.Lock()
	c.userID, c.inbox, c.notifications = userID, inbox, notifications
	c.mu.Unlock()
	return nil
}

// UserID returns the signed-in user's id, empty before Start
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Inbox returns the conversation list, nil before Start
func (c *Client) Inbox() *Inbox {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inbox
}

// Notifications returns the unread counter, nil before Start
func (c *Client) Notifications() *Notifications {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notifications
}

// Open resolves the conversation with a profile or a listing's owner and opens it
func (c *Client) Open(ctx context.Context, targetID, listingID string, hooks ViewHooks) (*View, error) {
	userID := c.UserID()
	if userID == "" {
		return nil, ErrNotStarted
	}

	resolveCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	conv, err := c.api.Resolve(resolveCtx, targetID, listingID)
	cancel()
	if err != nil {
		return nil, err
	}

	return OpenView(ctx, c.api, c.bus, conv, userID, c.cfg, hooks)
}

// Close stops watching and forgets the user
func (c *Client) Close() error {
	c.mu.Lock()
	inbox, notifications := c.inbox, c.notifications
	c.userID, c.inbox, c.notifications = "", nil, nil
	c.mu.Unlock()

	var errs []error
	if inbox != nil {
		errs = append(errs, inbox.Close())
	}
	if notifications != nil {
		errs = append(errs, notifications.Close())
	}
	return errors.Join(errs...)
}
