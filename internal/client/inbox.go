package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vadim/tosembanda/internal/apperr"
	"github.com/vadim/tosembanda/internal/domain/chat/entity"
	"github.com/vadim/tosembanda/internal/realtime"
)

// InboxAPI is the part of the chat API the conversation list calls
type InboxAPI interface {
	ListConversations(ctx context.Context) ([]entity.Summary, error)
	HideConversation(ctx context.Context, conversationID string) error
}

// Inbox is the user's conversation list, refreshed wholesale whenever a conversation changes
type Inbox struct {
	mu        sync.Mutex
	api       InboxAPI
	userID    string
	notifier  Notifier
	timeout   time.Duration
	summaries []entity.Summary
	applied   uint64
	issued    uint64
	onChange  func([]entity.Summary)

	sub    realtime.Subscription
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewInbox creates an empty conversation list for userID
func NewInbox(api InboxAPI, userID string, notifier Notifier, timeout time.Duration) *Inbox {
	if notifier == nil {
		notifier = LogNotifier(nil)
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Inbox{
		api:      api,
		userID:   userID,
		notifier: notifier,
		timeout:  timeout,
		onChange: func([]entity.Summary) {},
	}
}

// OnChange registers a callback receiving the list after every change
func (i *Inbox) OnChange(fn func([]entity.Summary)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.onChange = fn
}

// Summaries returns a snapshot of the list
func (i *Inbox) Summaries() []entity.Summary {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]entity.Summary(nil), i.summaries...)
}

// Refresh re-fetches the whole list. A response older than the last applied change is discarded.
func (i *Inbox) Refresh(ctx context.Context) error {
	i.mu.Lock()
	i.issued++
	seq := i.issued
	i.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	summaries, err := i.api.ListConversations(ctx)
	if err != nil {
		return apperr.Classify(apperr.KindLoad, "failed to load conversations", err)
	}

	i.mu.Lock()
	if seq <= i.applied {
		i.mu.Unlock()
		return nil
	}
	i.applied = seq
	i.summaries = summaries
	snapshot, onChange := append([]entity.Summary(nil), summaries...), i.onChange
	i.mu.Unlock()

	onChange(snapshot)
	return nil
}

// Watch refreshes the list on every inbox event of the user until Close
func (i *Inbox) Watch(ctx context.Context, sub realtime.Subscriber) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.sub != nil {
		return errors.New("inbox is already watching")
	}

	i.ctx, i.cancel = context.WithCancel(context.Background())
	s, err := sub.SubscribeInbox(ctx, i.userID, func(realtime.InboxEvent) {
		i.refreshInBackground()
	})
	if err != nil {
		i.cancel()
		return err
	}
	i.sub = s
	return nil
}

// Hide removes a conversation from the list at once, then asks the server.
// On failure the list is re-fetched so the row comes back.
func (i *Inbox) Hide(ctx context.Context, conversationID string) error {
	i.mu.Lock()
	kept := make([]entity.Summary, 0, len(i.summaries))
	for _, s := range i.summaries {
		if s.ConversationID != conversationID {
			kept = append(kept, s)
		}
	}
	i.summaries = kept
	// refreshes issued before the hide may still list the row
	i.applied = i.issued
	snapshot, onChange := append([]entity.Summary(nil), kept...), i.onChange
	i.mu.Unlock()

	onChange(snapshot)

	hideCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	if err := i.api.HideConversation(hideCtx, conversationID); err != nil {
		err = apperr.Classify(apperr.KindInternal, "failed to delete conversation", err)
		i.notifier.Notify(err)
		if rerr := i.Refresh(ctx); rerr != nil {
			i.notifier.Notify(rerr)
		}
		return err
	}
	return nil
}

// Close stops watching and waits for in-flight refreshes
func (i *Inbox) Close() error {
	i.mu.Lock()
	sub := i.sub
	if sub != nil {
		i.cancel()
	}
	i.sub = nil
	i.mu.Unlock()

	if sub == nil {
		return nil
	}
	err := sub.Unsubscribe()
	i.wg.Wait()
	return err
}

func (i *Inbox) refreshInBackground() {
	i.mu.Lock()
	ctx := i.ctx
	if ctx == nil || ctx.Err() != nil {
		i.mu.Unlock()
		return
	}
	i.wg.Add(1)
	i.mu.Unlock()

	go func() {
		defer i.wg.Done()
		if err := i.Refresh(ctx); err != nil && ctx.Err() == nil {
			i.notifier.Notify(err)
		}
	}()
}
