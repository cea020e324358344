package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
	"github.com/vadim/tosembanda/internal/realtime"
)

var errBoom = errors.New("boom")

type fakeAPI struct {
	mu       sync.Mutex
	me       string
	conv     *entity.Conversation
	history  []entity.Message
	sent     []sentMessage
	seq      int
	sendErr  error
	loadErr  error
	onSend   func()
	onLoad   func()
	list     []entity.Summary
	onList   func()
	listErr  error
	hideErr  error
	hidden   []string
	listed   int
	unread   int64
	markErr  error
	markedID []string
}

type sentMessage struct {
	Text      string
	ListingID *string
}

func (f *fakeAPI) Me(context.Context) (string, error) {
	return f.me, nil
}

func (f *fakeAPI) Resolve(context.Context, string, string) (*entity.Conversation, error) {
	return f.conv, nil
}

func (f *fakeAPI) LoadMessages(context.Context, string) ([]entity.Message, error) {
	if f.onLoad != nil {
		f.onLoad()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]entity.Message(nil), f.history...), nil
}

func (f *fakeAPI) SendMessage(_ context.Context, conversationID, text string, listingID *string) (*entity.Message, error) {
	if f.onSend != nil {
		f.onSend()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{Text: text, ListingID: listingID})
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.seq++
	return &entity.Message{
		ID:             fmt.Sprintf("srv-%d", f.seq),
		ConversationID: conversationID,
		SenderID:       f.me,
		Content:        text,
		ListingID:      listingID,
		CreatedAt:      time.Date(2025, 3, 1, 12, 0, f.seq, 0, time.UTC),
	}, nil
}

func (f *fakeAPI) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeAPI) ListConversations(context.Context) ([]entity.Summary, error) {
	f.mu.Lock()
	hook := f.onList
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]entity.Summary(nil), f.list...), nil
}

func (f *fakeAPI) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listed
}

func (f *fakeAPI) setListHook(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onList = fn
}

func (f *fakeAPI) setList(list []entity.Summary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = list
}

func (f *fakeAPI) HideConversation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hidden = append(f.hidden, id)
	return f.hideErr
}

func (f *fakeAPI) UnreadCount(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread, nil
}

func (f *fakeAPI) MarkAllRead(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr == nil {
		f.unread = 0
	}
	return f.markErr
}

func (f *fakeAPI) MarkRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedID = append(f.markedID, id)
	if f.markErr == nil && f.unread > 0 {
		f.unread--
	}
	return f.markErr
}

// recordingPublisher records typing broadcasts
type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.TypingEvent
}

func (p *recordingPublisher) PublishTyping(_ context.Context, evt realtime.TypingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) states() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]bool, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.IsTyping)
	}
	return out
}

// recordingNotifier collects reported errors
type recordingNotifier struct {
	mu   sync.Mutex
	errs []error
}

func (n *recordingNotifier) Notify(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
}

func (n *recordingNotifier) errors() []error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]error(nil), n.errs...)
}

// flakyBus fails typing subscriptions on demand
type flakyBus struct {
	*realtime.MemoryBus
	failTyping bool
}

func (b *flakyBus) SubscribeTyping(ctx context.Context, conversationID string, h func(realtime.TypingEvent)) (realtime.Subscription, error) {
	if b.failTyping {
		return nil, errBoom
	}
	return b.MemoryBus.SubscribeTyping(ctx, conversationID, h)
}

func testConversation(listingID *string) *entity.Conversation {
	return &entity.Conversation{
		ID:           "conv-1",
		ParticipantA: "alice",
		ParticipantB: "bob",
		ListingID:    listingID,
	}
}

func peerMessage(id, text string) entity.Message {
	return entity.Message{
		ID:             id,
		ConversationID: "conv-1",
		SenderID:       "bob",
		ReceiverID:     "alice",
		Content:        text,
	}
}

func contents(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Message.Content)
	}
	return out
}

func strPtr(s string) *string { return &s }
