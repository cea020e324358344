package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
	"github.com/vadim/tosembanda/internal/realtime"
)

func testConfig() Config {
	return Config{
		RequestTimeout: time.Second,
		TypingIdle:     time.Hour,
		TypingExpiry:   time.Hour,
		Notifier:       &recordingNotifier{},
	}
}

func TestOpenView_LiveMessagesAndTyping(t *testing.T) {
	ctx := context.Background()
	bus := realtime.NewMemoryBus()
	api := &fakeAPI{me: "alice", history: []entity.Message{peerMessage("m1", "um")}}
	conv := testConversation(nil)

	var peerTyping []bool
	v, err := OpenView(ctx, api, bus, conv, "alice", testConfig(), ViewHooks{
		OnPeerTyping: func(b bool) { peerTyping = append(peerTyping, b) },
	})
	require.NoError(t, err)
	defer v.Close()

	require.NoError(t, bus.PublishMessage(ctx, realtime.MessageEvent{Message: peerMessage("m2", "dois")}))
	require.NoError(t, bus.PublishTyping(ctx, realtime.TypingEvent{ConversationID: conv.ID, SenderID: "bob", IsTyping: true}))

	assert.Equal(t, []string{"um", "dois"}, contents(v.Session.Entries()))
	assert.True(t, v.PeerTyping())
	assert.Equal(t, []bool{true}, peerTyping)

	// our own broadcast reaches the bus but not our watcher
	v.Composer.Type("o")
	assert.Equal(t, []bool{true}, peerTyping)
}

func TestOpenView_CloseReleasesBothOnce(t *testing.T) {
	ctx := context.Background()
	bus := realtime.NewMemoryBus()
	conv := testConversation(nil)
	subjects := bus.Subjects()

	v, err := OpenView(ctx, &fakeAPI{me: "alice"}, bus, conv, "alice", testConfig(), ViewHooks{})
	require.NoError(t, err)
	assert.Equal(t, 1, bus.SubscriberCount(subjects.Messages(conv.ID)))
	assert.Equal(t, 1, bus.SubscriberCount(subjects.Typing(conv.ID)))

	require.NoError(t, v.Close())
	require.NoError(t, v.Close())
	assert.Equal(t, 0, bus.SubscriberCount(subjects.Messages(conv.ID)))
	assert.Equal(t, 0, bus.SubscriberCount(subjects.Typing(conv.ID)))
}

func TestOpenView_TypingSubscriptionFailureReleasesFeed(t *testing.T) {
	bus := &flakyBus{MemoryBus: realtime.NewMemoryBus(), failTyping: true}
	conv := testConversation(nil)

	_, err := OpenView(context.Background(), &fakeAPI{me: "alice"}, bus, conv, "alice", testConfig(), ViewHooks{})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, bus.SubscriberCount(bus.Subjects().Messages(conv.ID)))
}

func TestOpenView_LoadFailureKeepsViewOpen(t *testing.T) {
	cfg := testConfig()
	notifier := cfg.Notifier.(*recordingNotifier)
	bus := realtime.NewMemoryBus()

	v, err := OpenView(context.Background(), &fakeAPI{me: "alice", loadErr: errBoom}, bus, testConversation(nil), "alice", cfg, ViewHooks{})
	require.NoError(t, err)
	defer v.Close()

	assert.Len(t, notifier.errors(), 1)
}

func TestOpenView_CloseBroadcastsTypingStop(t *testing.T) {
	ctx := context.Background()
	bus := realtime.NewMemoryBus()
	conv := testConversation(nil)

	var seen []bool
	sub, err := bus.SubscribeTyping(ctx, conv.ID, func(evt realtime.TypingEvent) { seen = append(seen, evt.IsTyping) })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	v, err := OpenView(ctx, &fakeAPI{me: "alice"}, bus, conv, "alice", testConfig(), ViewHooks{})
	require.NoError(t, err)

	v.Composer.Type("digitando")
	require.NoError(t, v.Close())
	assert.Equal(t, []bool{true, false}, seen)
}
