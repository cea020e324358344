package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/tosembanda/internal/apperr"
	"github.com/vadim/tosembanda/internal/domain/chat/entity"
	"github.com/vadim/tosembanda/internal/realtime"
)

func summaries(ids ...string) []entity.Summary {
	out := make([]entity.Summary, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.Summary{ConversationID: id})
	}
	return out
}

func summaryIDs(list []entity.Summary) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ConversationID)
	}
	return out
}

func TestInbox_RefreshesOnInboxEvent(t *testing.T) {
	ctx := context.Background()
	bus := realtime.NewMemoryBus()
	api := &fakeAPI{list: summaries("c1")}

	inbox := NewInbox(api, "alice", nil, time.Second)
	require.NoError(t, inbox.Refresh(ctx))
	require.NoError(t, inbox.Watch(ctx, bus))
	defer inbox.Close()

	api.setList(summaries("c2", "c1"))
	require.NoError(t, bus.PublishInbox(ctx, "bob", realtime.InboxEvent{ConversationID: "c9"}))
	require.NoError(t, bus.PublishInbox(ctx, "alice", realtime.InboxEvent{ConversationID: "c2"}))

	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"c2", "c1"}, summaryIDs(inbox.Summaries()))
	}, time.Second, 5*time.Millisecond)
}

func TestInbox_RefreshFailureIsLoadError(t *testing.T) {
	api := &fakeAPI{listErr: errBoom}
	inbox := NewInbox(api, "alice", nil, time.Second)

	err := inbox.Refresh(context.Background())
	assert.Equal(t, apperr.KindLoad, apperr.KindOf(err))
}

func TestInbox_HideRemovesRowOptimistically(t *testing.T) {
	api := &fakeAPI{list: summaries("c1", "c2")}
	inbox := NewInbox(api, "alice", nil, time.Second)
	require.NoError(t, inbox.Refresh(context.Background()))

	require.NoError(t, inbox.Hide(context.Background(), "c1"))
	assert.Equal(t, []string{"c2"}, summaryIDs(inbox.Summaries()))
	assert.Equal(t, []string{"c1"}, api.hidden)
}

func TestInbox_HideFailureRestoresRow(t *testing.T) {
	api := &fakeAPI{list: summaries("c1", "c2"), hideErr: errBoom}
	notifier := &recordingNotifier{}
	inbox := NewInbox(api, "alice", notifier, time.Second)
	require.NoError(t, inbox.Refresh(context.Background()))

	var seen [][]string
	inbox.OnChange(func(list []entity.Summary) { seen = append(seen, summaryIDs(list)) })

	err := inbox.Hide(context.Background(), "c1")
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, [][]string{{"c2"}, {"c1", "c2"}}, seen)
	assert.Equal(t, []string{"c1", "c2"}, summaryIDs(inbox.Summaries()))
	assert.Len(t, notifier.errors(), 1)
}

func TestInbox_HideDiscardsOlderRefresh(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{list: summaries("c1", "c2")}
	inbox := NewInbox(api, "alice", nil, time.Second)
	require.NoError(t, inbox.Refresh(ctx))

	started, release := make(chan struct{}), make(chan struct{})
	api.setListHook(func() {
		close(started)
		<-release
	})

	done := make(chan error, 1)
	go func() { done <- inbox.Refresh(ctx) }()
	<-started
	api.setListHook(nil)

	require.NoError(t, inbox.Hide(ctx, "c1"))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []string{"c2"}, summaryIDs(inbox.Summaries()))
}

func TestInbox_CloseStopsWatching(t *testing.T) {
	ctx := context.Background()
	bus := realtime.NewMemoryBus()
	api := &fakeAPI{}
	inbox := NewInbox(api, "alice", nil, time.Second)

	require.NoError(t, inbox.Watch(ctx, bus))
	require.Error(t, inbox.Watch(ctx, bus))
	require.NoError(t, inbox.Close())
	require.NoError(t, inbox.Close())

	require.NoError(t, bus.PublishInbox(ctx, "alice", realtime.InboxEvent{ConversationID: "c1"}))
	assert.Equal(t, 0, api.listCalls())
	assert.Equal(t, 0, bus.SubscriberCount(bus.Subjects().Inbox("alice")))
}
