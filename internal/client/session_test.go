package client

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/tosembanda/internal/apperr"
	"github.com/vadim/tosembanda/internal/domain/chat/entity"
	"github.com/vadim/tosembanda/internal/realtime"
)

func newTestSession(api *fakeAPI, conv *entity.Conversation, opts ...SessionOption) (*Session, *recordingPublisher, *recordingNotifier) {
	pub := &recordingPublisher{}
	notifier := &recordingNotifier{}
	typing := NewTypingSignaler(pub, conv.ID, "alice", time.Hour, notifier)
	opts = append([]SessionOption{WithNotifier(notifier), WithTypingSignaler(typing)}, opts...)
	return NewSession(api, conv, "alice", opts...), pub, notifier
}

func TestSession_SendWhitespaceIsNoop(t *testing.T) {
	api := &fakeAPI{me: "alice"}
	s, pub, _ := newTestSession(api, testConversation(nil))

	msg, err := s.Send(context.Background(), "  \n\t ")
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Empty(t, api.sentMessages())
	assert.Empty(t, pub.states(), "no typing signal")
	assert.Empty(t, s.Entries())
}

func TestSession_SendShowsPendingThenConfirmsInPlace(t *testing.T) {
	api := &fakeAPI{me: "alice"}
	s, pub, _ := newTestSession(api, testConversation(nil))

	var inFlight []Entry
	api.onSend = func() { inFlight = s.Entries() }

	msg, err := s.Send(context.Background(), " olá ")
	require.NoError(t, err)
	require.NotNil(t, msg)

	require.Len(t, inFlight, 1)
	assert.Equal(t, Pending, inFlight[0].State)
	assert.Equal(t, "olá", inFlight[0].Message.Content)

	entries := s.Entries()
	require.Len(t, entries, 1, "never a second copy")
	assert.Equal(t, Confirmed, entries[0].State)
	assert.Equal(t, msg.ID, entries[0].ID())
	assert.Equal(t, []bool{false}, pub.states(), "typing stop is broadcast before sending")
}

func TestSession_SendFailureRollsBack(t *testing.T) {
	api := &fakeAPI{me: "alice", sendErr: errBoom}
	s, _, notifier := newTestSession(api, testConversation(nil))
	s.HandleMessage(realtime.MessageEvent{Message: peerMessage("m1", "oi")})

	_, err := s.Send(context.Background(), "vai falhar")
	require.Error(t, err)
	assert.Equal(t, apperr.KindSend, apperr.KindOf(err))
	assert.ErrorIs(t, err, errBoom)

	assert.Equal(t, []string{"oi"}, contents(s.Entries()))
	require.Len(t, notifier.errors(), 1)
}

func TestSession_SendRejectsTooLongText(t *testing.T) {
	api := &fakeAPI{me: "alice"}
	s, _, _ := newTestSession(api, testConversation(nil), WithMaxMessageLength(5))

	_, err := s.Send(context.Background(), strings.Repeat("a", 6))
	require.ErrorIs(t, err, entity.ErrMessageTooLong)
	assert.Empty(t, api.sentMessages())
	assert.Empty(t, s.Entries())
}

func TestSession_ListingOnlyOnFirstMessage(t *testing.T) {
	api := &fakeAPI{me: "alice"}
	s, _, _ := newTestSession(api, testConversation(strPtr("listing-1")))
	require.NoError(t, s.Load(context.Background()))

	_, err := s.Send(context.Background(), "ainda está disponível?")
	require.NoError(t, err)
	_, err = s.Send(context.Background(), "posso buscar amanhã")
	require.NoError(t, err)

	sent := api.sentMessages()
	require.Len(t, sent, 2)
	require.NotNil(t, sent[0].ListingID)
	assert.Equal(t, "listing-1", *sent[0].ListingID)
	assert.Nil(t, sent[1].ListingID)
}

func TestSession_NoListingWhenHistoryExists(t *testing.T) {
	api := &fakeAPI{me: "alice", history: []entity.Message{peerMessage("m1", "oi")}}
	s, _, _ := newTestSession(api, testConversation(strPtr("listing-1")))
	require.NoError(t, s.Load(context.Background()))

	_, err := s.Send(context.Background(), "olá")
	require.NoError(t, err)
	assert.Nil(t, api.sentMessages()[0].ListingID)
}

func TestSession_NoListingWhenLoadFailed(t *testing.T) {
	api := &fakeAPI{me: "alice", history: []entity.Message{peerMessage("m1", "oi")}, loadErr: errBoom}
	s, _, _ := newTestSession(api, testConversation(strPtr("listing-1")))
	require.Error(t, s.Load(context.Background()))

	_, err := s.Send(context.Background(), "ainda está disponível?")
	require.NoError(t, err)

	sent := api.sentMessages()
	require.Len(t, sent, 1)
	assert.Nil(t, sent[0].ListingID)
}

func TestSession_HandleMessage(t *testing.T) {
	api := &fakeAPI{me: "alice"}
	s, _, _ := newTestSession(api, testConversation(nil))

	own := peerMessage("m0", "meu")
	own.SenderID = "alice"
	other := peerMessage("x1", "outra conversa")
	other.ConversationID = "conv-2"

	s.HandleMessage(realtime.MessageEvent{Message: own})
	s.HandleMessage(realtime.MessageEvent{Message: peerMessage("m1", "um")})
	s.HandleMessage(realtime.MessageEvent{Message: peerMessage("m1", "um")})
	s.HandleMessage(realtime.MessageEvent{Message: other})
	s.HandleMessage(realtime.MessageEvent{Message: peerMessage("m2", "dois")})

	assert.Equal(t, []string{"um", "dois"}, contents(s.Entries()))
}

func TestSession_LoadKeepsArrivalsDuringLoad(t *testing.T) {
	api := &fakeAPI{me: "alice", history: []entity.Message{peerMessage("m1", "um"), peerMessage("m2", "dois")}}
	s, _, _ := newTestSession(api, testConversation(nil))

	api.onLoad = func() {
		s.HandleMessage(realtime.MessageEvent{Message: peerMessage("m2", "dois")})
		s.HandleMessage(realtime.MessageEvent{Message: peerMessage("m3", "três")})
	}

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, []string{"um", "dois", "três"}, contents(s.Entries()))
}

func TestSession_LoadFailure(t *testing.T) {
	api := &fakeAPI{me: "alice", loadErr: errBoom}
	s, _, notifier := newTestSession(api, testConversation(nil))

	err := s.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindLoad, apperr.KindOf(err))
	assert.Len(t, notifier.errors(), 1)

	api.loadErr = nil
	api.history = []entity.Message{peerMessage("m1", "um")}
	require.NoError(t, s.Load(context.Background()), "load can be retried")
	assert.Len(t, s.Entries(), 1)
}

func TestComposer_RestoresDraftOnFailure(t *testing.T) {
	api := &fakeAPI{me: "alice", sendErr: errBoom}
	s, pub, _ := newTestSession(api, testConversation(nil))
	c := NewComposer(s, s.typing)

	c.Type("texto importante")
	_, err := c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "texto importante", c.Draft())
	assert.Equal(t, []bool{true, false}, pub.states())
}

func TestComposer_ClearsDraftOnSuccess(t *testing.T) {
	api := &fakeAPI{me: "alice"}
	s, _, _ := newTestSession(api, testConversation(nil))
	c := NewComposer(s, nil)

	c.Type("oi")
	msg, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "oi", msg.Content)
	assert.Empty(t, c.Draft())

	c.Type("   ")
	msg, err = c.Submit(context.Background())
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Equal(t, "   ", c.Draft(), "blank drafts stay untouched")
}
