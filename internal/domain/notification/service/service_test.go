package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/tosembanda/internal/apperr"
	chatentity "github.com/vadim/tosembanda/internal/domain/chat/entity"
	"github.com/vadim/tosembanda/internal/domain/notification/entity"
	"github.com/vadim/tosembanda/internal/realtime"
)

type fakeRepo struct {
	items []entity.Notification
	now   time.Time
}

func (r *fakeRepo) Create(_ context.Context, n *entity.Notification) (*entity.Notification, error) {
	out := *n
	out.ID = uuid.NewString()
	out.CreatedAt = r.now
	r.items = append(r.items, out)
	return &out, nil
}

func (r *fakeRepo) ListByUser(_ context.Context, userID string, limit int) ([]entity.Notification, error) {
	var out []entity.Notification
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		if r.items[i].UserID == userID {
			out = append(out, r.items[i])
		}
	}
	return out, nil
}

func (r *fakeRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, it := range r.items {
		if it.UserID == userID && !it.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var n int64
	for i := range r.items {
		if r.items[i].UserID == userID && !r.items[i].IsRead {
			r.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) MarkRead(_ context.Context, userID, id string) error {
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == userID {
			r.items[i].IsRead = true
			return nil
		}
	}
	return entity.ErrNotificationNotFound
}

func (r *fakeRepo) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	kept := r.items[:0]
	var deleted int64
	for _, it := range r.items {
		if it.IsRead && it.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, it)
	}
	r.items = kept
	return deleted, nil
}

type fakeProfiles map[string]chatentity.Profile

func (p fakeProfiles) GetProfile(_ context.Context, id string) (*chatentity.Profile, error) {
	profile, ok := p[id]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *realtime.MemoryBus, fakeProfiles) {
	t.Helper()

	repo := &fakeRepo{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	bus := realtime.NewMemoryBus()
	profiles := fakeProfiles{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(repo, profiles, bus, 24*time.Hour, logger)
	svc.now = func() time.Time { return repo.now }
	return svc, repo, bus, profiles
}

func TestRecordProfileView(t *testing.T) {
	svc, repo, bus, profiles := newTestService(t)
	ctx := context.Background()

	owner, visitor, nameless := uuid.NewString(), uuid.NewString(), uuid.NewString()
	profiles[owner] = chatentity.Profile{ID: owner, FirstName: "Bruno"}
	profiles[visitor] = chatentity.Profile{ID: visitor, FirstName: "Carla", LastName: "Dias"}
	profiles[nameless] = chatentity.Profile{ID: nameless}

	var events []realtime.NotificationEvent
	_, err := bus.SubscribeNotifications(ctx, owner, func(evt realtime.NotificationEvent) { events = append(events, evt) })
	require.NoError(t, err)

	n, err := svc.RecordProfileView(ctx, visitor, owner)
	require.NoError(t, err)
	assert.Equal(t, "Carla Dias visitou seu perfil.", n.Message)
	assert.Equal(t, entity.TypeProfileView, n.Type)
	assert.Equal(t, visitor, n.Metadata["visitor_id"])

	n, err = svc.RecordProfileView(ctx, nameless, owner)
	require.NoError(t, err)
	assert.Equal(t, "Alguém visitou seu perfil.", n.Message)

	require.Len(t, events, 2)
	assert.Equal(t, owner, events[0].UserID)

	t.Run("self view records nothing", func(t *testing.T) {
		n, err := svc.RecordProfileView(ctx, owner, owner)
		require.NoError(t, err)
		assert.Nil(t, n)
		assert.Len(t, repo.items, 2)
	})

	t.Run("unknown owner", func(t *testing.T) {
		_, err := svc.RecordProfileView(ctx, visitor, uuid.NewString())
		require.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("anonymous visitor", func(t *testing.T) {
		_, err := svc.RecordProfileView(ctx, "", owner)
		require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})
}

func TestReadState(t *testing.T) {
	svc, repo, _, profiles := newTestService(t)
	ctx := context.Background()

	owner, visitor := uuid.NewString(), uuid.NewString()
	profiles[owner] = chatentity.Profile{ID: owner}
	profiles[visitor] = chatentity.Profile{ID: visitor, FirstName: "Carla"}

	first, err := svc.RecordProfileView(ctx, visitor, owner)
	require.NoError(t, err)
	_, err = svc.RecordProfileView(ctx, visitor, owner)
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, svc.MarkRead(ctx, owner, first.ID))
	require.ErrorIs(t, svc.MarkRead(ctx, visitor, first.ID), entity.ErrNotificationNotFound)
	require.ErrorIs(t, svc.MarkRead(ctx, owner, "bad-id"), entity.ErrNotificationNotFound)

	count, err = svc.UnreadCount(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, svc.MarkAllRead(ctx, owner))
	count, err = svc.UnreadCount(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, count)

	list, err := svc.List(ctx, owner, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	repo.now = repo.now.Add(48 * time.Hour)
	require.NoError(t, svc.PruneReadNotifications(ctx))
	assert.Empty(t, repo.items)
}
