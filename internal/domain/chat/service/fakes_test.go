package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeStore struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	messages      []entity.Message
	listings      map[string]entity.Listing
	profiles      map[string]entity.Profile
	clock         time.Time

	// beforeCreate runs inside Create, used to simulate the peer winning the race
	beforeCreate func()
	failInsert   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[string]*entity.Conversation),
		listings:      make(map[string]entity.Listing),
		profiles:      make(map[string]entity.Profile),
		clock:         time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) addProfile(first string) string {
	id := uuid.NewString()
	f.profiles[id] = entity.Profile{ID: id, FirstName: first}
	return id
}

func (f *fakeStore) addListing(owner string) string {
	id := uuid.NewString()
	f.listings[id] = entity.Listing{ID: id, OwnerID: owner, Title: "Baixo Fender"}
	return id
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// conversation repository

func (f *fakeStore) GetByID(_ context.Context, id string) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) FindByPair(_ context.Context, a, b string) (*entity.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conversations {
		if (c.ParticipantA == a && c.ParticipantB == b) || (c.ParticipantA == b && c.ParticipantB == a) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Create(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, error) {
	if f.beforeCreate != nil {
		hook := f.beforeCreate
		f.beforeCreate = nil
		hook()
	}
	if existing, _ := f.FindByPair(ctx, conv.ParticipantA, conv.ParticipantB); existing != nil {
		return nil, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	c := *conv
	c.ID = uuid.NewString()
	c.CreatedAt = f.tick()
	f.conversations[c.ID] = &c
	cp := c
	return &cp, nil
}

func (f *fakeStore) SetDeleted(_ context.Context, id string, slot entity.Slot, deleted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return entity.ErrConversationNotFound
	}
	switch slot {
	case entity.SlotA:
		c.DeletedByA = deleted
	case entity.SlotB:
		c.DeletedByB = deleted
	default:
		return errors.New("invalid slot")
	}
	return nil
}

func (f *fakeStore) Touch(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.conversations[id]; ok {
		c.LastMessageAt = &at
	}
	return nil
}

// message repository

type fakeMessages struct{ *fakeStore }

func (f fakeMessages) Insert(_ context.Context, msg *entity.Message) (*entity.Message, error) {
	if f.failInsert != nil {
		return nil, f.failInsert
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m := *msg
	for _, existing := range f.messages {
		if existing.ConversationID == m.ConversationID {
			m.ListingID = nil
			break
		}
	}
	m.ID = uuid.NewString()
	m.CreatedAt = f.tick()
	f.messages = append(f.messages, m)
	return &m, nil
}

func (f fakeMessages) ListByConversation(_ context.Context, conversationID string) ([]entity.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// summary repository: mirrors get_user_conversations

type fakeSummaries struct{ *fakeStore }

func (f fakeSummaries) ListForUser(_ context.Context, userID string) ([]entity.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Summary
	for _, c := range f.conversations {
		if !c.HasParticipant(userID) || c.DeletedBy(userID) {
			continue
		}
		other := f.profiles[c.OtherParticipant(userID)]
		s := entity.Summary{
			ConversationID:       c.ID,
			OtherParticipantID:   other.ID,
			OtherParticipantName: other.DisplayName("Usuário"),
			OtherAvatarKey:       other.AvatarKey,
			LastMessageAt:        c.LastMessageAt,
		}
		for _, m := range f.messages {
			if m.ConversationID == c.ID {
				s.LastMessage = m.Content
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// directory

type fakeDirectory struct{ *fakeStore }

func (f fakeDirectory) GetListing(_ context.Context, id string) (*entity.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (f fakeDirectory) GetProfile(_ context.Context, id string) (*entity.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type fakeAvatars struct{}

func (fakeAvatars) AvatarURL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return "https://cdn.test/" + key, nil
}
