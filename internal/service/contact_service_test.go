package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"estatehub/bff/internal/cache"
	"estatehub/bff/internal/model"
	"estatehub/bff/internal/repository"
	"estatehub/bff/internal/state"
	"estatehub/bff/internal/upstream"
)

type contactFixture struct {
	api      *MockListingsAPI
	messages *MockContactMessageRepository
	sessions *state.Registry[state.ContactState]
	svc      ContactService
}

func newContactFixture(t *testing.T, withMessages bool) *contactFixture {
	t.Helper()
	f := &contactFixture{
		api:      new(MockListingsAPI),
		sessions: state.NewRegistry(state.NewContactSlot),
	}
	var repo repository.ContactMessageRepository
	if withMessages {
		f.messages = new(MockContactMessageRepository)
		repo = f.messages
	}
	contacts := cache.NewContactCache(repository.NewMemoryStateStore())
	f.svc = NewContactService(f.api, contacts, repo, f.sessions, 14*24*time.Hour, zap.NewNop())
	return f
}

func TestParseContextKey(t *testing.T) {
	kind, id, err := ParseContextKey("listing:42")
	require.NoError(t, err)
	assert.Equal(t, "listing", kind)
	assert.Equal(t, "42", id)

	_, _, err = ParseContextKey("project:abc-1")
	require.NoError(t, err)

	for _, bad := range []string{"", "listing", "listing:", "agent:1", "listing:1:2", "listing:../x"} {
		_, _, err := ParseContextKey(bad)
		assert.ErrorIs(t, err, ErrInvalidContextKey, bad)
	}
}

func TestContactService_RevealPhoneCachesNumbers(t *testing.T) {
	ctx := context.Background()
	f := newContactFixture(t, false)
	f.api.On("RevealPhone", mock.Anything, "listing", "42").
		Return(&upstream.PhoneNumbers{DisplayNumber: "0244000000", WhatsappNumber: "0244000001"}, nil).
		Once()

	var seen []state.ContactState
	initial, stop, err := f.svc.Watch("s1", "listing:42", func(s state.ContactState) { seen = append(seen, s) })
	require.NoError(t, err)
	defer stop()
	assert.Equal(t, state.ContactState{}, initial)

	first, err := f.svc.RevealPhone(ctx, "s1", "listing:42")
	require.NoError(t, err)
	assert.Equal(t, "0244000000", first.Stph2)
	assert.Equal(t, "0244000001", first.Stph3)

	// Second reveal, even from another session, is served from cache.
	second, err := f.svc.RevealPhone(ctx, "s2", "listing:42")
	require.NoError(t, err)
	assert.Equal(t, first.Stph2, second.Stph2)
	f.api.AssertExpectations(t)

	require.NotEmpty(t, seen)
	assert.Equal(t, state.ContactState{
		PhoneNumber:    "0244000000",
		WhatsappNumber: "0244000001",
		ShowNumber:     true,
	}, seen[len(seen)-1])
	assert.Contains(t, seen, state.ContactState{Loading: true}, "watchers see the loading state")
}

func TestContactService_WatcherOutlivesIdleSweep(t *testing.T) {
	ctx := context.Background()
	f := newContactFixture(t, false)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.sessions.SetClock(func() time.Time { return now })
	f.api.On("RevealPhone", mock.Anything, "listing", "42").
		Return(&upstream.PhoneNumbers{DisplayNumber: "0244000000"}, nil).
		Once()

	var last state.ContactState
	_, stop, err := f.svc.Watch("s1", "listing:42", func(s state.ContactState) { last = s })
	require.NoError(t, err)

	now = now.Add(3 * time.Hour)
	assert.Equal(t, 0, f.sessions.Sweep(2*time.Hour), "an open stream keeps its session")

	_, err = f.svc.RevealPhone(ctx, "s1", "listing:42")
	require.NoError(t, err)
	assert.Equal(t, state.ContactState{PhoneNumber: "0244000000", ShowNumber: true}, last)

	stop()
	now = now.Add(3 * time.Hour)
	assert.Equal(t, 1, f.sessions.Sweep(2*time.Hour))
}

func TestContactService_RevealPhoneUpstreamFailure(t *testing.T) {
	ctx := context.Background()
	f := newContactFixture(t, false)
	f.api.On("RevealPhone", mock.Anything, "project", "7").Return(nil, upstream.ErrRequestFailed)

	_, err := f.svc.RevealPhone(ctx, "s1", "project:7")
	assert.ErrorIs(t, err, upstream.ErrRequestFailed)

	st, err := f.svc.State(ctx, "s1", "project:7")
	require.NoError(t, err)
	assert.Equal(t, state.ContactState{}, st)
}

func TestContactService_RevealPhoneNotFound(t *testing.T) {
	f := newContactFixture(t, false)
	f.api.On("RevealPhone", mock.Anything, "listing", "9").Return(nil, upstream.ErrNotFound)

	_, err := f.svc.RevealPhone(context.Background(), "s1", "listing:9")
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestContactService_StateResetsAcrossListings(t *testing.T) {
	ctx := context.Background()
	f := newContactFixture(t, false)
	f.api.On("RevealPhone", mock.Anything, "listing", "1").
		Return(&upstream.PhoneNumbers{DisplayNumber: "111"}, nil)

	_, err := f.svc.RevealPhone(ctx, "s1", "listing:1")
	require.NoError(t, err)

	st, err := f.svc.State(ctx, "s1", "listing:1")
	require.NoError(t, err)
	assert.True(t, st.ShowNumber)

	st, err = f.svc.State(ctx, "s1", "project:2")
	require.NoError(t, err)
	assert.Equal(t, state.ContactState{}, st)

	st, err = f.svc.State(ctx, "s1", "listing:1")
	require.NoError(t, err)
	assert.Equal(t, state.ContactState{}, st, "state is not restored when coming back")
}

func TestContactService_SendMessage(t *testing.T) {
	ctx := context.Background()
	f := newContactFixture(t, true)

	in := ContactMessageInput{
		ContextKey: "listing:42",
		Name:       "Ama",
		Email:      "ama@example.test",
		Body:       "Is it still available?",
	}
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(m *model.ContactMessage) bool {
		return m.ContextKey == "listing:42" && m.Status == model.ContactMessagePending && m.SessionID == "s1"
	})).Return(nil)
	f.api.On("SendMessage", mock.Anything, upstream.Message{
		Kind: "listing", ID: "42", Name: "Ama", Email: "ama@example.test", Body: "Is it still available?",
	}).Return(nil)
	f.messages.On("UpdateStatus", mock.Anything, mock.Anything, model.ContactMessageForwarded).Return(nil)

	require.NoError(t, f.svc.SendMessage(ctx, "s1", in))
	f.api.AssertExpectations(t)
	f.messages.AssertExpectations(t)

	st, err := f.svc.State(ctx, "s1", "listing:42")
	require.NoError(t, err)
	assert.True(t, st.MessageSent)
}

func TestContactService_SendMessageFailureIsRecorded(t *testing.T) {
	f := newContactFixture(t, true)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.api.On("SendMessage", mock.Anything, mock.Anything).Return(upstream.ErrRequestFailed)
	f.messages.On("UpdateStatus", mock.Anything, mock.Anything, model.ContactMessageFailed).Return(nil)

	err := f.svc.SendMessage(context.Background(), "s1", ContactMessageInput{
		ContextKey: "project:3", Name: "Kofi", Email: "kofi@example.test", Body: "Hello",
	})
	assert.ErrorIs(t, err, upstream.ErrRequestFailed)
	f.messages.AssertExpectations(t)
}

func TestContactService_SendMessageValidation(t *testing.T) {
	f := newContactFixture(t, false)

	err := f.svc.SendMessage(context.Background(), "s1", ContactMessageInput{ContextKey: "listing:1", Name: "A"})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	err = f.svc.SendMessage(context.Background(), "s1", ContactMessageInput{
		ContextKey: "villa:1", Name: "A", Email: "a@example.test", Body: "x",
	})
	assert.ErrorIs(t, err, ErrInvalidContextKey)

	f.api.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}
