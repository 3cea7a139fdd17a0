package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"helpbridge/internal/domain/match"
	"helpbridge/internal/domain/user"
	"helpbridge/internal/repository/repositorytest"
	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptedMatch(t *testing.T, f *fixture, receiverID, helperID uuid.UUID) match.Match {
	t.Helper()
	hr := createRequest(t, f, receiverID, helperID)
	m, err := f.requests.Accept(context.Background(), hr.ID, helperID)
	require.NoError(t, err)
	return m
}

func TestMessageService_SendScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1 := f.addUser(t, "r1", user.RoleReceiver)
	h1 := f.addUser(t, "h1", user.RoleHelper)
	u2 := f.addUser(t, "u2", user.RoleReceiver)
	m := acceptedMatch(t, f, r1, h1)

	msg, err := f.messages.Send(ctx, m.ID, r1, "hello")
	require.NoError(t, err)
	assert.Equal(t, r1, msg.SenderID)
	assert.Equal(t, h1, msg.ReceiverID)
	assert.Equal(t, m.ID, msg.MatchID)
	assert.False(t, msg.IsRead)
	assert.False(t, msg.CreatedAt.IsZero())

	view, err := f.matches.Get(ctx, m.ID, h1)
	require.NoError(t, err)
	require.NotNil(t, view.Preview)
	assert.Equal(t, "hello", view.Preview.Content)
	assert.Equal(t, r1, view.Preview.SenderID)

	_, err = f.messages.History(ctx, m.ID, u2)
	assert.ErrorIs(t, err, helpbridge_errors.ErrForbidden)

	published := f.fanout.published()
	require.Len(t, published, 1)
	assert.Equal(t, msg, published[0])
}

func TestMessageService_Send_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1, h1 := uuid.New(), uuid.New()
	m := acceptedMatch(t, f, r1, h1)

	_, err := f.messages.Send(ctx, uuid.New(), r1, "hi")
	assert.ErrorIs(t, err, helpbridge_errors.ErrNotFound)

	_, err = f.messages.Send(ctx, m.ID, uuid.New(), "hi")
	assert.ErrorIs(t, err, helpbridge_errors.ErrForbidden)

	_, err = f.messages.Send(ctx, m.ID, r1, "   ")
	assert.ErrorIs(t, err, helpbridge_errors.ErrInvalidInput)

	_, err = f.messages.Send(ctx, m.ID, r1, strings.Repeat("x", 4001))
	assert.ErrorIs(t, err, helpbridge_errors.ErrInvalidInput)

	assert.Empty(t, f.store.AllMessages())
	assert.Empty(t, f.fanout.published())
}

func TestMessageService_HelperReply(t *testing.T) {
	f := newFixture(t)
	r1, h1 := uuid.New(), uuid.New()
	m := acceptedMatch(t, f, r1, h1)

	msg, err := f.messages.Send(context.Background(), m.ID, h1, "on my way")
	require.NoError(t, err)
	assert.Equal(t, r1, msg.ReceiverID)
}

func TestMessageService_HistoryOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1, h1 := uuid.New(), uuid.New()
	m := acceptedMatch(t, f, r1, h1)
	f.messages.SetClock(steppingClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	var sent []uuid.UUID
	for _, c := range []string{"m1", "m2", "m3"} {
		msg, err := f.messages.Send(ctx, m.ID, r1, c)
		require.NoError(t, err)
		sent = append(sent, msg.ID)
	}

	for i := 0; i < 3; i++ {
		history, err := f.messages.History(ctx, m.ID, h1)
		require.NoError(t, err)
		require.Len(t, history, 3)
		for j, msg := range history {
			assert.Equal(t, sent[j], msg.ID)
		}
	}
}

func TestMessageService_HistoryEqualTimestampsStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1, h1 := uuid.New(), uuid.New()
	m := acceptedMatch(t, f, r1, h1)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.messages.SetClock(func() time.Time { return fixed })

	first, err := f.messages.Send(ctx, m.ID, r1, "a")
	require.NoError(t, err)
	second, err := f.messages.Send(ctx, m.ID, h1, "b")
	require.NoError(t, err)

	history, err := f.messages.History(ctx, m.ID, r1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, second.ID, history[1].ID)
}

func TestMessageService_ConcurrentSends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1, h1 := uuid.New(), uuid.New()
	m := acceptedMatch(t, f, r1, h1)
	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := r1
			if i%2 == 0 {
				sender = h1
			}
			_, err := f.messages.Send(ctx, m.ID, sender, "ping")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := f.messages.History(ctx, m.ID, r1)
	require.NoError(t, err)
	require.Len(t, history, n)
	for i := 1; i < len(history); i++ {
		assert.False(t, history[i].CreatedAt.Before(history[i-1].CreatedAt))
	}
	assert.Len(t, f.fanout.published(), n)
}

func TestMessageService_PreviewFailureKeepsMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1, h1 := uuid.New(), uuid.New()
	m := acceptedMatch(t, f, r1, h1)

	f.store.SetHooks(repositorytest.Hooks{
		BeforePreviewUpdate: func(uuid.UUID) error { return errInjected },
	})
	msg, err := f.messages.Send(ctx, m.ID, r1, "still delivered")
	require.NoError(t, err)
	require.Len(t, f.store.AllMessages(), 1)
	assert.Len(t, f.fanout.published(), 1)

	stored, err := f.store.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Preview())

	// Reads derive the preview from history and repair the row.
	f.store.SetHooks(repositorytest.Hooks{})
	view, err := f.matches.Get(ctx, m.ID, h1)
	require.NoError(t, err)
	require.NotNil(t, view.Preview)
	assert.Equal(t, msg.Content, view.Preview.Content)

	repaired, err := f.store.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, repaired.Preview())
	assert.Equal(t, msg.CreatedAt, repaired.Preview().Timestamp)
}

func TestMessageService_StalePreviewIsRepairedOnRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1, h1 := uuid.New(), uuid.New()
	f.messages.SetClock(steppingClock(time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)))
	m := acceptedMatch(t, f, r1, h1)

	_, err := f.messages.Send(ctx, m.ID, r1, "first")
	require.NoError(t, err)

	f.store.SetHooks(repositorytest.Hooks{
		BeforePreviewUpdate: func(uuid.UUID) error { return errInjected },
	})
	second, err := f.messages.Send(ctx, m.ID, h1, "second")
	require.NoError(t, err)
	f.store.SetHooks(repositorytest.Hooks{})

	stored, err := f.store.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Preview())
	assert.Equal(t, "first", stored.Preview().Content)

	view, err := f.matches.Get(ctx, m.ID, r1)
	require.NoError(t, err)
	require.NotNil(t, view.Preview)
	assert.Equal(t, "second", view.Preview.Content)
	assert.Equal(t, h1, view.Preview.SenderID)

	inbox, err := f.matches.Inbox(ctx, h1)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "second", inbox[0].Preview.Content)

	repaired, err := f.store.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", repaired.Preview().Content)
	assert.Equal(t, second.CreatedAt, repaired.Preview().Timestamp)
}

func TestMessageService_FanoutFailureDoesNotFailSend(t *testing.T) {
	f := newFixture(t)
	r1, h1 := uuid.New(), uuid.New()
	m := acceptedMatch(t, f, r1, h1)
	f.fanout.err = errInjected

	msg, err := f.messages.Send(context.Background(), m.ID, r1, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Len(t, f.store.AllMessages(), 1)
}

func TestMessageService_MarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1, h1 := uuid.New(), uuid.New()
	m := acceptedMatch(t, f, r1, h1)

	for _, sender := range []uuid.UUID{r1, r1, h1} {
		_, err := f.messages.Send(ctx, m.ID, sender, "x")
		require.NoError(t, err)
	}

	n, err := f.messages.MarkRead(ctx, m.ID, h1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = f.messages.MarkRead(ctx, m.ID, h1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	_, err = f.messages.MarkRead(ctx, m.ID, uuid.New())
	assert.ErrorIs(t, err, helpbridge_errors.ErrForbidden)

	for _, msg := range f.store.AllMessages() {
		assert.Equal(t, msg.ReceiverID == h1, msg.IsRead)
	}
}
