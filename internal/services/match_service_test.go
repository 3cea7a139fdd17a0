package services

import (
	"context"
	"testing"
	"time"

	"helpbridge/internal/domain/match"
	"helpbridge/internal/domain/user"
	"helpbridge/internal/events"
	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchService_GetAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1 := f.addUser(t, "rita", user.RoleReceiver)
	h1 := f.addUser(t, "hugo", user.RoleHelper)
	m := acceptedMatch(t, f, r1, h1)

	view, err := f.matches.Get(ctx, m.ID, r1)
	require.NoError(t, err)
	assert.Equal(t, m.ID, view.Match.ID)
	assert.Equal(t, "hugo", view.Helper.Name)
	assert.Equal(t, "rita", view.Receiver.Name)
	assert.Equal(t, "Lisbon", view.Helper.City)
	assert.Nil(t, view.Preview)

	_, err = f.matches.Get(ctx, m.ID, uuid.New())
	assert.ErrorIs(t, err, helpbridge_errors.ErrForbidden)

	_, err = f.matches.Get(ctx, uuid.New(), r1)
	assert.ErrorIs(t, err, helpbridge_errors.ErrNotFound)
}

func TestMatchService_GetUnknownUsersKeepIDs(t *testing.T) {
	f := newFixture(t)
	r1, h1 := uuid.New(), uuid.New()
	m := acceptedMatch(t, f, r1, h1)

	view, err := f.matches.Get(context.Background(), m.ID, h1)
	require.NoError(t, err)
	assert.Equal(t, h1, view.Helper.ID)
	assert.Equal(t, r1, view.Receiver.ID)
	assert.Empty(t, view.Helper.Name)
}

func TestMatchService_InboxOrdersByActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h1 := uuid.New()
	r1, r2 := uuid.New(), uuid.New()
	clock := steppingClock(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	f.requests.now = clock
	f.messages.SetClock(clock)

	older := acceptedMatch(t, f, r1, h1)
	newer := acceptedMatch(t, f, r2, h1)

	inbox, err := f.matches.Inbox(ctx, h1)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, newer.ID, inbox[0].Match.ID)

	_, err = f.messages.Send(ctx, older.ID, r1, "bump")
	require.NoError(t, err)

	inbox, err = f.matches.Inbox(ctx, h1)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, older.ID, inbox[0].Match.ID)
	require.NotNil(t, inbox[0].Preview)
	assert.Equal(t, "bump", inbox[0].Preview.Content)

	mine, err := f.matches.Inbox(ctx, r2)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, newer.ID, mine[0].Match.ID)
}

func TestMatchService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1, h1 := uuid.New(), uuid.New()
	m := acceptedMatch(t, f, r1, h1)
	admin := Identity{UserID: uuid.New(), Role: user.RoleAdmin}

	_, err := f.matches.UpdateStatus(ctx, Identity{UserID: h1, Role: user.RoleHelper}, m.ID, match.StatusCompleted)
	assert.ErrorIs(t, err, helpbridge_errors.ErrForbidden)

	_, err = f.matches.UpdateStatus(ctx, admin, m.ID, match.Status("archived"))
	assert.ErrorIs(t, err, helpbridge_errors.ErrInvalidInput)

	_, err = f.matches.UpdateStatus(ctx, admin, uuid.New(), match.StatusCancelled)
	assert.ErrorIs(t, err, helpbridge_errors.ErrNotFound)

	updated, err := f.matches.UpdateStatus(ctx, admin, m.ID, match.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, match.StatusCompleted, updated.Status)

	var statusEvents int
	for _, e := range f.store.AllOutboxEvents() {
		if e.EventType == events.EventTypeMatchStatusChanged {
			statusEvents++
			assert.Equal(t, events.MatchChannel(m.ID), e.Channel)
		}
	}
	assert.Equal(t, 1, statusEvents)

	// Status is not re-checked on send.
	_, err = f.messages.Send(ctx, m.ID, r1, "thanks again")
	assert.NoError(t, err)
}

type stubPresence struct {
	online map[uuid.UUID]bool
	err    error
}

func (p stubPresence) Online(_ context.Context, ids ...uuid.UUID) (map[uuid.UUID]bool, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = p.online[id]
	}
	return out, nil
}

func TestMatchService_Presence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r1 := f.addUser(t, "rita", user.RoleReceiver)
	h1 := f.addUser(t, "hugo", user.RoleHelper)
	m := acceptedMatch(t, f, r1, h1)

	view, err := f.matches.Get(ctx, m.ID, r1)
	require.NoError(t, err)
	assert.Empty(t, view.Online)

	f.matches.SetPresence(stubPresence{online: map[uuid.UUID]bool{h1: true}})
	view, err = f.matches.Get(ctx, m.ID, r1)
	require.NoError(t, err)
	assert.True(t, view.Online[h1])
	assert.False(t, view.Online[r1])

	f.matches.SetPresence(stubPresence{err: errInjected})
	view, err = f.matches.Get(ctx, m.ID, r1)
	require.NoError(t, err)
	assert.False(t, view.Online[h1])
}
