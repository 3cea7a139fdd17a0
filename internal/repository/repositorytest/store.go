// Package repositorytest provides an in-memory, transactional implementation
// of the repository interfaces for service and handler tests.
//
// Transactions are serialized: WithinTx holds the store lock, works on a copy
// of the state and swaps it in only when fn returns nil. Code running inside
// fn must use the Stores it was given; calling the top-level repositories
// from inside a transaction deadlocks.
package repositorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"helpbridge/internal/domain/match"
	"helpbridge/internal/domain/message"
	"helpbridge/internal/domain/outbox"
	"helpbridge/internal/domain/request"
	"helpbridge/internal/domain/user"
	"helpbridge/internal/repository"
	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/google/uuid"
)

// Hooks inject failures. A non-nil error returned by a hook aborts the
// operation with that error before anything is written.
type Hooks struct {
	BeforeMatchCreate   func(m match.Match) error
	BeforeRequestUpdate func(id uuid.UUID, to request.Status) error
	BeforeMessageCreate func(m message.Message) error
	BeforePreviewUpdate func(matchID uuid.UUID) error
}

type state struct {
	users     map[uuid.UUID]user.User
	helpers   map[uuid.UUID]user.HelperProfile
	receivers map[uuid.UUID]user.ReceiverProfile
	requests  map[uuid.UUID]request.HelpRequest
	matches   map[uuid.UUID]match.Match
	messages  []message.Message
	outbox    []outbox.OutboxEvent
}

func newState() *state {
	return &state{
		users:     make(map[uuid.UUID]user.User),
		helpers:   make(map[uuid.UUID]user.HelperProfile),
		receivers: make(map[uuid.UUID]user.ReceiverProfile),
		requests:  make(map[uuid.UUID]request.HelpRequest),
		matches:   make(map[uuid.UUID]match.Match),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.helpers {
		c.helpers[k] = v
	}
	for k, v := range s.receivers {
		c.receivers[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.matches {
		c.matches[k] = v
	}
	c.messages = append([]message.Message(nil), s.messages...)
	c.outbox = append([]outbox.OutboxEvent(nil), s.outbox...)
	return c
}

type Store struct {
	mu    sync.Mutex
	st    *state
	hooks Hooks
}

func NewStore() *Store {
	return &Store{st: newState()}
}

// SetHooks replaces the installed failure hooks.
func (s *Store) SetHooks(h Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = h
}

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Stores) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(txStores{v: view{store: s, tx: work}}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Users() repository.UserRepository       { return userRepo{view{store: s}} }
func (s *Store) Requests() repository.RequestRepository { return requestRepo{view{store: s}} }
func (s *Store) Matches() repository.MatchRepository    { return matchRepo{view{store: s}} }
func (s *Store) Messages() repository.MessageRepository { return messageRepo{view{store: s}} }
func (s *Store) Outbox() repository.OutboxRepository    { return outboxRepo{view{store: s}} }

// Snapshot helpers for assertions.

func (s *Store) AllRequests() []request.HelpRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]request.HelpRequest, 0, len(s.st.requests))
	for _, r := range s.st.requests {
		out = append(out, r)
	}
	return out
}

func (s *Store) AllMatches() []match.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]match.Match, 0, len(s.st.matches))
	for _, m := range s.st.matches {
		out = append(out, m)
	}
	return out
}

func (s *Store) AllMessages() []message.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]message.Message(nil), s.st.messages...)
}

func (s *Store) AllOutboxEvents() []outbox.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbox.OutboxEvent(nil), s.st.outbox...)
}

// view runs operations against either the committed state (taking the lock)
// or a transaction's working copy (already locked by WithinTx).
type view struct {
	store *Store
	tx    *state
}

func (v view) do(fn func(st *state, h Hooks) error) error {
	if v.tx != nil {
		return fn(v.tx, v.store.hooks)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st, v.store.hooks)
}

type txStores struct {
	v view
}

func (t txStores) Requests() repository.RequestRepository { return requestRepo{t.v} }
func (t txStores) Matches() repository.MatchRepository    { return matchRepo{t.v} }
func (t txStores) Messages() repository.MessageRepository { return messageRepo{t.v} }
func (t txStores) Outbox() repository.OutboxRepository    { return outboxRepo{t.v} }

// Users

type userRepo struct{ v view }

func (r userRepo) Create(_ context.Context, u *user.User) error {
	return r.v.do(func(st *state, _ Hooks) error {
		for _, existing := range st.users {
			if existing.ID == u.ID || existing.Email == u.Email {
				return helpbridge_errors.ErrAlreadyExists
			}
		}
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		stored := *u
		stored.HelperProfile, stored.ReceiverProfile = nil, nil
		st.users[u.ID] = stored
		if u.HelperProfile != nil {
			p := *u.HelperProfile
			p.UserID = u.ID
			st.helpers[u.ID] = p
		}
		if u.ReceiverProfile != nil {
			p := *u.ReceiverProfile
			p.UserID = u.ID
			st.receivers[u.ID] = p
		}
		return nil
	})
}

func (r userRepo) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	var out user.User
	err := r.v.do(func(st *state, _ Hooks) error {
		u, ok := st.users[id]
		if !ok {
			return helpbridge_errors.ErrNotFound
		}
		out = withProfiles(st, u)
		return nil
	})
	return out, err
}

func (r userRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]user.User, error) {
	var out []user.User
	err := r.v.do(func(st *state, _ Hooks) error {
		for _, id := range ids {
			if u, ok := st.users[id]; ok {
				out = append(out, u)
			}
		}
		return nil
	})
	return out, err
}

func (r userRepo) ListHelpers(_ context.Context, page, limit int) ([]user.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var all []user.User
	err := r.v.do(func(st *state, _ Hooks) error {
		for _, u := range st.users {
			if u.Role == user.RoleHelper {
				all = append(all, withProfiles(st, u))
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []user.User{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r userRepo) Update(_ context.Context, u user.User) error {
	return r.v.do(func(st *state, _ Hooks) error {
		existing, ok := st.users[u.ID]
		if !ok {
			return helpbridge_errors.ErrNotFound
		}
		existing.Name = u.Name
		existing.Bio = u.Bio
		existing.City = u.City
		existing.ProfileImage = u.ProfileImage
		existing.UpdatedAt = u.UpdatedAt
		st.users[u.ID] = existing
		return nil
	})
}

func (r userRepo) SaveHelperProfile(_ context.Context, p *user.HelperProfile) error {
	return r.v.do(func(st *state, _ Hooks) error {
		if _, ok := st.users[p.UserID]; !ok {
			return helpbridge_errors.ErrNotFound
		}
		st.helpers[p.UserID] = *p
		return nil
	})
}

func (r userRepo) SaveReceiverProfile(_ context.Context, p *user.ReceiverProfile) error {
	return r.v.do(func(st *state, _ Hooks) error {
		if _, ok := st.users[p.UserID]; !ok {
			return helpbridge_errors.ErrNotFound
		}
		st.receivers[p.UserID] = *p
		return nil
	})
}

func withProfiles(st *state, u user.User) user.User {
	if p, ok := st.helpers[u.ID]; ok {
		u.HelperProfile = &p
	}
	if p, ok := st.receivers[u.ID]; ok {
		u.ReceiverProfile = &p
	}
	return u
}

// Requests

type requestRepo struct{ v view }

func (r requestRepo) Create(_ context.Context, hr *request.HelpRequest) error {
	return r.v.do(func(st *state, _ Hooks) error {
		if _, ok := st.requests[hr.ID]; ok {
			return helpbridge_errors.ErrAlreadyExists
		}
		if hr.Status == request.StatusPending {
			for _, existing := range st.requests {
				if existing.Status == request.StatusPending &&
					existing.ReceiverID == hr.ReceiverID &&
					existing.HelperID == hr.HelperID {
					return helpbridge_errors.ErrDuplicatePending
				}
			}
		}
		st.requests[hr.ID] = *hr
		return nil
	})
}

func (r requestRepo) GetByID(_ context.Context, id uuid.UUID) (request.HelpRequest, error) {
	var out request.HelpRequest
	err := r.v.do(func(st *state, _ Hooks) error {
		hr, ok := st.requests[id]
		if !ok {
			return helpbridge_errors.ErrNotFound
		}
		out = hr
		return nil
	})
	return out, err
}

func (r requestRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (request.HelpRequest, error) {
	return r.GetByID(ctx, id)
}

func (r requestRepo) ListByHelper(_ context.Context, helperID uuid.UUID) ([]request.HelpRequest, error) {
	return r.list(func(hr request.HelpRequest) bool { return hr.HelperID == helperID })
}

func (r requestRepo) ListByReceiver(_ context.Context, receiverID uuid.UUID) ([]request.HelpRequest, error) {
	return r.list(func(hr request.HelpRequest) bool { return hr.ReceiverID == receiverID })
}

func (r requestRepo) list(keep func(request.HelpRequest) bool) ([]request.HelpRequest, error) {
	var out []request.HelpRequest
	err := r.v.do(func(st *state, _ Hooks) error {
		for _, hr := range st.requests {
			if keep(hr) {
				out = append(out, hr)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r requestRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to request.Status, matchID uuid.NullUUID) error {
	return r.v.do(func(st *state, h Hooks) error {
		hr, ok := st.requests[id]
		if !ok {
			return helpbridge_errors.ErrNotFound
		}
		if hr.Status != from {
			return helpbridge_errors.ErrInvalidState
		}
		if h.BeforeRequestUpdate != nil {
			if err := h.BeforeRequestUpdate(id, to); err != nil {
				return err
			}
		}
		hr.Status = to
		hr.MatchID = matchID
		hr.UpdatedAt = time.Now()
		st.requests[id] = hr
		return nil
	})
}

// Matches

type matchRepo struct{ v view }

func (r matchRepo) Create(_ context.Context, m *match.Match) error {
	return r.v.do(func(st *state, h Hooks) error {
		if h.BeforeMatchCreate != nil {
			if err := h.BeforeMatchCreate(*m); err != nil {
				return err
			}
		}
		for _, existing := range st.matches {
			if existing.ID == m.ID || existing.RequestID == m.RequestID {
				return helpbridge_errors.ErrAlreadyExists
			}
		}
		st.matches[m.ID] = *m
		return nil
	})
}

func (r matchRepo) GetByID(_ context.Context, id uuid.UUID) (match.Match, error) {
	var out match.Match
	err := r.v.do(func(st *state, _ Hooks) error {
		m, ok := st.matches[id]
		if !ok {
			return helpbridge_errors.ErrNotFound
		}
		out = m
		return nil
	})
	return out, err
}

func (r matchRepo) ListByParticipant(_ context.Context, userID uuid.UUID) ([]match.Match, error) {
	var out []match.Match
	err := r.v.do(func(st *state, _ Hooks) error {
		for _, m := range st.matches {
			if m.HasParticipant(userID) {
				out = append(out, m)
			}
		}
		return nil
	})
	activity := func(m match.Match) time.Time {
		if m.LastMessageAt.Valid {
			return m.LastMessageAt.Time
		}
		return m.CreatedAt
	}
	sort.SliceStable(out, func(i, j int) bool { return activity(out[i]).After(activity(out[j])) })
	return out, err
}

func (r matchRepo) HasActiveForPair(_ context.Context, receiverID, helperID uuid.UUID) (bool, error) {
	var found bool
	err := r.v.do(func(st *state, _ Hooks) error {
		for _, m := range st.matches {
			if m.ReceiverID == receiverID && m.HelperID == helperID && m.Status == match.StatusActive {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r matchRepo) UpdateLastMessage(_ context.Context, id uuid.UUID, lm match.LastMessage) error {
	return r.v.do(func(st *state, h Hooks) error {
		if h.BeforePreviewUpdate != nil {
			if err := h.BeforePreviewUpdate(id); err != nil {
				return err
			}
		}
		m, ok := st.matches[id]
		if !ok {
			return nil
		}
		if m.LastMessageAt.Valid && m.LastMessageAt.Time.After(lm.Timestamp) {
			return nil
		}
		m.SetPreview(lm)
		m.UpdatedAt = time.Now()
		st.matches[id] = m
		return nil
	})
}

func (r matchRepo) UpdateStatus(_ context.Context, id uuid.UUID, status match.Status) error {
	return r.v.do(func(st *state, _ Hooks) error {
		m, ok := st.matches[id]
		if !ok {
			return helpbridge_errors.ErrNotFound
		}
		m.Status = status
		m.UpdatedAt = time.Now()
		st.matches[id] = m
		return nil
	})
}

// Messages

type messageRepo struct{ v view }

func (r messageRepo) Create(_ context.Context, m *message.Message) error {
	return r.v.do(func(st *state, h Hooks) error {
		if h.BeforeMessageCreate != nil {
			if err := h.BeforeMessageCreate(*m); err != nil {
				return err
			}
		}
		if _, ok := st.matches[m.MatchID]; !ok {
			return helpbridge_errors.ErrNotFound
		}
		st.messages = append(st.messages, *m)
		return nil
	})
}

func (r messageRepo) ListByMatch(_ context.Context, matchID uuid.UUID) ([]message.Message, error) {
	out := []message.Message{}
	err := r.v.do(func(st *state, _ Hooks) error {
		for _, m := range st.messages {
			if m.MatchID == matchID {
				out = append(out, m)
			}
		}
		return nil
	})
	// Stable sort keeps insertion order for equal timestamps.
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r messageRepo) GetLatest(ctx context.Context, matchID uuid.UUID) (message.Message, error) {
	msgs, err := r.ListByMatch(ctx, matchID)
	if err != nil {
		return message.Message{}, err
	}
	if len(msgs) == 0 {
		return message.Message{}, helpbridge_errors.ErrNotFound
	}
	return msgs[len(msgs)-1], nil
}

func (r messageRepo) MarkRead(_ context.Context, matchID, receiverID uuid.UUID) (int64, error) {
	var n int64
	err := r.v.do(func(st *state, _ Hooks) error {
		for i := range st.messages {
			m := &st.messages[i]
			if m.MatchID == matchID && m.ReceiverID == receiverID && !m.IsRead {
				m.IsRead = true
				n++
			}
		}
		return nil
	})
	return n, err
}

// Outbox

type outboxRepo struct{ v view }

func (r outboxRepo) Create(_ context.Context, event *outbox.OutboxEvent) error {
	return r.v.do(func(st *state, _ Hooks) error {
		st.outbox = append(st.outbox, *event)
		return nil
	})
}

func (r outboxRepo) GetPending(_ context.Context, limit, maxRetries int) ([]outbox.OutboxEvent, error) {
	var out []outbox.OutboxEvent
	err := r.v.do(func(st *state, _ Hooks) error {
		for _, e := range st.outbox {
			if e.Status == outbox.StatusPending && e.RetryCount < maxRetries {
				out = append(out, e)
				if len(out) == limit {
					break
				}
			}
		}
		return nil
	})
	return out, err
}

func (r outboxRepo) MarkProcessing(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(e *outbox.OutboxEvent) { e.Status = outbox.StatusProcessing })
}

func (r outboxRepo) MarkCompleted(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(e *outbox.OutboxEvent) {
		now := time.Now()
		e.Status = outbox.StatusCompleted
		e.ProcessedAt = &now
	})
}

func (r outboxRepo) MarkFailed(_ context.Context, id uuid.UUID, errorMsg string) error {
	return r.update(id, func(e *outbox.OutboxEvent) {
		e.Status = outbox.StatusFailed
		e.Error = errorMsg
	})
}

func (r outboxRepo) IncrementRetry(_ context.Context, id uuid.UUID, errorMsg string) error {
	return r.update(id, func(e *outbox.OutboxEvent) {
		e.Status = outbox.StatusPending
		e.RetryCount++
		e.Error = errorMsg
	})
}

func (r outboxRepo) update(id uuid.UUID, fn func(e *outbox.OutboxEvent)) error {
	return r.v.do(func(st *state, _ Hooks) error {
		for i := range st.outbox {
			if st.outbox[i].ID == id {
				fn(&st.outbox[i])
				st.outbox[i].UpdatedAt = time.Now()
				return nil
			}
		}
		return helpbridge_errors.ErrNotFound
	})
}
