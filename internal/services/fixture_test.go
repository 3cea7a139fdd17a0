package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"helpbridge/config"
	"helpbridge/internal/domain/message"
	"helpbridge/internal/domain/user"
	"helpbridge/internal/proxy"
	"helpbridge/internal/repository/repositorytest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingFanout struct {
	mu   sync.Mutex
	msgs []message.Message
	err  error
}

func (f *recordingFanout) Publish(_ context.Context, m message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *recordingFanout) published() []message.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message.Message(nil), f.msgs...)
}

type fixture struct {
	store    *repositorytest.Store
	access   *proxy.AccessControl
	users    *UserService
	requests *RequestService
	matches  *MatchService
	messages *MessageService
	fanout   *recordingFanout
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositorytest.NewStore()
	access := proxy.NewAccessControl(store.Matches(), nil)
	users := NewUserService(store.Users(), nil)
	fanout := &recordingFanout{}
	return &fixture{
		store:    store,
		access:   access,
		users:    users,
		requests: NewRequestService(store.Requests(), store),
		matches:  NewMatchService(store.Matches(), store.Messages(), store, access, users),
		messages: NewMessageService(store.Messages(), store.Matches(), access, fanout),
		fanout:   fanout,
	}
}

func (f *fixture) addUser(t *testing.T, name string, role user.Role) uuid.UUID {
	t.Helper()
	u := &user.User{
		ID:    uuid.New(),
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
		City:  "Lisbon",
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u.ID
}

// steppingClock returns strictly increasing instants one millisecond apart.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Millisecond)
		return now
	}
}

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", JWTIssuer: "helpbridge-test"}
}

var errInjected = errors.New("injected failure")
