package ipbauth_test

import (
	"context"
	"sort"
	"sync"

	ipbauth "github.com/goliatone/go-ipb-auth"
	"github.com/stretchr/testify/mock"
)

// MockConnector implements ipbauth.ForumConnector
type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) Connect(ctx context.Context, schema ipbauth.Schema) (ipbauth.ForumSession, error) {
	args := m.Called(ctx, schema)
	sess, _ := args.Get(0).(ipbauth.ForumSession)
	return sess, args.Error(1)
}

// MockSession implements ipbauth.ForumSession
type MockSession struct {
	mock.Mock
}

func (m *MockSession) CountMembersByName(ctx context.Context, name string) (int, error) {
	args := m.Called(ctx, name)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) CountMembersByNames(ctx context.Context, names ...string) (int, error) {
	args := m.Called(ctx, names)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) FindLoginCandidates(ctx context.Context, identifier string) ([]ipbauth.Member, error) {
	args := m.Called(ctx, identifier)
	rows, _ := args.Get(0).([]ipbauth.Member)
	return rows, args.Error(1)
}

func (m *MockSession) FindMemberNames(ctx context.Context, name string) ([]string, error) {
	args := m.Called(ctx, name)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

func (m *MockSession) FindMemberProfiles(ctx context.Context, name string) ([]ipbauth.Member, error) {
	args := m.Called(ctx, name)
	rows, _ := args.Get(0).([]ipbauth.Member)
	return rows, args.Error(1)
}

func (m *MockSession) CountPendingValidations(ctx context.Context, memberID int64) (int, error) {
	args := m.Called(ctx, memberID)
	return args.Int(0), args.Error(1)
}

func (m *MockSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

// fakeUser implements ipbauth.HostUser
type fakeUser struct {
	username  string
	email     string
	realName  string
	confirmed *bool
}

func (u *fakeUser) GetUsername() string { return u.username }

func (u *fakeUser) SetEmail(email string) { u.email = email }

func (u *fakeUser) SetRealName(name string) { u.realName = name }

func (u *fakeUser) SetEmailConfirmed(confirmed bool) { u.confirmed = &confirmed }

// memoryUserStore implements ipbauth.HostUserStore
type memoryUserStore struct {
	mu      sync.Mutex
	groups  map[string]map[string]bool
	saved   int
	saveErr error
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{groups: map[string]map[string]bool{}}
}

func (s *memoryUserStore) grant(username string, groups ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.groups[username] == nil {
		s.groups[username] = map[string]bool{}
	}
	for _, g := range groups {
		s.groups[username][g] = true
	}
}

func (s *memoryUserStore) EffectiveGroups(_ context.Context, user ipbauth.HostUser) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{}
	for g := range s.groups[user.GetUsername()] {
		out = append(out, g)
	}
	sort.Strings(out)
	return out, nil
}

func (s *memoryUserStore) AddToGroup(_ context.Context, user ipbauth.HostUser, group string) error {
	s.grant(user.GetUsername(), group)
	return nil
}

func (s *memoryUserStore) RemoveFromGroup(_ context.Context, user ipbauth.HostUser, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups[user.GetUsername()], group)
	return nil
}

func (s *memoryUserStore) Save(context.Context, ipbauth.HostUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved++
	return nil
}

// recordingSink collects activity events
type recordingSink struct {
	mu     sync.Mutex
	events []ipbauth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event ipbauth.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []ipbauth.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ipbauth.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}
