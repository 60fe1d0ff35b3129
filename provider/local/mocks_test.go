package local_test

import (
	"context"
	"sync"
	"time"

	"github.com/codewaveai/go-session"
	"github.com/codewaveai/go-session/provider/local"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) GetByEmail(ctx context.Context, email string) (*local.Account, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*local.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccounts) Create(ctx context.Context, record *local.Account, criteria ...repository.InsertCriteria) (*local.Account, error) {
	args := m.Called(ctx, record)
	if u := args.Get(0); u != nil {
		return u.(*local.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccounts) TrackAttemptedLogin(ctx context.Context, account *local.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockAccounts) TrackSuccessfulLogin(ctx context.Context, account *local.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockAccounts) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*session.Profile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: map[uuid.UUID]*session.Profile{}}
}

func (f *fakeProfiles) GetByID(ctx context.Context, id uuid.UUID) (*session.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[id]; ok {
		return p.Clone(), nil
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeProfiles) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[id]; !ok {
		return repository.NewRecordNotFound()
	}
	return nil
}

func (f *fakeProfiles) Insert(ctx context.Context, profile *session.Profile) (*session.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[profile.ID] = profile.Clone()
	return profile, nil
}

func (f *fakeProfiles) get(id uuid.UUID) *session.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[id]; ok {
		return p.Clone()
	}
	return nil
}

type fakeResetRecords struct {
	mu      sync.Mutex
	records map[uuid.UUID]*local.PasswordReset
	created []*local.PasswordReset
	failure error
}

func newFakeResetRecords() *fakeResetRecords {
	return &fakeResetRecords{records: map[uuid.UUID]*local.PasswordReset{}}
}

func (f *fakeResetRecords) Create(ctx context.Context, record *local.PasswordReset, criteria ...repository.InsertCriteria) (*local.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failure != nil {
		return nil, f.failure
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
	}
	f.records[record.ID] = record
	f.created = append(f.created, record)
	return record, nil
}

func (f *fakeResetRecords) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*local.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid reset id")
	}
	if record, ok := f.records[parsed]; ok {
		return record, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (f *fakeResetRecords) Update(ctx context.Context, record *local.PasswordReset, criteria ...repository.UpdateCriteria) (*local.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.records[record.ID]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	if record.Status != "" {
		existing.Status = record.Status
	}
	if record.ResetedAt != nil {
		existing.ResetedAt = record.ResetedAt
	}
	return existing, nil
}

type recordedEvent struct {
	event   session.AuthChangeEvent
	session session.Session
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) handler() session.AuthChangeHandler {
	return func(event session.AuthChangeEvent, sess session.Session) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, recordedEvent{event: event, session: sess})
	}
}

func (r *eventRecorder) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

func newTestTokens() *local.TokenService {
	return local.NewTokenService([]byte("test-signing-key"), 24, "go-session-test", nil, nil)
}
