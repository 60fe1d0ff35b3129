package session_test

import (
	"context"
	"sync"
	"time"

	session "github.com/codewaveai/go-session"
	"github.com/google/uuid"
)

// fakeProvider is an in-memory identity provider for tests. Emit delivers an
// auth change to every live subscriber, mimicking the provider event stream.
type fakeProvider struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]session.AuthChangeHandler

	current       session.Session
	currentErr    error
	signInSession session.Session
	signInErr     error
	signUpSession session.Session
	signUpErr     error
	signOutErr    error
	resetErr      error

	signOutCalls  int
	lastSignUp    session.Registration
	lastResetTo   string
	lastResetMail string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{handlers: map[int]session.AuthChangeHandler{}}
}

func (f *fakeProvider) CurrentSession(ctx context.Context) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.currentErr
}

func (f *fakeProvider) OnAuthChange(handler session.AuthChangeHandler) session.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.handlers[id] = handler
	return &fakeSubscription{provider: f, id: id}
}

func (f *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (session.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.signInSession, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, reg session.Registration) (session.Session, error) {
	f.mu.Lock()
	f.lastSignUp = reg
	f.mu.Unlock()
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return f.signUpSession, nil
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOutCalls++
	f.mu.Unlock()
	return f.signOutErr
}

func (f *fakeProvider) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	f.mu.Lock()
	f.lastResetMail = email
	f.lastResetTo = redirectTo
	f.mu.Unlock()
	return f.resetErr
}

// Emit delivers an event to all live subscribers.
func (f *fakeProvider) Emit(event session.AuthChangeEvent, sess session.Session) {
	f.mu.Lock()
	handlers := make([]session.AuthChangeHandler, 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(event, sess)
	}
}

func (f *fakeProvider) subscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

type fakeSubscription struct {
	provider *fakeProvider
	id       int
	once     sync.Once
}

func (s *fakeSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.provider.mu.Lock()
		delete(s.provider.handlers, s.id)
		s.provider.mu.Unlock()
	})
}

// fakeStore is an in-memory RecordStore. missingUntil makes the first N
// UpdateFields calls report a missing row, simulating the signup trigger
// still running.
type fakeStore struct {
	mu           sync.Mutex
	profiles     map[uuid.UUID]*session.Profile
	getErr       error
	updateErr    error
	missingUntil int
	updateCalls  int
	getCalls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: map[uuid.UUID]*session.Profile{}}
}

func (f *fakeStore) put(p *session.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.ID] = p
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*session.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, session.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (f *fakeStore) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updateCalls <= f.missingUntil {
		return session.ErrProfileNotFound
	}

	p, ok := f.profiles[id]
	if !ok {
		// Trigger analog: the row appears once the window elapses.
		p = &session.Profile{ID: id, Role: session.RoleMember}
		f.profiles[id] = p
	}

	if v, ok := fields["full_name"].(string); ok {
		p.FullName = v
	}
	if v, ok := fields["phone_number"].(string); ok {
		p.Phone = v
	}
	if v, ok := fields["bio"].(string); ok {
		p.Bio = v
	}
	if v, ok := fields["avatar_url"].(string); ok {
		p.AvatarURL = v
	}
	return nil
}

func (f *fakeStore) Insert(ctx context.Context, profile *session.Profile) (*session.Profile, error) {
	f.put(profile)
	return profile, nil
}

func (f *fakeStore) get(id uuid.UUID) *session.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles[id].Clone()
}

func (f *fakeStore) updates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateCalls
}

// recordingSink captures activity events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []session.ActivityEvent
}

func (r *recordingSink) Record(ctx context.Context, event session.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) ofType(t session.ActivityEventType) []session.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []session.ActivityEvent{}
	for _, e := range r.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

// testConfig implements session.Config with explicit values.
type testConfig struct {
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	login    string
}

func (c testConfig) GetBootstrapTimeout() time.Duration  { return c.timeout }
func (c testConfig) GetEnrichmentAttempts() int          { return c.attempts }
func (c testConfig) GetEnrichmentBackoff() time.Duration { return c.backoff }
func (c testConfig) GetLoginRoute() string               { return c.login }

// newTestManager wires a manager with synchronous scheduling so event
// processing is deterministic.
func newTestManager(provider *fakeProvider, store *fakeStore) *session.Manager {
	m := session.NewManager(provider, store, testConfig{
		timeout:  50 * time.Millisecond,
		attempts: 3,
		backoff:  time.Millisecond,
		login:    "/login",
	})
	m.SetSchedule(func(fn func()) { fn() })
	m.SetSleep(func(ctx context.Context, d time.Duration) error { return nil })
	return m
}

func sessionFor(id uuid.UUID) *session.SessionObject {
	now := time.Now()
	return &session.SessionObject{
		UserID:      id.String(),
		AccessToken: "token-" + id.String(),
		IssuedAt:    &now,
	}
}
