package session

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// DefaultBootstrapTimeout bounds the startup loading window when the
// provider never emits an event.
var DefaultBootstrapTimeout = 5 * time.Second

// DefaultEnrichmentAttempts is how many times signup enrichment retries while
// waiting for the provider trigger to materialize the profile row.
var DefaultEnrichmentAttempts = 5

// DefaultEnrichmentBackoff is the base delay between enrichment attempts.
var DefaultEnrichmentBackoff = 200 * time.Millisecond

// DefaultLoginRoute is where password reset links redirect back to.
var DefaultLoginRoute = "/login"

// Manager owns the shared auth state: it bootstraps the session at startup,
// keeps the profile synchronized with provider events, and exposes the
// credential operations. All state mutation funnels through the manager.
type Manager struct {
	provider     Provider
	store        RecordStore
	logger       Logger
	logProvider  LoggerProvider
	activitySink ActivitySink
	phases       *phaseMachine

	bootstrapTimeout time.Duration
	enrichAttempts   int
	enrichBackoff    time.Duration
	loginRoute       string

	mu         sync.Mutex
	user       *Profile
	loading    bool
	started    bool
	stopped    bool
	eventSeen  bool
	generation uint64
	sub        Subscription
	timer      *time.Timer

	// schedule defers work off the provider's dispatch path. Tests replace
	// it to run fetches deterministically.
	schedule func(fn func())
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewManager returns a Manager wired to the given provider and record store.
func NewManager(provider Provider, store RecordStore, cfg Config) *Manager {
	m := &Manager{
		provider:         provider,
		store:            store,
		logger:           defLogger{},
		activitySink:     noopActivitySink{},
		phases:           NewPhaseMachine(),
		bootstrapTimeout: DefaultBootstrapTimeout,
		enrichAttempts:   DefaultEnrichmentAttempts,
		enrichBackoff:    DefaultEnrichmentBackoff,
		loginRoute:       DefaultLoginRoute,
		loading:          true,
		schedule:         func(fn func()) { go fn() },
		sleep:            sleepContext,
	}

	if cfg != nil {
		if d := cfg.GetBootstrapTimeout(); d > 0 {
			m.bootstrapTimeout = d
		}
		if n := cfg.GetEnrichmentAttempts(); n > 0 {
			m.enrichAttempts = n
		}
		if d := cfg.GetEnrichmentBackoff(); d > 0 {
			m.enrichBackoff = d
		}
		if r := cfg.GetLoginRoute(); r != "" {
			m.loginRoute = r
		}
	}

	return m
}

func (m *Manager) WithLogger(logger Logger) *Manager {
	m.logProvider, m.logger = ResolveLogger("session.manager", m.logProvider, logger)
	m.phases = NewPhaseMachine(
		WithPhaseMachineLogger(m.logger),
		WithPhaseMachineActivitySink(m.activitySink),
	)
	return m
}

// WithLoggerProvider overrides the logger provider used by the manager.
func (m *Manager) WithLoggerProvider(provider LoggerProvider) *Manager {
	m.logProvider, m.logger = ResolveLogger("session.manager", provider, nil)
	return m
}

// WithActivitySink configures the sink auth lifecycle events are emitted to.
func (m *Manager) WithActivitySink(sink ActivitySink) *Manager {
	m.activitySink = normalizeActivitySink(sink)
	m.phases = NewPhaseMachine(
		WithPhaseMachineLogger(m.logger),
		WithPhaseMachineActivitySink(m.activitySink),
	)
	return m
}

// Start subscribes to the provider's auth change stream and arms the safety
// timeout. It must be called once before the consumer surface is used.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return goerrors.New("session manager already started", goerrors.CategoryOperation).
			WithCode(goerrors.CodeConflict)
	}
	m.started = true
	m.loading = true
	m.mu.Unlock()

	m.sub = m.provider.OnAuthChange(m.handleAuthChange)

	// Safety net: clear loading even if the provider never emits.
	m.timer = time.AfterFunc(m.bootstrapTimeout, m.onBootstrapTimeout)

	// Initial state fetch covers providers that do not replay the current
	// session to new subscribers.
	m.schedule(func() {
		m.mu.Lock()
		seen := m.eventSeen || m.stopped
		m.mu.Unlock()
		if seen {
			return
		}

		sess, err := m.provider.CurrentSession(ctx)
		if err != nil {
			// Leave resolution to the safety timeout; a broken provider
			// bootstrap must not masquerade as a signed out determination.
			m.logger.Error("initial session fetch failed", "error", err)
			return
		}
		m.handleAuthChange(AuthChangeInitial, sess)
	})

	return nil
}

// Stop tears the manager down: it unsubscribes from the provider and cancels
// the safety timeout. Events delivered after Stop are inert. Safe to call on
// every exit path; only the first call does work.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	sub := m.sub
	timer := m.timer
	m.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	if timer != nil {
		timer.Stop()
	}
}

// User returns the current profile, or nil when anonymous. The returned
// value is a copy; mutating it does not affect shared state.
func (m *Manager) User() *Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user.Clone()
}

// Loading reports whether the startup determination is still pending.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Phase returns the lifecycle phase the manager is in.
func (m *Manager) Phase() Phase {
	return m.phases.Current()
}

// handleAuthChange processes one provider event. Session-absent events apply
// immediately; session-present events schedule the profile fetch off the
// dispatch path so the provider's internal event loop is never blocked.
func (m *Manager) handleAuthChange(event AuthChangeEvent, sess Session) {
	m.mu.Lock()
	if !m.started || m.stopped {
		m.mu.Unlock()
		return
	}
	m.eventSeen = true
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	m.logger.Debug("auth change", "event", event, "present", sess != nil)

	if sess == nil {
		m.applyAnonymous(gen, string(event))
		return
	}

	userID := sess.GetUserID()
	m.schedule(func() {
		m.syncProfile(context.Background(), gen, userID)
	})
}

// applyAnonymous clears the shared state for a session-absent determination.
func (m *Manager) applyAnonymous(gen uint64, reason string) {
	m.mu.Lock()
	if m.stopped || gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.user = nil
	m.loading = false
	m.mu.Unlock()

	if _, err := m.phases.Advance(context.Background(), PhaseAnonymous, reason); err != nil {
		m.logger.Debug("phase advance skipped", "error", err)
	}
}

func (m *Manager) onBootstrapTimeout() {
	m.mu.Lock()
	if m.stopped || !m.loading {
		m.mu.Unlock()
		return
	}
	m.loading = false
	stillInitializing := m.phases.Current() == PhaseInitializing
	m.mu.Unlock()

	m.logger.Warn("auth bootstrap timed out, treating as signed out")

	if stillInitializing {
		if _, err := m.phases.Advance(context.Background(), PhaseAnonymous, "bootstrap_timeout"); err != nil {
			m.logger.Debug("phase advance skipped", "error", err)
		}
	}
}

func (m *Manager) emitActivity(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(m.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
