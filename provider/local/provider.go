package local

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/codewaveai/go-session"
	goerrors "github.com/goliatone/go-errors"
)

var (
	// ErrInvalidCredentials is returned for a wrong email or password. The
	// message is deliberately identical for both cases.
	ErrInvalidCredentials = goerrors.New("Invalid login credentials", goerrors.CategoryAuth).
				WithTextCode("INVALID_CREDENTIALS")
	// ErrTooManyLoginAttempts is returned while the cooldown window is active.
	ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryAuth).
				WithTextCode("TOO_MANY_ATTEMPTS")
	// ErrEmailTaken is returned when signing up with an email that already
	// has an account.
	ErrEmailTaken = goerrors.New("User already registered", goerrors.CategoryConflict).
			WithTextCode("EMAIL_TAKEN")
)

// MaxLoginAttempts is the number of failed logins tolerated per cooldown
// window.
var MaxLoginAttempts = 5

// CoolDownPeriod is the window during which failed attempts accumulate.
var CoolDownPeriod = "24h"

// DefaultTriggerDelay paces the profile row creation that follows a signup,
// mirroring a database trigger that commits after the auth transaction.
var DefaultTriggerDelay = 50 * time.Millisecond

// Provider is a database backed identity provider. It keeps the current
// session in memory, persists credentials through the accounts store, and
// reports every change on its auth stream.
type Provider struct {
	accounts    AccountStore
	profiles    session.RecordStore
	tokens      *TokenService
	resets      *ResetService
	logger      session.Logger
	logProvider session.LoggerProvider
	events      *broadcaster

	mu      sync.Mutex
	current *session.SessionObject

	triggerDelay time.Duration
	spawn        func(fn func())
}

var _ session.Provider = (*Provider)(nil)

// NewProvider wires an identity provider over the given stores.
func NewProvider(accounts AccountStore, profiles session.RecordStore, tokens *TokenService) *Provider {
	logProvider, logger := session.ResolveLogger("provider.local", nil, nil)
	return &Provider{
		accounts:     accounts,
		profiles:     profiles,
		tokens:       tokens,
		logger:       logger,
		logProvider:  logProvider,
		events:       newBroadcaster(),
		triggerDelay: DefaultTriggerDelay,
		spawn:        func(fn func()) { go fn() },
	}
}

func (p *Provider) WithLogger(l session.Logger) *Provider {
	p.logProvider, p.logger = session.ResolveLogger("provider.local", p.logProvider, l)
	return p
}

func (p *Provider) WithLoggerProvider(provider session.LoggerProvider) *Provider {
	p.logProvider, p.logger = session.ResolveLogger("provider.local", provider, p.logger)
	return p
}

// WithResetService wires the password recovery flow.
func (p *Provider) WithResetService(resets *ResetService) *Provider {
	p.resets = resets
	return p
}

// WithTriggerDelay overrides how long the profile row creation lags behind a
// signup. Zero makes it synchronous.
func (p *Provider) WithTriggerDelay(d time.Duration) *Provider {
	p.triggerDelay = d
	return p
}

// CurrentSession returns the in memory session, dropping it first when it
// has expired.
func (p *Provider) CurrentSession(ctx context.Context) (session.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && p.current.Expired(time.Now()) {
		p.logger.Debug("restored session expired, discarding", "user_id", p.current.UserID)
		p.current = nil
	}

	if p.current == nil {
		return nil, nil
	}
	return p.current, nil
}

// RestoreSession validates a previously issued token and adopts it as the
// current session. Used to rehydrate state across process restarts.
func (p *Provider) RestoreSession(ctx context.Context, token string) error {
	record, err := p.tokens.Validate(token)
	if err != nil {
		return err
	}
	record.AccessToken = token

	p.mu.Lock()
	p.current = record
	p.mu.Unlock()

	return nil
}

// OnAuthChange registers a handler on the auth stream. The handler fires once
// with the current state before OnAuthChange returns, then again on every
// sign in and sign out.
func (p *Provider) OnAuthChange(handler session.AuthChangeHandler) session.Subscription {
	sub := p.events.subscribe(handler)

	p.mu.Lock()
	current := p.current
	p.mu.Unlock()

	if current != nil {
		handler(session.AuthChangeInitial, current)
	} else {
		handler(session.AuthChangeInitial, nil)
	}

	return sub
}

// SignInWithPassword authenticates an account and opens a session.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (session.Session, error) {
	account, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		if IsAccountNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during sign in")
	}

	if account.LoginAttemptAt != nil {
		expired, err := isOutsideThresholdPeriod(*account.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to calculate login attempt cooldown")
		}
		if expired {
			account.LoginAttempts = 0
		}
	}

	if account.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	ok, err := ComparePasswordAndHash(password, account.PasswordHash)
	if err != nil {
		return nil, err
	}

	if !ok {
		if err := p.accounts.TrackAttemptedLogin(ctx, account); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to track login attempt")
		}
		return nil, ErrInvalidCredentials
	}

	if err := p.accounts.TrackSuccessfulLogin(ctx, account); err != nil {
		p.logger.Error("failed to track successful login", "error", err)
	}

	return p.openSession(account)
}

// SignUp creates the account, seeds the profile row, and opens a session.
func (p *Provider) SignUp(ctx context.Context, reg Registration) (session.Session, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))

	if _, err := p.accounts.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !IsAccountNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check account during sign up")
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{}
	for k, v := range reg.Metadata {
		metadata[k] = v
	}
	if reg.FullName != "" {
		metadata["full_name"] = reg.FullName
	}
	if reg.Phone != "" {
		metadata["phone_number"] = reg.Phone
	}

	account, err := p.accounts.Create(ctx, &Account{
		Email:        email,
		PasswordHash: hash,
		Metadata:     metadata,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create account")
	}

	p.scheduleProfileSeed(account)

	return p.openSession(account)
}

// SignOut drops the current session and notifies subscribers. Signing out
// without a session is not an error.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	had := p.current != nil
	p.current = nil
	p.mu.Unlock()

	if had {
		p.logger.Debug("session closed")
	}
	p.events.emit(session.AuthChangeSignedOut, nil)

	return nil
}

// SendPasswordReset issues a recovery link. Unknown emails are swallowed so
// the endpoint does not leak which addresses have accounts.
func (p *Provider) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	if p.resets == nil {
		return goerrors.New("password recovery is not configured", goerrors.CategoryInternal).
			WithTextCode("RESET_NOT_CONFIGURED")
	}

	account, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		if IsAccountNotFound(err) {
			p.logger.Debug("password reset requested for unknown email", "email", email)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password reset")
	}

	return p.resets.Initialize(ctx, account, redirectTo)
}

// RedeemPasswordReset finalizes a recovery flow: it swaps the password and
// announces the recovery on the auth stream.
func (p *Provider) RedeemPasswordReset(ctx context.Context, token, newPassword string) error {
	if p.resets == nil {
		return goerrors.New("password recovery is not configured", goerrors.CategoryInternal).
			WithTextCode("RESET_NOT_CONFIGURED")
	}

	accountID, err := p.resets.Redeem(ctx, token)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := p.accounts.ResetPassword(ctx, accountID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store new password")
	}

	p.events.emit(session.AuthChangePasswordRecovery, nil)

	return nil
}

func (p *Provider) openSession(account *Account) (session.Session, error) {
	_, record, err := p.tokens.Generate(account)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.current = record
	p.mu.Unlock()

	p.events.emit(session.AuthChangeSignedIn, record)

	return record, nil
}

// scheduleProfileSeed creates the profile row that mirrors the new account.
// It runs detached so the signup response does not wait on it, which means
// the row may briefly not exist yet.
func (p *Provider) scheduleProfileSeed(account *Account) {
	seed := func() {
		profile := &session.Profile{
			ID:    account.ID,
			Email: account.Email,
		}
		if name, ok := account.Metadata["full_name"].(string); ok {
			profile.FullName = name
		}
		if phone, ok := account.Metadata["phone_number"].(string); ok {
			profile.Phone = phone
		}
		profile.EnsureRole()

		if _, err := p.profiles.Insert(context.Background(), profile); err != nil {
			p.logger.Error("failed to seed profile row", "error", err, "account", accountLabel(account))
		}
	}

	if p.triggerDelay <= 0 {
		seed()
		return
	}

	delay := p.triggerDelay
	p.spawn(func() {
		time.Sleep(delay)
		seed()
	})
}

// Registration aliases the core payload so callers importing only this
// package can construct it.
type Registration = session.Registration

func isOutsideThresholdPeriod(t time.Time, pattern string) (bool, error) {
	duration, err := time.ParseDuration(pattern)
	if err != nil {
		return false, err
	}
	threshold := time.Now().Add(-duration)
	return !t.After(threshold), nil
}
