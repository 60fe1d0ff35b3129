package session

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is the region used when a phone number has no country
// prefix.
var DefaultPhoneRegion = "US"

// Validate runs the registration rules the signup form enforces.
func (r Registration) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Phone, validation.By(ValidPhoneNumber)),
	)
}

// ValidPhoneNumber checks the value parses as a dialable phone number.
// Empty values pass; the field is optional.
func ValidPhoneNumber(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil {
		return fmt.Errorf("invalid phone number: %w", err)
	}

	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("phone number is not dialable")
	}

	return nil
}

// Login delegates to the provider. It does not set the user; the resulting
// session event is what flips the shared state.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if _, err := m.provider.SignInWithPassword(ctx, email, password); err != nil {
		m.logger.Error("login rejected", "email", email, "error", err)
		m.emitActivity(ctx, ActivityEventLoginFailure, "", map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return NewAuthError(err, err.Error())
	}

	m.emitActivity(ctx, ActivityEventLoginSuccess, "", map[string]any{"email": email})
	return nil
}

// Signup creates the identity account with the profile seed metadata, then
// enriches the trigger-created profile row. Signup has succeeded once the
// account exists; a failed enrichment is logged and dropped.
func (m *Manager) Signup(ctx context.Context, reg Registration) error {
	if err := reg.Validate(); err != nil {
		return NewAuthError(err, err.Error())
	}

	sess, err := m.provider.SignUp(ctx, reg)
	if err != nil {
		m.logger.Error("signup rejected", "email", reg.Email, "error", err)
		m.emitActivity(ctx, ActivityEventSignupFailure, "", map[string]any{
			"email": reg.Email,
			"error": err.Error(),
		})
		return NewAuthError(err, err.Error())
	}

	m.emitActivity(ctx, ActivityEventSignupSuccess, sess.GetUserID(), map[string]any{
		"email": reg.Email,
	})

	enrich := EnrichProfileHandler{
		Store:       m.store,
		Logger:      m.logger,
		MaxAttempts: m.enrichAttempts,
		Backoff:     m.enrichBackoff,
		Sleep:       m.sleep,
	}

	msg := EnrichProfileMessage{
		UserID:   sess.GetUserID(),
		FullName: reg.FullName,
		Phone:    reg.Phone,
	}

	if err := enrich.Execute(ctx, msg); err != nil {
		// Eventual consistency window: the trigger may still be running.
		// The account exists, so signup stays successful.
		m.logger.Warn("profile enrichment dropped", "user_id", msg.UserID, "error", err)
	}

	return nil
}

// Logout delegates to the provider's sign out and unconditionally clears the
// shared user: a failed remote sign out must not leave the UI showing a
// stale authenticated identity.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.provider.SignOut(ctx)
	if err != nil {
		m.logger.Error("provider sign out failed", "error", err)
	}

	m.mu.Lock()
	userID := ""
	if m.user != nil {
		userID = m.user.ID.String()
	}
	m.generation++
	m.user = nil
	m.loading = false
	m.mu.Unlock()

	if _, aerr := m.phases.Advance(ctx, PhaseAnonymous, "logout"); aerr != nil {
		m.logger.Debug("phase advance skipped", "error", aerr)
	}

	m.emitActivity(ctx, ActivityEventLogout, userID, nil)

	if err != nil {
		return NewAuthError(err, "sign out failed")
	}
	return nil
}

// ResetPassword asks the provider to email a recovery link redirecting back
// to the application's login route.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	if err := m.provider.SendPasswordReset(ctx, email, m.loginRoute); err != nil {
		m.logger.Error("password reset rejected", "email", email, "error", err)
		return NewAuthError(err, err.Error())
	}

	m.emitActivity(ctx, ActivityEventResetRequest, "", map[string]any{"email": email})
	return nil
}

// UpdateProfile issues a partial update keyed by the current user and, on
// success, merges the patch into the in-memory profile without re-fetching.
// A no-op when nobody is signed in.
func (m *Manager) UpdateProfile(ctx context.Context, patch ProfilePatch) error {
	m.mu.Lock()
	current := m.user
	m.mu.Unlock()

	if current == nil {
		return nil
	}

	if patch.IsZero() {
		return nil
	}

	if err := m.store.UpdateFields(ctx, current.ID, patch.Fields()); err != nil {
		m.logger.Error("profile update failed", "user_id", current.ID, "error", err)
		return NewStoreError(err, "failed to update profile")
	}

	m.mu.Lock()
	// Merge against the latest value in case a fetch landed meanwhile.
	if m.user != nil {
		m.user = m.user.Apply(patch)
	}
	m.mu.Unlock()

	m.emitActivity(ctx, ActivityEventProfileUpdate, current.ID.String(), map[string]any{
		"fields": len(patch.Fields()),
	})

	return nil
}
