package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuthChangeEvent identifies the kind of change the identity provider
// reported on its auth stream.
type AuthChangeEvent string

const (
	// AuthChangeInitial fires once after subscribing, with the restored
	// session (or nil when signed out).
	AuthChangeInitial AuthChangeEvent = "INITIAL_SESSION"
	// AuthChangeSignedIn fires after a successful sign in or sign up.
	AuthChangeSignedIn AuthChangeEvent = "SIGNED_IN"
	// AuthChangeSignedOut fires after a sign out or session expiry.
	AuthChangeSignedOut AuthChangeEvent = "SIGNED_OUT"
	// AuthChangeTokenRefreshed fires when the provider rotates the token
	// backing an existing session.
	AuthChangeTokenRefreshed AuthChangeEvent = "TOKEN_REFRESHED"
	// AuthChangePasswordRecovery fires when the user lands back from a
	// password recovery link.
	AuthChangePasswordRecovery AuthChangeEvent = "PASSWORD_RECOVERY"
)

// Session holds attributes that are part of an identity session. The core
// only observes presence and the stable user identifier; the token itself is
// owned by the provider.
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetAccessToken() string
	GetIssuedAt() *time.Time
	GetExpiresAt() *time.Time
	GetData() map[string]any
}

// AuthChangeHandler receives every auth change with the session that is now
// current, or nil when no session exists.
type AuthChangeHandler func(event AuthChangeEvent, session Session)

// Subscription is the handle returned when subscribing to auth changes.
type Subscription interface {
	Unsubscribe()
}

// Registration carries the account creation payload, including the profile
// seed metadata the provider attaches to the new identity.
type Registration struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	FullName string         `json:"full_name"`
	Phone    string         `json:"phone_number"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Provider is the identity provider the session core consumes. It exposes
// exactly the operations the core uses, nothing else.
type Provider interface {
	// CurrentSession returns the restored session, or nil when signed out.
	CurrentSession(ctx context.Context) (Session, error)
	// OnAuthChange subscribes to the auth change stream. The handler fires
	// once with the current state right after subscribing, and again on
	// every subsequent sign in/out.
	OnAuthChange(handler AuthChangeHandler) Subscription
	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, reg Registration) (Session, error)
	SignOut(ctx context.Context) error
	// SendPasswordReset emails a recovery link that redirects back to
	// redirectTo once the password was changed.
	SendPasswordReset(ctx context.Context, email, redirectTo string) error
}

// RecordStore is the structured record store holding profile rows. Row level
// security is enforced server side; calls may be rejected with an
// authorization error.
type RecordStore interface {
	// GetByID returns exactly one profile whose primary key equals id.
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	// UpdateFields applies a partial update to the row keyed by id.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Insert(ctx context.Context, profile *Profile) (*Profile, error)
}

// Config holds session manager options
type Config interface {
	// GetBootstrapTimeout bounds how long Loading may stay true when the
	// provider never emits an event.
	GetBootstrapTimeout() time.Duration
	GetEnrichmentAttempts() int
	GetEnrichmentBackoff() time.Duration
	// GetLoginRoute is the route password reset links redirect back to.
	GetLoginRoute() string
}
