package session

import (
	"context"
	"time"
)

// ActivityEventType identifies the kind of lifecycle event being recorded.
type ActivityEventType string

const (
	ActivityEventPhaseChanged  ActivityEventType = "session.phase_changed"
	ActivityEventLoginSuccess  ActivityEventType = "session.login_success"
	ActivityEventLoginFailure  ActivityEventType = "session.login_failure"
	ActivityEventSignupSuccess ActivityEventType = "session.signup_success"
	ActivityEventSignupFailure ActivityEventType = "session.signup_failure"
	ActivityEventLogout        ActivityEventType = "session.logout"
	ActivityEventResetRequest  ActivityEventType = "session.password_reset_requested"
	ActivityEventProfileUpdate ActivityEventType = "session.profile_updated"
)

// ActivityEvent is a single auditable auth event.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	FromPhase  Phase
	ToPhase    Phase
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink receives auth lifecycle events. Implementations must be safe
// to call from the event dispatch path and should not block.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error { return nil }

func normalizeActivitySink(sink ActivitySink) ActivitySink {
	if sink == nil {
		return noopActivitySink{}
	}
	return sink
}
