package session

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const textCodeInvalidPhaseChange = "INVALID_SESSION_PHASE_CHANGE"

// ErrInvalidPhaseChange is returned when a requested phase change is not
// allowed by the lifecycle.
var ErrInvalidPhaseChange = goerrors.New("invalid session phase change", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidPhaseChange).
	WithCode(goerrors.CodeBadRequest)

// Phase is a state of the session lifecycle.
type Phase string

const (
	// PhaseInitializing is the startup window before the first resolved
	// profile-fetch-or-absence determination.
	PhaseInitializing Phase = "initializing"
	// PhaseAuthenticated means a session exists and its profile was fetched.
	PhaseAuthenticated Phase = "authenticated"
	// PhaseAnonymous means no session, a failed fetch, or a timeout.
	PhaseAnonymous Phase = "anonymous"
)

// PhaseChange captures a single lifecycle transition for observers.
type PhaseChange struct {
	From       Phase
	To         Phase
	Reason     string
	OccurredAt time.Time
}

// PhaseMachineOption customizes phase machine construction.
type PhaseMachineOption func(*phaseMachine)

// WithPhaseMachineClock injects a custom clock (useful for tests).
func WithPhaseMachineClock(clock func() time.Time) PhaseMachineOption {
	return func(pm *phaseMachine) {
		if clock != nil {
			pm.now = clock
		}
	}
}

// WithPhaseMachineActivitySink sets the sink phase changes are published to.
func WithPhaseMachineActivitySink(sink ActivitySink) PhaseMachineOption {
	return func(pm *phaseMachine) {
		pm.activitySink = normalizeActivitySink(sink)
	}
}

// WithPhaseMachineLogger overrides the logger used for sink failures.
func WithPhaseMachineLogger(logger Logger) PhaseMachineOption {
	return func(pm *phaseMachine) {
		if logger != nil {
			pm.logger = logger
		}
	}
}

// NewPhaseMachine returns the lifecycle machine in PhaseInitializing. There
// is no terminal phase; the machine runs for the lifetime of the consumer
// surface that owns it.
func NewPhaseMachine(opts ...PhaseMachineOption) *phaseMachine {
	pm := &phaseMachine{
		current: PhaseInitializing,
		transitions: map[Phase]map[Phase]struct{}{
			PhaseInitializing: {
				PhaseAuthenticated: {},
				PhaseAnonymous:     {},
			},
			PhaseAuthenticated: {
				PhaseAnonymous: {},
			},
			PhaseAnonymous: {
				PhaseAuthenticated: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(pm)
		}
	}

	return pm
}

type phaseMachine struct {
	mu           sync.Mutex
	current      Phase
	transitions  map[Phase]map[Phase]struct{}
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

// Current returns the phase the machine is in.
func (pm *phaseMachine) Current() Phase {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.current
}

// Advance moves the machine to target, recording the change on the activity
// sink. Advancing to the current phase is a no-op.
func (pm *phaseMachine) Advance(ctx context.Context, target Phase, reason string) (PhaseChange, error) {
	pm.mu.Lock()
	from := pm.current

	if target == "" {
		pm.mu.Unlock()
		return PhaseChange{}, ErrInvalidPhaseChange.WithMetadata(map[string]any{
			"reason": "target phase is empty",
		})
	}

	if from == target {
		pm.mu.Unlock()
		return PhaseChange{From: from, To: target, Reason: reason, OccurredAt: pm.now()}, nil
	}

	if !pm.canAdvance(from, target) {
		pm.mu.Unlock()
		return PhaseChange{}, ErrInvalidPhaseChange.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	pm.current = target
	change := PhaseChange{From: from, To: target, Reason: reason, OccurredAt: pm.now()}
	pm.mu.Unlock()

	pm.recordActivity(ctx, change)

	return change, nil
}

func (pm *phaseMachine) canAdvance(from, to Phase) bool {
	if allowed, ok := pm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (pm *phaseMachine) recordActivity(ctx context.Context, change PhaseChange) {
	sink := normalizeActivitySink(pm.activitySink)
	err := sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventPhaseChanged,
		FromPhase:  change.From,
		ToPhase:    change.To,
		Metadata:   map[string]any{"reason": change.Reason},
		OccurredAt: change.OccurredAt,
	})
	if err != nil {
		pm.logger.Warn("phase machine activity sink error: %v", err)
	}
}
