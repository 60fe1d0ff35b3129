package session_test

import (
	"context"
	"testing"
	"time"

	session "github.com/codewaveai/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseMachineStartsInitializing(t *testing.T) {
	pm := session.NewPhaseMachine()
	assert.Equal(t, session.PhaseInitializing, pm.Current())
}

func TestPhaseMachineAllowedTransitions(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		path []session.Phase
	}{
		{"bootstrap to authenticated", []session.Phase{session.PhaseAuthenticated}},
		{"bootstrap to anonymous", []session.Phase{session.PhaseAnonymous}},
		{"sign out after bootstrap", []session.Phase{session.PhaseAuthenticated, session.PhaseAnonymous}},
		{"sign back in", []session.Phase{session.PhaseAnonymous, session.PhaseAuthenticated, session.PhaseAnonymous, session.PhaseAuthenticated}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pm := session.NewPhaseMachine()
			for _, target := range tc.path {
				_, err := pm.Advance(ctx, target, "test")
				require.NoError(t, err)
			}
			assert.Equal(t, tc.path[len(tc.path)-1], pm.Current())
		})
	}
}

func TestPhaseMachineRejectsBackToInitializing(t *testing.T) {
	ctx := context.Background()
	pm := session.NewPhaseMachine()

	_, err := pm.Advance(ctx, session.PhaseAnonymous, "test")
	require.NoError(t, err)

	_, err = pm.Advance(ctx, session.PhaseInitializing, "test")
	assert.Error(t, err)
	assert.Equal(t, session.PhaseAnonymous, pm.Current())
}

func TestPhaseMachineRejectsEmptyTarget(t *testing.T) {
	pm := session.NewPhaseMachine()
	_, err := pm.Advance(context.Background(), session.Phase(""), "test")
	assert.Error(t, err)
}

func TestPhaseMachineSamePhaseIsNoop(t *testing.T) {
	ctx := context.Background()
	pm := session.NewPhaseMachine()

	_, err := pm.Advance(ctx, session.PhaseAnonymous, "first")
	require.NoError(t, err)

	change, err := pm.Advance(ctx, session.PhaseAnonymous, "again")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseAnonymous, change.From)
	assert.Equal(t, session.PhaseAnonymous, change.To)
}

func TestPhaseMachineUsesInjectedClock(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	pm := session.NewPhaseMachine(
		session.WithPhaseMachineClock(func() time.Time { return fixed }),
	)

	change, err := pm.Advance(context.Background(), session.PhaseAnonymous, "clock")
	require.NoError(t, err)
	assert.Equal(t, fixed, change.OccurredAt)
}
