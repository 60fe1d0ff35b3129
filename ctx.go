package session

import (
	"context"
)

var managerCtxKey = &contextKey{"manager"}

type contextKey struct {
	name string
}

// WithContext sets the Manager in the given context.
func WithContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerCtxKey, m)
}

// FromContext finds the manager in the context.
func FromContext(ctx context.Context) (*Manager, bool) {
	raw, ok := ctx.Value(managerCtxKey).(*Manager)
	return raw, ok
}

// Current returns the started manager in scope. It fails when the accessor
// is used outside a scope where Start was called, guarding against consumers
// running before initialization.
func Current(ctx context.Context) (*Manager, error) {
	m, ok := FromContext(ctx)
	if !ok || m == nil {
		return nil, ErrNotStarted
	}

	m.mu.Lock()
	started := m.started
	m.mu.Unlock()

	if !started {
		return nil, ErrNotStarted
	}

	return m, nil
}
