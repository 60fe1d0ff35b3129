package session

import (
	"context"

	"github.com/google/uuid"
)

// syncProfile maps a session user id to its profile row and, when the fetch
// is still current, replaces the shared user wholesale. Two rapidly
// successive events may resolve out of order; the generation token makes a
// late resolving fetch from a stale event inert.
func (m *Manager) syncProfile(ctx context.Context, gen uint64, userID string) {
	profile, err := m.fetchProfile(ctx, userID)

	m.mu.Lock()
	if m.stopped || gen != m.generation {
		m.mu.Unlock()
		return
	}

	if err != nil {
		// Fetch failures are swallowed: there is no user facing recovery
		// at this point, the view falls back to signed out.
		m.loading = false
		stillInitializing := m.phases.Current() == PhaseInitializing
		m.mu.Unlock()

		m.logger.Error("profile fetch failed", "user_id", userID, "error", err)

		if stillInitializing {
			if _, aerr := m.phases.Advance(ctx, PhaseAnonymous, "profile_fetch_failed"); aerr != nil {
				m.logger.Debug("phase advance skipped", "error", aerr)
			}
		}
		return
	}

	profile.EnsureRole()
	m.user = profile
	m.loading = false
	m.mu.Unlock()

	if _, aerr := m.phases.Advance(ctx, PhaseAuthenticated, "profile_fetched"); aerr != nil {
		m.logger.Debug("phase advance skipped", "error", aerr)
	}
}

// fetchProfile queries the store for exactly one row whose primary key
// equals the session user id. The fetched record is authoritative; callers
// replace, never merge.
func (m *Manager) fetchProfile(ctx context.Context, userID string) (*Profile, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, NewStoreError(err, "session user id is not a valid profile key")
	}

	profile, err := m.store.GetByID(ctx, id)
	if err != nil {
		if IsProfileNotFound(err) {
			return nil, ErrProfileNotFound.WithMetadata(map[string]any{"user_id": userID})
		}
		return nil, NewStoreError(err, "failed to fetch profile")
	}

	if profile == nil {
		return nil, ErrProfileNotFound.WithMetadata(map[string]any{"user_id": userID})
	}

	return profile, nil
}
