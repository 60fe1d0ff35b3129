package session

import (
	"context"
	"time"
)

// Seams for the external tests: they swap the async scheduling and the
// enrichment backoff so event processing runs deterministically.

func (m *Manager) SetSchedule(fn func(func())) { m.schedule = fn }

func (m *Manager) SetSleep(fn func(ctx context.Context, d time.Duration) error) { m.sleep = fn }
