package session

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// EnrichProfileMessage carries the seed fields written onto the trigger
// created profile row right after signup.
type EnrichProfileMessage struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone_number"`
}

func (e EnrichProfileMessage) Type() string { return "profile.enrich" }

// EnrichProfileHandler retries the enrichment update until the profile row
// exists or the attempt ceiling is hit. The provider side trigger that
// creates the row is asynchronous, so the first attempts may race it.
type EnrichProfileHandler struct {
	Store       RecordStore
	Logger      Logger
	MaxAttempts int
	Backoff     time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

func (h EnrichProfileHandler) Execute(ctx context.Context, msg EnrichProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile enrichment",
		)
	default:
		return h.execute(ctx, msg)
	}
}

func (h EnrichProfileHandler) execute(ctx context.Context, msg EnrichProfileMessage) error {
	logger := h.Logger
	if logger == nil {
		logger = defLogger{}
	}

	sleep := h.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	attempts := h.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultEnrichmentAttempts
	}

	backoff := h.Backoff
	if backoff <= 0 {
		backoff = DefaultEnrichmentBackoff
	}

	id, err := uuid.Parse(msg.UserID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "enrichment user id is not a uuid")
	}

	fields := map[string]any{}
	if msg.FullName != "" {
		fields["full_name"] = msg.FullName
	}
	if msg.Phone != "" {
		fields["phone_number"] = msg.Phone
	}
	if len(fields) == 0 {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = h.Store.UpdateFields(ctx, id, fields)
		if lastErr == nil {
			return nil
		}

		if !IsProfileNotFound(lastErr) {
			return NewStoreError(lastErr, "profile enrichment update failed")
		}

		// Row not there yet, the trigger is still running.
		logger.Debug("profile row not materialized yet", "user_id", msg.UserID, "attempt", attempt)

		if attempt == attempts {
			break
		}

		if err := sleep(ctx, backoff*time.Duration(attempt)); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "profile enrichment interrupted")
		}
	}

	return goerrors.Wrap(lastErr, goerrors.CategoryOperation, "profile row never materialized").
		WithMetadata(map[string]any{"attempts": attempts})
}
