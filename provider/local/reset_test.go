package local_test

import (
	"context"
	"testing"
	"time"

	"github.com/codewaveai/go-session"
	"github.com/codewaveai/go-session/provider/local"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	email string
	link  string
	calls int
}

func (c *captureMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	c.email = email
	c.link = link
	c.calls++
	return nil
}

func TestResetInitialize(t *testing.T) {
	ctx := context.Background()

	records := newFakeResetRecords()
	mailer := &captureMailer{}
	service := local.NewResetService(records).WithMailer(mailer)

	account := &local.Account{ID: uuid.New(), Email: "test@example.com"}

	err := service.Initialize(ctx, account, "/login")
	require.NoError(t, err)

	require.Len(t, records.created, 1)
	record := records.created[0]
	assert.Equal(t, account.ID, *record.AccountID)
	assert.Equal(t, "test@example.com", record.Email)
	assert.Equal(t, local.ResetRequestedStatus, record.Status)
	assert.Equal(t, "/login", record.RedirectTo)

	assert.Equal(t, 1, mailer.calls)
	assert.Equal(t, "test@example.com", mailer.email)
	assert.Contains(t, mailer.link, record.ID.String())
	assert.Contains(t, mailer.link, "redirect_to=/login")
}

func TestResetRedeem(t *testing.T) {
	ctx := context.Background()

	t.Run("consumes the token once", func(t *testing.T) {
		records := newFakeResetRecords()
		service := local.NewResetService(records).WithMailer(&captureMailer{})

		account := &local.Account{ID: uuid.New(), Email: "test@example.com"}
		require.NoError(t, service.Initialize(ctx, account, "/login"))

		token := records.created[0].ID.String()

		accountID, err := service.Redeem(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, account.ID, accountID)

		_, err = service.Redeem(ctx, token)
		assert.Equal(t, local.ErrResetInvalid, err)
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		service := local.NewResetService(newFakeResetRecords())

		_, err := service.Redeem(ctx, "not-a-token")
		assert.Equal(t, local.ErrResetInvalid, err)

		_, err = service.Redeem(ctx, uuid.NewString())
		assert.Equal(t, local.ErrResetInvalid, err)
	})

	t.Run("rejects aged out tokens", func(t *testing.T) {
		records := newFakeResetRecords()
		service := local.NewResetService(records).
			WithMailer(&captureMailer{}).
			WithTTL(time.Hour)

		account := &local.Account{ID: uuid.New(), Email: "test@example.com"}
		require.NoError(t, service.Initialize(ctx, account, "/login"))

		record := records.created[0]
		stale := time.Now().Add(-2 * time.Hour)
		record.CreatedAt = &stale

		_, err := service.Redeem(ctx, record.ID.String())
		assert.Equal(t, local.ErrResetInvalid, err)
		assert.Equal(t, local.ResetExpiredStatus, record.Status)
	})
}

func TestSendPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email is swallowed", func(t *testing.T) {
		accounts := &mockAccounts{}
		accounts.On("GetByEmail", ctx, "nobody@example.com").Return(nil, repository.NewRecordNotFound()).Once()

		records := newFakeResetRecords()
		provider := local.NewProvider(accounts, newFakeProfiles(), newTestTokens()).
			WithResetService(local.NewResetService(records).WithMailer(&captureMailer{}))

		err := provider.SendPasswordReset(ctx, "nobody@example.com", "/login")
		require.NoError(t, err)
		assert.Empty(t, records.created)

		accounts.AssertExpectations(t)
	})

	t.Run("known email gets a link", func(t *testing.T) {
		accounts := &mockAccounts{}
		account := &local.Account{ID: uuid.New(), Email: "test@example.com"}
		accounts.On("GetByEmail", ctx, "test@example.com").Return(account, nil).Once()

		mailer := &captureMailer{}
		provider := local.NewProvider(accounts, newFakeProfiles(), newTestTokens()).
			WithResetService(local.NewResetService(newFakeResetRecords()).WithMailer(mailer))

		err := provider.SendPasswordReset(ctx, "test@example.com", "/login")
		require.NoError(t, err)
		assert.Equal(t, 1, mailer.calls)
		assert.Contains(t, mailer.link, "redirect_to=/login")

		accounts.AssertExpectations(t)
	})

	t.Run("unconfigured recovery is an error", func(t *testing.T) {
		provider := local.NewProvider(&mockAccounts{}, newFakeProfiles(), newTestTokens())

		err := provider.SendPasswordReset(ctx, "test@example.com", "/login")
		require.Error(t, err)
	})
}

func TestRedeemPasswordReset(t *testing.T) {
	ctx := context.Background()

	accounts := &mockAccounts{}
	account := &local.Account{ID: uuid.New(), Email: "test@example.com"}
	accounts.On("GetByEmail", ctx, "test@example.com").Return(account, nil).Once()
	accounts.On("ResetPassword", ctx, account.ID, mock.AnythingOfType("string")).Return(nil).Once()

	records := newFakeResetRecords()
	provider := local.NewProvider(accounts, newFakeProfiles(), newTestTokens()).
		WithResetService(local.NewResetService(records).WithMailer(&captureMailer{}))

	recorder := &eventRecorder{}
	provider.OnAuthChange(recorder.handler())

	require.NoError(t, provider.SendPasswordReset(ctx, "test@example.com", "/login"))
	require.Len(t, records.created, 1)

	err := provider.RedeemPasswordReset(ctx, records.created[0].ID.String(), "newpassword123")
	require.NoError(t, err)

	events := recorder.all()
	require.Len(t, events, 2)
	assert.Equal(t, session.AuthChangePasswordRecovery, events[1].event)

	accounts.AssertExpectations(t)
}
