package local

import (
	"context"
	"fmt"
	"time"

	"github.com/codewaveai/go-session"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// ResetRequestedStatus marks a recovery link that was issued but not used.
	ResetRequestedStatus = "requested"
	// ResetExpiredStatus marks a recovery link that aged out.
	ResetExpiredStatus = "expired"
	// ResetChangedStatus marks a recovery that changed the password.
	ResetChangedStatus = "changed"
)

// ErrResetInvalid is returned for unknown, expired, or already used recovery
// tokens.
var ErrResetInvalid = goerrors.New("recovery link is invalid or expired", goerrors.CategoryAuth).
	WithTextCode("RESET_INVALID")

// DefaultResetTTL is how long a recovery link stays redeemable.
var DefaultResetTTL = time.Hour

// PasswordReset records one recovery flow from request to redemption.
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_reset,alias:pwdr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     *uuid.UUID `bun:"account_id,notnull" json:"account_id,omitempty"`
	Account       *Account   `bun:"rel:has-one,join:account_id=id" json:"account,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	RedirectTo    string     `bun:"redirect_to" json:"redirect_to,omitempty"`
	ResetedAt     *time.Time `bun:"reseted_at,nullzero" json:"reseted_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Mailer delivers recovery links. Implementations send real email; the
// default prints the link to stdout for development.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// MailerFunc adapts a function to the Mailer interface.
type MailerFunc func(ctx context.Context, email, link string) error

func (f MailerFunc) SendPasswordReset(ctx context.Context, email, link string) error {
	return f(ctx, email, link)
}

func printMailer(ctx context.Context, email, link string) error {
	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Printf("to: %s\n", email)
	fmt.Printf("link: %s\n", link)
	return nil
}

// ResetRecords is the slice of the reset repository the service needs.
type ResetRecords interface {
	Create(ctx context.Context, record *PasswordReset, criteria ...repository.InsertCriteria) (*PasswordReset, error)
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*PasswordReset, error)
	Update(ctx context.Context, record *PasswordReset, criteria ...repository.UpdateCriteria) (*PasswordReset, error)
}

// NewResetRepository builds the bun backed reset record store.
func NewResetRepository(db *bun.DB) repository.Repository[*PasswordReset] {
	return repository.NewRepository[*PasswordReset](db, repository.ModelHandlers[*PasswordReset]{
		NewRecord: func() *PasswordReset { return &PasswordReset{} },
		GetID: func(r *PasswordReset) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *PasswordReset, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})
}

// ResetService issues and redeems password recovery links.
type ResetService struct {
	repo   ResetRecords
	mailer Mailer
	logger session.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewResetService builds the recovery flow over the given record store.
func NewResetService(records ResetRecords) *ResetService {
	_, logger := session.ResolveLogger("provider.reset", nil, nil)

	return &ResetService{
		repo:   records,
		mailer: MailerFunc(printMailer),
		logger: logger,
		ttl:    DefaultResetTTL,
		now:    time.Now,
	}
}

func (s *ResetService) WithMailer(m Mailer) *ResetService {
	if m != nil {
		s.mailer = m
	}
	return s
}

func (s *ResetService) WithLogger(l session.Logger) *ResetService {
	_, s.logger = session.ResolveLogger("provider.reset", nil, l)
	return s
}

func (s *ResetService) WithTTL(ttl time.Duration) *ResetService {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// Initialize records the recovery request and mails the link. The token in
// the link is the record id, so redemption is a single lookup.
func (s *ResetService) Initialize(ctx context.Context, account *Account, redirectTo string) error {
	reset := &PasswordReset{
		AccountID:  &account.ID,
		Email:      account.Email,
		Status:     ResetRequestedStatus,
		RedirectTo: redirectTo,
	}

	created, err := s.repo.Create(ctx, reset)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password reset record")
	}

	link := fmt.Sprintf("/password-reset/%s?redirect_to=%s", created.ID, redirectTo)
	if err := s.mailer.SendPasswordReset(ctx, account.Email, link); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send password reset notification")
	}

	s.logger.Debug("password reset initialized", "email", account.Email)

	return nil
}

// Redeem consumes a recovery token and returns the account it belongs to.
// A token redeems at most once.
func (s *ResetService) Redeem(ctx context.Context, token string) (uuid.UUID, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return uuid.Nil, ErrResetInvalid
	}

	reset, err := s.repo.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return uuid.Nil, ErrResetInvalid
		}
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve password reset record")
	}

	if reset.Status != ResetRequestedStatus || reset.AccountID == nil {
		return uuid.Nil, ErrResetInvalid
	}

	now := s.now()
	if reset.CreatedAt != nil && now.Sub(*reset.CreatedAt) > s.ttl {
		expired := &PasswordReset{}
		expired.ID = reset.ID
		expired.Status = ResetExpiredStatus
		if _, err := s.repo.Update(ctx, expired); err != nil {
			s.logger.Error("failed to expire password reset record", "error", err)
		}
		return uuid.Nil, ErrResetInvalid
	}

	changed := &PasswordReset{}
	changed.ID = reset.ID
	changed.Status = ResetChangedStatus
	changed.ResetedAt = &now
	if _, err := s.repo.Update(ctx, changed); err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark password reset as used")
	}

	return *reset.AccountID, nil
}
