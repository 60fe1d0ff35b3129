package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/codewaveai/go-session"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profiles is the profile row store. It satisfies the record store contract
// the session core consumes, plus the listing the admin console needs.
type Profiles interface {
	session.RecordStore
	List(ctx context.Context) ([]*session.Profile, error)
}

// profileColumns are the columns a partial update may touch. Anything else
// is rejected before it reaches the database.
var profileColumns = map[string]bool{
	"full_name":    true,
	"email":        true,
	"phone_number": true,
	"bio":          true,
	"avatar_url":   true,
	"social_links": true,
	"user_role":    true,
}

type profiles struct {
	db *bun.DB
}

var _ Profiles = (*profiles)(nil)

// NewProfilesRepository builds the bun backed profile store.
func NewProfilesRepository(db *bun.DB) Profiles {
	return &profiles{db: db}
}

func (p *profiles) GetByID(ctx context.Context, id uuid.UUID) (*session.Profile, error) {
	record := &session.Profile{}
	err := p.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"id": id.String(),
			})
		}
		return nil, err
	}

	record.EnsureRole()
	return record, nil
}

func (p *profiles) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	for column := range fields {
		if !profileColumns[column] {
			return goerrors.New("profile column cannot be updated", goerrors.CategoryBadInput).
				WithTextCode("INVALID_COLUMN").
				WithMetadata(map[string]any{"column": column})
		}
	}

	query := p.db.NewUpdate().
		Model((*session.Profile)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.deleted_at IS NULL")

	for column, value := range fields {
		query = query.Set("? = ?", bun.Ident(column), value)
	}
	query = query.Set("updated_at = current_timestamp")

	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.NewRecordNotFound().WithMetadata(map[string]any{
			"id": id.String(),
		})
	}

	return nil
}

func (p *profiles) Insert(ctx context.Context, profile *session.Profile) (*session.Profile, error) {
	if profile == nil {
		return nil, goerrors.New("profile must not be nil", goerrors.CategoryBadInput)
	}

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	profile.EnsureRole()

	_, err := p.db.NewInsert().
		Model(profile).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return profile, nil
}

func (p *profiles) List(ctx context.Context) ([]*session.Profile, error) {
	var records []*session.Profile
	err := p.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		record.EnsureRole()
	}

	return records, nil
}
