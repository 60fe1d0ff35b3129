package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Projects manages the portfolio entries.
type Projects interface {
	List(ctx context.Context) ([]*Project, error)
	Get(ctx context.Context, id uuid.UUID) (*Project, error)
	Save(ctx context.Context, record *Project) (*Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TeamMembers manages the people shown on the about page.
type TeamMembers interface {
	List(ctx context.Context) ([]*TeamMember, error)
	Get(ctx context.Context, id uuid.UUID) (*TeamMember, error)
	Save(ctx context.Context, record *TeamMember) (*TeamMember, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Skills manages the skills matrix.
type Skills interface {
	List(ctx context.Context) ([]*Skill, error)
	Get(ctx context.Context, id uuid.UUID) (*Skill, error)
	Save(ctx context.Context, record *Skill) (*Skill, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContactMessages is the contact form inbox.
type ContactMessages interface {
	List(ctx context.Context) ([]*ContactMessage, error)
	Create(ctx context.Context, record *ContactMessage) (*ContactMessage, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SiteVisits is the page view log.
type SiteVisits interface {
	Record(ctx context.Context, visit *SiteVisit) error
}

type projects struct{ db *bun.DB }

var _ Projects = (*projects)(nil)

func NewProjectsRepository(db *bun.DB) Projects {
	return &projects{db: db}
}

func (r *projects) List(ctx context.Context) ([]*Project, error) {
	var records []*Project
	err := r.db.NewSelect().
		Model(&records).
		Order("display_order ASC").
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *projects) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	record := &Project{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapNotFound(err, id)
	}
	return record, nil
}

func (r *projects) Save(ctx context.Context, record *Project) (*Project, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
		_, err := r.db.NewInsert().Model(record).Exec(ctx)
		return record, err
	}

	now := time.Now()
	record.UpdatedAt = &now
	_, err := r.db.NewUpdate().
		Model(record).
		WherePK().
		Exec(ctx)
	return record, err
}

func (r *projects) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*Project)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

type teamMembers struct{ db *bun.DB }

var _ TeamMembers = (*teamMembers)(nil)

func NewTeamMembersRepository(db *bun.DB) TeamMembers {
	return &teamMembers{db: db}
}

func (r *teamMembers) List(ctx context.Context) ([]*TeamMember, error) {
	var records []*TeamMember
	err := r.db.NewSelect().
		Model(&records).
		Order("display_order ASC").
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *teamMembers) Get(ctx context.Context, id uuid.UUID) (*TeamMember, error) {
	record := &TeamMember{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapNotFound(err, id)
	}
	return record, nil
}

func (r *teamMembers) Save(ctx context.Context, record *TeamMember) (*TeamMember, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
		_, err := r.db.NewInsert().Model(record).Exec(ctx)
		return record, err
	}

	now := time.Now()
	record.UpdatedAt = &now
	_, err := r.db.NewUpdate().
		Model(record).
		WherePK().
		Exec(ctx)
	return record, err
}

func (r *teamMembers) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*TeamMember)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

type skills struct{ db *bun.DB }

var _ Skills = (*skills)(nil)

func NewSkillsRepository(db *bun.DB) Skills {
	return &skills{db: db}
}

// List orders by category then proficiency, matching how the matrix is
// rendered.
func (r *skills) List(ctx context.Context) ([]*Skill, error) {
	var records []*Skill
	err := r.db.NewSelect().
		Model(&records).
		Order("category ASC").
		Order("proficiency DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *skills) Get(ctx context.Context, id uuid.UUID) (*Skill, error) {
	record := &Skill{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, mapNotFound(err, id)
	}
	return record, nil
}

func (r *skills) Save(ctx context.Context, record *Skill) (*Skill, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
		_, err := r.db.NewInsert().Model(record).Exec(ctx)
		return record, err
	}

	now := time.Now()
	record.UpdatedAt = &now
	_, err := r.db.NewUpdate().
		Model(record).
		WherePK().
		Exec(ctx)
	return record, err
}

func (r *skills) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*Skill)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

type contactMessages struct{ db *bun.DB }

var _ ContactMessages = (*contactMessages)(nil)

func NewContactMessagesRepository(db *bun.DB) ContactMessages {
	return &contactMessages{db: db}
}

func (r *contactMessages) List(ctx context.Context) ([]*ContactMessage, error) {
	var records []*ContactMessage
	err := r.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *contactMessages) Create(ctx context.Context, record *ContactMessage) (*ContactMessage, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	_, err := r.db.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *contactMessages) MarkRead(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*ContactMessage)(nil)).
		Set("read_at = current_timestamp").
		Where("id = ?", id).
		Where("read_at IS NULL").
		Exec(ctx)
	return err
}

func (r *contactMessages) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*ContactMessage)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

type siteVisits struct{ db *bun.DB }

var _ SiteVisits = (*siteVisits)(nil)

func NewSiteVisitsRepository(db *bun.DB) SiteVisits {
	return &siteVisits{db: db}
}

func (r *siteVisits) Record(ctx context.Context, visit *SiteVisit) error {
	if visit.ID == uuid.Nil {
		visit.ID = uuid.New()
	}
	_, err := r.db.NewInsert().Model(visit).Exec(ctx)
	return err
}

func mapNotFound(err error, id uuid.UUID) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.NewRecordNotFound().WithMetadata(map[string]any{
			"id": id.String(),
		})
	}
	return err
}
