package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/codewaveai/go-session"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Manager exposes all repositories backing the site.
type Manager interface {
	repository.Validator
	repository.TransactionManager
	Profiles() Profiles
	Projects() Projects
	TeamMembers() TeamMembers
	Skills() Skills
	ContactMessages() ContactMessages
	SiteVisits() SiteVisits
	Counts(ctx context.Context) (*SiteCounts, error)
	CreateSchema(ctx context.Context) error
}

// SiteCounts are the dashboard headline numbers.
type SiteCounts struct {
	Visits   int `json:"visits"`
	Profiles int `json:"profiles"`
	Projects int `json:"projects"`
	Messages int `json:"messages"`
}

type mngr struct {
	db              *bun.DB
	profiles        Profiles
	projects        Projects
	teamMembers     TeamMembers
	skills          Skills
	contactMessages ContactMessages
	siteVisits      SiteVisits
}

func NewManager(db *bun.DB) Manager {
	return &mngr{
		db:              db,
		profiles:        NewProfilesRepository(db),
		projects:        NewProjectsRepository(db),
		teamMembers:     NewTeamMembersRepository(db),
		skills:          NewSkillsRepository(db),
		contactMessages: NewContactMessagesRepository(db),
		siteVisits:      NewSiteVisitsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.profiles == nil {
		return errors.New("repository profiles should be initialized")
	}

	if m.projects == nil {
		return errors.New("repository projects should be initialized")
	}

	if m.teamMembers == nil {
		return errors.New("repository teamMembers should be initialized")
	}

	if m.skills == nil {
		return errors.New("repository skills should be initialized")
	}

	if m.contactMessages == nil {
		return errors.New("repository contactMessages should be initialized")
	}

	if m.siteVisits == nil {
		return errors.New("repository siteVisits should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

// CreateSchema creates the site tables if they do not exist yet. Deployments
// with managed migrations can skip it; the runnable server calls it at boot.
func (m mngr) CreateSchema(ctx context.Context) error {
	models := []any{
		(*session.Profile)(nil),
		(*Project)(nil),
		(*TeamMember)(nil),
		(*Skill)(nil),
		(*ContactMessage)(nil),
		(*SiteVisit)(nil),
	}

	for _, model := range models {
		if _, err := m.db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Profiles() Profiles {
	return m.profiles
}

func (m mngr) Projects() Projects {
	return m.projects
}

func (m mngr) TeamMembers() TeamMembers {
	return m.teamMembers
}

func (m mngr) Skills() Skills {
	return m.skills
}

func (m mngr) ContactMessages() ContactMessages {
	return m.contactMessages
}

func (m mngr) SiteVisits() SiteVisits {
	return m.siteVisits
}

// Counts runs the dashboard headline queries in one go.
func (m mngr) Counts(ctx context.Context) (*SiteCounts, error) {
	counts := &SiteCounts{}

	var err error
	if counts.Visits, err = m.db.NewSelect().Model((*SiteVisit)(nil)).Count(ctx); err != nil {
		return nil, err
	}
	if counts.Profiles, err = m.db.NewSelect().Model((*session.Profile)(nil)).Count(ctx); err != nil {
		return nil, err
	}
	if counts.Projects, err = m.db.NewSelect().Model((*Project)(nil)).Count(ctx); err != nil {
		return nil, err
	}
	if counts.Messages, err = m.db.NewSelect().Model((*ContactMessage)(nil)).Count(ctx); err != nil {
		return nil, err
	}

	return counts, nil
}
