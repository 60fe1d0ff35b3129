package admin_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"

	"github.com/codewaveai/go-session"
	"github.com/codewaveai/go-session/admin"
	"github.com/codewaveai/go-session/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type fakeManager struct {
	profiles *fakeProfiles
	projects *fakeProjects
	team     *fakeTeam
	skills   *fakeSkills
	messages *fakeMessages
	visits   *fakeVisits
	counts   repository.SiteCounts
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		profiles: &fakeProfiles{rows: map[uuid.UUID]*session.Profile{}},
		projects: &fakeProjects{},
		team:     &fakeTeam{},
		skills:   &fakeSkills{},
		messages: &fakeMessages{},
		visits:   &fakeVisits{},
	}
}

func (m *fakeManager) Validate() error { return nil }
func (m *fakeManager) MustValidate()   {}
func (m *fakeManager) CreateSchema(ctx context.Context) error { return nil }
func (m *fakeManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}
func (m *fakeManager) Profiles() repository.Profiles               { return m.profiles }
func (m *fakeManager) Projects() repository.Projects               { return m.projects }
func (m *fakeManager) TeamMembers() repository.TeamMembers         { return m.team }
func (m *fakeManager) Skills() repository.Skills                   { return m.skills }
func (m *fakeManager) ContactMessages() repository.ContactMessages { return m.messages }
func (m *fakeManager) SiteVisits() repository.SiteVisits           { return m.visits }
func (m *fakeManager) Counts(ctx context.Context) (*repository.SiteCounts, error) {
	counts := m.counts
	return &counts, nil
}

type fakeProfiles struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*session.Profile
	updates []map[string]any
}

func (f *fakeProfiles) GetByID(ctx context.Context, id uuid.UUID) (*session.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.rows[id]; ok {
		return p.Clone(), nil
	}
	return nil, session.ErrProfileNotFound
}

func (f *fakeProfiles) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, fields)
	if p, ok := f.rows[id]; ok {
		if role, ok := fields["user_role"].(string); ok {
			p.Role = session.UserRole(role)
		}
		return nil
	}
	return session.ErrProfileNotFound
}

func (f *fakeProfiles) Insert(ctx context.Context, profile *session.Profile) (*session.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[profile.ID] = profile.Clone()
	return profile, nil
}

func (f *fakeProfiles) List(ctx context.Context) ([]*session.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*session.Profile, 0, len(f.rows))
	for _, p := range f.rows {
		out = append(out, p.Clone())
	}
	return out, nil
}

type fakeProjects struct {
	rows    []*repository.Project
	deleted []uuid.UUID
}

func (f *fakeProjects) List(ctx context.Context) ([]*repository.Project, error) { return f.rows, nil }
func (f *fakeProjects) Get(ctx context.Context, id uuid.UUID) (*repository.Project, error) {
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, session.ErrProfileNotFound
}
func (f *fakeProjects) Save(ctx context.Context, record *repository.Project) (*repository.Project, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.rows = append(f.rows, record)
	return record, nil
}
func (f *fakeProjects) Delete(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeTeam struct {
	rows []*repository.TeamMember
}

func (f *fakeTeam) List(ctx context.Context) ([]*repository.TeamMember, error) { return f.rows, nil }
func (f *fakeTeam) Get(ctx context.Context, id uuid.UUID) (*repository.TeamMember, error) {
	return nil, session.ErrProfileNotFound
}
func (f *fakeTeam) Save(ctx context.Context, record *repository.TeamMember) (*repository.TeamMember, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.rows = append(f.rows, record)
	return record, nil
}
func (f *fakeTeam) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type fakeSkills struct {
	rows []*repository.Skill
}

func (f *fakeSkills) List(ctx context.Context) ([]*repository.Skill, error) { return f.rows, nil }
func (f *fakeSkills) Get(ctx context.Context, id uuid.UUID) (*repository.Skill, error) {
	return nil, session.ErrProfileNotFound
}
func (f *fakeSkills) Save(ctx context.Context, record *repository.Skill) (*repository.Skill, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.rows = append(f.rows, record)
	return record, nil
}
func (f *fakeSkills) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type fakeMessages struct {
	rows []*repository.ContactMessage
	read []uuid.UUID
}

func (f *fakeMessages) List(ctx context.Context) ([]*repository.ContactMessage, error) {
	return f.rows, nil
}
func (f *fakeMessages) Create(ctx context.Context, record *repository.ContactMessage) (*repository.ContactMessage, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.rows = append(f.rows, record)
	return record, nil
}
func (f *fakeMessages) MarkRead(ctx context.Context, id uuid.UUID) error {
	f.read = append(f.read, id)
	return nil
}
func (f *fakeMessages) Delete(ctx context.Context, id uuid.UUID) error { return nil }

type fakeVisits struct {
	rows []*repository.SiteVisit
	err  error
}

func (f *fakeVisits) Record(ctx context.Context, visit *repository.SiteVisit) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, visit)
	return nil
}

func profileWithRole(role session.UserRole) *session.Profile {
	return &session.Profile{ID: uuid.New(), Role: role, Email: "user@example.com"}
}

func TestRoleGating(t *testing.T) {
	ctx := context.Background()
	service := admin.NewService(newFakeManager(), nil)

	t.Run("nil actor is rejected", func(t *testing.T) {
		_, err := service.Dashboard(ctx, nil)
		assert.Equal(t, admin.ErrForbidden, err)
	})

	t.Run("members cannot reach the console", func(t *testing.T) {
		_, err := service.Dashboard(ctx, profileWithRole(session.RoleMember))
		assert.Equal(t, admin.ErrForbidden, err)
	})

	t.Run("admins can", func(t *testing.T) {
		_, err := service.Dashboard(ctx, profileWithRole(session.RoleAdmin))
		assert.NoError(t, err)
	})

	t.Run("owners can too", func(t *testing.T) {
		_, err := service.Dashboard(ctx, profileWithRole(session.RoleOwner))
		assert.NoError(t, err)
	})

	t.Run("profile listing is owner only", func(t *testing.T) {
		_, err := service.ListProfiles(ctx, profileWithRole(session.RoleAdmin))
		assert.Equal(t, admin.ErrForbidden, err)

		_, err = service.ListProfiles(ctx, profileWithRole(session.RoleOwner))
		assert.NoError(t, err)
	})
}

func TestSaveProject(t *testing.T) {
	ctx := context.Background()
	repo := newFakeManager()
	service := admin.NewService(repo, nil)
	actor := profileWithRole(session.RoleAdmin)

	t.Run("valid payload is stored", func(t *testing.T) {
		record, err := service.SaveProject(ctx, actor, admin.ProjectPayload{
			Title:       "Prompt Workbench",
			Description: "Interactive playground for prompt iteration.",
			Tags:        []string{"ai", "tooling"},
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, record.ID)
		assert.Len(t, repo.projects.rows, 1)
	})

	t.Run("missing title is rejected", func(t *testing.T) {
		_, err := service.SaveProject(ctx, actor, admin.ProjectPayload{Description: "no title"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid project payload")
	})

	t.Run("malformed url is rejected", func(t *testing.T) {
		_, err := service.SaveProject(ctx, actor, admin.ProjectPayload{
			Title:   "x",
			LiveURL: "not a url",
		})
		require.Error(t, err)
	})
}

func TestSaveSkillValidation(t *testing.T) {
	ctx := context.Background()
	service := admin.NewService(newFakeManager(), nil)
	actor := profileWithRole(session.RoleAdmin)

	t.Run("unknown category", func(t *testing.T) {
		_, err := service.SaveSkill(ctx, actor, admin.SkillPayload{
			Name:     "Go",
			Category: "Systems",
		})
		require.Error(t, err)
	})

	t.Run("proficiency out of range", func(t *testing.T) {
		_, err := service.SaveSkill(ctx, actor, admin.SkillPayload{
			Name:        "Go",
			Category:    "Backend",
			Proficiency: 150,
		})
		require.Error(t, err)
	})

	t.Run("valid skill", func(t *testing.T) {
		record, err := service.SaveSkill(ctx, actor, admin.SkillPayload{
			Name:        "Go",
			Category:    "Backend",
			Proficiency: 90,
		})
		require.NoError(t, err)
		assert.Equal(t, "Go", record.Name)
	})
}

func TestSetProfileRole(t *testing.T) {
	ctx := context.Background()
	repo := newFakeManager()
	service := admin.NewService(repo, nil)

	owner := profileWithRole(session.RoleOwner)
	target := profileWithRole(session.RoleMember)
	_, err := repo.profiles.Insert(ctx, owner)
	require.NoError(t, err)
	_, err = repo.profiles.Insert(ctx, target)
	require.NoError(t, err)

	t.Run("owner promotes a member", func(t *testing.T) {
		err := service.SetProfileRole(ctx, owner, target.ID, session.RoleAdmin)
		require.NoError(t, err)

		updated, err := repo.profiles.GetByID(ctx, target.ID)
		require.NoError(t, err)
		assert.Equal(t, session.RoleAdmin, updated.Role)
	})

	t.Run("admin cannot assign roles", func(t *testing.T) {
		err := service.SetProfileRole(ctx, profileWithRole(session.RoleAdmin), target.ID, session.RoleGuest)
		assert.Equal(t, admin.ErrForbidden, err)
	})

	t.Run("owner cannot demote themselves", func(t *testing.T) {
		err := service.SetProfileRole(ctx, owner, owner.ID, session.RoleMember)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot demote")
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		err := service.SetProfileRole(ctx, owner, target.ID, session.UserRole("superuser"))
		require.Error(t, err)
	})
}

func TestSubmitContactMessage(t *testing.T) {
	ctx := context.Background()
	repo := newFakeManager()
	service := admin.NewService(repo, nil)

	t.Run("valid submission lands in the inbox", func(t *testing.T) {
		record, err := service.SubmitContactMessage(ctx, admin.ContactPayload{
			Name:    "Visitor",
			Email:   "visitor@example.com",
			Message: "Hello there",
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, record.ID)

		inbox, err := service.Inbox(ctx, profileWithRole(session.RoleAdmin))
		require.NoError(t, err)
		assert.Len(t, inbox, 1)
	})

	t.Run("missing message is rejected", func(t *testing.T) {
		_, err := service.SubmitContactMessage(ctx, admin.ContactPayload{
			Name:  "Visitor",
			Email: "visitor@example.com",
		})
		require.Error(t, err)
	})
}

func TestRecordVisitSwallowsFailures(t *testing.T) {
	ctx := context.Background()
	repo := newFakeManager()
	repo.visits.err = assert.AnError
	service := admin.NewService(repo, nil)

	service.RecordVisit(ctx, &repository.SiteVisit{Path: "/"})

	repo.visits.err = nil
	service.RecordVisit(ctx, &repository.SiteVisit{Path: "/", UserAgent: "test"})
	require.Len(t, repo.visits.rows, 1)
	assert.True(t, strings.HasPrefix(repo.visits.rows[0].Path, "/"))
}
