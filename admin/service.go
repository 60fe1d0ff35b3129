// Package admin implements the console behind the authenticated area:
// dashboard numbers, content management, the contact inbox, and role
// assignment.
package admin

import (
	"context"
	"io"
	"time"

	"github.com/codewaveai/go-session"
	"github.com/codewaveai/go-session/repository"
	"github.com/codewaveai/go-session/storage"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ErrForbidden is returned when the acting profile lacks the role an
// operation requires.
var ErrForbidden = goerrors.New("insufficient role for this operation", goerrors.CategoryAuthz).
	WithTextCode("FORBIDDEN").
	WithCode(goerrors.CodeForbidden)

// Service is the admin console backend. Every management operation takes the
// acting profile and checks its role before touching anything.
type Service struct {
	repo        repository.Manager
	store       storage.ObjectStore
	logger      session.Logger
	logProvider session.LoggerProvider
	sink        session.ActivitySink
}

// NewService builds the console over the given repositories.
func NewService(repo repository.Manager, store storage.ObjectStore) *Service {
	logProvider, logger := session.ResolveLogger("admin", nil, nil)
	return &Service{
		repo:        repo,
		store:       store,
		logger:      logger,
		logProvider: logProvider,
	}
}

func (s *Service) WithLogger(l session.Logger) *Service {
	s.logProvider, s.logger = session.ResolveLogger("admin", s.logProvider, l)
	return s
}

func (s *Service) WithActivitySink(sink session.ActivitySink) *Service {
	s.sink = sink
	return s
}

func (s *Service) requireRole(actor *session.Profile, min session.UserRole) error {
	if actor == nil {
		return ErrForbidden
	}
	if !session.IsAtLeast(actor.Role, min) {
		s.logger.Warn("operation rejected for insufficient role",
			"actor", actor.ID.String(), "role", string(actor.Role), "required", string(min))
		return ErrForbidden
	}
	return nil
}

// Dashboard returns the headline counts shown on the console landing page.
func (s *Service) Dashboard(ctx context.Context, actor *session.Profile) (*repository.SiteCounts, error) {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.Counts(ctx)
}

// ListProjects is admin scoped; the public site reads projects through its
// own handler.
func (s *Service) ListProjects(ctx context.Context, actor *session.Profile) ([]*repository.Project, error) {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.Projects().List(ctx)
}

func (s *Service) SaveProject(ctx context.Context, actor *session.Profile, payload ProjectPayload) (*repository.Project, error) {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return nil, err
	}
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid project payload")
	}
	return s.repo.Projects().Save(ctx, payload.record())
}

func (s *Service) DeleteProject(ctx context.Context, actor *session.Profile, id uuid.UUID) error {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return err
	}
	return s.repo.Projects().Delete(ctx, id)
}

func (s *Service) ListTeam(ctx context.Context, actor *session.Profile) ([]*repository.TeamMember, error) {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.TeamMembers().List(ctx)
}

func (s *Service) SaveTeamMember(ctx context.Context, actor *session.Profile, payload TeamMemberPayload) (*repository.TeamMember, error) {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return nil, err
	}
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid team member payload")
	}
	return s.repo.TeamMembers().Save(ctx, payload.record())
}

func (s *Service) DeleteTeamMember(ctx context.Context, actor *session.Profile, id uuid.UUID) error {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return err
	}
	return s.repo.TeamMembers().Delete(ctx, id)
}

func (s *Service) ListSkills(ctx context.Context, actor *session.Profile) ([]*repository.Skill, error) {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.Skills().List(ctx)
}

func (s *Service) SaveSkill(ctx context.Context, actor *session.Profile, payload SkillPayload) (*repository.Skill, error) {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return nil, err
	}
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid skill payload")
	}
	return s.repo.Skills().Save(ctx, payload.record())
}

func (s *Service) DeleteSkill(ctx context.Context, actor *session.Profile, id uuid.UUID) error {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return err
	}
	return s.repo.Skills().Delete(ctx, id)
}

// Inbox lists contact form submissions, newest first.
func (s *Service) Inbox(ctx context.Context, actor *session.Profile) ([]*repository.ContactMessage, error) {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.ContactMessages().List(ctx)
}

func (s *Service) MarkMessageRead(ctx context.Context, actor *session.Profile, id uuid.UUID) error {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return err
	}
	return s.repo.ContactMessages().MarkRead(ctx, id)
}

func (s *Service) DeleteMessage(ctx context.Context, actor *session.Profile, id uuid.UUID) error {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return err
	}
	return s.repo.ContactMessages().Delete(ctx, id)
}

// UploadImage stores an asset and returns its public URL.
func (s *Service) UploadImage(ctx context.Context, actor *session.Profile, folder, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if err := s.requireRole(actor, session.RoleAdmin); err != nil {
		return "", err
	}
	return s.store.Upload(ctx, folder, filename, reader, size, contentType)
}

// ListProfiles is owner scoped since it exposes every registered user.
func (s *Service) ListProfiles(ctx context.Context, actor *session.Profile) ([]*session.Profile, error) {
	if err := s.requireRole(actor, session.RoleOwner); err != nil {
		return nil, err
	}
	return s.repo.Profiles().List(ctx)
}

// SetProfileRole reassigns a user's role. Only owners may do this, and an
// owner cannot demote themselves, so the site always keeps at least one.
func (s *Service) SetProfileRole(ctx context.Context, actor *session.Profile, id uuid.UUID, role session.UserRole) error {
	if err := s.requireRole(actor, session.RoleOwner); err != nil {
		return err
	}

	if _, ok := session.ParseRole(string(role)); !ok {
		return goerrors.New("unknown role", goerrors.CategoryBadInput).
			WithTextCode("INVALID_ROLE").
			WithMetadata(map[string]any{"role": string(role)})
	}

	if actor.ID == id && role != session.RoleOwner {
		return goerrors.New("owners cannot demote themselves", goerrors.CategoryConflict).
			WithTextCode("OWNER_DEMOTION")
	}

	if err := s.repo.Profiles().UpdateFields(ctx, id, map[string]any{"user_role": string(role)}); err != nil {
		return err
	}

	s.emit(ctx, session.ActivityEvent{
		EventType:  session.ActivityEventProfileUpdate,
		UserID:     id.String(),
		OccurredAt: time.Now(),
		Metadata: map[string]any{
			"role":     string(role),
			"actor_id": actor.ID.String(),
		},
	})

	return nil
}

// SubmitContactMessage is the public contact form endpoint; no actor needed.
func (s *Service) SubmitContactMessage(ctx context.Context, payload ContactPayload) (*repository.ContactMessage, error) {
	if err := payload.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid contact payload")
	}
	return s.repo.ContactMessages().Create(ctx, payload.record())
}

// RecordVisit logs a page view. Failures are swallowed; analytics never break
// the page.
func (s *Service) RecordVisit(ctx context.Context, visit *repository.SiteVisit) {
	if err := s.repo.SiteVisits().Record(ctx, visit); err != nil {
		s.logger.Debug("failed to record site visit", "error", err, "path", visit.Path)
	}
}

func (s *Service) emit(ctx context.Context, event session.ActivityEvent) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Record(ctx, event); err != nil {
		s.logger.Debug("failed to record activity event", "error", err, "type", string(event.EventType))
	}
}
