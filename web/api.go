package web

import (
	"bytes"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/codewaveai/go-session"
	"github.com/codewaveai/go-session/admin"
	repo "github.com/codewaveai/go-session/repository"
)

// APIController serves the JSON endpoints: public content reads, the
// contact form, and the admin console mutations.
type APIController struct {
	Logger session.Logger
	Admin  *admin.Service
	Repo   repo.Manager
	Guard  *Guard
}

type APIOption func(*APIController) *APIController

func WithAPILogger(l session.Logger) APIOption {
	return func(c *APIController) *APIController {
		_, c.Logger = session.ResolveLogger("api", nil, l)
		return c
	}
}

func NewAPIController(service *admin.Service, manager repo.Manager, guard *Guard, opts ...APIOption) *APIController {
	_, logger := session.ResolveLogger("api", nil, nil)

	c := &APIController{
		Logger: logger,
		Admin:  service,
		Repo:   manager,
		Guard:  guard,
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Admin == nil {
		panic("Missing admin service in api controller...")
	}

	if c.Repo == nil {
		panic("Missing repository manager in api controller...")
	}

	if c.Guard == nil {
		panic("Missing route guard in api controller...")
	}

	return c
}

// RegisterAPIRoutes mounts the JSON endpoints on the router.
func RegisterAPIRoutes[T any](app router.Router[T], service *admin.Service, manager repo.Manager, guard *Guard, opts ...APIOption) *APIController {
	c := NewAPIController(service, manager, guard, opts...)

	app.Get("/api/projects", c.PublicProjects).SetName("api.projects")
	app.Get("/api/team", c.PublicTeam).SetName("api.team")
	app.Get("/api/skills", c.PublicSkills).SetName("api.skills")
	app.Post("/api/contact", c.Contact).SetName("api.contact")
	app.Post("/api/visits", c.Visit).SetName("api.visits")

	member := guard.Protected(session.RoleAdmin)
	owner := guard.Protected(session.RoleOwner)

	app.Get("/api/admin/dashboard", member(c.Dashboard)).SetName("api.admin.dashboard")

	app.Get("/api/admin/projects", member(c.ListProjects)).SetName("api.admin.projects")
	app.Post("/api/admin/projects", member(c.SaveProject)).SetName("api.admin.projects.save")
	app.Delete("/api/admin/projects/:id", member(c.DeleteProject)).SetName("api.admin.projects.del")

	app.Get("/api/admin/team", member(c.ListTeam)).SetName("api.admin.team")
	app.Post("/api/admin/team", member(c.SaveTeamMember)).SetName("api.admin.team.save")
	app.Delete("/api/admin/team/:id", member(c.DeleteTeamMember)).SetName("api.admin.team.del")

	app.Get("/api/admin/skills", member(c.ListSkills)).SetName("api.admin.skills")
	app.Post("/api/admin/skills", member(c.SaveSkill)).SetName("api.admin.skills.save")
	app.Delete("/api/admin/skills/:id", member(c.DeleteSkill)).SetName("api.admin.skills.del")

	app.Get("/api/admin/messages", member(c.Inbox)).SetName("api.admin.messages")
	app.Post("/api/admin/messages/:id/read", member(c.MarkMessageRead)).SetName("api.admin.messages.read")
	app.Delete("/api/admin/messages/:id", member(c.DeleteMessage)).SetName("api.admin.messages.del")

	app.Post("/api/admin/uploads", member(c.UploadImage)).SetName("api.admin.uploads")

	app.Get("/api/admin/profiles", owner(c.ListProfiles)).SetName("api.admin.profiles")
	app.Post("/api/admin/profiles/:id/role", owner(c.SetProfileRole)).SetName("api.admin.profiles.role")

	return c
}

func (c *APIController) PublicProjects(ctx router.Context) error {
	records, err := c.Repo.Projects().List(ctx.Context())
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"projects": records})
}

func (c *APIController) PublicTeam(ctx router.Context) error {
	records, err := c.Repo.TeamMembers().List(ctx.Context())
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"team": records})
}

func (c *APIController) PublicSkills(ctx router.Context) error {
	records, err := c.Repo.Skills().List(ctx.Context())
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"skills": records})
}

func (c *APIController) Contact(ctx router.Context) error {
	payload := admin.ContactPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return c.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "Failed to parse body"))
	}

	record, err := c.Admin.SubmitContactMessage(ctx.Context(), payload)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]any{"message": record})
}

func (c *APIController) Visit(ctx router.Context) error {
	visit := &repo.SiteVisit{
		Path:      ctx.Query("path", "/"),
		UserAgent: ctx.Header("User-Agent"),
		Referrer:  ctx.Referer(),
	}

	c.Admin.RecordVisit(ctx.Context(), visit)

	return ctx.NoContent(http.StatusNoContent)
}

func (c *APIController) Dashboard(ctx router.Context) error {
	counts, err := c.Admin.Dashboard(ctx.Context(), ActorFromLocals(ctx))
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, counts)
}

func (c *APIController) ListProjects(ctx router.Context) error {
	records, err := c.Admin.ListProjects(ctx.Context(), ActorFromLocals(ctx))
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"projects": records})
}

func (c *APIController) SaveProject(ctx router.Context) error {
	payload := admin.ProjectPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return c.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "Failed to parse body"))
	}

	record, err := c.Admin.SaveProject(ctx.Context(), ActorFromLocals(ctx), payload)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"project": record})
}

func (c *APIController) DeleteProject(ctx router.Context) error {
	id, err := c.recordID(ctx)
	if err != nil {
		return c.renderError(ctx, err)
	}

	if err := c.Admin.DeleteProject(ctx.Context(), ActorFromLocals(ctx), id); err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (c *APIController) ListTeam(ctx router.Context) error {
	records, err := c.Admin.ListTeam(ctx.Context(), ActorFromLocals(ctx))
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"team": records})
}

func (c *APIController) SaveTeamMember(ctx router.Context) error {
	payload := admin.TeamMemberPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return c.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "Failed to parse body"))
	}

	record, err := c.Admin.SaveTeamMember(ctx.Context(), ActorFromLocals(ctx), payload)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"member": record})
}

func (c *APIController) DeleteTeamMember(ctx router.Context) error {
	id, err := c.recordID(ctx)
	if err != nil {
		return c.renderError(ctx, err)
	}

	if err := c.Admin.DeleteTeamMember(ctx.Context(), ActorFromLocals(ctx), id); err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (c *APIController) ListSkills(ctx router.Context) error {
	records, err := c.Admin.ListSkills(ctx.Context(), ActorFromLocals(ctx))
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"skills": records})
}

func (c *APIController) SaveSkill(ctx router.Context) error {
	payload := admin.SkillPayload{}
	if err := ctx.Bind(&payload); err != nil {
		return c.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "Failed to parse body"))
	}

	record, err := c.Admin.SaveSkill(ctx.Context(), ActorFromLocals(ctx), payload)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"skill": record})
}

func (c *APIController) DeleteSkill(ctx router.Context) error {
	id, err := c.recordID(ctx)
	if err != nil {
		return c.renderError(ctx, err)
	}

	if err := c.Admin.DeleteSkill(ctx.Context(), ActorFromLocals(ctx), id); err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (c *APIController) Inbox(ctx router.Context) error {
	records, err := c.Admin.Inbox(ctx.Context(), ActorFromLocals(ctx))
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"messages": records})
}

func (c *APIController) MarkMessageRead(ctx router.Context) error {
	id, err := c.recordID(ctx)
	if err != nil {
		return c.renderError(ctx, err)
	}

	if err := c.Admin.MarkMessageRead(ctx.Context(), ActorFromLocals(ctx), id); err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (c *APIController) DeleteMessage(ctx router.Context) error {
	id, err := c.recordID(ctx)
	if err != nil {
		return c.renderError(ctx, err)
	}

	if err := c.Admin.DeleteMessage(ctx.Context(), ActorFromLocals(ctx), id); err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// UploadImage streams the raw request body into object storage. The
// target folder and filename come from the query string.
func (c *APIController) UploadImage(ctx router.Context) error {
	folder := ctx.Query("folder", "uploads")
	filename := ctx.Query("filename", "")
	if filename == "" {
		return c.renderError(ctx, goerrors.New(
			"Missing filename query parameter",
			goerrors.CategoryBadInput,
		).WithTextCode("MISSING_FILENAME"))
	}

	body := ctx.Body()
	if len(body) == 0 {
		return c.renderError(ctx, goerrors.New(
			"Empty upload body",
			goerrors.CategoryBadInput,
		).WithTextCode("EMPTY_UPLOAD"))
	}

	url, err := c.Admin.UploadImage(
		ctx.Context(),
		ActorFromLocals(ctx),
		folder,
		filename,
		bytes.NewReader(body),
		int64(len(body)),
		ctx.Header("Content-Type"),
	)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]string{"url": url})
}

func (c *APIController) ListProfiles(ctx router.Context) error {
	records, err := c.Admin.ListProfiles(ctx.Context(), ActorFromLocals(ctx))
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"profiles": records})
}

// RolePayload carries the role assignment body.
type RolePayload struct {
	Role string `form:"role" json:"role"`
}

func (c *APIController) SetProfileRole(ctx router.Context) error {
	id, err := c.recordID(ctx)
	if err != nil {
		return c.renderError(ctx, err)
	}

	payload := RolePayload{}
	if err := ctx.Bind(&payload); err != nil {
		return c.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "Failed to parse body"))
	}

	if err := c.Admin.SetProfileRole(ctx.Context(), ActorFromLocals(ctx), id, session.UserRole(payload.Role)); err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (c *APIController) recordID(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id", "")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, fmt.Sprintf("Invalid record id: %s", raw)).
			WithTextCode("INVALID_ID")
	}
	return id, nil
}

func (c *APIController) renderError(ctx router.Context, err error) error {
	status := statusForError(err)

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ctx.JSON(status, map[string]any{
			"error":     richErr.Message,
			"text_code": richErr.TextCode,
		})
	}

	c.Logger.Error("api error", "error", err)
	return ctx.JSON(status, map[string]any{
		"error": err.Error(),
	})
}

func statusForError(err error) int {
	if repository.IsRecordNotFound(err) {
		return http.StatusNotFound
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return http.StatusInternalServerError
	}

	switch richErr.Category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return router.StatusBadRequest
	case goerrors.CategoryAuth:
		return router.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
