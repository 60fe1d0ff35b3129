package web

import (
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	"github.com/codewaveai/go-session"
)

// DefaultCookieName is the cookie carrying the access token.
const DefaultCookieName = "auth_token"

// DefaultRejectedRouteKey is the cookie storing the route a guest was
// bounced from, so login can send them back.
const DefaultRejectedRouteKey = "rejected_route"

// Locals keys the guard populates for downstream handlers.
const (
	ActorKey       = "actor"
	SessionLocalID = "auth_session"
)

// TokenValidator turns a raw bearer token into a session record.
type TokenValidator interface {
	Validate(tokenString string) (*session.SessionObject, error)
}

// Guard authenticates requests from the token cookie or the
// Authorization header and loads the actor's profile.
type Guard struct {
	Validator        TokenValidator
	Profiles         session.RecordStore
	CookieName       string
	RejectedRouteKey string
	CookieDuration   time.Duration
	Logger           session.Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

type GuardOption func(*Guard) *Guard

func WithGuardLogger(l session.Logger) GuardOption {
	return func(g *Guard) *Guard {
		_, g.Logger = session.ResolveLogger("guard", nil, l)
		return g
	}
}

func WithCookieName(name string) GuardOption {
	return func(g *Guard) *Guard {
		if name != "" {
			g.CookieName = name
		}
		return g
	}
}

func WithCookieDuration(d time.Duration) GuardOption {
	return func(g *Guard) *Guard {
		if d > 0 {
			g.CookieDuration = d
		}
		return g
	}
}

func NewGuard(validator TokenValidator, profiles session.RecordStore, opts ...GuardOption) *Guard {
	_, logger := session.ResolveLogger("guard", nil, nil)

	g := &Guard{
		Validator:        validator,
		Profiles:         profiles,
		CookieName:       DefaultCookieName,
		RejectedRouteKey: DefaultRejectedRouteKey,
		CookieDuration:   24 * time.Hour,
		Logger:           logger,
	}

	g.AuthErrorHandler = g.defaultAuthErrHandler
	g.ErrorHandler = g.defaultErrHandler

	for _, opt := range opts {
		g = opt(g)
	}

	if g.Validator == nil {
		panic("Missing token validator in route guard...")
	}

	return g
}

// Protected rejects requests without a valid token or with a profile
// below the minimum role.
func (g *Guard) Protected(min session.UserRole) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			token := g.tokenFromRequest(ctx)
			if token == "" {
				return g.AuthErrorHandler(ctx, goerrors.New(
					"Missing authentication token",
					goerrors.CategoryAuth,
				).WithCode(goerrors.CodeUnauthorized))
			}

			record, err := g.Validator.Validate(token)
			if err != nil {
				g.Logger.Info("token rejected", "error", err)
				return g.AuthErrorHandler(ctx, err)
			}

			userID, err := record.GetUserUUID()
			if err != nil {
				return g.AuthErrorHandler(ctx, goerrors.Wrap(
					err,
					goerrors.CategoryAuth,
					"Malformed subject claim",
				).WithCode(goerrors.CodeUnauthorized))
			}

			profile, err := g.Profiles.GetByID(ctx.Context(), userID)
			if err != nil {
				g.Logger.Warn("no profile for authenticated user", "user_id", userID, "error", err)
				return g.AuthErrorHandler(ctx, goerrors.Wrap(
					err,
					goerrors.CategoryAuth,
					"Unknown account",
				).WithCode(goerrors.CodeUnauthorized))
			}

			if !session.IsAtLeast(profile.Role, min) {
				return g.ErrorHandler(ctx, goerrors.New(
					"Insufficient role for this resource",
					goerrors.CategoryAuthz,
				).WithTextCode("FORBIDDEN").
					WithCode(goerrors.CodeForbidden).
					WithMetadata(map[string]any{
						"role":     profile.Role,
						"required": min,
					}))
			}

			ctx.Locals(ActorKey, profile)
			ctx.Locals(SessionLocalID, record)

			return next(ctx)
		}
	}
}

// ActorFromLocals retrieves the profile the guard stored for the request.
func ActorFromLocals(ctx router.Context) *session.Profile {
	actor, _ := ctx.Locals(ActorKey).(*session.Profile)
	return actor
}

func (g *Guard) tokenFromRequest(ctx router.Context) string {
	if token := ctx.Cookies(g.CookieName); token != "" {
		return token
	}

	header := ctx.Header(router.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return ""
}

// SetSessionCookie stores the access token after a successful sign in.
func (g *Guard) SetSessionCookie(ctx router.Context, record session.Session) {
	ctx.Cookie(&router.Cookie{
		Name:     g.CookieName,
		Value:    record.GetAccessToken(),
		Expires:  time.Now().Add(g.CookieDuration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// ClearSessionCookie drops the token cookie on sign out.
func (g *Guard) ClearSessionCookie(ctx router.Context) {
	g.cookieDel(ctx, g.CookieName)
}

func (g *Guard) GetRedirect(ctx router.Context, def ...string) string {
	r := ctx.Cookies(g.RejectedRouteKey)
	if r == "" {
		return def[0]
	}
	g.cookieDel(ctx, g.RejectedRouteKey)
	return r
}

func (g *Guard) SetRedirect(ctx router.Context) {
	g.Logger.Info("Setting redirect cookie", "key", g.RejectedRouteKey, "path", ctx.OriginalURL())

	ctx.Cookie(&router.Cookie{
		Name:     g.RejectedRouteKey,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *Guard) cookieDel(ctx router.Context, name string) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *Guard) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "An unexpected authentication error").
			WithCode(goerrors.CodeUnauthorized)
	}

	g.Logger.Info(
		"Authentication error, redirecting to login",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	g.SetRedirect(c)

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect("/login", statusCode)
}

func (g *Guard) defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	g.Logger.Info(
		"Guard error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case goerrors.CategoryAuth:
		return g.AuthErrorHandler(c, richErr)
	default:
		return c.Status(richErr.Code).Render("errors/500", router.ViewContext{
			"error": richErr,
		})
	}
}
