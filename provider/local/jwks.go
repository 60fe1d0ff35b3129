package local

import (
	stderrors "errors"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/codewaveai/go-session"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// RemoteValidator validates tokens minted by an external identity service
// against its published JWK set. It lets the session core accept tokens it
// never issued, e.g. after a migration off a hosted provider.
type RemoteValidator struct {
	jwks   *keyfunc.JWKS
	issuer string
	logger session.Logger
}

// NewRemoteValidator fetches the JWK set and keeps it refreshed in the
// background.
func NewRemoteValidator(jwksURL, issuer string, logger session.Logger) (*RemoteValidator, error) {
	_, lgr := session.ResolveLogger("provider.jwks", nil, logger)

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			lgr.Error("failed to do a background refresh of JWK set", "error", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to fetch JWK set").
			WithMetadata(map[string]any{"url": jwksURL})
	}

	return &RemoteValidator{
		jwks:   jwks,
		issuer: issuer,
		logger: lgr,
	}, nil
}

// Validate parses a remotely issued token and rebuilds the session it
// describes.
func (v *RemoteValidator) Validate(tokenString string) (*session.SessionObject, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if v.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, v.jwks.Keyfunc, parserOptions...)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		v.logger.Error("remote token validate could not decode claims")
		return nil, ErrTokenMalformed
	}

	record := sessionFromClaims(claims)
	record.AccessToken = tokenString

	return record, nil
}

// Close stops the background JWK refresh.
func (v *RemoteValidator) Close() {
	v.jwks.EndBackground()
}
