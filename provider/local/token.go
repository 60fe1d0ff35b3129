package local

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/codewaveai/go-session"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned when an otherwise valid token has passed its expiration.
	ErrTokenExpired = goerrors.New("token expired", goerrors.CategoryAuth).
			WithTextCode("TOKEN_EXPIRED")
	// ErrTokenMalformed is returned when a token cannot be parsed at all.
	ErrTokenMalformed = goerrors.New("token malformed", goerrors.CategoryAuth).
				WithTextCode("TOKEN_MALFORMED")
)

// AccessClaims is the JWT payload the local provider mints for a session.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// TokenService mints and validates HS256 access tokens for local sessions.
type TokenService struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        jwt.ClaimStrings
	logger          session.Logger
	now             func() time.Time
}

// NewTokenService creates a TokenService. tokenExpiration is in hours.
func NewTokenService(signingKey []byte, tokenExpiration int, issuer string, audience jwt.ClaimStrings, logger session.Logger) *TokenService {
	_, lgr := session.ResolveLogger("token", nil, logger)
	return &TokenService{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		audience:        audience,
		logger:          lgr,
		now:             time.Now,
	}
}

// Generate mints a signed token and the matching session record for an account.
func (ts *TokenService) Generate(account *Account) (string, *session.SessionObject, error) {
	if account == nil {
		return "", nil, goerrors.New("account must not be nil", goerrors.CategoryInternal)
	}

	now := ts.now()
	expiresAt := now.Add(time.Duration(ts.tokenExpiration) * time.Hour)

	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   account.ID.String(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: account.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	record := &session.SessionObject{
		UserID:      account.ID.String(),
		AccessToken: signed,
		IssuedAt:    &now,
		ExpiresAt:   &expiresAt,
		Data: map[string]any{
			"email": account.Email,
		},
	}

	return signed, record, nil
}

// Validate parses a token string and rebuilds the session it describes.
func (ts *TokenService) Validate(tokenString string) (*session.SessionObject, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token validate could not decode claims")
		return nil, ErrTokenMalformed
	}

	return sessionFromClaims(claims), nil
}

func sessionFromClaims(claims *AccessClaims) *session.SessionObject {
	record := &session.SessionObject{
		UserID: claims.Subject,
		Data:   map[string]any{},
	}
	if claims.IssuedAt != nil {
		record.IssuedAt = &claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		record.ExpiresAt = &claims.ExpiresAt.Time
	}
	if claims.Email != "" {
		record.Data["email"] = claims.Email
	}
	return record
}
