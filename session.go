package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the concrete session view the core observes. The access
// token is opaque; only the user id is interpreted.
type SessionObject struct {
	UserID      string         `json:"user_id,omitempty"`
	AccessToken string         `json:"access_token,omitempty"`
	IssuedAt    *time.Time     `json:"issued_at,omitempty"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetAccessToken() string {
	return s.AccessToken
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpiresAt() *time.Time {
	return s.ExpiresAt
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// Expired reports whether the session carries an expiry in the past.
func (s *SessionObject) Expired(now time.Time) bool {
	if s.ExpiresAt == nil {
		return false
	}
	return s.ExpiresAt.Before(now)
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf("user=%s iat=%s data=%v", s.UserID, issuedAt, s.Data)
}
