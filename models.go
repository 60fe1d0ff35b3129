package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the profile's role
type UserRole = string

const (
	// RoleGuest is a guest role (ie. view)
	RoleGuest UserRole = "guest"
	// RoleMember is a member (i.e. view, edit)
	RoleMember UserRole = "member"
	// RoleAdmin is an admin role (i.e. view, edit, create)
	RoleAdmin UserRole = "admin"
	// RoleOwner is an owner role (i.e. view, edit, create, delete)
	RoleOwner UserRole = "owner"
)

// ParseRole validates a raw role string against the known ladder.
func ParseRole(raw string) (UserRole, bool) {
	switch raw {
	case RoleGuest, RoleMember, RoleAdmin, RoleOwner:
		return raw, true
	default:
		return "", false
	}
}

// IsAtLeast reports whether role sits at or above min in the ladder
// guest < member < admin < owner.
func IsAtLeast(role, min UserRole) bool {
	rank := map[UserRole]int{
		RoleGuest:  0,
		RoleMember: 1,
		RoleAdmin:  2,
		RoleOwner:  3,
	}

	r, ok := rank[role]
	if !ok {
		return false
	}
	m, ok := rank[min]
	if !ok {
		return false
	}
	return r >= m
}

// SocialLinks holds the public links shown on the profile card.
type SocialLinks struct {
	GitHub   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Facebook string `json:"facebook,omitempty"`
}

// Profile is the application level user record. Its ID always equals the
// identity provider's user id; the row is created server side when a new
// identity is registered.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FullName      string       `bun:"full_name" json:"full_name,omitempty"`
	Role          UserRole     `bun:"user_role,notnull" json:"role,omitempty"`
	Email         string       `bun:"email,unique" json:"email,omitempty"`
	Phone         string       `bun:"phone_number" json:"phone_number,omitempty"`
	Bio           string       `bun:"bio" json:"bio,omitempty"`
	AvatarURL     string       `bun:"avatar_url" json:"avatar_url,omitempty"`
	SocialLinks   *SocialLinks `bun:"social_links,type:jsonb" json:"social_links,omitempty"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time   `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureRole defaults missing roles to member.
func (p *Profile) EnsureRole() {
	if p.Role == "" {
		p.Role = RoleMember
	}
}

// Clone returns a shallow copy with its own SocialLinks value.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.SocialLinks != nil {
		links := *p.SocialLinks
		cp.SocialLinks = &links
	}
	return &cp
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	FullName    *string      `json:"full_name,omitempty"`
	Role        *UserRole    `json:"role,omitempty"`
	Phone       *string      `json:"phone_number,omitempty"`
	Bio         *string      `json:"bio,omitempty"`
	AvatarURL   *string      `json:"avatar_url,omitempty"`
	SocialLinks *SocialLinks `json:"social_links,omitempty"`
}

// IsZero reports whether the patch carries no changes.
func (p ProfilePatch) IsZero() bool {
	return p.FullName == nil &&
		p.Role == nil &&
		p.Phone == nil &&
		p.Bio == nil &&
		p.AvatarURL == nil &&
		p.SocialLinks == nil
}

// Fields maps the patch onto store column values.
func (p ProfilePatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.FullName != nil {
		fields["full_name"] = *p.FullName
	}
	if p.Role != nil {
		fields["user_role"] = *p.Role
	}
	if p.Phone != nil {
		fields["phone_number"] = *p.Phone
	}
	if p.Bio != nil {
		fields["bio"] = *p.Bio
	}
	if p.AvatarURL != nil {
		fields["avatar_url"] = *p.AvatarURL
	}
	if p.SocialLinks != nil {
		fields["social_links"] = *p.SocialLinks
	}
	return fields
}

// Apply merges the patch into a copy of the profile and returns it. The
// receiver is not mutated.
func (p *Profile) Apply(patch ProfilePatch) *Profile {
	merged := p.Clone()
	if merged == nil {
		return nil
	}

	if patch.FullName != nil {
		merged.FullName = *patch.FullName
	}
	if patch.Role != nil {
		merged.Role = *patch.Role
	}
	if patch.Phone != nil {
		merged.Phone = *patch.Phone
	}
	if patch.Bio != nil {
		merged.Bio = *patch.Bio
	}
	if patch.AvatarURL != nil {
		merged.AvatarURL = *patch.AvatarURL
	}
	if patch.SocialLinks != nil {
		links := *patch.SocialLinks
		merged.SocialLinks = &links
	}
	return merged
}
