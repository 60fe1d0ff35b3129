package repository

import (
	"time"

	"github.com/codewaveai/go-session"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Project is a portfolio entry shown on the public site and managed from the
// admin console.
type Project struct {
	bun.BaseModel `bun:"table:projects,alias:prj"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	Media         []string   `bun:"media,type:jsonb" json:"media,omitempty"`
	Tags          []string   `bun:"tags,type:jsonb" json:"tags,omitempty"`
	LiveURL       string     `bun:"live_url" json:"live_url,omitempty"`
	RepoURL       string     `bun:"repo_url" json:"repo_url,omitempty"`
	Featured      bool       `bun:"featured" json:"featured,omitempty"`
	DisplayOrder  int        `bun:"display_order" json:"display_order,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// TeamMember is a person shown on the about page.
type TeamMember struct {
	bun.BaseModel `bun:"table:team_members,alias:tmm"`
	ID            uuid.UUID            `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string               `bun:"name,notnull" json:"name,omitempty"`
	Role          string               `bun:"role,notnull" json:"role,omitempty"`
	Description   string               `bun:"description" json:"description,omitempty"`
	Email         string               `bun:"email" json:"email,omitempty"`
	ImageURL      string               `bun:"image_url" json:"image_url,omitempty"`
	SocialLinks   *session.SocialLinks `bun:"social_links,type:jsonb" json:"social_links,omitempty"`
	DisplayOrder  int                  `bun:"display_order" json:"display_order,omitempty"`
	CreatedAt     *time.Time           `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time           `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time           `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Skill is one entry on the skills matrix, grouped by category and ordered
// by proficiency.
type Skill struct {
	bun.BaseModel `bun:"table:skills,alias:skl"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Category      string     `bun:"category,notnull" json:"category,omitempty"`
	Proficiency   int        `bun:"proficiency" json:"proficiency,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	Icon          string     `bun:"icon" json:"icon,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// SkillCategories are the known skill groupings, in display order.
var SkillCategories = []string{"Frontend", "Backend", "AI/ML", "Design", "DevOps", "Other"}

// ContactMessage is a submission from the public contact form.
type ContactMessage struct {
	bun.BaseModel `bun:"table:contact_messages,alias:cmsg"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Subject       string     `bun:"subject" json:"subject,omitempty"`
	Message       string     `bun:"message,notnull" json:"message,omitempty"`
	ReadAt        *time.Time `bun:"read_at,nullzero" json:"read_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// SiteVisit is a single page view, logged fire and forget from the public
// site.
type SiteVisit struct {
	bun.BaseModel `bun:"table:site_visits,alias:sv"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Path          string     `bun:"path,notnull" json:"path,omitempty"`
	UserAgent     string     `bun:"user_agent" json:"user_agent,omitempty"`
	Referrer      string     `bun:"referrer" json:"referrer,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
