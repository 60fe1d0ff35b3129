package admin

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/codewaveai/go-session"
	"github.com/codewaveai/go-session/repository"
	"github.com/google/uuid"
)

// ProjectPayload is the create/update form for a portfolio entry. A zero ID
// creates a new record.
type ProjectPayload struct {
	ID           uuid.UUID `json:"id,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Media        []string  `json:"media,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	LiveURL      string    `json:"live_url,omitempty"`
	RepoURL      string    `json:"repo_url,omitempty"`
	Featured     bool      `json:"featured,omitempty"`
	DisplayOrder int       `json:"display_order,omitempty"`
}

// Validate will run validation rules
func (p ProjectPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Description, validation.Length(0, 5000)),
		validation.Field(&p.LiveURL, is.URL),
		validation.Field(&p.RepoURL, is.URL),
	)
}

func (p ProjectPayload) record() *repository.Project {
	return &repository.Project{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Media:        p.Media,
		Tags:         p.Tags,
		LiveURL:      p.LiveURL,
		RepoURL:      p.RepoURL,
		Featured:     p.Featured,
		DisplayOrder: p.DisplayOrder,
	}
}

// TeamMemberPayload is the create/update form for a team member.
type TeamMemberPayload struct {
	ID           uuid.UUID            `json:"id,omitempty"`
	Name         string               `json:"name"`
	Role         string               `json:"role"`
	Description  string               `json:"description,omitempty"`
	Email        string               `json:"email,omitempty"`
	ImageURL     string               `json:"image_url,omitempty"`
	SocialLinks  *session.SocialLinks `json:"social_links,omitempty"`
	DisplayOrder int                  `json:"display_order,omitempty"`
}

// Validate will run validation rules
func (p TeamMemberPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Role, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Email, is.Email),
		validation.Field(&p.Description, validation.Length(0, 2000)),
	)
}

func (p TeamMemberPayload) record() *repository.TeamMember {
	return &repository.TeamMember{
		ID:           p.ID,
		Name:         p.Name,
		Role:         p.Role,
		Description:  p.Description,
		Email:        p.Email,
		ImageURL:     p.ImageURL,
		SocialLinks:  p.SocialLinks,
		DisplayOrder: p.DisplayOrder,
	}
}

// SkillPayload is the create/update form for a skills matrix entry.
type SkillPayload struct {
	ID          uuid.UUID `json:"id,omitempty"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Proficiency int       `json:"proficiency"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
}

// Validate will run validation rules
func (p SkillPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.Category, validation.Required, validation.In(categoryValues()...)),
		validation.Field(&p.Proficiency, validation.Min(0), validation.Max(100)),
	)
}

func (p SkillPayload) record() *repository.Skill {
	return &repository.Skill{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Proficiency: p.Proficiency,
		Description: p.Description,
		Icon:        p.Icon,
	}
}

func categoryValues() []any {
	out := make([]any, len(repository.SkillCategories))
	for i, c := range repository.SkillCategories {
		out[i] = c
	}
	return out
}

// ContactPayload is the public contact form submission.
type ContactPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// Validate will run validation rules
func (p ContactPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&p.Subject, validation.Length(0, 200)),
		validation.Field(&p.Message, validation.Required, validation.Length(1, 5000)),
	)
}

func (p ContactPayload) record() *repository.ContactMessage {
	return &repository.ContactMessage{
		Name:    p.Name,
		Email:   p.Email,
		Subject: p.Subject,
		Message: p.Message,
	}
}
