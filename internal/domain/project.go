package domain

import (
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "Not Started"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectCompleted  ProjectStatus = "Completed"
	ProjectOnHold     ProjectStatus = "On Hold"
)

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectNotStarted, ProjectInProgress, ProjectCompleted, ProjectOnHold:
		return true
	}
	return false
}

type Project struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	Name             string        `json:"name" db:"name"`
	Description      string        `json:"description" db:"description"`
	Status           ProjectStatus `json:"status" db:"status"`
	ProjectManagerID uuid.UUID     `json:"projectManager" db:"project_manager_id"`
	TeamMembers      []uuid.UUID   `json:"teamMembers" db:"-"`
	Version          int           `json:"version" db:"version"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time     `json:"updatedAt" db:"updated_at"`

	Manager *UserSummary  `json:"manager,omitempty" db:"-"`
	Members []UserSummary `json:"members,omitempty" db:"-"`
}

func (p *Project) IsManager(userID uuid.UUID) bool {
	return p.ProjectManagerID == userID
}

func (p *Project) HasMember(userID uuid.UUID) bool {
	for _, id := range p.TeamMembers {
		if id == userID {
			return true
		}
	}
	return false
}

type CreateProjectInput struct {
	Name           string        `json:"name" validate:"required"`
	Description    string        `json:"description"`
	Status         ProjectStatus `json:"status" validate:"omitempty,project_status"`
	ProjectManager NullableUUID  `json:"projectManager"`
}

type UpdateProjectInput struct {
	Name        *string        `json:"name,omitempty" validate:"omitempty,min=1"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty" validate:"omitempty,project_status"`
	Version     *int           `json:"version,omitempty"`
}

type MemberInput struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
}
