package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionProjectCreated    = "Project Created"
	ActionProjectUpdated    = "Project Updated"
	ActionProjectCompleted  = "Project Completed"
	ActionProjectDeleted    = "Project Deleted"
	ActionTeamMemberAdded   = "Team Member Added"
	ActionTeamMemberRemoved = "Team Member Removed"
	ActionTaskCreated       = "Task Created"
	ActionTaskUpdated       = "Task Updated"
	ActionTaskDeleted       = "Task Deleted"
)

// ActivityLog is append-only. Project and user are weak references and may point at deleted rows.
type ActivityLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Seq       int64     `json:"-" db:"seq"`
	ProjectID uuid.UUID `json:"project" db:"project_id"`
	UserID    uuid.UUID `json:"user" db:"user_id"`
	UserName  *string   `json:"userName" db:"user_name"`
	UserEmail *string   `json:"userEmail,omitempty" db:"user_email"`
	Action    string    `json:"action" db:"action"`
	Details   string    `json:"details" db:"details"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type CreateActivityLogInput struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Action    string
	Details   string
}
