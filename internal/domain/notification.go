package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifTaskCreated NotificationType = "Task Created"
	NotifTaskUpdated NotificationType = "Task Updated"
	NotifTaskDeleted NotificationType = "Task Deleted"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotifTaskCreated, NotifTaskUpdated, NotifTaskDeleted:
		return true
	}
	return false
}

// Placeholders shown when a weak reference no longer resolves.
const (
	PlaceholderUser    = "Unknown user"
	PlaceholderProject = "Deleted project"
	PlaceholderTask    = "Deleted task"
	Unassigned         = "Unassigned"
)

type Notification struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	UserID      uuid.UUID        `json:"user" db:"user_id"`
	Message     string           `json:"message" db:"message"`
	ProjectID   *uuid.UUID       `json:"project,omitempty" db:"project_id"`
	TaskID      *uuid.UUID       `json:"task,omitempty" db:"task_id"`
	ProjectName *string          `json:"projectName,omitempty" db:"project_name"`
	TaskTitle   *string          `json:"taskTitle,omitempty" db:"task_title"`
	Type        NotificationType `json:"type" db:"type"`
	IsRead      bool             `json:"isRead" db:"is_read"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
}

func (n *Notification) IsOwnedBy(userID uuid.UUID) bool {
	return n.UserID == userID
}
