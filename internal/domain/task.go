package domain

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskToDo       TaskStatus = "To Do"
	TaskInProgress TaskStatus = "In Progress"
	TaskDone       TaskStatus = "Done"
	TaskBlocked    TaskStatus = "Blocked"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskToDo, TaskInProgress, TaskDone, TaskBlocked:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	ProjectID   uuid.UUID    `json:"project" db:"project_id"`
	AssignedTo  *uuid.UUID   `json:"assignedTo" db:"assigned_to"`
	Status      TaskStatus   `json:"status" db:"status"`
	Priority    TaskPriority `json:"priority" db:"priority"`
	DueDate     *time.Time   `json:"dueDate" db:"due_date"`
	Version     int          `json:"version" db:"version"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt" db:"updated_at"`

	Assignee *UserSummary `json:"assignee,omitempty" db:"-"`
}

func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

type CreateTaskInput struct {
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description"`
	AssignedTo  NullableUUID `json:"assignedTo"`
	Status      TaskStatus   `json:"status" validate:"omitempty,task_status"`
	Priority    TaskPriority `json:"priority" validate:"omitempty,task_priority"`
	DueDate     NullableTime `json:"dueDate"`
}

// UpdateTaskInput is a partial update. The parent project is not part of it and cannot change.
type UpdateTaskInput struct {
	Title       *string       `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string       `json:"description,omitempty"`
	AssignedTo  NullableUUID  `json:"assignedTo"`
	Status      *TaskStatus   `json:"status,omitempty" validate:"omitempty,task_status"`
	Priority    *TaskPriority `json:"priority,omitempty" validate:"omitempty,task_priority"`
	DueDate     NullableTime  `json:"dueDate"`
	Version     *int          `json:"version,omitempty"`
}

// SelfServiceOnly keeps the fields an assignee without management rights may change.
func (in UpdateTaskInput) SelfServiceOnly() UpdateTaskInput {
	return UpdateTaskInput{
		Status:      in.Status,
		Description: in.Description,
		Version:     in.Version,
	}
}
