// Package policy decides whether a subject may perform an action on a target.
//
// Decisions are pure functions of the subject's identity and role and the target's
// current state. Ownership clauses (project manager, team member, task assignee) apply to
// every role; the role variant only adds blanket grants on top of them.
package policy

import (
	"fmt"

	"github.com/google/uuid"

	"taskhub/internal/domain"
)

type Action string

const (
	ActionRead          Action = "read"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionManageMembers Action = "manage_members"
)

type Resource string

const (
	ResourceProject      Resource = "project"
	ResourceTask         Resource = "task"
	ResourceUser         Resource = "user"
	ResourceNotification Resource = "notification"
)

// Subject is the acting user.
type Subject struct {
	UserID uuid.UUID
	Role   domain.Role
}

func SubjectOf(u *domain.User) Subject {
	return Subject{UserID: u.ID, Role: u.Role}
}

// Target is the resource under evaluation plus the ownership context it needs.
// Task targets carry their parent project; a task create target has a nil Task.
type Target struct {
	Resource     Resource
	Project      *domain.Project
	Task         *domain.Task
	Notification *domain.Notification
}

func ProjectTarget(p *domain.Project) Target {
	return Target{Resource: ResourceProject, Project: p}
}

func TaskTarget(t *domain.Task, p *domain.Project) Target {
	return Target{Resource: ResourceTask, Project: p, Task: t}
}

func UsersTarget() Target {
	return Target{Resource: ResourceUser}
}

func NotificationTarget(n *domain.Notification) Target {
	return Target{Resource: ResourceNotification, Notification: n}
}

// Scope limits which fields an allowed update may touch.
type Scope int

const (
	ScopeFull Scope = iota
	// ScopeSelfService permits only status and description changes.
	ScopeSelfService
)

type Decision struct {
	Allowed bool
	Reason  string
	Scope   Scope
	kind    domain.ErrorKind
}

func allow(scope Scope) Decision {
	return Decision{Allowed: true, Scope: scope}
}

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...), kind: domain.KindAuthorization}
}

func conflict(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...), kind: domain.KindConflict}
}

// Err converts a denial into the matching domain error, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &domain.Error{Kind: d.kind, Message: d.Reason}
}
