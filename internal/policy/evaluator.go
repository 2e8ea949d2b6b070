package policy

import (
	"taskhub/internal/domain"
)

// rolePolicy is the per-role variant consulted by the Evaluator.
type rolePolicy interface {
	// superuser grants every action regardless of ownership.
	superuser() bool
	canCreateProjects() bool
}

type adminRole struct{}

func (adminRole) superuser() bool         { return true }
func (adminRole) canCreateProjects() bool { return true }

type managerRole struct{}

func (managerRole) superuser() bool         { return false }
func (managerRole) canCreateProjects() bool { return true }

type memberRole struct{}

func (memberRole) superuser() bool         { return false }
func (memberRole) canCreateProjects() bool { return false }

type Evaluator struct {
	roles map[domain.Role]rolePolicy
}

func New() *Evaluator {
	return &Evaluator{
		roles: map[domain.Role]rolePolicy{
			domain.RoleAdmin:          adminRole{},
			domain.RoleProjectManager: managerRole{},
			domain.RoleTeamMember:     memberRole{},
		},
	}
}

// CanAccess evaluates the clauses for target.Resource as an OR: any satisfied clause allows.
func (e *Evaluator) CanAccess(s Subject, action Action, target Target) Decision {
	role, ok := e.roles[s.Role]
	if !ok {
		return deny("Role %q is not recognized", s.Role)
	}

	switch target.Resource {
	case ResourceProject:
		return e.project(role, s, action, target.Project)
	case ResourceTask:
		return e.task(role, s, action, target.Task, target.Project)
	case ResourceUser:
		if role.superuser() {
			return allow(ScopeFull)
		}
		return deny("Only an Admin can manage users")
	case ResourceNotification:
		if target.Notification != nil && target.Notification.IsOwnedBy(s.UserID) {
			return allow(ScopeFull)
		}
		return deny("Not authorized to access this notification")
	default:
		return deny("Unknown resource %q", target.Resource)
	}
}

func (e *Evaluator) project(role rolePolicy, s Subject, action Action, p *domain.Project) Decision {
	if action == ActionCreate {
		if role.canCreateProjects() {
			return allow(ScopeFull)
		}
		return deny("Role %s is not allowed to create projects", s.Role)
	}
	if p == nil {
		return deny("Project context is required")
	}

	switch action {
	case ActionRead:
		if role.superuser() || isManager(s, p) || isMember(s, p) {
			return allow(ScopeFull)
		}
		return deny("User %s is not authorized to view project %s", s.UserID, p.ID)
	case ActionUpdate, ActionDelete, ActionManageMembers:
		if role.superuser() || isManager(s, p) {
			return allow(ScopeFull)
		}
		return deny("User %s is not authorized to %s project %s", s.UserID, verb(action), p.ID)
	default:
		return deny("Action %q is not supported on projects", action)
	}
}

func (e *Evaluator) task(role rolePolicy, s Subject, action Action, t *domain.Task, p *domain.Project) Decision {
	if p == nil {
		return deny("Project context is required")
	}

	switch action {
	case ActionCreate:
		if !role.superuser() && !isManager(s, p) {
			return deny("Not authorized to add tasks to project %s", p.ID)
		}
		if p.Status == domain.ProjectCompleted {
			return conflict("Cannot add tasks to project %q because it is completed", p.Name)
		}
		return allow(ScopeFull)
	}

	if t == nil {
		return deny("Task context is required")
	}

	switch action {
	case ActionRead:
		if role.superuser() || isManager(s, p) || isMember(s, p) || isAssignee(s, t) {
			return allow(ScopeFull)
		}
		return deny("Not authorized to view this task")
	case ActionUpdate:
		if role.superuser() || isManager(s, p) {
			return allow(ScopeFull)
		}
		if isAssignee(s, t) {
			return allow(ScopeSelfService)
		}
		return deny("Not authorized to update this task")
	case ActionDelete:
		if role.superuser() || isManager(s, p) {
			return allow(ScopeFull)
		}
		return deny("Not authorized to delete this task")
	default:
		return deny("Action %q is not supported on tasks", action)
	}
}

func isManager(s Subject, p *domain.Project) bool {
	return p.IsManager(s.UserID)
}

func isMember(s Subject, p *domain.Project) bool {
	return p.HasMember(s.UserID)
}

func isAssignee(s Subject, t *domain.Task) bool {
	return t.IsAssignedTo(s.UserID)
}

func verb(a Action) string {
	if a == ActionManageMembers {
		return "modify the team of"
	}
	return string(a)
}
