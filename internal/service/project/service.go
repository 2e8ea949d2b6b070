package project

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"taskhub/internal/domain"
	"taskhub/internal/logger"
	"taskhub/internal/pkg/validate"
	"taskhub/internal/policy"
	"taskhub/internal/repository"
	"taskhub/internal/service/archive"
)

type Service interface {
	Create(ctx context.Context, subject policy.Subject, input domain.CreateProjectInput) (*domain.Project, error)
	GetByID(ctx context.Context, subject policy.Subject, id uuid.UUID) (*domain.Project, error)
	List(ctx context.Context, subject policy.Subject) ([]domain.Project, error)
	Update(ctx context.Context, subject policy.Subject, id uuid.UUID, input domain.UpdateProjectInput) (*domain.Project, error)
	Delete(ctx context.Context, subject policy.Subject, id uuid.UUID) error
	AddMember(ctx context.Context, subject policy.Subject, id, userID uuid.UUID) (*domain.Project, error)
	RemoveMember(ctx context.Context, subject policy.Subject, id, userID uuid.UUID) (*domain.Project, error)
}

type service struct {
	repos      *repository.Repositories
	tx         repository.Transactor
	policy     *policy.Evaluator
	archiveSvc archive.Service
}

func NewService(repos *repository.Repositories, tx repository.Transactor, evaluator *policy.Evaluator, archiveSvc archive.Service) Service {
	return &service{
		repos:      repos,
		tx:         tx,
		policy:     evaluator,
		archiveSvc: archiveSvc,
	}
}

func (s *service) Create(ctx context.Context, subject policy.Subject, input domain.CreateProjectInput) (*domain.Project, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if err := s.policy.CanAccess(subject, policy.ActionCreate, policy.ProjectTarget(nil)).Err(); err != nil {
		return nil, err
	}

	managerID, err := s.resolveManager(ctx, subject, input.ProjectManager.Value)
	if err != nil {
		return nil, err
	}

	project := &domain.Project{
		ID:               uuid.New(),
		Name:             input.Name,
		Description:      input.Description,
		Status:           input.Status,
		ProjectManagerID: managerID,
		TeamMembers:      []uuid.UUID{},
	}
	if project.Status == "" {
		project.Status = domain.ProjectNotStarted
	}

	err = s.tx.WithinTx(ctx, func(repos *repository.Repositories) error {
		if err := repos.Project.Create(ctx, project); err != nil {
			return err
		}
		return repository.CreateActivityLog(repos.ActivityLog, ctx, domain.CreateActivityLogInput{
			ProjectID: project.ID,
			UserID:    subject.UserID,
			Action:    domain.ActionProjectCreated,
			Details:   fmt.Sprintf("Project %q was created.", project.Name),
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.populate(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// resolveManager picks the manager for a new project. An Admin must name an existing
// Project Manager; a Project Manager always manages what they create.
func (s *service) resolveManager(ctx context.Context, subject policy.Subject, requested *uuid.UUID) (uuid.UUID, error) {
	if subject.Role != domain.RoleAdmin {
		return subject.UserID, nil
	}
	if requested == nil || *requested == uuid.Nil {
		return uuid.Nil, domain.Validation("projectManager is required when an Admin creates a project")
	}

	manager, err := s.repos.User.GetByID(ctx, *requested)
	if err != nil {
		return uuid.Nil, err
	}
	if manager == nil {
		return uuid.Nil, domain.Validation("projectManager %s does not exist", *requested)
	}
	if manager.Role != domain.RoleProjectManager {
		return uuid.Nil, domain.Validation("User %s is not a Project Manager", manager.Name)
	}
	return manager.ID, nil
}

func (s *service) GetByID(ctx context.Context, subject policy.Subject, id uuid.UUID) (*domain.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanAccess(subject, policy.ActionRead, policy.ProjectTarget(project)).Err(); err != nil {
		return nil, err
	}
	if err := s.populate(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// List returns every project for an Admin and otherwise the projects the subject manages or belongs to.
func (s *service) List(ctx context.Context, subject policy.Subject) ([]domain.Project, error) {
	var (
		projects []domain.Project
		err      error
	)
	if subject.Role == domain.RoleAdmin {
		projects, err = s.repos.Project.List(ctx)
	} else {
		projects, err = s.repos.Project.ListForUser(ctx, subject.UserID)
	}
	if err != nil {
		return nil, err
	}

	ptrs := make([]*domain.Project, len(projects))
	for i := range projects {
		ptrs[i] = &projects[i]
	}
	if err := s.populate(ctx, ptrs...); err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *service) Update(ctx context.Context, subject policy.Subject, id uuid.UUID, input domain.UpdateProjectInput) (*domain.Project, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanAccess(subject, policy.ActionUpdate, policy.ProjectTarget(project)).Err(); err != nil {
		return nil, err
	}
	if input.Version != nil && *input.Version != project.Version {
		return nil, domain.ErrStaleWrite
	}

	wasCompleted := project.Status == domain.ProjectCompleted
	if input.Name != nil {
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != nil {
		project.Status = *input.Status
	}
	completing := !wasCompleted && project.Status == domain.ProjectCompleted

	err = s.tx.WithinTx(ctx, func(repos *repository.Repositories) error {
		if err := repos.Project.Update(ctx, project); err != nil {
			return err
		}

		entry := domain.CreateActivityLogInput{
			ProjectID: project.ID,
			UserID:    subject.UserID,
			Action:    domain.ActionProjectUpdated,
			Details:   fmt.Sprintf("Project %q details updated.", project.Name),
		}
		if completing {
			done, err := repos.Task.CompleteAllByProject(ctx, project.ID)
			if err != nil {
				return err
			}
			entry.Action = domain.ActionProjectCompleted
			entry.Details = fmt.Sprintf("Project %q was completed; %d task(s) marked Done.", project.Name, done)
		}
		return repository.CreateActivityLog(repos.ActivityLog, ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	if err := s.populate(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the project's tasks and then the project in one transaction. The
// activity trail stays in the log and is also archived to object storage.
func (s *service) Delete(ctx context.Context, subject policy.Subject, id uuid.UUID) error {
	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.CanAccess(subject, policy.ActionDelete, policy.ProjectTarget(project)).Err(); err != nil {
		return err
	}

	err = s.tx.WithinTx(ctx, func(repos *repository.Repositories) error {
		if _, err := repos.Task.DeleteByProject(ctx, project.ID); err != nil {
			return err
		}
		if err := repos.Project.Delete(ctx, project.ID); err != nil {
			return err
		}
		return repository.CreateActivityLog(repos.ActivityLog, ctx, domain.CreateActivityLogInput{
			ProjectID: project.ID,
			UserID:    subject.UserID,
			Action:    domain.ActionProjectDeleted,
			Details:   fmt.Sprintf("Project %q and all its tasks were deleted.", project.Name),
		})
	})
	if err != nil {
		return err
	}

	s.archive(ctx, project)
	return nil
}

func (s *service) archive(ctx context.Context, project *domain.Project) {
	if s.archiveSvc == nil {
		return
	}
	fields := logger.Fields{"project_id": project.ID}

	logs, err := s.repos.ActivityLog.ListByProject(ctx, project.ID)
	if err != nil {
		logger.Log.WithFields(fields).WithError(err).Warn("Failed to load activity for archive")
		return
	}
	object, err := s.archiveSvc.ArchiveProject(ctx, project, logs)
	if err != nil {
		logger.Log.WithFields(fields).WithError(err).Warn("Project activity not archived")
		return
	}
	if object != "" {
		logger.Log.WithFields(fields).WithField("object", object).Info("Project activity archived")
	}
}

func (s *service) AddMember(ctx context.Context, subject policy.Subject, id, userID uuid.UUID) (*domain.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanAccess(subject, policy.ActionManageMembers, policy.ProjectTarget(project)).Err(); err != nil {
		return nil, err
	}

	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("No user with the id of %s", userID)
	}
	if project.IsManager(userID) {
		return nil, domain.Conflict("%s manages project %q and cannot also be a team member", user.Name, project.Name)
	}
	if project.HasMember(userID) {
		return nil, domain.Conflict("%s is already a member of project %q", user.Name, project.Name)
	}

	err = s.tx.WithinTx(ctx, func(repos *repository.Repositories) error {
		if err := repos.Project.AddMember(ctx, project.ID, userID); err != nil {
			return err
		}
		if err := repos.Project.Update(ctx, project); err != nil {
			return err
		}
		return repository.CreateActivityLog(repos.ActivityLog, ctx, domain.CreateActivityLogInput{
			ProjectID: project.ID,
			UserID:    subject.UserID,
			Action:    domain.ActionTeamMemberAdded,
			Details:   fmt.Sprintf("%s was added to project %q.", user.Name, project.Name),
		})
	})
	if err != nil {
		return nil, err
	}

	project.TeamMembers = append(project.TeamMembers, userID)
	if err := s.populate(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// RemoveMember unassigns the member's tasks before dropping the membership, so no task is
// ever assigned to a non-member.
func (s *service) RemoveMember(ctx context.Context, subject policy.Subject, id, userID uuid.UUID) (*domain.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanAccess(subject, policy.ActionManageMembers, policy.ProjectTarget(project)).Err(); err != nil {
		return nil, err
	}
	if !project.HasMember(userID) {
		return nil, domain.Conflict("User %s is not a member of project %q", userID, project.Name)
	}

	name := domain.PlaceholderUser
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		name = user.Name
	}

	err = s.tx.WithinTx(ctx, func(repos *repository.Repositories) error {
		if _, err := repos.Task.UnassignUser(ctx, project.ID, userID); err != nil {
			return err
		}
		if err := repos.Project.RemoveMember(ctx, project.ID, userID); err != nil {
			return err
		}
		if err := repos.Project.Update(ctx, project); err != nil {
			return err
		}
		return repository.CreateActivityLog(repos.ActivityLog, ctx, domain.CreateActivityLogInput{
			ProjectID: project.ID,
			UserID:    subject.UserID,
			Action:    domain.ActionTeamMemberRemoved,
			Details:   fmt.Sprintf("%s was removed from project %q.", name, project.Name),
		})
	})
	if err != nil {
		return nil, err
	}

	members := make([]uuid.UUID, 0, len(project.TeamMembers))
	for _, m := range project.TeamMembers {
		if m != userID {
			members = append(members, m)
		}
	}
	project.TeamMembers = members

	if err := s.populate(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	project, err := s.repos.Project.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, domain.NotFound("Project not found with id of %s", id)
	}
	return project, nil
}

// populate resolves manager and member references with a single user lookup.
func (s *service) populate(ctx context.Context, projects ...*domain.Project) error {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, p := range projects {
		for _, id := range append([]uuid.UUID{p.ProjectManagerID}, p.TeamMembers...) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	summaries, err := s.repos.User.GetSummaries(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]domain.UserSummary, len(summaries))
	for _, u := range summaries {
		byID[u.ID] = u
	}
	lookup := func(id uuid.UUID) domain.UserSummary {
		if u, ok := byID[id]; ok {
			return u
		}
		return domain.UserSummary{ID: id, Name: domain.PlaceholderUser}
	}

	for _, p := range projects {
		manager := lookup(p.ProjectManagerID)
		p.Manager = &manager
		p.Members = make([]domain.UserSummary, 0, len(p.TeamMembers))
		for _, id := range p.TeamMembers {
			p.Members = append(p.Members, lookup(id))
		}
	}
	return nil
}
