package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"taskhub/internal/domain"
	"taskhub/internal/logger"
	"taskhub/internal/pkg/validate"
	"taskhub/internal/policy"
	"taskhub/internal/repository"
	"taskhub/internal/service/notification"
)

type Service interface {
	Create(ctx context.Context, subject policy.Subject, projectID uuid.UUID, input domain.CreateTaskInput) (*domain.Task, error)
	GetByID(ctx context.Context, subject policy.Subject, id uuid.UUID) (*domain.Task, error)
	ListByProject(ctx context.Context, subject policy.Subject, projectID uuid.UUID) ([]domain.Task, error)
	Update(ctx context.Context, subject policy.Subject, id uuid.UUID, input domain.UpdateTaskInput) (*domain.Task, error)
	Delete(ctx context.Context, subject policy.Subject, id uuid.UUID) error
}

type service struct {
	repos    *repository.Repositories
	tx       repository.Transactor
	policy   *policy.Evaluator
	notifier notification.Service
}

func NewService(repos *repository.Repositories, tx repository.Transactor, evaluator *policy.Evaluator, notifier notification.Service) Service {
	return &service{
		repos:    repos,
		tx:       tx,
		policy:   evaluator,
		notifier: notifier,
	}
}

func (s *service) Create(ctx context.Context, subject policy.Subject, projectID uuid.UUID, input domain.CreateTaskInput) (*domain.Task, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanAccess(subject, policy.ActionCreate, policy.TaskTarget(nil, project)).Err(); err != nil {
		return nil, err
	}
	if err := checkAssignable(project, input.AssignedTo.Value); err != nil {
		return nil, err
	}

	task := &domain.Task{
		ID:          uuid.New(),
		Title:       input.Title,
		Description: input.Description,
		ProjectID:   project.ID,
		AssignedTo:  input.AssignedTo.Value,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate.Value,
	}
	if task.Status == "" {
		task.Status = domain.TaskToDo
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}

	names, err := s.names(ctx, task.AssignedTo)
	if err != nil {
		return nil, err
	}
	details := fmt.Sprintf("Task %q created and assigned to %s.", task.Title, assigneeName(task.AssignedTo, names))

	err = s.tx.WithinTx(ctx, func(repos *repository.Repositories) error {
		if err := repos.Task.Create(ctx, task); err != nil {
			return err
		}
		return repository.CreateActivityLog(repos.ActivityLog, ctx, domain.CreateActivityLogInput{
			ProjectID: project.ID,
			UserID:    subject.UserID,
			Action:    domain.ActionTaskCreated,
			Details:   details,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, task, project, domain.NotifTaskCreated, details)
	attachAssignee(task, names)
	return task, nil
}

func (s *service) GetByID(ctx context.Context, subject policy.Subject, id uuid.UUID) (*domain.Task, error) {
	task, project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanAccess(subject, policy.ActionRead, policy.TaskTarget(task, project)).Err(); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *service) ListByProject(ctx context.Context, subject policy.Subject, projectID uuid.UUID) ([]domain.Task, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanAccess(subject, policy.ActionRead, policy.ProjectTarget(project)).Err(); err != nil {
		return nil, err
	}
	return s.repos.Task.ListByProject(ctx, projectID)
}

// Update applies a partial update. An assignee without management rights is limited to
// status and description; other fields in their payload are dropped.
func (s *service) Update(ctx context.Context, subject policy.Subject, id uuid.UUID, input domain.UpdateTaskInput) (*domain.Task, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	task, project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	decision := s.policy.CanAccess(subject, policy.ActionUpdate, policy.TaskTarget(task, project))
	if err := decision.Err(); err != nil {
		return nil, err
	}
	if decision.Scope == policy.ScopeSelfService {
		input = input.SelfServiceOnly()
	}
	if input.Version != nil && *input.Version != task.Version {
		return nil, domain.ErrStaleWrite
	}

	before := *task
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.AssignedTo.Set && !sameAssignee(task.AssignedTo, input.AssignedTo.Value) {
		if err := checkAssignable(project, input.AssignedTo.Value); err != nil {
			return nil, err
		}
		task.AssignedTo = input.AssignedTo.Value
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.DueDate.Set {
		task.DueDate = input.DueDate.Value
	}

	names, err := s.names(ctx, before.AssignedTo, task.AssignedTo)
	if err != nil {
		return nil, err
	}
	details := Summarize(&before, task, names)

	err = s.tx.WithinTx(ctx, func(repos *repository.Repositories) error {
		if err := repos.Task.Update(ctx, task); err != nil {
			return err
		}
		return repository.CreateActivityLog(repos.ActivityLog, ctx, domain.CreateActivityLogInput{
			ProjectID: project.ID,
			UserID:    subject.UserID,
			Action:    domain.ActionTaskUpdated,
			Details:   details,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, task, project, domain.NotifTaskUpdated, details)
	attachAssignee(task, names)
	return task, nil
}

func (s *service) Delete(ctx context.Context, subject policy.Subject, id uuid.UUID) error {
	task, project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.CanAccess(subject, policy.ActionDelete, policy.TaskTarget(task, project)).Err(); err != nil {
		return err
	}

	details := fmt.Sprintf("Task %q was deleted.", task.Title)
	err = s.tx.WithinTx(ctx, func(repos *repository.Repositories) error {
		if err := repos.Task.Delete(ctx, task.ID); err != nil {
			return err
		}
		return repository.CreateActivityLog(repos.ActivityLog, ctx, domain.CreateActivityLogInput{
			ProjectID: project.ID,
			UserID:    subject.UserID,
			Action:    domain.ActionTaskDeleted,
			Details:   details,
		})
	})
	if err != nil {
		return err
	}

	s.notify(ctx, task, project, domain.NotifTaskDeleted, details)
	return nil
}

// notify runs fan-out once per committed transition. Its failures never reach the caller.
func (s *service) notify(ctx context.Context, task *domain.Task, project *domain.Project, action domain.NotificationType, details string) {
	if _, err := s.notifier.Fanout(ctx, task, project, action, details); err != nil {
		logger.Log.WithFields(logger.Fields{
			"task_id":    task.ID,
			"project_id": project.ID,
			"action":     action,
		}).WithError(err).Warn("Task notification fan-out failed")
	}
}

func checkAssignable(project *domain.Project, assignee *uuid.UUID) error {
	if assignee == nil || project.HasMember(*assignee) {
		return nil
	}
	return domain.Conflict("User %s is not a member of project %q", *assignee, project.Name)
}

func (s *service) names(ctx context.Context, ids ...*uuid.UUID) (map[uuid.UUID]string, error) {
	var lookup []uuid.UUID
	for _, id := range ids {
		if id != nil {
			lookup = append(lookup, *id)
		}
	}
	names := make(map[uuid.UUID]string, len(lookup))
	if len(lookup) == 0 {
		return names, nil
	}

	summaries, err := s.repos.User.GetSummaries(ctx, lookup)
	if err != nil {
		return nil, err
	}
	for _, u := range summaries {
		names[u.ID] = u.Name
	}
	return names, nil
}

func attachAssignee(task *domain.Task, names map[uuid.UUID]string) {
	task.Assignee = nil
	if task.AssignedTo != nil {
		task.Assignee = &domain.UserSummary{ID: *task.AssignedTo, Name: assigneeName(task.AssignedTo, names)}
	}
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*domain.Task, *domain.Project, error) {
	task, err := s.repos.Task.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		return nil, nil, domain.NotFound("Task not found with id of %s", id)
	}
	project, err := s.loadProject(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return task, project, nil
}

func (s *service) loadProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	project, err := s.repos.Project.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, domain.NotFound("Project not found with id of %s", id)
	}
	return project, nil
}
