package activity

import (
	"context"

	"github.com/google/uuid"

	"taskhub/internal/domain"
	"taskhub/internal/policy"
	"taskhub/internal/repository"
)

// Service is the read side of the activity log. Entries are written by the project and
// task services inside their own transactions.
type Service interface {
	ListByProject(ctx context.Context, subject policy.Subject, projectID uuid.UUID) ([]domain.ActivityLog, error)
}

type service struct {
	activityRepo repository.ActivityLogRepository
	projectRepo  repository.ProjectRepository
	policy       *policy.Evaluator
}

func NewService(activityRepo repository.ActivityLogRepository, projectRepo repository.ProjectRepository, evaluator *policy.Evaluator) Service {
	return &service{
		activityRepo: activityRepo,
		projectRepo:  projectRepo,
		policy:       evaluator,
	}
}

func (s *service) ListByProject(ctx context.Context, subject policy.Subject, projectID uuid.UUID) ([]domain.ActivityLog, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, domain.NotFound("Project not found with id of %s", projectID)
	}

	if err := s.policy.CanAccess(subject, policy.ActionRead, policy.ProjectTarget(project)).Err(); err != nil {
		return nil, err
	}

	logs, err := s.activityRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range logs {
		if logs[i].UserName == nil {
			name := domain.PlaceholderUser
			logs[i].UserName = &name
		}
	}
	return logs, nil
}
