package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"taskhub/internal/domain"
)

type ActivityLogRepository struct {
	mock.Mock
}

func (m *ActivityLogRepository) Create(ctx context.Context, log *domain.ActivityLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *ActivityLogRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.ActivityLog, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ActivityLog), args.Error(1)
}
