package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"taskhub/internal/domain"
	"taskhub/internal/policy"
	"taskhub/internal/service/auth"
	"taskhub/internal/service/email"
)

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendTaskNotification(ctx context.Context, recipients []string, msg email.TaskMessage) error {
	args := m.Called(ctx, recipients, msg)
	return args.Error(0)
}

type ArchiveService struct {
	mock.Mock
}

func (m *ArchiveService) ArchiveProject(ctx context.Context, project *domain.Project, logs []domain.ActivityLog) (string, error) {
	args := m.Called(ctx, project, logs)
	return args.String(0), args.Error(1)
}

type NotificationService struct {
	mock.Mock
}

func (m *NotificationService) Fanout(ctx context.Context, task *domain.Task, project *domain.Project, action domain.NotificationType, details string) ([]domain.Notification, error) {
	args := m.Called(ctx, task, project, action, details)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}

func (m *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationService) MarkRead(ctx context.Context, subject policy.Subject, id uuid.UUID) (*domain.Notification, error) {
	args := m.Called(ctx, subject, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type AuthService struct {
	mock.Mock
}

func (m *AuthService) Register(ctx context.Context, input domain.CreateUserInput) (*domain.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}

func (m *AuthService) Login(ctx context.Context, input domain.LoginInput) (*domain.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}

func (m *AuthService) ValidateToken(token string) (*auth.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}

func (m *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type ProjectService struct {
	mock.Mock
}

func (m *ProjectService) project(args mock.Arguments) (*domain.Project, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *ProjectService) Create(ctx context.Context, subject policy.Subject, input domain.CreateProjectInput) (*domain.Project, error) {
	return m.project(m.Called(ctx, subject, input))
}

func (m *ProjectService) GetByID(ctx context.Context, subject policy.Subject, id uuid.UUID) (*domain.Project, error) {
	return m.project(m.Called(ctx, subject, id))
}

func (m *ProjectService) List(ctx context.Context, subject policy.Subject) ([]domain.Project, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Project), args.Error(1)
}

func (m *ProjectService) Update(ctx context.Context, subject policy.Subject, id uuid.UUID, input domain.UpdateProjectInput) (*domain.Project, error) {
	return m.project(m.Called(ctx, subject, id, input))
}

func (m *ProjectService) Delete(ctx context.Context, subject policy.Subject, id uuid.UUID) error {
	return m.Called(ctx, subject, id).Error(0)
}

func (m *ProjectService) AddMember(ctx context.Context, subject policy.Subject, id, userID uuid.UUID) (*domain.Project, error) {
	return m.project(m.Called(ctx, subject, id, userID))
}

func (m *ProjectService) RemoveMember(ctx context.Context, subject policy.Subject, id, userID uuid.UUID) (*domain.Project, error) {
	return m.project(m.Called(ctx, subject, id, userID))
}

type TaskService struct {
	mock.Mock
}

func (m *TaskService) task(args mock.Arguments) (*domain.Task, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *TaskService) Create(ctx context.Context, subject policy.Subject, projectID uuid.UUID, input domain.CreateTaskInput) (*domain.Task, error) {
	return m.task(m.Called(ctx, subject, projectID, input))
}

func (m *TaskService) GetByID(ctx context.Context, subject policy.Subject, id uuid.UUID) (*domain.Task, error) {
	return m.task(m.Called(ctx, subject, id))
}

func (m *TaskService) ListByProject(ctx context.Context, subject policy.Subject, projectID uuid.UUID) ([]domain.Task, error) {
	args := m.Called(ctx, subject, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

func (m *TaskService) Update(ctx context.Context, subject policy.Subject, id uuid.UUID, input domain.UpdateTaskInput) (*domain.Task, error) {
	return m.task(m.Called(ctx, subject, id, input))
}

func (m *TaskService) Delete(ctx context.Context, subject policy.Subject, id uuid.UUID) error {
	return m.Called(ctx, subject, id).Error(0)
}
