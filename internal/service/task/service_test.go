package task_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskhub/internal/domain"
	"taskhub/internal/mocks"
	"taskhub/internal/policy"
	"taskhub/internal/service/task"
)

type fixture struct {
	repos    *mocks.Repos
	tx       *mocks.Transactor
	notifier *mocks.NotificationService
	svc      task.Service

	admin, manager, a, b, outsider policy.Subject
	project                        *domain.Project
}

func newFixture() *fixture {
	repos := mocks.NewRepos()
	tx := mocks.NewTransactor(repos)
	notifier := new(mocks.NotificationService)
	f := &fixture{
		repos:    repos,
		tx:       tx,
		notifier: notifier,
		svc:      task.NewService(repos.Repositories(), tx, policy.New(), notifier),
		admin:    policy.Subject{UserID: uuid.New(), Role: domain.RoleAdmin},
		manager:  policy.Subject{UserID: uuid.New(), Role: domain.RoleProjectManager},
		a:        policy.Subject{UserID: uuid.New(), Role: domain.RoleTeamMember},
		b:        policy.Subject{UserID: uuid.New(), Role: domain.RoleTeamMember},
		outsider: policy.Subject{UserID: uuid.New(), Role: domain.RoleTeamMember},
	}
	f.project = &domain.Project{
		ID:               uuid.New(),
		Name:             "Apollo",
		Status:           domain.ProjectInProgress,
		ProjectManagerID: f.manager.UserID,
		TeamMembers:      []uuid.UUID{f.a.UserID, f.b.UserID},
	}
	repos.User.On("GetSummaries", mock.Anything, mock.Anything).Return([]domain.UserSummary{
		{ID: f.a.UserID, Name: "A"},
		{ID: f.b.UserID, Name: "B"},
	}, nil).Maybe()
	return f
}

func (f *fixture) taskAssignedTo(id uuid.UUID) *domain.Task {
	assignee := id
	return &domain.Task{
		ID:          uuid.New(),
		Title:       "Docs",
		Description: "Write docs",
		ProjectID:   f.project.ID,
		AssignedTo:  &assignee,
		Status:      domain.TaskToDo,
		Priority:    domain.PriorityMedium,
		Version:     1,
	}
}

func (f *fixture) expectLoad(ctx context.Context, t *domain.Task) {
	f.repos.Task.On("GetByID", ctx, t.ID).Return(t, nil).Once()
	f.repos.Project.On("GetByID", ctx, f.project.ID).Return(f.project, nil).Once()
}

func statusPtr(s domain.TaskStatus) *domain.TaskStatus { return &s }

func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Manager creates assigned task", func(t *testing.T) {
		f := newFixture()
		details := `Task "Docs" created and assigned to A.`
		f.repos.Project.On("GetByID", ctx, f.project.ID).Return(f.project, nil).Once()
		f.repos.Task.On("Create", ctx, mock.MatchedBy(func(tk *domain.Task) bool {
			return tk.Status == domain.TaskToDo && tk.Priority == domain.PriorityMedium && tk.ProjectID == f.project.ID
		})).Return(nil).Once()
		f.repos.ActivityLog.On("Create", ctx, mock.MatchedBy(func(l *domain.ActivityLog) bool {
			return l.Action == domain.ActionTaskCreated && l.Details == details && l.UserID == f.manager.UserID
		})).Return(nil).Once()
		f.notifier.On("Fanout", ctx, mock.Anything, f.project, domain.NotifTaskCreated, details).Return([]domain.Notification{}, nil).Once()

		got, err := f.svc.Create(ctx, f.manager, f.project.ID, domain.CreateTaskInput{Title: "Docs", AssignedTo: domain.SetUUID(f.a.UserID)})

		require.NoError(t, err)
		assert.Equal(t, "A", got.Assignee.Name)
		f.notifier.AssertExpectations(t)
	})

	t.Run("Completed project rejects new tasks", func(t *testing.T) {
		f := newFixture()
		f.project.Status = domain.ProjectCompleted
		f.repos.Project.On("GetByID", ctx, f.project.ID).Return(f.project, nil).Once()

		_, err := f.svc.Create(ctx, f.manager, f.project.ID, domain.CreateTaskInput{Title: "Docs"})

		assert.True(t, domain.IsKind(err, domain.KindConflict))
		assert.Zero(t, f.tx.Calls)
		f.repos.Task.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.repos.ActivityLog.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "Fanout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Assignee must be a team member", func(t *testing.T) {
		f := newFixture()
		f.repos.Project.On("GetByID", ctx, f.project.ID).Return(f.project, nil).Once()

		_, err := f.svc.Create(ctx, f.manager, f.project.ID, domain.CreateTaskInput{Title: "Docs", AssignedTo: domain.SetUUID(f.outsider.UserID)})

		assert.True(t, domain.IsKind(err, domain.KindConflict))
		assert.Zero(t, f.tx.Calls)
	})

	t.Run("Team member cannot create", func(t *testing.T) {
		f := newFixture()
		f.repos.Project.On("GetByID", ctx, f.project.ID).Return(f.project, nil).Once()

		_, err := f.svc.Create(ctx, f.a, f.project.ID, domain.CreateTaskInput{Title: "Docs"})

		assert.True(t, domain.IsKind(err, domain.KindAuthorization))
	})

	t.Run("Fan-out failure does not fail the call", func(t *testing.T) {
		f := newFixture()
		f.repos.Project.On("GetByID", ctx, f.project.ID).Return(f.project, nil).Once()
		f.repos.Task.On("Create", ctx, mock.Anything).Return(nil).Once()
		f.repos.ActivityLog.On("Create", ctx, mock.Anything).Return(nil).Once()
		f.notifier.On("Fanout", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, domain.Dependency(errors.New("db down"), "fan-out failed")).Once()

		got, err := f.svc.Create(ctx, f.admin, f.project.ID, domain.CreateTaskInput{Title: "Docs"})

		assert.NoError(t, err)
		assert.NotNil(t, got)
		assert.Equal(t, 1, f.tx.Committed)
	})
}

func TestTaskService_Update_ManagerReassignsAndCompletes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	tk := f.taskAssignedTo(f.a.UserID)
	f.expectLoad(ctx, tk)

	f.repos.Task.On("Update", ctx, mock.MatchedBy(func(u *domain.Task) bool {
		return u.Status == domain.TaskDone && *u.AssignedTo == f.b.UserID
	})).Return(nil).Once()
	f.repos.ActivityLog.On("Create", ctx, mock.MatchedBy(func(l *domain.ActivityLog) bool {
		return l.Action == domain.ActionTaskUpdated &&
			strings.Contains(l.Details, "Status changed from To Do to Done.") &&
			strings.Contains(l.Details, "Assigned from A to B.")
	})).Return(nil).Once()
	f.notifier.On("Fanout", ctx, mock.MatchedBy(func(u *domain.Task) bool {
		return *u.AssignedTo == f.b.UserID
	}), f.project, domain.NotifTaskUpdated, mock.Anything).Return([]domain.Notification{}, nil).Once()

	got, err := f.svc.Update(ctx, f.manager, tk.ID, domain.UpdateTaskInput{
		Status:     statusPtr(domain.TaskDone),
		AssignedTo: domain.SetUUID(f.b.UserID),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.TaskDone, got.Status)
	assert.Equal(t, f.b.UserID, *got.AssignedTo)
	f.repos.ActivityLog.AssertExpectations(t)
	f.notifier.AssertNumberOfCalls(t, "Fanout", 1)
}

func TestTaskService_Update_SelfService(t *testing.T) {
	ctx := context.Background()

	t.Run("Assignee marks own task done and nothing else changes", func(t *testing.T) {
		f := newFixture()
		tk := f.taskAssignedTo(f.a.UserID)
		f.expectLoad(ctx, tk)
		title := "Renamed"
		high := domain.PriorityHigh

		f.repos.Task.On("Update", ctx, mock.MatchedBy(func(u *domain.Task) bool {
			return u.Status == domain.TaskDone &&
				u.Title == "Docs" &&
				u.Priority == domain.PriorityMedium &&
				*u.AssignedTo == f.a.UserID &&
				u.DueDate == nil
		})).Return(nil).Once()
		f.repos.ActivityLog.On("Create", ctx, mock.Anything).Return(nil).Once()
		f.notifier.On("Fanout", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Notification{}, nil).Once()

		got, err := f.svc.Update(ctx, f.a, tk.ID, domain.UpdateTaskInput{
			Status:     statusPtr(domain.TaskDone),
			Title:      &title,
			Priority:   &high,
			AssignedTo: domain.SetUUID(f.b.UserID),
			DueDate:    domain.SetTime(time.Now()),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.TaskDone, got.Status)
		assert.Equal(t, "Docs", got.Title)
		f.repos.Task.AssertExpectations(t)
	})

	t.Run("Team member on someone else's task is forbidden", func(t *testing.T) {
		f := newFixture()
		tk := f.taskAssignedTo(f.a.UserID)
		f.expectLoad(ctx, tk)

		_, err := f.svc.Update(ctx, f.b, tk.ID, domain.UpdateTaskInput{Status: statusPtr(domain.TaskDone)})

		assert.True(t, domain.IsKind(err, domain.KindAuthorization))
		assert.Zero(t, f.tx.Calls)
	})
}

func TestTaskService_Update_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("Assigning a non member is a conflict", func(t *testing.T) {
		f := newFixture()
		tk := f.taskAssignedTo(f.a.UserID)
		f.expectLoad(ctx, tk)

		_, err := f.svc.Update(ctx, f.manager, tk.ID, domain.UpdateTaskInput{AssignedTo: domain.SetUUID(f.outsider.UserID)})

		assert.True(t, domain.IsKind(err, domain.KindConflict))
		assert.Zero(t, f.tx.Calls)
	})

	t.Run("Stale version", func(t *testing.T) {
		f := newFixture()
		tk := f.taskAssignedTo(f.a.UserID)
		f.expectLoad(ctx, tk)
		stale := 0

		_, err := f.svc.Update(ctx, f.manager, tk.ID, domain.UpdateTaskInput{Status: statusPtr(domain.TaskDone), Version: &stale})

		assert.ErrorIs(t, err, domain.ErrStaleWrite)
	})

	t.Run("Invalid status", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.Update(ctx, f.manager, uuid.New(), domain.UpdateTaskInput{Status: statusPtr("Finished")})

		assert.True(t, domain.IsKind(err, domain.KindValidation))
	})

	t.Run("Missing task", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.repos.Task.On("GetByID", ctx, id).Return(nil, nil).Once()

		_, err := f.svc.Update(ctx, f.manager, id, domain.UpdateTaskInput{})

		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})

	t.Run("Unassigning is allowed", func(t *testing.T) {
		f := newFixture()
		tk := f.taskAssignedTo(f.a.UserID)
		f.expectLoad(ctx, tk)
		f.repos.Task.On("Update", ctx, mock.MatchedBy(func(u *domain.Task) bool { return u.AssignedTo == nil })).Return(nil).Once()
		f.repos.ActivityLog.On("Create", ctx, mock.MatchedBy(func(l *domain.ActivityLog) bool {
			return strings.HasSuffix(l.Details, "Assigned from A to Unassigned.")
		})).Return(nil).Once()
		f.notifier.On("Fanout", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Notification{}, nil).Once()

		got, err := f.svc.Update(ctx, f.admin, tk.ID, domain.UpdateTaskInput{AssignedTo: domain.NullableUUID{Set: true}})

		require.NoError(t, err)
		assert.Nil(t, got.AssignedTo)
		assert.Nil(t, got.Assignee)
	})
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Manager deletes and notifies once", func(t *testing.T) {
		f := newFixture()
		tk := f.taskAssignedTo(f.a.UserID)
		f.expectLoad(ctx, tk)
		f.repos.Task.On("Delete", ctx, tk.ID).Return(nil).Once()
		f.repos.ActivityLog.On("Create", ctx, mock.MatchedBy(func(l *domain.ActivityLog) bool {
			return l.Action == domain.ActionTaskDeleted && l.Details == `Task "Docs" was deleted.`
		})).Return(nil).Once()
		f.notifier.On("Fanout", ctx, tk, f.project, domain.NotifTaskDeleted, `Task "Docs" was deleted.`).Return([]domain.Notification{}, nil).Once()

		err := f.svc.Delete(ctx, f.manager, tk.ID)

		require.NoError(t, err)
		f.notifier.AssertNumberOfCalls(t, "Fanout", 1)
	})

	t.Run("Assignee cannot delete", func(t *testing.T) {
		f := newFixture()
		tk := f.taskAssignedTo(f.a.UserID)
		f.expectLoad(ctx, tk)

		err := f.svc.Delete(ctx, f.a, tk.ID)

		assert.True(t, domain.IsKind(err, domain.KindAuthorization))
		f.repos.Task.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Store failure rolls back without notifying", func(t *testing.T) {
		f := newFixture()
		tk := f.taskAssignedTo(f.a.UserID)
		f.expectLoad(ctx, tk)
		f.repos.Task.On("Delete", ctx, tk.ID).Return(nil).Once()
		f.repos.ActivityLog.On("Create", ctx, mock.Anything).Return(errors.New("db error")).Once()

		err := f.svc.Delete(ctx, f.admin, tk.ID)

		assert.Error(t, err)
		assert.Zero(t, f.tx.Committed)
		f.notifier.AssertNotCalled(t, "Fanout", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTaskService_Read(t *testing.T) {
	ctx := context.Background()

	t.Run("Assignee outside the team can read", func(t *testing.T) {
		f := newFixture()
		tk := f.taskAssignedTo(f.outsider.UserID)
		f.expectLoad(ctx, tk)

		got, err := f.svc.GetByID(ctx, f.outsider, tk.ID)

		require.NoError(t, err)
		assert.Equal(t, tk.ID, got.ID)
	})

	t.Run("Listing requires project access", func(t *testing.T) {
		f := newFixture()
		f.repos.Project.On("GetByID", ctx, f.project.ID).Return(f.project, nil).Once()

		_, err := f.svc.ListByProject(ctx, f.outsider, f.project.ID)

		assert.True(t, domain.IsKind(err, domain.KindAuthorization))
	})

	t.Run("Member lists tasks", func(t *testing.T) {
		f := newFixture()
		f.repos.Project.On("GetByID", ctx, f.project.ID).Return(f.project, nil).Once()
		f.repos.Task.On("ListByProject", ctx, f.project.ID).Return([]domain.Task{*f.taskAssignedTo(f.a.UserID)}, nil).Once()

		list, err := f.svc.ListByProject(ctx, f.b, f.project.ID)

		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
