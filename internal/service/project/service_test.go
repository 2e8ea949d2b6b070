package project_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taskhub/internal/domain"
	"taskhub/internal/mocks"
	"taskhub/internal/policy"
	"taskhub/internal/service/project"
)

type fixture struct {
	repos   *mocks.Repos
	tx      *mocks.Transactor
	archive *mocks.ArchiveService
	svc     project.Service

	admin, manager, member, outsider policy.Subject
}

func newFixture() *fixture {
	repos := mocks.NewRepos()
	tx := mocks.NewTransactor(repos)
	archiveSvc := new(mocks.ArchiveService)
	return &fixture{
		repos:    repos,
		tx:       tx,
		archive:  archiveSvc,
		svc:      project.NewService(repos.Repositories(), tx, policy.New(), archiveSvc),
		admin:    policy.Subject{UserID: uuid.New(), Role: domain.RoleAdmin},
		manager:  policy.Subject{UserID: uuid.New(), Role: domain.RoleProjectManager},
		member:   policy.Subject{UserID: uuid.New(), Role: domain.RoleTeamMember},
		outsider: policy.Subject{UserID: uuid.New(), Role: domain.RoleTeamMember},
	}
}

func (f *fixture) project(status domain.ProjectStatus) *domain.Project {
	return &domain.Project{
		ID:               uuid.New(),
		Name:             "Apollo",
		Status:           status,
		ProjectManagerID: f.manager.UserID,
		TeamMembers:      []uuid.UUID{f.member.UserID},
		Version:          3,
	}
}

func (f *fixture) expectSummaries() {
	f.repos.User.On("GetSummaries", mock.Anything, mock.Anything).Return([]domain.UserSummary{
		{ID: f.manager.UserID, Name: "Max", Email: "max@example.com"},
		{ID: f.member.UserID, Name: "Alice", Email: "alice@example.com"},
	}, nil)
}

func logWith(action, details string) interface{} {
	return mock.MatchedBy(func(l *domain.ActivityLog) bool {
		return l.Action == action && (details == "" || l.Details == details)
	})
}

func strPtr(s string) *string { return &s }

func TestProjectService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Manager becomes project manager", func(t *testing.T) {
		f := newFixture()
		f.repos.Project.On("Create", ctx, mock.MatchedBy(func(p *domain.Project) bool {
			return p.Name == "Apollo" && p.ProjectManagerID == f.manager.UserID && p.Status == domain.ProjectNotStarted
		})).Return(nil).Once()
		f.repos.ActivityLog.On("Create", ctx, logWith(domain.ActionProjectCreated, `Project "Apollo" was created.`)).Return(nil).Once()
		f.expectSummaries()

		p, err := f.svc.Create(ctx, f.manager, domain.CreateProjectInput{Name: "Apollo"})

		require.NoError(t, err)
		assert.Equal(t, "Max", p.Manager.Name)
		assert.Empty(t, p.Members)
		f.repos.Project.AssertExpectations(t)
		f.repos.ActivityLog.AssertExpectations(t)
	})

	t.Run("Admin without projectManager is a validation error", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.Create(ctx, f.admin, domain.CreateProjectInput{Name: "Apollo"})

		assert.True(t, domain.IsKind(err, domain.KindValidation))
		assert.Zero(t, f.tx.Calls)
		f.repos.Project.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Admin must name a Project Manager", func(t *testing.T) {
		f := newFixture()
		f.repos.User.On("GetByID", ctx, f.member.UserID).Return(&domain.User{ID: f.member.UserID, Name: "Alice", Role: domain.RoleTeamMember}, nil).Once()

		_, err := f.svc.Create(ctx, f.admin, domain.CreateProjectInput{Name: "Apollo", ProjectManager: domain.SetUUID(f.member.UserID)})

		assert.True(t, domain.IsKind(err, domain.KindValidation))
		assert.Zero(t, f.tx.Calls)
	})

	t.Run("Admin with a valid manager", func(t *testing.T) {
		f := newFixture()
		f.repos.User.On("GetByID", ctx, f.manager.UserID).Return(&domain.User{ID: f.manager.UserID, Name: "Max", Role: domain.RoleProjectManager}, nil).Once()
		f.repos.Project.On("Create", ctx, mock.MatchedBy(func(p *domain.Project) bool {
			return p.ProjectManagerID == f.manager.UserID
		})).Return(nil).Once()
		f.repos.ActivityLog.On("Create", ctx, logWith(domain.ActionProjectCreated, "")).Return(nil).Once()
		f.expectSummaries()

		p, err := f.svc.Create(ctx, f.admin, domain.CreateProjectInput{Name: "Apollo", ProjectManager: domain.SetUUID(f.manager.UserID)})

		require.NoError(t, err)
		assert.Equal(t, f.manager.UserID, p.ProjectManagerID)
	})

	t.Run("Team member cannot create", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.Create(ctx, f.member, domain.CreateProjectInput{Name: "Apollo"})

		assert.True(t, domain.IsKind(err, domain.KindAuthorization))
	})

	t.Run("Missing name", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.Create(ctx, f.manager, domain.CreateProjectInput{})

		assert.True(t, domain.IsKind(err, domain.KindValidation))
	})
}

func TestProjectService_Update(t *testing.T) {
	ctx := context.Background()
	completed := domain.ProjectCompleted

	t.Run("Completing cascades tasks to Done", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.repos.Project.On("Update", ctx, p).Return(nil).Once()
		f.repos.Task.On("CompleteAllByProject", ctx, p.ID).Return(int64(2), nil).Once()
		f.repos.ActivityLog.On("Create", ctx, logWith(domain.ActionProjectCompleted, `Project "Apollo" was completed; 2 task(s) marked Done.`)).Return(nil).Once()
		f.expectSummaries()

		got, err := f.svc.Update(ctx, f.manager, p.ID, domain.UpdateProjectInput{Status: &completed})

		require.NoError(t, err)
		assert.Equal(t, domain.ProjectCompleted, got.Status)
		assert.Equal(t, 1, f.tx.Committed)
		f.repos.Task.AssertExpectations(t)
		f.repos.ActivityLog.AssertExpectations(t)
	})

	t.Run("Plain update logs Project Updated", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.repos.Project.On("Update", ctx, mock.MatchedBy(func(p *domain.Project) bool { return p.Description == "New" })).Return(nil).Once()
		f.repos.ActivityLog.On("Create", ctx, logWith(domain.ActionProjectUpdated, `Project "Apollo" details updated.`)).Return(nil).Once()
		f.expectSummaries()

		_, err := f.svc.Update(ctx, f.admin, p.ID, domain.UpdateProjectInput{Description: strPtr("New")})

		require.NoError(t, err)
		f.repos.Task.AssertNotCalled(t, "CompleteAllByProject", mock.Anything, mock.Anything)
	})

	t.Run("Already completed does not cascade again", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectCompleted)
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.repos.Project.On("Update", ctx, p).Return(nil).Once()
		f.repos.ActivityLog.On("Create", ctx, logWith(domain.ActionProjectUpdated, "")).Return(nil).Once()
		f.expectSummaries()

		_, err := f.svc.Update(ctx, f.manager, p.ID, domain.UpdateProjectInput{Status: &completed})

		require.NoError(t, err)
		f.repos.Task.AssertNotCalled(t, "CompleteAllByProject", mock.Anything, mock.Anything)
	})

	t.Run("Stale version is a conflict", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		stale := 1
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()

		_, err := f.svc.Update(ctx, f.manager, p.ID, domain.UpdateProjectInput{Status: &completed, Version: &stale})

		assert.ErrorIs(t, err, domain.ErrStaleWrite)
		assert.Zero(t, f.tx.Calls)
	})

	t.Run("Concurrent write detected at commit", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.repos.Project.On("Update", ctx, p).Return(domain.ErrStaleWrite).Once()

		_, err := f.svc.Update(ctx, f.manager, p.ID, domain.UpdateProjectInput{Status: &completed})

		assert.True(t, domain.IsKind(err, domain.KindConflict))
		assert.Zero(t, f.tx.Committed)
		f.repos.Task.AssertNotCalled(t, "CompleteAllByProject", mock.Anything, mock.Anything)
	})

	t.Run("Team member cannot update", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()

		_, err := f.svc.Update(ctx, f.member, p.ID, domain.UpdateProjectInput{Status: &completed})

		assert.True(t, domain.IsKind(err, domain.KindAuthorization))
		assert.Zero(t, f.tx.Calls)
	})

	t.Run("Missing project", func(t *testing.T) {
		f := newFixture()
		id := uuid.New()
		f.repos.Project.On("GetByID", ctx, id).Return(nil, nil).Once()

		_, err := f.svc.Update(ctx, f.admin, id, domain.UpdateProjectInput{})

		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})
}

func TestProjectService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Deletes tasks then project and archives", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		var order []string
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.repos.Task.On("DeleteByProject", ctx, p.ID).Return(int64(4), nil).Once().Run(func(mock.Arguments) { order = append(order, "tasks") })
		f.repos.Project.On("Delete", ctx, p.ID).Return(nil).Once().Run(func(mock.Arguments) { order = append(order, "project") })
		f.repos.ActivityLog.On("Create", ctx, logWith(domain.ActionProjectDeleted, `Project "Apollo" and all its tasks were deleted.`)).Return(nil).Once()
		f.repos.ActivityLog.On("ListByProject", ctx, p.ID).Return([]domain.ActivityLog{{ID: uuid.New()}}, nil).Once()
		f.archive.On("ArchiveProject", ctx, p, mock.Anything).Return("projects/x.json", nil).Once()

		err := f.svc.Delete(ctx, f.manager, p.ID)

		require.NoError(t, err)
		assert.Equal(t, []string{"tasks", "project"}, order)
		f.archive.AssertExpectations(t)
	})

	t.Run("Archive failure is swallowed", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.repos.Task.On("DeleteByProject", ctx, p.ID).Return(int64(0), nil).Once()
		f.repos.Project.On("Delete", ctx, p.ID).Return(nil).Once()
		f.repos.ActivityLog.On("Create", ctx, mock.Anything).Return(nil).Once()
		f.repos.ActivityLog.On("ListByProject", ctx, p.ID).Return([]domain.ActivityLog{}, nil).Once()
		f.archive.On("ArchiveProject", ctx, p, mock.Anything).Return("", domain.Dependency(errors.New("s3 down"), "archive failed")).Once()

		err := f.svc.Delete(ctx, f.admin, p.ID)

		assert.NoError(t, err)
	})

	t.Run("Task delete failure aborts", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.repos.Task.On("DeleteByProject", ctx, p.ID).Return(int64(0), errors.New("db error")).Once()

		err := f.svc.Delete(ctx, f.admin, p.ID)

		assert.Error(t, err)
		f.repos.Project.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		f.archive.AssertNotCalled(t, "ArchiveProject", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Member cannot delete", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()

		err := f.svc.Delete(ctx, f.member, p.ID)

		assert.True(t, domain.IsKind(err, domain.KindAuthorization))
	})
}

func TestProjectService_AddMember(t *testing.T) {
	ctx := context.Background()

	t.Run("Adds a new member", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.repos.User.On("GetByID", ctx, f.outsider.UserID).Return(&domain.User{ID: f.outsider.UserID, Name: "Bob"}, nil).Once()
		f.repos.Project.On("AddMember", ctx, p.ID, f.outsider.UserID).Return(nil).Once()
		f.repos.Project.On("Update", ctx, p).Return(nil).Once()
		f.repos.ActivityLog.On("Create", ctx, logWith(domain.ActionTeamMemberAdded, `Bob was added to project "Apollo".`)).Return(nil).Once()
		f.expectSummaries()

		got, err := f.svc.AddMember(ctx, f.manager, p.ID, f.outsider.UserID)

		require.NoError(t, err)
		assert.True(t, got.HasMember(f.outsider.UserID))
		assert.Len(t, got.Members, 2)
	})

	t.Run("Existing member is a conflict", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.repos.User.On("GetByID", ctx, f.member.UserID).Return(&domain.User{ID: f.member.UserID, Name: "Alice"}, nil).Once()

		_, err := f.svc.AddMember(ctx, f.manager, p.ID, f.member.UserID)

		assert.True(t, domain.IsKind(err, domain.KindConflict))
		assert.Zero(t, f.tx.Calls)
	})

	t.Run("Unknown user", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		ghost := uuid.New()
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.repos.User.On("GetByID", ctx, ghost).Return(nil, nil).Once()

		_, err := f.svc.AddMember(ctx, f.manager, p.ID, ghost)

		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})

	t.Run("Manager cannot join own team", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.repos.User.On("GetByID", ctx, f.manager.UserID).Return(&domain.User{ID: f.manager.UserID, Name: "Max"}, nil).Once()

		_, err := f.svc.AddMember(ctx, f.admin, p.ID, f.manager.UserID)

		assert.True(t, domain.IsKind(err, domain.KindConflict))
	})

	t.Run("Member cannot edit team", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()

		_, err := f.svc.AddMember(ctx, f.member, p.ID, f.outsider.UserID)

		assert.True(t, domain.IsKind(err, domain.KindAuthorization))
	})
}

func TestProjectService_RemoveMember(t *testing.T) {
	ctx := context.Background()

	t.Run("Unassigns tasks before removing membership", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		var order []string
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.repos.User.On("GetByID", ctx, f.member.UserID).Return(&domain.User{ID: f.member.UserID, Name: "Alice"}, nil).Once()
		f.repos.Task.On("UnassignUser", ctx, p.ID, f.member.UserID).Return(int64(2), nil).Once().Run(func(mock.Arguments) { order = append(order, "unassign") })
		f.repos.Project.On("RemoveMember", ctx, p.ID, f.member.UserID).Return(nil).Once().Run(func(mock.Arguments) { order = append(order, "remove") })
		f.repos.Project.On("Update", ctx, p).Return(nil).Once()
		f.repos.ActivityLog.On("Create", ctx, logWith(domain.ActionTeamMemberRemoved, `Alice was removed from project "Apollo".`)).Return(nil).Once()
		f.expectSummaries()

		got, err := f.svc.RemoveMember(ctx, f.manager, p.ID, f.member.UserID)

		require.NoError(t, err)
		assert.Equal(t, []string{"unassign", "remove"}, order)
		assert.False(t, got.HasMember(f.member.UserID))
		assert.Equal(t, 1, f.tx.Committed)
	})

	t.Run("Non member is a conflict", func(t *testing.T) {
		f := newFixture()
		p := f.project(domain.ProjectInProgress)
		f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()

		_, err := f.svc.RemoveMember(ctx, f.manager, p.ID, f.outsider.UserID)

		assert.True(t, domain.IsKind(err, domain.KindConflict))
		f.repos.Task.AssertNotCalled(t, "UnassignUser", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestProjectService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("Admin sees all", func(t *testing.T) {
		f := newFixture()
		f.repos.Project.On("List", ctx).Return([]domain.Project{*f.project(domain.ProjectInProgress)}, nil).Once()
		f.expectSummaries()

		list, err := f.svc.List(ctx, f.admin)

		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Max", list[0].Manager.Name)
		assert.Equal(t, "Alice", list[0].Members[0].Name)
	})

	t.Run("Others see their own", func(t *testing.T) {
		f := newFixture()
		f.repos.Project.On("ListForUser", ctx, f.member.UserID).Return([]domain.Project{}, nil).Once()
		f.repos.User.On("GetSummaries", mock.Anything, mock.Anything).Return([]domain.UserSummary{}, nil)

		list, err := f.svc.List(ctx, f.member)

		require.NoError(t, err)
		assert.Empty(t, list)
		f.repos.Project.AssertNotCalled(t, "List", mock.Anything)
	})
}

func TestProjectService_GetByID_DeletedManagerPlaceholder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	p := f.project(domain.ProjectInProgress)
	f.repos.Project.On("GetByID", ctx, p.ID).Return(p, nil).Once()
	f.repos.User.On("GetSummaries", mock.Anything, mock.Anything).Return([]domain.UserSummary{
		{ID: f.member.UserID, Name: "Alice"},
	}, nil)

	got, err := f.svc.GetByID(ctx, f.member, p.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.PlaceholderUser, got.Manager.Name)
}
