package mocks

import (
	"context"

	"taskhub/internal/repository"
)

// Repos bundles repository mocks and exposes them as repository.Repositories.
type Repos struct {
	User         *UserRepository
	Project      *ProjectRepository
	Task         *TaskRepository
	ActivityLog  *ActivityLogRepository
	Notification *NotificationRepository
}

func NewRepos() *Repos {
	return &Repos{
		User:         new(UserRepository),
		Project:      new(ProjectRepository),
		Task:         new(TaskRepository),
		ActivityLog:  new(ActivityLogRepository),
		Notification: new(NotificationRepository),
	}
}

func (r *Repos) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:         r.User,
		Project:      r.Project,
		Task:         r.Task,
		ActivityLog:  r.ActivityLog,
		Notification: r.Notification,
	}
}

// Transactor runs the unit of work directly against the mocks. Committed counts units
// of work whose function returned nil.
type Transactor struct {
	Repos     *Repos
	Calls     int
	Committed int
}

func NewTransactor(repos *Repos) *Transactor {
	return &Transactor{Repos: repos}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	t.Calls++
	if err := fn(t.Repos.Repositories()); err != nil {
		return err
	}
	t.Committed++
	return nil
}
