package service

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"taskhub/internal/config"
	"taskhub/internal/policy"
	"taskhub/internal/repository"
	"taskhub/internal/service/activity"
	"taskhub/internal/service/archive"
	"taskhub/internal/service/auth"
	"taskhub/internal/service/email"
	"taskhub/internal/service/notification"
	"taskhub/internal/service/project"
	"taskhub/internal/service/task"
	"taskhub/internal/service/user"
)

type Services struct {
	Auth         auth.Service
	User         user.Service
	Project      project.Service
	Task         task.Service
	Activity     activity.Service
	Notification notification.Service
	Email        email.Service
	Archive      archive.Service
	Policy       *policy.Evaluator
}

// NewServices wires the services. rdb and store may be nil; the cache and archive are then disabled.
func NewServices(db *sqlx.DB, rdb *redis.Client, store archive.ObjectPutter, cfg *config.Config) *Services {
	repos := repository.NewRepositories(db)
	tx := repository.NewTransactor(db)
	evaluator := policy.New()

	emailService := email.NewService(cfg)
	archiveService := archive.NewService(store, cfg.MinIOBucket)
	notificationService := notification.NewService(repos.Notification, repos.User, evaluator, emailService, rdb)

	return &Services{
		Auth:         auth.NewService(repos.User, tx, cfg),
		User:         user.NewService(repos.User, tx, evaluator),
		Project:      project.NewService(repos, tx, evaluator, archiveService),
		Task:         task.NewService(repos, tx, evaluator, notificationService),
		Activity:     activity.NewService(repos.ActivityLog, repos.Project, evaluator),
		Notification: notificationService,
		Email:        emailService,
		Archive:      archiveService,
		Policy:       evaluator,
	}
}
