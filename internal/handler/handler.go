package handler

import "taskhub/internal/service"

type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Project      *ProjectHandler
	Task         *TaskHandler
	Activity     *ActivityHandler
	Notification *NotificationHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(services.Auth),
		User:         NewUserHandler(services.User),
		Project:      NewProjectHandler(services.Project),
		Task:         NewTaskHandler(services.Task),
		Activity:     NewActivityHandler(services.Activity),
		Notification: NewNotificationHandler(services.Notification),
	}
}
