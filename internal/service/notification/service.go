package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"taskhub/internal/domain"
	"taskhub/internal/logger"
	"taskhub/internal/policy"
	"taskhub/internal/repository"
	"taskhub/internal/service/email"
)

type Service interface {
	Fanout(ctx context.Context, task *domain.Task, project *domain.Project, action domain.NotificationType, details string) ([]domain.Notification, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, subject policy.Subject, id uuid.UUID) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
	policy    *policy.Evaluator
	emailSvc  email.Service
	cache     unreadCache
	now       func() time.Time
}

func NewService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	evaluator *policy.Evaluator,
	emailSvc email.Service,
	redis *redis.Client,
) Service {
	s := &service{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		policy:    evaluator,
		emailSvc:  emailSvc,
		now:       time.Now,
	}
	if redis != nil {
		s.cache = redisCache{client: redis}
	}
	return s
}

func Message(taskTitle string, action domain.NotificationType, details string) string {
	return fmt.Sprintf("Task %q (%s): %s", taskTitle, action, details)
}

// Fanout writes one notification per interested user and then emails the same set.
// Recipients are every Admin, the project manager and the current assignee, deduplicated
// by id. Email goes to the same set even when the store write fails. Store failures are
// returned as dependency errors; the email path never fails the call.
func (s *service) Fanout(ctx context.Context, task *domain.Task, project *domain.Project, action domain.NotificationType, details string) ([]domain.Notification, error) {
	admins, err := s.userRepo.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, domain.Dependency(err, "Failed to resolve notification recipients")
	}

	recipients := recipientIDs(admins, project, task)
	message := Message(task.Title, action, details)
	createdAt := s.now().UTC()

	notifs := make([]domain.Notification, 0, len(recipients))
	for _, userID := range recipients {
		projectID, taskID := project.ID, task.ID
		notifs = append(notifs, domain.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Message:   message,
			ProjectID: &projectID,
			TaskID:    &taskID,
			Type:      action,
			CreatedAt: createdAt,
		})
	}

	storeErr := s.notifRepo.CreateBatch(ctx, notifs)
	if storeErr == nil {
		s.invalidate(ctx, recipients...)
	}

	s.sendEmail(ctx, recipients, task, project, action, details)

	if storeErr != nil {
		return nil, domain.Dependency(storeErr, "Failed to store notifications for task %s", task.ID)
	}
	return notifs, nil
}

func recipientIDs(admins []domain.User, project *domain.Project, task *domain.Task) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	add := func(id uuid.UUID) {
		if id == uuid.Nil || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	for _, admin := range admins {
		add(admin.ID)
	}
	add(project.ProjectManagerID)
	if task.AssignedTo != nil {
		add(*task.AssignedTo)
	}
	return ids
}

func (s *service) sendEmail(ctx context.Context, recipients []uuid.UUID, task *domain.Task, project *domain.Project, action domain.NotificationType, details string) {
	if s.emailSvc == nil {
		return
	}

	fields := logger.Fields{"task_id": task.ID, "project_id": project.ID, "action": action}

	users, err := s.userRepo.GetSummaries(ctx, recipients)
	if err != nil {
		logger.Log.WithFields(fields).WithError(err).Warn("Failed to resolve email recipients")
		return
	}

	addresses := make([]string, 0, len(users))
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
		if u.Email != "" {
			addresses = append(addresses, u.Email)
		}
	}
	if len(addresses) == 0 {
		return
	}

	msg := email.TaskMessage{
		TaskTitle:   task.Title,
		ProjectName: project.Name,
		Action:      string(action),
		Details:     details,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		Assignee:    domain.Unassigned,
		DueDate:     "None",
	}
	if task.AssignedTo != nil {
		msg.Assignee = domain.PlaceholderUser
		if name, ok := names[*task.AssignedTo]; ok {
			msg.Assignee = name
		}
	}
	if task.DueDate != nil {
		msg.DueDate = task.DueDate.Format("2006-01-02")
	}

	if err := s.emailSvc.SendTaskNotification(ctx, addresses, msg); err != nil {
		logger.Log.WithFields(fields).WithError(domain.Dependency(err, "Email delivery failed")).Warn("Task email not delivered")
	}
}

// List returns the user's notifications newest first; references to deleted entities
// resolve to placeholders.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	notifications, err := s.notifRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range notifications {
		resolvePlaceholders(&notifications[i])
	}
	return notifications, nil
}

func resolvePlaceholders(n *domain.Notification) {
	if n.ProjectID != nil && n.ProjectName == nil {
		name := domain.PlaceholderProject
		n.ProjectName = &name
	}
	if n.TaskID != nil && n.TaskTitle == nil {
		title := domain.PlaceholderTask
		n.TaskTitle = &title
	}
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var key string
	if s.cache != nil {
		k, err := s.cachedKey(ctx, userID)
		if err != nil {
			logger.Log.WithField("user_id", userID).WithError(err).Warn("Unread count cache read failed")
		} else {
			key = k
			cached, found, err := s.cache.Get(ctx, key)
			if err != nil {
				logger.Log.WithField("user_id", userID).WithError(err).Warn("Unread count cache read failed")
			} else if count, ok := parseCount(cached); found && ok {
				return count, nil
			}
		}
	}

	count, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, count, unreadCountTTL); err != nil {
			logger.Log.WithField("user_id", userID).WithError(err).Warn("Unread count cache write failed")
		}
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, subject policy.Subject, id uuid.UUID) (*domain.Notification, error) {
	notif, err := s.notifRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notif == nil {
		return nil, domain.NotFound("Notification not found with id of %s", id)
	}

	if err := s.policy.CanAccess(subject, policy.ActionUpdate, policy.NotificationTarget(notif)).Err(); err != nil {
		return nil, err
	}

	if !notif.IsRead {
		if err := s.notifRepo.MarkAsRead(ctx, id); err != nil {
			return nil, err
		}
		notif.IsRead = true
		s.invalidate(ctx, notif.UserID)
	}

	resolvePlaceholders(notif)
	return notif, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	updated, err := s.notifRepo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.invalidate(ctx, userID)
	}
	return updated, nil
}

func (s *service) invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if s.cache == nil {
		return
	}
	for _, id := range userIDs {
		if err := s.cache.Incr(ctx, generationKey(id), generationTTL); err != nil {
			logger.Log.WithField("user_id", id).WithError(err).Warn("Unread count cache invalidation failed")
		}
	}
}
