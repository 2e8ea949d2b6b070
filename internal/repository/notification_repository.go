package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"taskhub/internal/domain"
)

type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifs []domain.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) NotificationRepository {
	return &notificationRepository{db: db}
}

// CreateBatch inserts all notifications in one statement.
func (r *notificationRepository) CreateBatch(ctx context.Context, notifs []domain.Notification) error {
	if len(notifs) == 0 {
		return nil
	}

	query := `
		INSERT INTO notifications (id, user_id, message, project_id, task_id, type, is_read, created_at)
		VALUES (:id, :user_id, :message, :project_id, :task_id, :type, :is_read, :created_at)`

	_, err := r.db.NamedExecContext(ctx, query, notifs)
	return err
}

const notificationSelect = `
	SELECT
		n.id, n.user_id, n.message, n.project_id, n.task_id, n.type, n.is_read, n.created_at,
		p.name AS project_name, t.title AS task_title
	FROM notifications n
	LEFT JOIN projects p ON p.id = n.project_id
	LEFT JOIN tasks t ON t.id = n.task_id`

func (r *notificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	var notif domain.Notification
	query := notificationSelect + ` WHERE n.id = $1`

	err := r.db.GetContext(ctx, &notif, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &notif, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	query := notificationSelect + `
		WHERE n.user_id = $1
		ORDER BY n.created_at DESC, n.id`

	var notifications []domain.Notification
	err := r.db.SelectContext(ctx, &notifications, query, userID)
	return notifications, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE notifications SET is_read = true WHERE id = $1 AND is_read = false`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}
