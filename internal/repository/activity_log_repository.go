package repository

import (
	"context"

	"github.com/google/uuid"

	"taskhub/internal/domain"
)

type ActivityLogRepository interface {
	Create(ctx context.Context, log *domain.ActivityLog) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.ActivityLog, error)
}

type activityLogRepository struct {
	db DBTX
}

func NewActivityLogRepository(db DBTX) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, log *domain.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (id, project_id, user_id, action, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq, created_at`

	return r.db.QueryRowxContext(ctx, query,
		log.ID, log.ProjectID, log.UserID, log.Action, log.Details,
	).Scan(&log.Seq, &log.CreatedAt)
}

// ListByProject returns newest first; seq breaks ties between entries written in the same instant.
func (r *activityLogRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.ActivityLog, error) {
	query := `
		SELECT
			al.id, al.seq, al.project_id, al.user_id, al.action, al.details, al.created_at,
			u.name AS user_name, u.email AS user_email
		FROM activity_logs al
		LEFT JOIN users u ON al.user_id = u.id
		WHERE al.project_id = $1
		ORDER BY al.created_at DESC, al.seq DESC`

	var logs []domain.ActivityLog
	err := r.db.SelectContext(ctx, &logs, query, projectID)
	return logs, err
}

func CreateActivityLog(repo ActivityLogRepository, ctx context.Context, input domain.CreateActivityLogInput) error {
	log := &domain.ActivityLog{
		ID:        uuid.New(),
		ProjectID: input.ProjectID,
		UserID:    input.UserID,
		Action:    input.Action,
		Details:   input.Details,
	}
	return repo.Create(ctx, log)
}
