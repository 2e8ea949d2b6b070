package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"taskhub/internal/domain"
)

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	CompleteAllByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
	UnassignUser(ctx context.Context, projectID, userID uuid.UUID) (int64, error)
	DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
}

type taskRepository struct {
	db DBTX
}

func NewTaskRepository(db DBTX) TaskRepository {
	return &taskRepository{db: db}
}

type taskRow struct {
	domain.Task
	AssigneeName  *string `db:"assignee_name"`
	AssigneeEmail *string `db:"assignee_email"`
}

func (r taskRow) toTask() domain.Task {
	t := r.Task
	if t.AssignedTo != nil {
		summary := domain.UserSummary{ID: *t.AssignedTo, Name: domain.PlaceholderUser}
		if r.AssigneeName != nil {
			summary.Name = *r.AssigneeName
		}
		if r.AssigneeEmail != nil {
			summary.Email = *r.AssigneeEmail
		}
		t.Assignee = &summary
	}
	return t
}

const taskSelect = `
	SELECT
		t.id, t.title, t.description, t.project_id, t.assigned_to, t.status, t.priority,
		t.due_date, t.version, t.created_at, t.updated_at,
		u.name AS assignee_name, u.email AS assignee_email
	FROM tasks t
	LEFT JOIN users u ON u.id = t.assigned_to`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, title, description, project_id, assigned_to, status, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING version, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		task.ID, task.Title, task.Description, task.ProjectID, task.AssignedTo,
		task.Status, task.Priority, task.DueDate,
	).Scan(&task.Version, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("task insert failed: %w", err)
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var row taskRow
	query := taskSelect + ` WHERE t.id = $1`

	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	task := row.toTask()
	return &task, nil
}

func (r *taskRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Task, error) {
	var rows []taskRow
	query := taskSelect + ` WHERE t.project_id = $1 ORDER BY t.created_at DESC, t.id`

	if err := r.db.SelectContext(ctx, &rows, query, projectID); err != nil {
		return nil, err
	}

	tasks := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toTask())
	}
	return tasks, nil
}

// Update writes the task only if its version still matches. project_id is never rewritten.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = $3, description = $4, assigned_to = $5, status = $6, priority = $7,
		    due_date = $8, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		task.ID, task.Version, task.Title, task.Description, task.AssignedTo,
		task.Status, task.Priority, task.DueDate,
	).Scan(&task.Version, &task.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrStaleWrite
	}
	if err != nil {
		return fmt.Errorf("task update failed: %w", err)
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *taskRepository) CompleteAllByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	query := `
		UPDATE tasks
		SET status = $2, version = version + 1, updated_at = NOW()
		WHERE project_id = $1 AND status <> $2`
	return r.exec(ctx, query, projectID, domain.TaskDone)
}

func (r *taskRepository) UnassignUser(ctx context.Context, projectID, userID uuid.UUID) (int64, error) {
	query := `
		UPDATE tasks
		SET assigned_to = NULL, version = version + 1, updated_at = NOW()
		WHERE project_id = $1 AND assigned_to = $2`
	return r.exec(ctx, query, projectID, userID)
}

func (r *taskRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	query := `DELETE FROM tasks WHERE project_id = $1`
	return r.exec(ctx, query, projectID)
}

func (r *taskRepository) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
