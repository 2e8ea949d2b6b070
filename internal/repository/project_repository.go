package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"taskhub/internal/domain"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, projectID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
}

type projectRepository struct {
	db DBTX
}

func NewProjectRepository(db DBTX) ProjectRepository {
	return &projectRepository{db: db}
}

type projectRow struct {
	domain.Project
	MemberIDs pq.StringArray `db:"member_ids"`
}

func (r projectRow) toProject() (domain.Project, error) {
	p := r.Project
	p.TeamMembers = make([]uuid.UUID, 0, len(r.MemberIDs))
	for _, raw := range r.MemberIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return p, fmt.Errorf("invalid member id %q: %w", raw, err)
		}
		p.TeamMembers = append(p.TeamMembers, id)
	}
	return p, nil
}

const projectSelect = `
	SELECT
		p.id, p.name, p.description, p.status, p.project_manager_id,
		p.version, p.created_at, p.updated_at,
		COALESCE(
			array_agg(pm.user_id::text ORDER BY pm.added_at) FILTER (WHERE pm.user_id IS NOT NULL),
			'{}'
		) AS member_ids
	FROM projects p
	LEFT JOIN project_members pm ON pm.project_id = p.id`

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	query := `
		INSERT INTO projects (id, name, description, status, project_manager_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING version, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		project.ID, project.Name, project.Description, project.Status, project.ProjectManagerID,
	).Scan(&project.Version, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return translateProjectErr(err)
	}

	for _, memberID := range project.TeamMembers {
		if err := r.AddMember(ctx, project.ID, memberID); err != nil {
			return err
		}
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var row projectRow
	query := projectSelect + ` WHERE p.id = $1 GROUP BY p.id`

	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	project, err := row.toProject()
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context) ([]domain.Project, error) {
	query := projectSelect + ` GROUP BY p.id ORDER BY p.created_at DESC`
	return r.selectProjects(ctx, query)
}

func (r *projectRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Project, error) {
	query := projectSelect + `
		WHERE p.project_manager_id = $1
		   OR EXISTS (SELECT 1 FROM project_members m WHERE m.project_id = p.id AND m.user_id = $1)
		GROUP BY p.id
		ORDER BY p.created_at DESC`
	return r.selectProjects(ctx, query, userID)
}

func (r *projectRepository) selectProjects(ctx context.Context, query string, args ...interface{}) ([]domain.Project, error) {
	var rows []projectRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	projects := make([]domain.Project, 0, len(rows))
	for _, row := range rows {
		p, err := row.toProject()
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// Update writes the project only if its version still matches, then advances the version.
func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	query := `
		UPDATE projects
		SET name = $3, description = $4, status = $5, project_manager_id = $6,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		project.ID, project.Version, project.Name, project.Description, project.Status, project.ProjectManagerID,
	).Scan(&project.Version, &project.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrStaleWrite
	}
	return translateProjectErr(err)
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM projects WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *projectRepository) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, projectID, userID)
	if _, ok := uniqueConstraint(err); ok {
		return domain.Conflict("User is already a member of this project")
	}
	return err
}

func (r *projectRepository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, projectID, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.Conflict("User is not a member of this project")
	}
	return nil
}

func translateProjectErr(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := uniqueConstraint(err); ok {
		if constraint == "projects_name_key" {
			return domain.Conflict("A project with that name already exists")
		}
		return domain.Conflict("Duplicate value violates %s", constraint)
	}
	return fmt.Errorf("project write failed: %w", err)
}
