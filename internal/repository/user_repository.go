package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskhub/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetSummaries(ctx context.Context, ids []uuid.UUID) ([]domain.UserSummary, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, role *domain.Role) ([]domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	FindAdmin(ctx context.Context) (*domain.User, error)
}

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return translateUserErr(err)
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetSummaries(ctx context.Context, ids []uuid.UUID) ([]domain.UserSummary, error) {
	if len(ids) == 0 {
		return []domain.UserSummary{}, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, email FROM users WHERE id IN (?) ORDER BY name`, ids)
	if err != nil {
		return nil, err
	}

	var users []domain.UserSummary
	err = r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...)
	return users, err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, role = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query, user.ID, user.Name, user.Email, user.Role).Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound("No user with the id of %s", user.ID)
	}
	return translateUserErr(err)
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	err := r.db.GetContext(ctx, &exists, query, email)
	return exists, err
}

func (r *userRepository) List(ctx context.Context, role *domain.Role) ([]domain.User, error) {
	if role != nil {
		return r.ListByRole(ctx, *role)
	}

	var users []domain.User
	query := `SELECT ` + userColumns + ` FROM users ORDER BY name`
	err := r.db.SelectContext(ctx, &users, query)
	return users, err
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var users []domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY name`

	err := r.db.SelectContext(ctx, &users, query, role)
	return users, err
}

func (r *userRepository) FindAdmin(ctx context.Context) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 LIMIT 1`

	err := r.db.GetContext(ctx, &user, query, domain.RoleAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// translateUserErr maps the unique indexes on users onto domain conflicts.
// users_single_admin is a partial unique index over role = 'Admin'.
func translateUserErr(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := uniqueConstraint(err); ok {
		switch constraint {
		case "users_single_admin":
			return domain.ErrAdminExists
		case "users_email_key":
			return domain.ErrEmailExists
		}
		return domain.Conflict("Duplicate value violates %s", constraint)
	}
	return fmt.Errorf("user write failed: %w", err)
}
