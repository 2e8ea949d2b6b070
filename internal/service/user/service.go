package user

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/domain"
	"taskhub/internal/pkg/validate"
	"taskhub/internal/policy"
	"taskhub/internal/repository"
)

type Service interface {
	List(ctx context.Context, subject policy.Subject, role *domain.Role) ([]domain.User, error)
	GetByID(ctx context.Context, subject policy.Subject, id uuid.UUID) (*domain.User, error)
	Create(ctx context.Context, subject policy.Subject, input domain.CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, subject policy.Subject, id uuid.UUID, input domain.UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, subject policy.Subject, id uuid.UUID) error
}

type service struct {
	userRepo repository.UserRepository
	tx       repository.Transactor
	policy   *policy.Evaluator
}

func NewService(userRepo repository.UserRepository, tx repository.Transactor, evaluator *policy.Evaluator) Service {
	return &service{
		userRepo: userRepo,
		tx:       tx,
		policy:   evaluator,
	}
}

func (s *service) authorize(subject policy.Subject, action policy.Action) error {
	return s.policy.CanAccess(subject, action, policy.UsersTarget()).Err()
}

func (s *service) List(ctx context.Context, subject policy.Subject, role *domain.Role) ([]domain.User, error) {
	if err := s.authorize(subject, policy.ActionRead); err != nil {
		return nil, err
	}
	if role != nil && !role.IsValid() {
		return nil, domain.Validation("Unknown role %q", *role)
	}
	return s.userRepo.List(ctx, role)
}

func (s *service) GetByID(ctx context.Context, subject policy.Subject, id uuid.UUID) (*domain.User, error) {
	if err := s.authorize(subject, policy.ActionRead); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *service) Create(ctx context.Context, subject policy.Subject, input domain.CreateUserInput) (*domain.User, error) {
	if err := s.authorize(subject, policy.ActionCreate); err != nil {
		return nil, err
	}
	return Register(ctx, s.tx, input)
}

// Register creates a user account. It is shared by admin user creation and self sign-up.
func Register(ctx context.Context, tx repository.Transactor, input domain.CreateUserInput) (*domain.User, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         input.Role,
	}
	if user.Role == "" {
		user.Role = domain.RoleTeamMember
	}

	err = tx.WithinTx(ctx, func(repos *repository.Repositories) error {
		exists, err := repos.User.ExistsByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrEmailExists
		}
		if user.Role == domain.RoleAdmin {
			if err := EnsureAdminSlot(ctx, repos.User, user.ID); err != nil {
				return err
			}
		}
		return repos.User.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdminSlot fails unless no Admin exists or the existing Admin is self.
// The partial unique index on users.role backs this check against concurrent writers.
func EnsureAdminSlot(ctx context.Context, repo repository.UserRepository, self uuid.UUID) error {
	admin, err := repo.FindAdmin(ctx)
	if err != nil {
		return err
	}
	if admin != nil && admin.ID != self {
		return domain.ErrAdminExists
	}
	return nil
}

// Update changes profile fields and role. Passwords are not changed here.
func (s *service) Update(ctx context.Context, subject policy.Subject, id uuid.UUID, input domain.UpdateUserInput) (*domain.User, error) {
	if err := s.authorize(subject, policy.ActionUpdate); err != nil {
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var user *domain.User
	err := s.tx.WithinTx(ctx, func(repos *repository.Repositories) error {
		var err error
		user, err = repos.User.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.NotFound("No user with the id of %s", id)
		}

		if input.Name != nil {
			user.Name = *input.Name
		}
		if input.Email != nil && *input.Email != user.Email {
			exists, err := repos.User.ExistsByEmail(ctx, *input.Email)
			if err != nil {
				return err
			}
			if exists {
				return domain.ErrEmailExists
			}
			user.Email = *input.Email
		}
		if input.Role != nil && *input.Role != user.Role {
			if *input.Role == domain.RoleAdmin {
				if err := EnsureAdminSlot(ctx, repos.User, user.ID); err != nil {
					return err
				}
			}
			user.Role = *input.Role
		}

		return repos.User.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete is a hard delete. Projects, tasks, logs and notifications keep their references.
func (s *service) Delete(ctx context.Context, subject policy.Subject, id uuid.UUID) error {
	if err := s.authorize(subject, policy.ActionDelete); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, id)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NotFound("No user with the id of %s", id)
	}
	return user, nil
}
