package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"taskhub/internal/config"
	"taskhub/internal/domain"
	"taskhub/internal/pkg/validate"
	"taskhub/internal/repository"
	"taskhub/internal/service/user"
)

var ErrInvalidToken = domain.Unauthenticated("Not authorized to access this route")

type Service interface {
	Register(ctx context.Context, input domain.CreateUserInput) (*domain.AuthResult, error)
	Login(ctx context.Context, input domain.LoginInput) (*domain.AuthResult, error)
	ValidateToken(token string) (*Claims, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type Claims struct {
	UserID uuid.UUID   `json:"user_id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type service struct {
	userRepo repository.UserRepository
	tx       repository.Transactor
	cfg      *config.Config
}

func NewService(userRepo repository.UserRepository, tx repository.Transactor, cfg *config.Config) Service {
	return &service{
		userRepo: userRepo,
		tx:       tx,
		cfg:      cfg,
	}
}

func (s *service) Register(ctx context.Context, input domain.CreateUserInput) (*domain.AuthResult, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	u, err := user.Register(ctx, s.tx, input)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *service) Login(ctx context.Context, input domain.LoginInput) (*domain.AuthResult, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	u, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(u)
}

func (s *service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *service) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *service) issue(u *domain.User) (*domain.AuthResult, error) {
	if s.cfg.JWTSecret == "" {
		return nil, errors.New("JWT secret is not configured")
	}

	now := time.Now()
	claims := &Claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   u.ID.String(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	return &domain.AuthResult{
		Token: token,
		User: domain.UserProfile{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
			Role:  u.Role,
		},
	}, nil
}
