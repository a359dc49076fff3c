package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"maktaba-backend/internal/domain"
	"maktaba-backend/internal/logger"
	"maktaba-backend/internal/repository"
	"maktaba-backend/internal/security"
)

type authService struct {
	users  repository.UserRepository
	tokens security.TokenManager
	log    *slog.Logger
}

func NewAuthService(users repository.UserRepository, tokens security.TokenManager) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		log:    logger.WithService("auth"),
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, domain.Validation("email and password are required")
	}

	user, role, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Same message for unknown email and bad password, so login
		// cannot be used to probe which accounts exist.
		if domain.KindOf(err) == domain.ErrNotFound {
			return nil, domain.Forbidden("invalid email or password")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("failed login attempt", "email", email)
		return nil, domain.Forbidden("invalid email or password")
	}
	if !user.IsActive {
		return nil, domain.Forbidden("account is deactivated")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.UserType, role.Name)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to generate access token")
	}

	s.log.Info("user logged in", "user_id", user.ID, "user_type", user.UserType)
	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		User:        *user,
		Role:        *role,
	}, nil
}

// ActorFromUserID re-reads the user and role on every call so permission
// changes take effect without waiting for token expiry.
func (s *authService) ActorFromUserID(ctx context.Context, userID uuid.UUID) (*domain.Actor, error) {
	user, role, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.Forbidden("account is deactivated")
	}
	return &domain.Actor{User: *user, Role: *role}, nil
}
