package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"marketplace/internal/auth"
	apperrors "marketplace/internal/errors"
	"marketplace/internal/model"
	"marketplace/internal/repository"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AuthService handles registration, login and logout.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	creds    *auth.Credentials
	log      logrus.FieldLogger
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, creds *auth.Credentials, log logrus.FieldLogger) AuthService {
	return &authService{
		userRepo: userRepo,
		creds:    creds,
		log:      log,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// tooLong reports whether s has more than limit characters.
func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

// Register creates a new user with a hashed password and signs a session token for it.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	email := NormalizeEmail(in.Email)
	if tooLong(strings.TrimSpace(in.FirstName), model.NameMaxLen) || tooLong(strings.TrimSpace(in.LastName), model.NameMaxLen) {
		return nil, "", apperrors.Validation("Names must be 100 characters or fewer")
	}
	if tooLong(email, model.EmailMaxLen) {
		return nil, "", apperrors.Validation("Please include a valid email")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, "", apperrors.ErrEmailTaken
	}
	if err != nil && !repository.IsNotFound(err) {
		return nil, "", fmt.Errorf("check user existence: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		ID:           uuid.New(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost the race against a concurrent registration
		if repository.IsDuplicate(err) {
			return nil, "", apperrors.ErrEmailTaken.Wrap(err)
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.creds.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks the password and signs a new session token.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, "", apperrors.ErrIncorrectPassword
	}

	token, err := s.creds.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes token. Failures are logged and never surfaced.
func (s *authService) Logout(ctx context.Context, token string) error {
	if err := s.creds.Revoke(ctx, token); err != nil {
		s.log.WithError(err).Warn("revoke session token")
	}
	return nil
}

// CurrentUser loads the user behind a verified identity.
func (s *authService) CurrentUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
