// Package users implements registration and credential checks.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/vocanote/internal/apperr"
	"github.com/starford/vocanote/internal/models"
	"github.com/starford/vocanote/internal/store"
)

// Service registers users and authenticates login attempts.
type Service struct {
	repo store.UserRepository
	cost int
}

// NewService creates a Service. A zero cost selects bcrypt.DefaultCost.
func NewService(repo store.UserRepository, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, cost: cost}
}

// Register creates a user. The username is trimmed before it is checked
// and stored; the password is stored only as a bcrypt hash.
func (s *Service) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return apperr.Validation("username and password are required")
	}

	if _, err := s.repo.UserByUsername(ctx, username); err == nil {
		return apperr.New(apperr.ErrConflict, "username already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("users: lookup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("users: hash password: %w", err)
	}

	// The unique index still guards against a concurrent registration.
	if _, err := s.repo.CreateUser(ctx, username, string(hash)); err != nil {
		return err
	}
	return nil
}

// Authenticate returns the user matching username and password. Unknown
// users and wrong passwords both yield apperr.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, apperr.Validation("username and password are required")
	}

	user, err := s.repo.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("users: lookup: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.UserByID(ctx, id)
}

// ByUsername returns the user with the given (trimmed) username.
func (s *Service) ByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repo.UserByUsername(ctx, strings.TrimSpace(username))
}
