package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"finflow/internal/core"
	"finflow/internal/log"
	"finflow/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	GetUserByID(ctx context.Context, id int64) (core.User, error)
}

type Service struct {
	store  UserStore
	logger *log.Logger
}

func NewService(store UserStore, logger *log.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

// Register creates a new account. Emails are normalized to lower case so
// lookups are case-insensitive.
func (s *Service) Register(ctx context.Context, name, email, password string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	candidate := core.User{Name: strings.TrimSpace(name), Email: email}
	if err := candidate.Validate(); err != nil {
		return core.User{}, err
	}
	if len(password) < 8 {
		return core.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	candidate.PasswordHash = string(hash)

	user, err := s.store.CreateUser(ctx, candidate)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return core.User{}, ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered",
		log.FieldOperation, log.OpRegister,
		log.FieldUserID, user.ID)

	return user, nil
}

// Authenticate verifies credentials and returns the matching user. The
// same error covers unknown emails and wrong passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, ErrInvalidCredentials
		}
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Login failed",
			log.FieldOperation, log.OpLogin,
			log.FieldUserID, user.ID)
		return core.User{}, ErrInvalidCredentials
	}

	s.logger.InfoContext(ctx, "Login succeeded",
		log.FieldOperation, log.OpLogin,
		log.FieldUserID, user.ID)

	return user, nil
}

// GetUser fetches a user by ID for session resolution.
func (s *Service) GetUser(ctx context.Context, id int64) (core.User, error) {
	return s.store.GetUserByID(ctx, id)
}
