package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codetrail-lms/apiserver/internal/store"
	"github.com/codetrail-lms/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const studentRole = "student"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int) error
}

// RegisterUser carries the fields needed to create an account.
type RegisterUser struct {
	Username string
	Email    string
	Name     string
	Password string
}

// UserService owns account lifecycle and credential checks. Password
// hashing never leaves this layer.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register creates a student account with a bcrypt-hashed password.
// Usernames are unique; registering an existing one returns ErrConflict.
func (s *UserService) Register(ctx context.Context, req RegisterUser) (types.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Username == "" || req.Email == "" || req.Name == "" || req.Password == "" {
		return types.User{}, fmt.Errorf("%w: username, email, name and password are required", ErrValidation)
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return types.User{}, fmt.Errorf("%w: username %q already exists", ErrConflict, req.Username)
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     req.Username,
		Email:        req.Email,
		Name:         req.Name,
		Role:         studentRole,
		PasswordHash: string(hashed),
	})
}

// Authenticate verifies a username/password pair. An unknown username and
// a wrong password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return types.User{}, ErrBadCredentials
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrBadCredentials
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrBadCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
