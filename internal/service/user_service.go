package service

import (
	"context"
	"go-comments-app/internal/data"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines the interface for database operations on users.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*data.User, error)
	GetAll(ctx context.Context) ([]*data.User, error)
	Save(ctx context.Context, user *data.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (bool, error)
	DeleteByUsername(ctx context.Context, username string) (bool, error)
}

// UserServicer defines the interface for authenticating administrators.
type UserServicer interface {
	Authenticate(ctx context.Context, username, password string) (*data.User, error)
}

// UserService manages administrator accounts.
type UserService struct {
	repo      UserRepository
	cost      int
	dummyHash []byte
}

// NewUserService creates a new UserService hashing passwords with the given bcrypt cost.
func NewUserService(repo UserRepository, cost int) *UserService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Compared against when the user does not exist so both paths take as long.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("comments-dummy-password"), cost)
	return &UserService{repo: repo, cost: cost, dummyHash: dummy}
}

// Authenticate checks a username/password pair. It returns ErrInvalidCredentials
// for an unknown user or a wrong password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*data.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// AddUser creates an administrator account.
func (s *UserService) AddUser(ctx context.Context, username, password string) (*data.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("Username is required.")
	}
	if password == "" {
		return nil, invalid("Password is required.")
	}
	existing, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, invalid("User '" + username + "' already exists.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	user := &data.User{ID: uuid.New(), Username: username, PasswordHash: string(hash)}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes an administrator account.
func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	found, err := s.repo.DeleteByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns every administrator account.
func (s *UserService) ListUsers(ctx context.Context) ([]*data.User, error) {
	return s.repo.GetAll(ctx)
}

// SetPassword replaces the password of an existing account.
func (s *UserService) SetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return invalid("Password is required.")
	}
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	found, err := s.repo.UpdatePassword(ctx, user.ID, string(hash))
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
