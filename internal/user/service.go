package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrFullNameRequired   = errors.New("name is required")
	ErrUsernameRequired   = errors.New("username is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrCannotDeleteAdmin  = errors.New("cannot delete admin users")
)

const (
	minUserPasswordLen  = 6
	minAdminPasswordLen = 8

	generatedPasswordLen = 12
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type SignUpRequest struct {
	Username string
	FullName string
	Email    string
	Password string // optional; generated when empty
}

// SignUp creates a regular user account. When no password is supplied a
// secure one is generated and returned so it can be shown to the user once.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*User, string, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	req.Password = strings.TrimSpace(req.Password)

	switch {
	case req.FullName == "":
		return nil, "", ErrFullNameRequired
	case req.Username == "":
		return nil, "", ErrUsernameRequired
	case req.Email == "":
		return nil, "", ErrEmailRequired
	case req.Password != "" && len(req.Password) < minUserPasswordLen:
		return nil, "", ErrPasswordTooShort
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, "", ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, "", fmt.Errorf("check username: %w", err)
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, "", fmt.Errorf("check email: %w", err)
	}

	generated := ""
	plain := req.Password
	if plain == "" {
		pw, err := GeneratePassword(generatedPasswordLen)
		if err != nil {
			return nil, "", err
		}
		plain = pw
		generated = pw
	}

	hash, err := HashPassword(plain)
	if err != nil {
		return nil, "", err
	}

	email := req.Email
	created, err := s.repo.Create(ctx, User{
		Username:     req.Username,
		FullName:     req.FullName,
		Email:        &email,
		PasswordHash: hash,
		Role:         RoleUser,
	})
	if err != nil {
		return nil, "", err
	}

	return created, generated, nil
}

// CreateAdmin creates an admin account. Callers must have verified the
// requesting session is itself an admin.
func (s *Service) CreateAdmin(ctx context.Context, username, fullName, password, confirm string) (*User, error) {
	username = strings.TrimSpace(username)
	fullName = strings.TrimSpace(fullName)
	password = strings.TrimSpace(password)
	confirm = strings.TrimSpace(confirm)

	switch {
	case fullName == "":
		return nil, ErrFullNameRequired
	case username == "":
		return nil, ErrUsernameRequired
	case password != confirm:
		return nil, ErrPasswordMismatch
	case len(password) < minAdminPasswordLen:
		return nil, ErrPasswordTooShort
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, User{
		Username:     username,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         RoleAdmin,
	})
}

// Authenticate verifies a username/password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	if len(next) < minUserPasswordLen {
		return ErrPasswordTooShort
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if !CheckPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}

	return s.repo.UpdatePasswordHash(ctx, u.ID, hash)
}

// ResetPassword verifies the old password for a username and replaces it.
func (s *Service) ResetPassword(ctx context.Context, username, old, next, confirm string) error {
	if next != confirm {
		return ErrPasswordMismatch
	}
	if len(next) < minUserPasswordLen {
		return ErrPasswordTooShort
	}

	u, err := s.Authenticate(ctx, username, old)
	if err != nil {
		return err
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}

	return s.repo.UpdatePasswordHash(ctx, u.ID, hash)
}

// DeleteUser removes a regular user and, via the FK cascade, their bookings.
// Admin accounts cannot be deleted through this path.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if u.Role == RoleAdmin {
		return ErrCannotDeleteAdmin
	}

	return s.repo.Delete(ctx, u.ID)
}

func (s *Service) ListUsers(ctx context.Context, limit int) ([]User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByRole(ctx, RoleUser, limit)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}
