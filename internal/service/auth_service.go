package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Tomlord1122/todo-app/internal/domain"
	"github.com/Tomlord1122/todo-app/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest holds the data needed to open an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest holds email/password credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      UserResponse
}

// AuthService resolves who is making a request. The todo core only ever sees
// the user id Authenticate returns.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (uint, error)
	CurrentUser(ctx context.Context, userID uint) (*UserResponse, error)
}

// AuthOptions configures session lifetime and hashing cost.
type AuthOptions struct {
	SessionTTL time.Duration
	BcryptCost int
}

type authService struct {
	users    repository.UserRepository
	sessions repository.SessionStore
	ttl      time.Duration
	cost     int

	// dummyHash is compared against when the email is unknown so that both
	// login failures take the same time.
	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(users repository.UserRepository, sessions repository.SessionStore, opts AuthOptions) AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		users:    users,
		sessions: sessions,
		ttl:      opts.SessionTTL,
		cost:     opts.BcryptCost,
	}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, domain.NewValidationError("password", "The password field must not be greater than 72 bytes.")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{Name: req.Name, Email: req.Email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.NewValidationError("email", "The email has already been taken.")
		}
		return nil, err
	}

	slog.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(user.ID)))
	return s.startSession(ctx, user)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(req.Password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

func (s *authService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *authService) Authenticate(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, domain.ErrUnauthenticated
	}
	userID, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return 0, domain.ErrUnauthenticated
		}
		return 0, err
	}
	return userID, nil
}

func (s *authService) CurrentUser(ctx context.Context, userID uint) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) startSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, err := s.sessions.Create(ctx, user.ID, s.ttl)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: time.Now().Add(s.ttl),
		User:      toUserResponse(user),
	}, nil
}

func (s *authService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{ID: user.ID, Name: user.Name, Email: user.Email}
}
