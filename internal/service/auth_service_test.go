package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Tomlord1122/todo-app/internal/domain"
	"github.com/Tomlord1122/todo-app/internal/repository/repositorytest"

	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService() (AuthService, *repositorytest.SessionStore) {
	sessions := repositorytest.NewSessionStore()
	svc := NewAuthService(repositorytest.NewUserRepository(), sessions, AuthOptions{
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	return svc, sessions
}

func register(t *testing.T, svc AuthService, name, email string) *AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return res
}

func TestAuthService_RegisterStartsSession(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestAuthService()

	res := register(t, svc, " Alice ", " Alice@Example.com ")
	if res.Token == "" {
		t.Fatal("Register returned empty token")
	}
	if res.User.Name != "Alice" || res.User.Email != "alice@example.com" {
		t.Errorf("User = %+v, want trimmed name and normalized email", res.User)
	}
	if time.Until(res.ExpiresAt) <= 0 {
		t.Errorf("ExpiresAt %v is not in the future", res.ExpiresAt)
	}
	if sessions.Len() != 1 {
		t.Errorf("sessions = %d, want 1", sessions.Len())
	}

	userID, err := svc.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if userID != res.User.ID {
		t.Errorf("Authenticate = %d, want %d", userID, res.User.ID)
	}

	me, err := svc.CurrentUser(ctx, userID)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if *me != res.User {
		t.Errorf("CurrentUser = %+v, want %+v", *me, res.User)
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"missing name", RegisterRequest{Email: "a@example.com", Password: "password1"}, "name"},
		{"blank name", RegisterRequest{Name: "   ", Email: "a@example.com", Password: "password1"}, "name"},
		{"bad email", RegisterRequest{Name: "A", Email: "not-an-email", Password: "password1"}, "email"},
		{"short password", RegisterRequest{Name: "A", Email: "a@example.com", Password: "short"}, "password"},
		{"long password", RegisterRequest{Name: "A", Email: "a@example.com", Password: strings.Repeat("p", 73)}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sessions := newTestAuthService()

			_, err := svc.Register(context.Background(), tt.req)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if _, ok := ve.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want key %q", ve.Fields, tt.field)
			}
			if sessions.Len() != 0 {
				t.Error("invalid registration started a session")
			}
		})
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()
	register(t, svc, "Alice", "alice@example.com")

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Other",
		Email:    "ALICE@example.com",
		Password: "another password",
	})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if ve.Fields["email"] != "The email has already been taken." {
		t.Errorf("fields = %v", ve.Fields)
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuthService()
	registered := register(t, svc, "Alice", "alice@example.com")

	res, err := svc.Login(ctx, LoginRequest{Email: "ALICE@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.ID != registered.User.ID {
		t.Errorf("Login user = %d, want %d", res.User.ID, registered.User.ID)
	}
	if res.Token == registered.Token {
		t.Error("Login reused the registration token")
	}

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong password", LoginRequest{Email: "alice@example.com", Password: "wrong horse"}},
		{"unknown email", LoginRequest{Email: "nobody@example.com", Password: "correct horse"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.req)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Errorf("error = %v, want ErrInvalidCredentials", err)
			}
		})
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "alice@example.com"})
	if !domain.IsValidation(err) {
		t.Errorf("missing password error = %v, want ValidationError", err)
	}
}

func TestAuthService_LogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestAuthService()
	res := register(t, svc, "Alice", "alice@example.com")

	if err := svc.Logout(ctx, res.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if sessions.Len() != 0 {
		t.Errorf("sessions = %d after logout, want 0", sessions.Len())
	}
	if _, err := svc.Authenticate(ctx, res.Token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("Authenticate after logout error = %v, want ErrUnauthenticated", err)
	}
}

func TestAuthService_AuthenticateRejectsUnknownTokens(t *testing.T) {
	svc, _ := newTestAuthService()

	for _, token := range []string{"", "not-a-session"} {
		if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Errorf("Authenticate(%q) error = %v, want ErrUnauthenticated", token, err)
		}
	}
}

func TestAuthService_SessionExpires(t *testing.T) {
	sessions := repositorytest.NewSessionStore()
	svc := NewAuthService(repositorytest.NewUserRepository(), sessions, AuthOptions{
		SessionTTL: 10 * time.Millisecond,
		BcryptCost: bcrypt.MinCost,
	})
	res := register(t, svc, "Alice", "alice@example.com")

	time.Sleep(20 * time.Millisecond)
	if _, err := svc.Authenticate(context.Background(), res.Token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("Authenticate after expiry error = %v, want ErrUnauthenticated", err)
	}
}
