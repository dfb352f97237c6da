package repositorytest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Tomlord1122/todo-app/internal/domain"
	"github.com/Tomlord1122/todo-app/internal/repository"
)

func TestTodoRepositoryContract(t *testing.T) {
	RunTodoRepositoryContract(t, func(t *testing.T) (repository.TodoRepository, func(t *testing.T) uint) {
		var next uint
		return NewTodoRepository(), func(*testing.T) uint {
			next++
			return next
		}
	})
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	first := &domain.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == 0 {
		t.Error("Create should assign an id")
	}

	err := repo.Create(ctx, &domain.User{Name: "Other", Email: "ada@example.com", PasswordHash: "y"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("duplicate Create error = %v, want ErrEmailTaken", err)
	}

	got, err := repo.FindByEmail(ctx, "ada@example.com")
	if err != nil || got.ID != first.ID {
		t.Errorf("FindByEmail = (%+v, %v)", got, err)
	}
	if _, err := repo.FindByID(ctx, 999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("FindByID missing error = %v, want ErrUserNotFound", err)
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	live, _ := store.Create(ctx, 1, time.Hour)
	expired, _ := store.Create(ctx, 2, -time.Second)

	if id, err := store.Lookup(ctx, live); err != nil || id != 1 {
		t.Errorf("Lookup(live) = (%d, %v), want (1, nil)", id, err)
	}
	if _, err := store.Lookup(ctx, expired); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Lookup(expired) error = %v, want ErrSessionNotFound", err)
	}

	if err := store.Delete(ctx, live); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Lookup(ctx, live); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Lookup after Delete error = %v, want ErrSessionNotFound", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}
