package repositorytest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Tomlord1122/todo-app/internal/domain"
	"github.com/Tomlord1122/todo-app/internal/repository"
)

// TodoRepositoryFactory returns a fresh, empty repository and a function that
// creates a new owner and returns its id.
type TodoRepositoryFactory func(t *testing.T) (repo repository.TodoRepository, newOwner func(t *testing.T) uint)

// RunTodoRepositoryContract checks the ownership, validation and bulk
// semantics every TodoRepository must provide.
func RunTodoRepositoryContract(t *testing.T, factory TodoRepositoryFactory) {
	ctx := context.Background()

	t.Run("InsertThenList", func(t *testing.T) {
		repo, newOwner := factory(t)
		owner := newOwner(t)

		created, err := repo.Insert(ctx, owner, "buy milk")
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		if created.ID == 0 {
			t.Error("Insert should assign an id")
		}
		if created.Completed {
			t.Error("new todo should not be completed")
		}
		if created.CreatedAt.IsZero() {
			t.Error("Insert should set created_at")
		}

		todos := mustList(t, repo, owner)
		if len(todos) != 1 {
			t.Fatalf("len(todos) = %d, want 1", len(todos))
		}
		if todos[0].ID != created.ID || todos[0].Text != "buy milk" || todos[0].Completed {
			t.Errorf("listed todo = %+v, want id %d text %q pending", todos[0], created.ID, "buy milk")
		}
		if todos[0].UserID != owner {
			t.Errorf("UserID = %d, want %d", todos[0].UserID, owner)
		}
	})

	t.Run("InsertRejectsInvalidText", func(t *testing.T) {
		repo, newOwner := factory(t)
		owner := newOwner(t)

		for _, text := range []string{"", "   ", "nul\x00byte", strings.Repeat("x", domain.MaxTextLength+1)} {
			_, err := repo.Insert(ctx, owner, text)
			if !domain.IsValidation(err) {
				t.Errorf("Insert(%d chars) error = %v, want ValidationError", len(text), err)
			}
		}
		if todos := mustList(t, repo, owner); len(todos) != 0 {
			t.Errorf("invalid inserts persisted %d todos", len(todos))
		}

		if _, err := repo.Insert(ctx, owner, strings.Repeat("x", domain.MaxTextLength)); err != nil {
			t.Errorf("Insert at max length: %v", err)
		}
	})

	t.Run("ListOrderedByCreation", func(t *testing.T) {
		repo, newOwner := factory(t)
		owner := newOwner(t)

		for _, text := range []string{"first", "second", "third"} {
			mustInsert(t, repo, owner, text)
		}
		assertTexts(t, mustList(t, repo, owner), "first", "second", "third")
	})

	t.Run("OtherOwnerSeesNotFound", func(t *testing.T) {
		repo, newOwner := factory(t)
		alice, bob := newOwner(t), newOwner(t)
		todo := mustInsert(t, repo, alice, "alice's secret")

		if _, err := repo.FindForOwner(ctx, bob, todo.ID); !errors.Is(err, domain.ErrTodoNotFound) {
			t.Errorf("FindForOwner by other owner error = %v, want ErrTodoNotFound", err)
		}
		done := true
		text := "hijacked"
		if _, err := repo.Update(ctx, bob, todo.ID, domain.TodoPatch{Text: &text, Completed: &done}); !errors.Is(err, domain.ErrTodoNotFound) {
			t.Errorf("Update by other owner error = %v, want ErrTodoNotFound", err)
		}
		if err := repo.Delete(ctx, bob, todo.ID); !errors.Is(err, domain.ErrTodoNotFound) {
			t.Errorf("Delete by other owner error = %v, want ErrTodoNotFound", err)
		}
		if todos := mustList(t, repo, bob); len(todos) != 0 {
			t.Errorf("other owner lists %d todos, want 0", len(todos))
		}

		got, err := repo.FindForOwner(ctx, alice, todo.ID)
		if err != nil {
			t.Fatalf("FindForOwner by owner: %v", err)
		}
		if got.Text != "alice's secret" || got.Completed {
			t.Errorf("owner's todo changed by other owner: %+v", got)
		}
	})

	t.Run("PartialPatchChangesOnlySuppliedFields", func(t *testing.T) {
		repo, newOwner := factory(t)
		owner := newOwner(t)
		todo := mustInsert(t, repo, owner, "write report")

		done := true
		updated, err := repo.Update(ctx, owner, todo.ID, domain.TodoPatch{Completed: &done})
		if err != nil {
			t.Fatalf("Update completed: %v", err)
		}
		if updated.ID != todo.ID || updated.Text != "write report" || !updated.Completed {
			t.Errorf("after completed patch = %+v", updated)
		}

		text := "write final report"
		updated, err = repo.Update(ctx, owner, todo.ID, domain.TodoPatch{Text: &text})
		if err != nil {
			t.Fatalf("Update text: %v", err)
		}
		if updated.Text != text || !updated.Completed {
			t.Errorf("after text patch = %+v, want text %q and still completed", updated, text)
		}

		stored, err := repo.FindForOwner(ctx, owner, todo.ID)
		if err != nil {
			t.Fatalf("FindForOwner: %v", err)
		}
		if stored.Text != text || !stored.Completed || stored.UserID != owner {
			t.Errorf("stored = %+v", stored)
		}
	})

	t.Run("UpdateRejectsInvalidText", func(t *testing.T) {
		repo, newOwner := factory(t)
		owner := newOwner(t)
		todo := mustInsert(t, repo, owner, "keep me")

		for _, text := range []string{"", "nul\x00byte", strings.Repeat("y", domain.MaxTextLength+1)} {
			text := text
			if _, err := repo.Update(ctx, owner, todo.ID, domain.TodoPatch{Text: &text}); !domain.IsValidation(err) {
				t.Errorf("Update(%d chars) error = %v, want ValidationError", len(text), err)
			}
		}
		stored, err := repo.FindForOwner(ctx, owner, todo.ID)
		if err != nil {
			t.Fatalf("FindForOwner: %v", err)
		}
		if stored.Text != "keep me" {
			t.Errorf("text = %q after rejected update", stored.Text)
		}
	})

	t.Run("UpdateMissingAndEmptyPatch", func(t *testing.T) {
		repo, newOwner := factory(t)
		owner := newOwner(t)
		todo := mustInsert(t, repo, owner, "unchanged")

		got, err := repo.Update(ctx, owner, todo.ID, domain.TodoPatch{})
		if err != nil {
			t.Fatalf("empty patch: %v", err)
		}
		if got.Text != "unchanged" || got.Completed {
			t.Errorf("empty patch returned %+v", got)
		}

		if _, err := repo.Update(ctx, owner, todo.ID+1000, domain.TodoPatch{}); !errors.Is(err, domain.ErrTodoNotFound) {
			t.Errorf("empty patch on missing id error = %v, want ErrTodoNotFound", err)
		}
		done := true
		if _, err := repo.Update(ctx, owner, todo.ID+1000, domain.TodoPatch{Completed: &done}); !errors.Is(err, domain.ErrTodoNotFound) {
			t.Errorf("patch on missing id error = %v, want ErrTodoNotFound", err)
		}
	})

	t.Run("DeleteTwiceIsNotFound", func(t *testing.T) {
		repo, newOwner := factory(t)
		owner := newOwner(t)
		todo := mustInsert(t, repo, owner, "ephemeral")

		if err := repo.Delete(ctx, owner, todo.ID); err != nil {
			t.Fatalf("first Delete: %v", err)
		}
		if err := repo.Delete(ctx, owner, todo.ID); !errors.Is(err, domain.ErrTodoNotFound) {
			t.Errorf("second Delete error = %v, want ErrTodoNotFound", err)
		}
		if err := repo.Delete(ctx, owner, todo.ID+1000); !errors.Is(err, domain.ErrTodoNotFound) {
			t.Errorf("Delete of never-existing id error = %v, want ErrTodoNotFound", err)
		}
		if todos := mustList(t, repo, owner); len(todos) != 0 {
			t.Errorf("len(todos) = %d after delete, want 0", len(todos))
		}
	})

	t.Run("UpdateAllIsScopedToOwner", func(t *testing.T) {
		repo, newOwner := factory(t)
		alice, bob, carol := newOwner(t), newOwner(t), newOwner(t)
		for _, text := range []string{"a1", "a2", "a3"} {
			mustInsert(t, repo, alice, text)
		}
		mustInsert(t, repo, bob, "b1")

		n, err := repo.UpdateAllForOwner(ctx, alice, true)
		if err != nil {
			t.Fatalf("UpdateAllForOwner: %v", err)
		}
		if n != 3 {
			t.Errorf("rows affected = %d, want 3", n)
		}
		for _, todo := range mustList(t, repo, alice) {
			if !todo.Completed {
				t.Errorf("todo %q not completed after toggle-all", todo.Text)
			}
		}
		for _, todo := range mustList(t, repo, bob) {
			if todo.Completed {
				t.Errorf("other owner's todo %q was toggled", todo.Text)
			}
		}

		if _, err := repo.UpdateAllForOwner(ctx, alice, false); err != nil {
			t.Fatalf("UpdateAllForOwner(false): %v", err)
		}
		for _, todo := range mustList(t, repo, alice) {
			if todo.Completed {
				t.Errorf("todo %q still completed after toggle-all(false)", todo.Text)
			}
		}

		n, err = repo.UpdateAllForOwner(ctx, carol, true)
		if err != nil || n != 0 {
			t.Errorf("UpdateAllForOwner on empty owner = (%d, %v), want (0, nil)", n, err)
		}
	})

	t.Run("DeleteCompletedIsScopedToOwner", func(t *testing.T) {
		repo, newOwner := factory(t)
		alice, bob := newOwner(t), newOwner(t)
		done := true

		keep := mustInsert(t, repo, alice, "pending")
		for _, text := range []string{"done1", "done2"} {
			todo := mustInsert(t, repo, alice, text)
			mustUpdate(t, repo, alice, todo.ID, domain.TodoPatch{Completed: &done})
		}
		other := mustInsert(t, repo, bob, "bob done")
		mustUpdate(t, repo, bob, other.ID, domain.TodoPatch{Completed: &done})

		n, err := repo.DeleteCompletedForOwner(ctx, alice)
		if err != nil {
			t.Fatalf("DeleteCompletedForOwner: %v", err)
		}
		if n != 2 {
			t.Errorf("rows affected = %d, want 2", n)
		}
		remaining := mustList(t, repo, alice)
		if len(remaining) != 1 || remaining[0].ID != keep.ID {
			t.Errorf("remaining = %+v, want only %q", remaining, "pending")
		}
		if todos := mustList(t, repo, bob); len(todos) != 1 {
			t.Errorf("other owner has %d todos, want 1", len(todos))
		}

		n, err = repo.DeleteCompletedForOwner(ctx, alice)
		if err != nil || n != 0 {
			t.Errorf("second DeleteCompletedForOwner = (%d, %v), want (0, nil)", n, err)
		}
	})

	t.Run("ClearCompletedKeepsCreationOrder", func(t *testing.T) {
		repo, newOwner := factory(t)
		owner := newOwner(t)

		mustInsert(t, repo, owner, "a")
		b := mustInsert(t, repo, owner, "b")
		mustInsert(t, repo, owner, "c")

		done := true
		mustUpdate(t, repo, owner, b.ID, domain.TodoPatch{Completed: &done})
		if _, err := repo.DeleteCompletedForOwner(ctx, owner); err != nil {
			t.Fatalf("DeleteCompletedForOwner: %v", err)
		}
		assertTexts(t, mustList(t, repo, owner), "a", "c")
	})
}

func mustInsert(t *testing.T, repo repository.TodoRepository, owner uint, text string) *domain.Todo {
	t.Helper()
	todo, err := repo.Insert(context.Background(), owner, text)
	if err != nil {
		t.Fatalf("Insert(%q): %v", text, err)
	}
	return todo
}

func mustUpdate(t *testing.T, repo repository.TodoRepository, owner, id uint, patch domain.TodoPatch) *domain.Todo {
	t.Helper()
	todo, err := repo.Update(context.Background(), owner, id, patch)
	if err != nil {
		t.Fatalf("Update(%d): %v", id, err)
	}
	return todo
}

func mustList(t *testing.T, repo repository.TodoRepository, owner uint) []domain.Todo {
	t.Helper()
	todos, err := repo.ListForOwner(context.Background(), owner)
	if err != nil {
		t.Fatalf("ListForOwner: %v", err)
	}
	return todos
}

func assertTexts(t *testing.T, todos []domain.Todo, want ...string) {
	t.Helper()
	got := make([]string, len(todos))
	for i, todo := range todos {
		got[i] = todo.Text
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("texts = %v, want %v", got, want)
	}
}
