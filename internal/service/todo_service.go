package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Tomlord1122/todo-app/internal/domain"
	"github.com/Tomlord1122/todo-app/internal/metrics"
	"github.com/Tomlord1122/todo-app/internal/repository"
)

// CreateTodoRequest holds the data needed to create a new todo
type CreateTodoRequest struct {
	Text string `json:"text" validate:"required,max=255"`
}

// UpdateTodoRequest holds the data for updating an existing todo.
// Using pointers allows distinguishing between a field being omitted
// vs. being set to its zero value (e.g., setting Completed to false).
type UpdateTodoRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

// ToggleAllRequest sets the completed flag on every todo of the owner.
type ToggleAllRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

// TodoResponse is the standard representation of a Todo returned by the service.
type TodoResponse struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TodoService defines the operations for managing todos. Every method is
// scoped to ownerID; there is no way to reach the store without one.
type TodoService interface {
	// ListTodos returns the owner's todos in creation order.
	ListTodos(ctx context.Context, ownerID uint) ([]TodoResponse, error)

	// GetTodo returns one of the owner's todos or domain.ErrTodoNotFound.
	GetTodo(ctx context.Context, ownerID, id uint) (*TodoResponse, error)

	CreateTodo(ctx context.Context, ownerID uint, req CreateTodoRequest) (*TodoResponse, error)

	// UpdateTodo changes only the fields present in req.
	UpdateTodo(ctx context.Context, ownerID, id uint, req UpdateTodoRequest) (*TodoResponse, error)

	DeleteTodo(ctx context.Context, ownerID, id uint) error

	// ToggleAll marks every owned todo as completed or pending and returns the
	// number of rows touched.
	ToggleAll(ctx context.Context, ownerID uint, req ToggleAllRequest) (int64, error)

	// ClearCompleted deletes the owner's completed todos and returns how many went.
	ClearCompleted(ctx context.Context, ownerID uint) (int64, error)
}

// todoService implements the TodoService interface.
type todoService struct {
	repo    repository.TodoRepository
	metrics metrics.Recorder
}

// NewTodoService creates a new instance of todoService. A nil recorder
// disables metrics.
func NewTodoService(repo repository.TodoRepository, recorder metrics.Recorder) TodoService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &todoService{
		repo:    repo,
		metrics: recorder,
	}
}

func (s *todoService) ListTodos(ctx context.Context, ownerID uint) (_ []TodoResponse, err error) {
	defer func() { s.observe("list", err) }()

	todos, err := s.repo.ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, s.fail(ctx, "list", ownerID, err)
	}

	responses := make([]TodoResponse, 0, len(todos))
	for i := range todos {
		responses = append(responses, toResponse(&todos[i]))
	}
	return responses, nil
}

func (s *todoService) GetTodo(ctx context.Context, ownerID, id uint) (_ *TodoResponse, err error) {
	defer func() { s.observe("get", err) }()

	todo, err := s.repo.FindForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, s.fail(ctx, "get", ownerID, err)
	}
	resp := toResponse(todo)
	return &resp, nil
}

func (s *todoService) CreateTodo(ctx context.Context, ownerID uint, req CreateTodoRequest) (_ *TodoResponse, err error) {
	defer func() { s.observe("create", err) }()

	req.Text = strings.TrimSpace(req.Text)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	todo, err := s.repo.Insert(ctx, ownerID, req.Text)
	if err != nil {
		return nil, s.fail(ctx, "create", ownerID, err)
	}

	slog.DebugContext(ctx, "todo created",
		slog.Uint64("owner_id", uint64(ownerID)),
		slog.Uint64("todo_id", uint64(todo.ID)),
	)
	resp := toResponse(todo)
	return &resp, nil
}

func (s *todoService) UpdateTodo(ctx context.Context, ownerID, id uint, req UpdateTodoRequest) (_ *TodoResponse, err error) {
	defer func() { s.observe("update", err) }()

	patch := domain.TodoPatch{Completed: req.Completed}
	if req.Text != nil {
		text, err := domain.NormalizeText(*req.Text)
		if err != nil {
			return nil, err
		}
		patch.Text = &text
	}

	todo, err := s.repo.Update(ctx, ownerID, id, patch)
	if err != nil {
		return nil, s.fail(ctx, "update", ownerID, err)
	}
	resp := toResponse(todo)
	return &resp, nil
}

func (s *todoService) DeleteTodo(ctx context.Context, ownerID, id uint) (err error) {
	defer func() { s.observe("delete", err) }()

	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return s.fail(ctx, "delete", ownerID, err)
	}
	return nil
}

func (s *todoService) ToggleAll(ctx context.Context, ownerID uint, req ToggleAllRequest) (_ int64, err error) {
	defer func() { s.observe("toggle_all", err) }()

	if err := validateStruct(req); err != nil {
		return 0, err
	}

	n, err := s.repo.UpdateAllForOwner(ctx, ownerID, *req.Completed)
	if err != nil {
		return 0, s.fail(ctx, "toggle_all", ownerID, err)
	}
	return n, nil
}

func (s *todoService) ClearCompleted(ctx context.Context, ownerID uint) (_ int64, err error) {
	defer func() { s.observe("clear_completed", err) }()

	n, err := s.repo.DeleteCompletedForOwner(ctx, ownerID)
	if err != nil {
		return 0, s.fail(ctx, "clear_completed", ownerID, err)
	}
	return n, nil
}

func (s *todoService) observe(operation string, err error) {
	s.metrics.RecordTodoOperation(operation, metrics.OutcomeOf(err))
}

// fail passes NotFound and validation errors through untouched and logs
// anything else as a store fault.
func (s *todoService) fail(ctx context.Context, operation string, ownerID uint, err error) error {
	if errors.Is(err, domain.ErrTodoNotFound) || domain.IsValidation(err) {
		return err
	}
	slog.ErrorContext(ctx, "todo store failure",
		slog.String("operation", operation),
		slog.Uint64("owner_id", uint64(ownerID)),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s todo: %w", operation, err)
}

func toResponse(todo *domain.Todo) TodoResponse {
	return TodoResponse{
		ID:        todo.ID,
		Text:      todo.Text,
		Completed: todo.Completed,
		CreatedAt: todo.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: todo.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
