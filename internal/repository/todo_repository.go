package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tomlord1122/todo-app/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TodoRepository persists todos. Every method is scoped to ownerID: a row
// belonging to another owner behaves exactly like a missing row.
type TodoRepository interface {
	Insert(ctx context.Context, ownerID uint, text string) (*domain.Todo, error)
	FindForOwner(ctx context.Context, ownerID, id uint) (*domain.Todo, error)
	ListForOwner(ctx context.Context, ownerID uint) ([]domain.Todo, error)
	Update(ctx context.Context, ownerID, id uint, patch domain.TodoPatch) (*domain.Todo, error)
	Delete(ctx context.Context, ownerID, id uint) error
	UpdateAllForOwner(ctx context.Context, ownerID uint, completed bool) (int64, error)
	DeleteCompletedForOwner(ctx context.Context, ownerID uint) (int64, error)
}

// gormTodoRepository implements TodoRepository using GORM
type gormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GORM todo repository
func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

func (r *gormTodoRepository) Insert(ctx context.Context, ownerID uint, text string) (*domain.Todo, error) {
	text, err := domain.NormalizeText(text)
	if err != nil {
		return nil, err
	}

	todo := &domain.Todo{UserID: ownerID, Text: text}
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("insert todo: %w", err)
	}
	return todo, nil
}

func (r *gormTodoRepository) FindForOwner(ctx context.Context, ownerID, id uint) (*domain.Todo, error) {
	var todo domain.Todo
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&todo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("find todo %d: %w", id, err)
	}
	return &todo, nil
}

func (r *gormTodoRepository) ListForOwner(ctx context.Context, ownerID uint) ([]domain.Todo, error) {
	todos := make([]domain.Todo, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// Update applies the patch in a single UPDATE ... RETURNING statement, so
// there is no gap between the ownership check and the write.
func (r *gormTodoRepository) Update(ctx context.Context, ownerID, id uint, patch domain.TodoPatch) (*domain.Todo, error) {
	if patch.IsEmpty() {
		return r.FindForOwner(ctx, ownerID, id)
	}

	updates := make(map[string]any, 2)
	if patch.Text != nil {
		text, err := domain.NormalizeText(*patch.Text)
		if err != nil {
			return nil, err
		}
		updates["text"] = text
	}
	if patch.Completed != nil {
		updates["completed"] = *patch.Completed
	}

	var todo domain.Todo
	result := r.db.WithContext(ctx).
		Model(&todo).
		Clauses(clause.Returning{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("update todo %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrTodoNotFound
	}
	return &todo, nil
}

func (r *gormTodoRepository) Delete(ctx context.Context, ownerID, id uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&domain.Todo{})
	if result.Error != nil {
		return fmt.Errorf("delete todo %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func (r *gormTodoRepository) UpdateAllForOwner(ctx context.Context, ownerID uint, completed bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Todo{}).
		Where("user_id = ?", ownerID).
		Update("completed", completed)
	if result.Error != nil {
		return 0, fmt.Errorf("toggle all todos: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormTodoRepository) DeleteCompletedForOwner(ctx context.Context, ownerID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND completed = ?", ownerID, true).
		Delete(&domain.Todo{})
	if result.Error != nil {
		return 0, fmt.Errorf("clear completed todos: %w", result.Error)
	}
	return result.RowsAffected, nil
}
