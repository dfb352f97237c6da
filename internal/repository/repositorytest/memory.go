// Package repositorytest provides in-memory repositories with the same
// ownership semantics as the GORM ones, plus a contract suite that any
// TodoRepository implementation must pass.
package repositorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Tomlord1122/todo-app/internal/domain"
	"github.com/Tomlord1122/todo-app/internal/repository"

	"github.com/google/uuid"
)

var (
	_ repository.TodoRepository = (*TodoRepository)(nil)
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.SessionStore   = (*SessionStore)(nil)
)

// TodoRepository is an in-memory repository.TodoRepository.
type TodoRepository struct {
	mu     sync.Mutex
	nextID uint
	todos  map[uint]domain.Todo
}

func NewTodoRepository() *TodoRepository {
	return &TodoRepository{todos: make(map[uint]domain.Todo)}
}

func (r *TodoRepository) Insert(_ context.Context, ownerID uint, text string) (*domain.Todo, error) {
	text, err := domain.NormalizeText(text)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now()
	todo := domain.Todo{
		ID:        r.nextID,
		UserID:    ownerID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.todos[todo.ID] = todo
	return &todo, nil
}

func (r *TodoRepository) FindForOwner(_ context.Context, ownerID, id uint) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	todo, ok := r.todos[id]
	if !ok || todo.UserID != ownerID {
		return nil, domain.ErrTodoNotFound
	}
	return &todo, nil
}

func (r *TodoRepository) ListForOwner(_ context.Context, ownerID uint) ([]domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	todos := make([]domain.Todo, 0)
	for _, todo := range r.todos {
		if todo.UserID == ownerID {
			todos = append(todos, todo)
		}
	}
	sort.Slice(todos, func(i, j int) bool {
		if !todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].CreatedAt.Before(todos[j].CreatedAt)
		}
		return todos[i].ID < todos[j].ID
	})
	return todos, nil
}

func (r *TodoRepository) Update(_ context.Context, ownerID, id uint, patch domain.TodoPatch) (*domain.Todo, error) {
	var text string
	if patch.Text != nil {
		var err error
		if text, err = domain.NormalizeText(*patch.Text); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	todo, ok := r.todos[id]
	if !ok || todo.UserID != ownerID {
		return nil, domain.ErrTodoNotFound
	}
	if patch.IsEmpty() {
		return &todo, nil
	}
	if patch.Text != nil {
		todo.Text = text
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
	}
	todo.UpdatedAt = time.Now()
	r.todos[id] = todo
	return &todo, nil
}

func (r *TodoRepository) Delete(_ context.Context, ownerID, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	todo, ok := r.todos[id]
	if !ok || todo.UserID != ownerID {
		return domain.ErrTodoNotFound
	}
	delete(r.todos, id)
	return nil
}

func (r *TodoRepository) UpdateAllForOwner(_ context.Context, ownerID uint, completed bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	now := time.Now()
	for id, todo := range r.todos {
		if todo.UserID != ownerID {
			continue
		}
		todo.Completed = completed
		todo.UpdatedAt = now
		r.todos[id] = todo
		n++
	}
	return n, nil
}

func (r *TodoRepository) DeleteCompletedForOwner(_ context.Context, ownerID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, todo := range r.todos {
		if todo.UserID == ownerID && todo.Completed {
			delete(r.todos, id)
			n++
		}
	}
	return n, nil
}

// UserRepository is an in-memory repository.UserRepository.
type UserRepository struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uint]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	r.nextID++
	now := time.Now()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type session struct {
	userID    uint
	expiresAt time.Time
}

// SessionStore is an in-memory repository.SessionStore honouring TTLs.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]session)}
}

func (s *SessionStore) Create(_ context.Context, userID uint, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := uuid.NewString()
	s.sessions[token] = session{userID: userID, expiresAt: time.Now().Add(ttl)}
	return token, nil
}

func (s *SessionStore) Lookup(_ context.Context, token string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || time.Now().After(sess.expiresAt) {
		delete(s.sessions, token)
		return 0, domain.ErrSessionNotFound
	}
	return sess.userID, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
