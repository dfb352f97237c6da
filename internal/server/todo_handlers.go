package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Tomlord1122/todo-app/internal/domain"
	"github.com/Tomlord1122/todo-app/internal/service"
)

type listUser struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type listItem struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// todoListView is what the todo list page renders.
type todoListView struct {
	User  listUser   `json:"user"`
	Todos []listItem `json:"todos"`
}

// updateTodoBody keeps the raw PATCH fields so that an explicit null can be
// told apart from an omitted field.
type updateTodoBody struct {
	Text      json.RawMessage `json:"text"`
	Completed json.RawMessage `json:"completed"`
}

// request converts the body into an UpdateTodoRequest. Fields that are
// present must carry a value of the right type; null is not a value.
func (b updateTodoBody) request() (service.UpdateTodoRequest, error) {
	var req service.UpdateTodoRequest
	ve := &domain.ValidationError{}

	if b.Text != nil {
		var text string
		if isJSONNull(b.Text) || json.Unmarshal(b.Text, &text) != nil {
			ve.Add("text", "The text field must be a string.")
		} else {
			req.Text = &text
		}
	}
	if b.Completed != nil {
		var completed bool
		if isJSONNull(b.Completed) || json.Unmarshal(b.Completed, &completed) != nil {
			ve.Add("completed", "The completed field must be true or false.")
		} else {
			req.Completed = &completed
		}
	}

	if len(ve.Fields) > 0 {
		return service.UpdateTodoRequest{}, ve
	}
	return req, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func (s *Server) listTodosHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	user, err := s.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			respondWithError(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
			return
		}
		respondWithServiceError(w, r, err)
		return
	}

	todos, err := s.todos.ListTodos(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	view := todoListView{
		User:  listUser{ID: user.ID, Name: user.Name},
		Todos: make([]listItem, 0, len(todos)),
	}
	for _, t := range todos {
		view.Todos = append(view.Todos, listItem{ID: t.ID, Text: t.Text, Completed: t.Completed})
	}
	respondWithJSON(w, http.StatusOK, view)
}

func (s *Server) getTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	todo, err := s.todos.GetTodo(r.Context(), userID, id)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	if _, err := s.todos.CreateTodo(r.Context(), userID, req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	redirectToTodos(w, r)
}

func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}
	var body updateTodoBody
	if !decodeJSON(w, r, &body) {
		return
	}
	req, err := body.request()
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	if _, err := s.todos.UpdateTodo(r.Context(), userID, id, req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	redirectToTodos(w, r)
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	if err := s.todos.DeleteTodo(r.Context(), userID, id); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	redirectToTodos(w, r)
}

func (s *Server) toggleAllHandler(w http.ResponseWriter, r *http.Request) {
	var req service.ToggleAllRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, _ := UserIDFromContext(r.Context())

	if _, err := s.todos.ToggleAll(r.Context(), userID, req); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	redirectToTodos(w, r)
}

func (s *Server) clearCompletedHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	if _, err := s.todos.ClearCompleted(r.Context(), userID); err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	redirectToTodos(w, r)
}
