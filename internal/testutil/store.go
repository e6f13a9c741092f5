// Package testutil provides in-memory stores that behave like the MongoDB
// repositories, for service and handler tests.
package testutil

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/todoapp/todoapp-go/internal/model"
	"github.com/todoapp/todoapp-go/internal/repository"
)

// UserStore is an in-memory user collection with a unique email index.
type UserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*model.User

	// Err, when set, is returned by every call.
	Err error
	// PullErr, when set, is returned by PullToken only.
	PullErr error
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[primitive.ObjectID]*model.User)}
}

func (s *UserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Tokens == nil {
		user.Tokens = []model.Token{}
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *UserStore) FindByToken(_ context.Context, id primitive.ObjectID, access, token string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	u, ok := s.users[id]
	if !ok || !u.HasToken(access, token) {
		return nil, repository.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *UserStore) PushToken(_ context.Context, id primitive.ObjectID, token model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Tokens = append(u.Tokens, token)
	return nil
}

func (s *UserStore) PullToken(_ context.Context, id primitive.ObjectID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.PullErr != nil {
		return s.PullErr
	}

	u, ok := s.users[id]
	if !ok {
		return nil
	}
	kept := make([]model.Token, 0, len(u.Tokens))
	for _, t := range u.Tokens {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	u.Tokens = kept
	return nil
}

// Tokens returns a snapshot of the stored token list of id.
func (s *UserStore) Tokens(id primitive.ObjectID) []model.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return append([]model.Token(nil), u.Tokens...)
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.Tokens = append([]model.Token{}, u.Tokens...)
	return &c
}

// TodoStore is an in-memory todo collection kept in insertion order.
type TodoStore struct {
	mu    sync.Mutex
	todos []model.Todo

	// Err, when set, is returned by every call.
	Err error
}

func NewTodoStore() *TodoStore {
	return &TodoStore{}
}

func (s *TodoStore) Create(_ context.Context, todo *model.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	if todo.ID.IsZero() {
		todo.ID = primitive.NewObjectID()
	}
	s.todos = append(s.todos, *todo)
	return nil
}

func (s *TodoStore) ListByOwner(_ context.Context, owner primitive.ObjectID) ([]model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	todos := []model.Todo{}
	for _, t := range s.todos {
		if t.Creator == owner {
			todos = append(todos, t)
		}
	}
	return todos, nil
}

func (s *TodoStore) GetForOwner(_ context.Context, id, owner primitive.ObjectID) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	i := s.find(id, owner)
	if i < 0 {
		return nil, repository.ErrTodoNotFound
	}
	t := s.todos[i]
	return &t, nil
}

func (s *TodoStore) UpdateForOwner(_ context.Context, id, owner primitive.ObjectID, patch model.TodoPatch) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	i := s.find(id, owner)
	if i < 0 {
		return nil, repository.ErrTodoNotFound
	}
	t := &s.todos[i]
	if patch.Text != nil {
		t.Text = *patch.Text
	}
	t.Completed = patch.Completed
	t.CompletedAt = nil
	if patch.Completed && patch.CompletedAt != nil {
		at := *patch.CompletedAt
		t.CompletedAt = &at
	}
	updated := *t
	return &updated, nil
}

func (s *TodoStore) DeleteForOwner(_ context.Context, id, owner primitive.ObjectID) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	i := s.find(id, owner)
	if i < 0 {
		return nil, repository.ErrTodoNotFound
	}
	deleted := s.todos[i]
	s.todos = append(s.todos[:i], s.todos[i+1:]...)
	return &deleted, nil
}

func (s *TodoStore) find(id, owner primitive.ObjectID) int {
	for i, t := range s.todos {
		if t.ID == id && t.Creator == owner {
			return i
		}
	}
	return -1
}
