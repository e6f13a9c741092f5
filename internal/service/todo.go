package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/todoapp/todoapp-go/internal/model"
	"github.com/todoapp/todoapp-go/internal/repository"
)

// ErrTodoNotFound is returned for todos that are missing or owned by another user.
var ErrTodoNotFound = errors.New("todo not found")

// TodoStore persists todos scoped by owner.
type TodoStore interface {
	Create(ctx context.Context, todo *model.Todo) error
	ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]model.Todo, error)
	GetForOwner(ctx context.Context, id, owner primitive.ObjectID) (*model.Todo, error)
	UpdateForOwner(ctx context.Context, id, owner primitive.ObjectID, patch model.TodoPatch) (*model.Todo, error)
	DeleteForOwner(ctx context.Context, id, owner primitive.ObjectID) (*model.Todo, error)
}

// TodoService handles todo business logic.
type TodoService struct {
	repo TodoStore
	now  func() time.Time
}

// NewTodoService creates a new TodoService.
func NewTodoService(repo TodoStore) *TodoService {
	return &TodoService{repo: repo, now: time.Now}
}

// Create stores a new, uncompleted todo for owner.
func (s *TodoService) Create(ctx context.Context, owner primitive.ObjectID, req model.CreateTodoRequest) (*model.Todo, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	todo := &model.Todo{
		Text:    req.Text,
		Creator: owner,
	}
	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

// ListByOwner returns every todo of owner in creation order.
func (s *TodoService) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]model.Todo, error) {
	todos, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, nil
}

// GetForOwner returns the todo id if owner created it.
func (s *TodoService) GetForOwner(ctx context.Context, id, owner primitive.ObjectID) (*model.Todo, error) {
	return todoResult(s.repo.GetForOwner(ctx, id, owner))
}

// UpdateForOwner applies req to the todo. Only text and completed are
// honoured; marking a todo complete stamps completedAt, anything else
// clears it. A todo the owner cannot see is reported as ErrTodoNotFound
// before any validation error.
func (s *TodoService) UpdateForOwner(ctx context.Context, id, owner primitive.ObjectID, req model.UpdateTodoRequest) (*model.Todo, error) {
	var patch model.TodoPatch
	if req.Text != nil {
		text := strings.TrimSpace(*req.Text)
		if text == "" {
			if _, err := todoResult(s.repo.GetForOwner(ctx, id, owner)); err != nil {
				return nil, err
			}
			return nil, &ValidationError{Fields: []string{"text is required"}}
		}
		patch.Text = &text
	}
	if req.Completed != nil && *req.Completed {
		at := s.now().UnixMilli()
		patch.Completed = true
		patch.CompletedAt = &at
	}

	return todoResult(s.repo.UpdateForOwner(ctx, id, owner, patch))
}

// DeleteForOwner removes the todo and returns it as it was.
func (s *TodoService) DeleteForOwner(ctx context.Context, id, owner primitive.ObjectID) (*model.Todo, error) {
	return todoResult(s.repo.DeleteForOwner(ctx, id, owner))
}

func todoResult(todo *model.Todo, err error) (*model.Todo, error) {
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	return todo, nil
}
