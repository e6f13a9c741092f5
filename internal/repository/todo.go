package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/todoapp/todoapp-go/internal/model"
)

// ErrTodoNotFound covers both a missing todo and one owned by someone else.
var ErrTodoNotFound = errors.New("todo not found")

// TodoRepository handles todo persistence operations. Every lookup is scoped
// by owner, so a todo owned by another user is indistinguishable from one
// that does not exist.
type TodoRepository struct {
	col *mongo.Collection
}

// NewTodoRepository creates a new TodoRepository.
func NewTodoRepository(db *mongo.Database) *TodoRepository {
	if db == nil {
		return &TodoRepository{}
	}
	return &TodoRepository{col: db.Collection(todosCollection)}
}

// EnsureIndexes creates the owner index used by every query.
func (r *TodoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "_creator", Value: 1}, {Key: "_id", Value: 1}},
		Options: options.Index().SetName("creator_id"),
	})
	if err != nil {
		return fmt.Errorf("todos index: %w", err)
	}
	return nil
}

// Create inserts todo and sets its generated ID.
func (r *TodoRepository) Create(ctx context.Context, todo *model.Todo) error {
	if todo.ID.IsZero() {
		todo.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, todo)
	return err
}

// ListByOwner returns the owner's todos in insertion order.
func (r *TodoRepository) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]model.Todo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"_creator": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	todos := []model.Todo{}
	if err := cur.All(ctx, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// GetForOwner retrieves a todo by ID if it belongs to owner.
func (r *TodoRepository) GetForOwner(ctx context.Context, id, owner primitive.ObjectID) (*model.Todo, error) {
	todo := &model.Todo{}
	err := r.col.FindOne(ctx, ownerFilter(id, owner)).Decode(todo)
	return notFound(todo, err)
}

// UpdateForOwner applies patch atomically and returns the updated todo.
func (r *TodoRepository) UpdateForOwner(ctx context.Context, id, owner primitive.ObjectID, patch model.TodoPatch) (*model.Todo, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	todo := &model.Todo{}
	err := r.col.FindOneAndUpdate(ctx, ownerFilter(id, owner), updateDocument(patch), opts).Decode(todo)
	return notFound(todo, err)
}

// DeleteForOwner removes the todo and returns the deleted document.
func (r *TodoRepository) DeleteForOwner(ctx context.Context, id, owner primitive.ObjectID) (*model.Todo, error) {
	todo := &model.Todo{}
	err := r.col.FindOneAndDelete(ctx, ownerFilter(id, owner)).Decode(todo)
	return notFound(todo, err)
}

// updateDocument builds the update for patch. completedAt is only kept
// while the todo is completed.
func updateDocument(patch model.TodoPatch) bson.M {
	set := bson.M{"completed": patch.Completed}
	if patch.Text != nil {
		set["text"] = *patch.Text
	}
	update := bson.M{"$set": set}
	if patch.Completed && patch.CompletedAt != nil {
		set["completedAt"] = *patch.CompletedAt
	} else {
		update["$unset"] = bson.M{"completedAt": ""}
	}
	return update
}

func ownerFilter(id, owner primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "_creator": owner}
}

func notFound(todo *model.Todo, err error) (*model.Todo, error) {
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	return todo, nil
}
