package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Todo represents a document in the todos collection.
// CompletedAt is set, in unix milliseconds, exactly when Completed is true.
type Todo struct {
	ID          primitive.ObjectID `json:"_id"                   bson:"_id,omitempty"`
	Text        string             `json:"text"                  bson:"text"`
	Completed   bool               `json:"completed"             bson:"completed"`
	CompletedAt *int64             `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	Creator     primitive.ObjectID `json:"_creator"              bson:"_creator"`
}

// TodoPatch is the set of changes applied by a single update.
type TodoPatch struct {
	Text        *string
	Completed   bool
	CompletedAt *int64
}

// CreateTodoRequest is the JSON body for POST /todos.
type CreateTodoRequest struct {
	Text string `json:"text" validate:"required"`
}

// UpdateTodoRequest is the JSON body for PATCH /todos/{id}.
// Pointers distinguish a missing field from its zero value.
type UpdateTodoRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

// TodoResponse wraps a single todo.
type TodoResponse struct {
	Todo Todo `json:"todo"`
}

// TodoListResponse wraps the caller's todos.
type TodoListResponse struct {
	Todos []Todo `json:"todos"`
}
