package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/todoapp/todoapp-go/internal/middleware"
	"github.com/todoapp/todoapp-go/internal/model"
	"github.com/todoapp/todoapp-go/internal/service"
)

// TodoHandler handles HTTP requests for the caller's todos.
type TodoHandler struct {
	service *service.TodoService
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{service: svc}
}

// HandleCreate handles POST /todos requests.
func (h *TodoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req model.CreateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := h.service.Create(r.Context(), user.ID, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		storeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, todo)
}

// HandleList handles GET /todos requests.
func (h *TodoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	todos, err := h.service.ListByOwner(r.Context(), user.ID)
	if err != nil {
		storeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.TodoListResponse{Todos: todos})
}

// HandleGet handles GET /todos/{id} requests.
func (h *TodoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, id, ok := todoTarget(w, r)
	if !ok {
		return
	}

	todo, err := h.service.GetForOwner(r.Context(), id, user.ID)
	writeTodo(w, r, todo, err)
}

// HandleUpdate handles PATCH /todos/{id} requests.
func (h *TodoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, id, ok := todoTarget(w, r)
	if !ok {
		return
	}

	// Foreign and missing todos answer 404 even when the body is unusable.
	var req model.UpdateTodoRequest
	if err := readJSON(w, r, &req); err != nil {
		if _, lookupErr := h.service.GetForOwner(r.Context(), id, user.ID); lookupErr != nil {
			writeTodo(w, r, nil, lookupErr)
			return
		}
		writeDecodeError(w, err)
		return
	}

	todo, err := h.service.UpdateForOwner(r.Context(), id, user.ID, req)
	writeTodo(w, r, todo, err)
}

// HandleDelete handles DELETE /todos/{id} requests.
func (h *TodoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, id, ok := todoTarget(w, r)
	if !ok {
		return
	}

	todo, err := h.service.DeleteForOwner(r.Context(), id, user.ID)
	writeTodo(w, r, todo, err)
}

// todoTarget resolves the caller and the todo id from the URL. Malformed ids
// are answered with 404 before the store is consulted.
func todoTarget(w http.ResponseWriter, r *http.Request) (*model.User, primitive.ObjectID, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return nil, primitive.NilObjectID, false
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return nil, primitive.NilObjectID, false
	}

	return user, id, true
}

func writeTodo(w http.ResponseWriter, r *http.Request, todo *model.Todo, err error) {
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTodoNotFound):
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, service.ErrValidation):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			storeError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, model.TodoResponse{Todo: *todo})
}
