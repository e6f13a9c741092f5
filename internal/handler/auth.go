package handler

import (
	"errors"
	"net/http"

	"github.com/todoapp/todoapp-go/internal/logutil"
	"github.com/todoapp/todoapp-go/internal/middleware"
	"github.com/todoapp/todoapp-go/internal/model"
	"github.com/todoapp/todoapp-go/internal/service"
)

// AuthHandler handles HTTP requests for user accounts and sessions.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// HandleRegister handles POST /users requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrEmailTaken):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			storeError(w, r, err)
		}
		return
	}

	h.startSession(w, r, user)
}

// HandleLogin handles POST /users/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.FindByCredentials(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse(service.ErrInvalidCredentials.Error()))
		return
	}

	h.startSession(w, r, user)
}

// HandleMe handles GET /users/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, model.NewUserResponse(user))
}

// HandleLogout handles DELETE /users/me/token requests. Only the token the
// request was made with is revoked.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	token, hasToken := middleware.TokenFromContext(r.Context())
	if !ok || !hasToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.service.RevokeToken(r.Context(), user, token); err != nil {
		storeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *model.User) {
	token, err := h.service.IssueSessionToken(r.Context(), user)
	if err != nil {
		storeError(w, r, err)
		return
	}

	w.Header().Set(middleware.AuthHeader, token)
	writeJSON(w, http.StatusOK, model.NewUserResponse(user))
}

// storeError reports a failure of the backing store. The message is passed
// through to the client.
func storeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logutil.GetOrDefault(r.Context())
	log.Warn().Err(err).Msg("Store operation failed")
	writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
}
