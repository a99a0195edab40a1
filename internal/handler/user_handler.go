package handler

import (
	"net/http"

	"account-ledger/internal/domain"
	"account-ledger/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// SaveUser creates the user, or updates it when the body carries an id.
func (h *UserHandler) SaveUser(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := decodeJSON(r, &user); err != nil {
		WriteError(w, err)
		return
	}
	if err := validateRequest(&user); err != nil {
		WriteError(w, err)
		return
	}

	saved, err := h.userService.SaveUser(r.Context(), &user)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, saved)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.userService.DeleteUser(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
