package handler

import (
	"net/http"

	"github.com/ksk-project/employee-service/internal/api"
	"github.com/ksk-project/employee-service/internal/middleware"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/ksk-project/employee-service/internal/service"
	"github.com/sirupsen/logrus"
)

// UserHandler handles staff account administration
type UserHandler struct {
	users *service.UserService
	log   logrus.FieldLogger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	user, err := h.users.Get(r.Context(), middleware.UserFrom(r.Context()), id)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.UserRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	user, err := h.users.Create(r.Context(), middleware.UserFrom(r.Context()), req)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	var req models.UserUpdateRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	user, err := h.users.Update(r.Context(), middleware.UserFrom(r.Context()), id, req)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, user)
}

// Deactivate handles DELETE; accounts are disabled, not removed
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	if err := h.users.Deactivate(r.Context(), middleware.UserFrom(r.Context()), id); err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
