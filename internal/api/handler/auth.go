package handler

import (
	"net/http"

	"github.com/ksk-project/employee-service/internal/api"
	"github.com/ksk-project/employee-service/internal/middleware"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/ksk-project/employee-service/internal/service"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles login, logout and the caller's own account
type AuthHandler struct {
	auth *service.AuthService
	log  logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *service.AuthService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login exchanges credentials for a token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		api.HandleError(w, r, h.log, service.NewValidationError("username", "username and password are required"))
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Logout records the end of the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context(), middleware.UserFrom(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, middleware.UserFrom(r.Context()))
}

// ChangePassword changes the caller's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordChangeRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	if err := h.auth.ChangePassword(r.Context(), middleware.UserFrom(r.Context()), req); err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
