package handler

import (
	"net/http"

	"github.com/ksk-project/employee-service/internal/api"
	"github.com/ksk-project/employee-service/internal/middleware"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/ksk-project/employee-service/internal/service"
	"github.com/sirupsen/logrus"
)

// PasswordPolicyHandler handles the password policy and password generation
type PasswordPolicyHandler struct {
	policies *service.PasswordPolicyService
	log      logrus.FieldLogger
}

// NewPasswordPolicyHandler creates a new password policy handler
func NewPasswordPolicyHandler(policies *service.PasswordPolicyService, log logrus.FieldLogger) *PasswordPolicyHandler {
	return &PasswordPolicyHandler{policies: policies, log: log}
}

func (h *PasswordPolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	policy, err := h.policies.Get(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, policy)
}

func (h *PasswordPolicyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordPolicyRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	policy, err := h.policies.Create(r.Context(), middleware.UserFrom(r.Context()), req)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusCreated, policy)
}

func (h *PasswordPolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordPolicyRequest
	if err := api.Decode(r, &req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	policy, err := h.policies.Update(r.Context(), middleware.UserFrom(r.Context()), req)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, policy)
}

func (h *PasswordPolicyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.policies.Delete(r.Context(), middleware.UserFrom(r.Context()))
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if api.Status(err) == http.StatusMethodNotAllowed {
		w.Header().Set("Allow", "GET, POST, PUT")
	}
	api.HandleError(w, r, h.log, err)
}

type generatedPassword struct {
	Password string `json:"password"`
}

// Generate returns a fresh password under the current policy
func (h *PasswordPolicyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	password, err := h.policies.GeneratePassword(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	api.JSON(w, http.StatusOK, generatedPassword{Password: password})
}
