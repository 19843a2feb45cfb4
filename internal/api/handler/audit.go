package handler

import (
	"net/http"

	"github.com/ksk-project/employee-service/internal/api"
	"github.com/ksk-project/employee-service/internal/middleware"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/ksk-project/employee-service/internal/service"
	"github.com/sirupsen/logrus"
)

// AuditHandler exposes the action log and login history read-only
type AuditHandler struct {
	audit *service.AuditService
	log   logrus.FieldLogger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit *service.AuditService, log logrus.FieldLogger) *AuditHandler {
	return &AuditHandler{audit: audit, log: log}
}

func (h *AuditHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r)
	filter := models.ActionLogFilter{
		UserID: p.id("user_id"),
		Action: p.str("action"),
		From:   p.timestamp("from"),
		To:     p.timestamp("to"),
		Limit:  p.count("limit"),
		Offset: p.count("offset"),
	}
	if err := p.err(); err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	entries, err := h.audit.ListActions(r.Context(), middleware.UserFrom(r.Context()), filter)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, entries)
}

func (h *AuditHandler) ListLogins(w http.ResponseWriter, r *http.Request) {
	p := newQueryParser(r)
	filter := models.LoginHistoryFilter{
		UserID:   p.id("user_id"),
		Username: p.str("username"),
		Success:  p.flag("success"),
		From:     p.timestamp("from"),
		To:       p.timestamp("to"),
		Limit:    p.count("limit"),
		Offset:   p.count("offset"),
	}
	if err := p.err(); err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	entries, err := h.audit.ListLogins(r.Context(), middleware.UserFrom(r.Context()), filter)
	if err != nil {
		api.HandleError(w, r, h.log, err)
		return
	}

	api.JSON(w, http.StatusOK, entries)
}
