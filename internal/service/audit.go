package service

import (
	"context"

	"github.com/ksk-project/employee-service/internal/access"
	"github.com/ksk-project/employee-service/internal/models"
)

// AuditService reads the action log and login history. Both logs are
// append-only; nothing here mutates them.
type AuditService struct {
	actions ActionLogReader
	logins  LoginHistoryReader
}

// NewAuditService creates a new audit service
func NewAuditService(actions ActionLogReader, logins LoginHistoryReader) *AuditService {
	return &AuditService{
		actions: actions,
		logins:  logins,
	}
}

// ListActions returns action log entries, newest first
func (s *AuditService) ListActions(ctx context.Context, actor *models.User, filter models.ActionLogFilter) ([]models.ActionLog, error) {
	if !access.AllowAdministration(actor) {
		return nil, ErrForbidden
	}

	filter.Limit = pageSize(filter.Limit)
	return s.actions.List(ctx, filter)
}

// ListLogins returns login history entries, newest first
func (s *AuditService) ListLogins(ctx context.Context, actor *models.User, filter models.LoginHistoryFilter) ([]models.LoginHistory, error) {
	if !access.AllowAdministration(actor) {
		return nil, ErrForbidden
	}

	filter.Limit = pageSize(filter.Limit)
	return s.logins.List(ctx, filter)
}
