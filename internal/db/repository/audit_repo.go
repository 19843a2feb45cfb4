package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/ksk-project/employee-service/internal/models"
)

// ActionLogRepository stores the append-only action log
type ActionLogRepository struct {
	db *sqlx.DB
}

// NewActionLogRepository creates a new action log repository
func NewActionLogRepository(db *sqlx.DB) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

// Create appends an entry
func (r *ActionLogRepository) Create(ctx context.Context, entry models.ActionLog) (*models.ActionLog, error) {
	query := `
		INSERT INTO action_logs (user_id, action, subject, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, action, subject, ip, user_agent, created_at
	`

	var created models.ActionLog
	err := r.db.GetContext(ctx, &created, query,
		entry.UserID,
		entry.Action,
		entry.Subject,
		entry.IP,
		entry.UserAgent,
	)
	if err != nil {
		return nil, classify(err, "failed to create action log entry")
	}

	return &created, nil
}

// List returns entries newest first
func (r *ActionLogRepository) List(ctx context.Context, filter models.ActionLogFilter) ([]models.ActionLog, error) {
	qb := sq.Select(
		"a.id", "a.user_id", "u.username AS actor_username", "a.action", "a.subject",
		"a.ip", "a.user_agent", "a.created_at",
	).
		From("action_logs a").
		LeftJoin("users u ON u.id = a.user_id").
		OrderBy("a.created_at DESC", "a.id DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.UserID != nil {
		qb = qb.Where("a.user_id = ?", *filter.UserID)
	}
	if filter.Action != "" {
		qb = qb.Where(sq.Eq{"a.action": filter.Action})
	}
	if filter.From != nil {
		qb = qb.Where(sq.GtOrEq{"a.created_at": *filter.From})
	}
	if filter.To != nil {
		qb = qb.Where(sq.Lt{"a.created_at": *filter.To})
	}
	qb = paginate(qb, filter.Limit, filter.Offset)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build action log query: %w", err)
	}

	entries := []models.ActionLog{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list action log: %w", err)
	}

	return entries, nil
}

// LoginHistoryRepository stores authentication attempts
type LoginHistoryRepository struct {
	db *sqlx.DB
}

// NewLoginHistoryRepository creates a new login history repository
func NewLoginHistoryRepository(db *sqlx.DB) *LoginHistoryRepository {
	return &LoginHistoryRepository{db: db}
}

// Create appends an entry
func (r *LoginHistoryRepository) Create(ctx context.Context, entry models.LoginHistory) (*models.LoginHistory, error) {
	query := `
		INSERT INTO login_history (user_id, username, event, success, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, username, event, success, ip, user_agent, created_at
	`

	var created models.LoginHistory
	err := r.db.GetContext(ctx, &created, query,
		entry.UserID,
		entry.Username,
		entry.Event,
		entry.Success,
		entry.IP,
		entry.UserAgent,
	)
	if err != nil {
		return nil, classify(err, "failed to create login history entry")
	}

	return &created, nil
}

// List returns entries newest first
func (r *LoginHistoryRepository) List(ctx context.Context, filter models.LoginHistoryFilter) ([]models.LoginHistory, error) {
	qb := sq.Select("id", "user_id", "username", "event", "success", "ip", "user_agent", "created_at").
		From("login_history").
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.UserID != nil {
		qb = qb.Where("user_id = ?", *filter.UserID)
	}
	if filter.Username != "" {
		qb = qb.Where(sq.Eq{"username": filter.Username})
	}
	if filter.Success != nil {
		qb = qb.Where(sq.Eq{"success": *filter.Success})
	}
	if filter.From != nil {
		qb = qb.Where(sq.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		qb = qb.Where(sq.Lt{"created_at": *filter.To})
	}
	qb = paginate(qb, filter.Limit, filter.Offset)

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build login history query: %w", err)
	}

	entries := []models.LoginHistory{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list login history: %w", err)
	}

	return entries, nil
}

func paginate(qb sq.SelectBuilder, limit, offset uint64) sq.SelectBuilder {
	if limit > 0 {
		qb = qb.Limit(limit)
	}
	if offset > 0 {
		qb = qb.Offset(offset)
	}
	return qb
}
