package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ksk-project/employee-service/internal/models"
)

const userColumns = `id, username, password_hash, name, role, is_superuser, is_active, created_at, updated_at`

// UserRepository handles staff account data access
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, classify(err, "failed to get user")
	}

	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, classify(err, "failed to get user by username")
	}

	return &user, nil
}

// List retrieves all users
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username ASC`

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, password_hash, name, role, is_superuser, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	var created models.User
	err := r.db.GetContext(ctx, &created, query,
		user.Username,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.IsSuperuser,
		user.IsActive,
	)
	if err != nil {
		return nil, classify(err, "failed to create user")
	}

	return &created, nil
}

// Update changes profile, role and activation. Username and password are
// left alone.
func (r *UserRepository) Update(ctx context.Context, user models.User) (*models.User, error) {
	query := `
		UPDATE users
		SET name = $1, role = $2, is_superuser = $3, is_active = $4, updated_at = $5
		WHERE id = $6
		RETURNING ` + userColumns

	var updated models.User
	err := r.db.GetContext(ctx, &updated, query,
		user.Name,
		user.Role,
		user.IsSuperuser,
		user.IsActive,
		time.Now(),
		user.ID,
	)
	if err != nil {
		return nil, classify(err, "failed to update user")
	}

	return &updated, nil
}

// UpdatePassword updates a user's password
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update user password: %w", err)
	}

	return expectOneRow(result, "failed to update user password")
}

// Deactivate disables the account. Users are never hard-deleted because
// audit entries reference them.
func (r *UserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET is_active = FALSE, updated_at = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	return expectOneRow(result, "failed to deactivate user")
}
