package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/ksk-project/employee-service/internal/models"
)

const policyColumns = `uppercase, lowercase, digits, symbols, allowed_symbols, updated_at`

// PasswordPolicyRepository manages the single password_policy row. The
// table's primary key is a constant TRUE, so the database itself refuses
// a second row.
type PasswordPolicyRepository struct {
	db *sqlx.DB
}

// NewPasswordPolicyRepository creates a new password policy repository
func NewPasswordPolicyRepository(db *sqlx.DB) *PasswordPolicyRepository {
	return &PasswordPolicyRepository{db: db}
}

// Get returns the stored policy or ErrNotFound
func (r *PasswordPolicyRepository) Get(ctx context.Context) (*models.PasswordPolicy, error) {
	var policy models.PasswordPolicy
	if err := r.db.GetContext(ctx, &policy, `SELECT `+policyColumns+` FROM password_policy`); err != nil {
		return nil, classify(err, "failed to get password policy")
	}

	return &policy, nil
}

// GetOrCreate returns the stored policy, inserting the column defaults on
// first use.
func (r *PasswordPolicyRepository) GetOrCreate(ctx context.Context) (*models.PasswordPolicy, error) {
	query := `
		INSERT INTO password_policy (singleton) VALUES (TRUE)
		ON CONFLICT (singleton) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return nil, fmt.Errorf("failed to bootstrap password policy: %w", err)
	}

	return r.Get(ctx)
}

// Create stores p as the policy. It fails with ErrPolicyExists when one
// is already stored.
func (r *PasswordPolicyRepository) Create(ctx context.Context, p models.PasswordPolicy) (*models.PasswordPolicy, error) {
	query := `
		INSERT INTO password_policy (singleton, uppercase, lowercase, digits, symbols, allowed_symbols)
		VALUES (TRUE, $1, $2, $3, $4, $5)
		RETURNING ` + policyColumns

	var created models.PasswordPolicy
	err := r.db.GetContext(ctx, &created, query, p.Uppercase, p.Lowercase, p.Digits, p.Symbols, p.AllowedSymbols)
	if err != nil {
		err = classify(err, "failed to create password policy")
		if errors.Is(err, ErrConflict) {
			return nil, ErrPolicyExists
		}
		return nil, err
	}

	return &created, nil
}

// Update replaces the policy, creating it if it was never stored
func (r *PasswordPolicyRepository) Update(ctx context.Context, p models.PasswordPolicy) (*models.PasswordPolicy, error) {
	query := `
		INSERT INTO password_policy (singleton, uppercase, lowercase, digits, symbols, allowed_symbols)
		VALUES (TRUE, $1, $2, $3, $4, $5)
		ON CONFLICT (singleton) DO UPDATE
		SET uppercase = EXCLUDED.uppercase,
			lowercase = EXCLUDED.lowercase,
			digits = EXCLUDED.digits,
			symbols = EXCLUDED.symbols,
			allowed_symbols = EXCLUDED.allowed_symbols,
			updated_at = NOW()
		RETURNING ` + policyColumns

	var updated models.PasswordPolicy
	err := r.db.GetContext(ctx, &updated, query, p.Uppercase, p.Lowercase, p.Digits, p.Symbols, p.AllowedSymbols)
	if err != nil {
		return nil, classify(err, "failed to update password policy")
	}

	return &updated, nil
}

// Delete always fails; the policy can only be edited.
func (r *PasswordPolicyRepository) Delete(context.Context) error {
	return ErrPolicyUndeletable
}
