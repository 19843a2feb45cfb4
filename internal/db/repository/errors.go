package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("already exists")

	// ErrInUse is returned when a foreign key blocks a write or delete.
	ErrInUse = errors.New("still referenced")

	// ErrPolicyExists is returned when a second password policy is created.
	ErrPolicyExists = errors.New("password policy already exists")

	// ErrPolicyUndeletable is returned for any attempt to delete the password policy.
	ErrPolicyUndeletable = errors.New("password policy cannot be deleted")

	// ErrInvalidOrdering is returned for an ordering field outside the whitelist.
	ErrInvalidOrdering = errors.New("invalid ordering")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// classify maps driver errors onto the package sentinels, keeping the
// original error in the chain.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return &ConstraintError{Op: op, Constraint: pqErr.Constraint, kind: ErrConflict, err: err}
		case pqForeignKeyViolation:
			return &ConstraintError{Op: op, Constraint: pqErr.Constraint, kind: ErrInUse, err: err}
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

// ConstraintError carries the name of the violated constraint.
type ConstraintError struct {
	Op         string
	Constraint string
	kind       error
	err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Op, e.kind, e.Constraint)
}

// Is lets callers match ErrConflict or ErrInUse.
func (e *ConstraintError) Is(target error) bool {
	return target == e.kind
}

func (e *ConstraintError) Unwrap() error {
	return e.err
}

// Field guesses the offending column from a constraint named the way
// PostgreSQL names them by default, e.g. "employees_login_key" → "login".
func (e *ConstraintError) Field() string {
	name := strings.TrimSuffix(strings.TrimSuffix(e.Constraint, "_key"), "_fkey")
	for _, table := range []string{"employees_", "regions_", "users_"} {
		if strings.HasPrefix(name, table) {
			return strings.TrimPrefix(name, table)
		}
	}
	return name
}

// likePattern escapes LIKE wildcards in s and wraps it for a substring match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// expectOneRow turns a zero-row update or delete into ErrNotFound.
func expectOneRow(result sql.Result, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return nil
}
