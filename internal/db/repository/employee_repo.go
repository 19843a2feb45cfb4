package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ksk-project/employee-service/internal/models"
)

const employeeColumns = `id, last_name, first_name, patronymic, region_name_id, region_code_id,
	note_date, note_number, login, password, action, status, created_at, updated_at`

// joined reads fill both region references through sqlx's nested struct mapping
var employeeJoinedColumns = []string{
	"e.id", "e.last_name", "e.first_name", "e.patronymic", "e.region_name_id", "e.region_code_id",
	"e.note_date", "e.note_number", "e.login", "e.password", "e.action", "e.status",
	"e.created_at", "e.updated_at",
	`rn.id AS "region_name.id"`, `rn.code AS "region_name.code"`, `rn.name AS "region_name.name"`,
	`rn.created_at AS "region_name.created_at"`, `rn.updated_at AS "region_name.updated_at"`,
	`rc.id AS "region_code.id"`, `rc.code AS "region_code.code"`, `rc.name AS "region_code.name"`,
	`rc.created_at AS "region_code.created_at"`, `rc.updated_at AS "region_code.updated_at"`,
}

// orderings maps accepted ordering keys onto columns.
var orderings = map[string]string{
	"last_name":   "e.last_name",
	"first_name":  "e.first_name",
	"patronymic":  "e.patronymic",
	"login":       "e.login",
	"note_date":   "e.note_date",
	"note_number": "e.note_number",
	"status":      "e.status",
	"created_at":  "e.created_at",
	"region":      "rn.code",
	"id":          "e.id",
}

// EmployeeRepository handles employee data access
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) selectJoined() sq.SelectBuilder {
	return sq.Select(employeeJoinedColumns...).
		From("employees e").
		Join("regions rn ON rn.id = e.region_name_id").
		Join("regions rc ON rc.id = e.region_code_id").
		PlaceholderFormat(sq.Dollar)
}

// GetByID retrieves an employee together with both regions
func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	query, args, err := r.selectJoined().Where("e.id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build employee query: %w", err)
	}

	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, args...); err != nil {
		return nil, classify(err, "failed to get employee")
	}

	return &employee, nil
}

// Search lists employees matching filter. Query is a case-insensitive
// substring match over the name parts and the note number.
func (r *EmployeeRepository) Search(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error) {
	qb, err := applyEmployeeFilter(r.selectJoined(), filter)
	if err != nil {
		return nil, err
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build employee query: %w", err)
	}

	employees := []models.Employee{}
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search employees: %w", err)
	}

	return employees, nil
}

func applyEmployeeFilter(qb sq.SelectBuilder, f models.EmployeeFilter) (sq.SelectBuilder, error) {
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := likePattern(q)
		qb = qb.Where(sq.Or{
			sq.ILike{"e.last_name": pattern},
			sq.ILike{"e.first_name": pattern},
			sq.ILike{"e.patronymic": pattern},
			sq.ILike{"e.note_number": pattern},
		})
	}
	if f.LastName != "" {
		qb = qb.Where(sq.ILike{"e.last_name": likePattern(f.LastName)})
	}
	if f.FirstName != "" {
		qb = qb.Where(sq.ILike{"e.first_name": likePattern(f.FirstName)})
	}
	if f.Patronymic != "" {
		qb = qb.Where(sq.ILike{"e.patronymic": likePattern(f.Patronymic)})
	}
	if f.NoteNumber != "" {
		qb = qb.Where(sq.ILike{"e.note_number": likePattern(f.NoteNumber)})
	}
	if f.RegionID != nil {
		qb = qb.Where("e.region_name_id = ?", *f.RegionID)
	}
	if f.NoteDate != nil {
		qb = qb.Where(sq.Eq{"e.note_date": *f.NoteDate})
	}
	if f.Status != "" {
		qb = qb.Where(sq.Eq{"e.status": f.Status})
	}
	if f.CreatedOn != nil {
		day := f.CreatedOn.Time
		qb = qb.Where(sq.And{
			sq.GtOrEq{"e.created_at": day},
			sq.Lt{"e.created_at": day.AddDate(0, 0, 1)},
		})
	}

	orderBy, err := orderClause(f.Ordering)
	if err != nil {
		return qb, err
	}
	qb = qb.OrderBy(orderBy...)

	return paginate(qb, f.Limit, f.Offset), nil
}

// orderClause accepts a comma separated list of keys, each optionally
// prefixed with "-" for descending order.
func orderClause(ordering string) ([]string, error) {
	if strings.TrimSpace(ordering) == "" {
		return []string{"e.last_name ASC", "e.first_name ASC", "e.id ASC"}, nil
	}

	var clauses []string
	for _, key := range strings.Split(ordering, ",") {
		key = strings.TrimSpace(key)
		dir := "ASC"
		if strings.HasPrefix(key, "-") {
			dir = "DESC"
			key = key[1:]
		}
		column, ok := orderings[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOrdering, key)
		}
		clauses = append(clauses, column+" "+dir)
	}

	return append(clauses, "e.id ASC"), nil
}

// ExistsDuplicate reports whether an employee with the same name parts in
// the same region is already on file.
func (r *EmployeeRepository) ExistsDuplicate(ctx context.Context, e models.Employee) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM employees
			WHERE last_name = $1 AND first_name = $2 AND patronymic = $3 AND region_name_id = $4
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, e.LastName, e.FirstName, e.Patronymic, e.RegionNameID)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate employee: %w", err)
	}

	return exists, nil
}

// Create creates a new employee
func (r *EmployeeRepository) Create(ctx context.Context, e models.Employee) (*models.Employee, error) {
	query := `
		INSERT INTO employees (last_name, first_name, patronymic, region_name_id, region_code_id,
			note_date, note_number, login, password, action, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + employeeColumns

	var created models.Employee
	err := r.db.GetContext(ctx, &created, query,
		e.LastName,
		e.FirstName,
		e.Patronymic,
		e.RegionNameID,
		e.RegionCodeID,
		e.NoteDate,
		e.NoteNumber,
		e.Login,
		e.Password,
		e.Action,
		e.Status,
	)
	if err != nil {
		return nil, classify(err, "failed to create employee")
	}

	return &created, nil
}

// Update overwrites every editable column
func (r *EmployeeRepository) Update(ctx context.Context, e models.Employee) (*models.Employee, error) {
	query := `
		UPDATE employees
		SET last_name = $1, first_name = $2, patronymic = $3, region_name_id = $4, region_code_id = $5,
			note_date = $6, note_number = $7, login = $8, password = $9, action = $10, status = $11,
			updated_at = $12
		WHERE id = $13
		RETURNING ` + employeeColumns

	var updated models.Employee
	err := r.db.GetContext(ctx, &updated, query,
		e.LastName,
		e.FirstName,
		e.Patronymic,
		e.RegionNameID,
		e.RegionCodeID,
		e.NoteDate,
		e.NoteNumber,
		e.Login,
		e.Password,
		e.Action,
		e.Status,
		time.Now(),
		e.ID,
	)
	if err != nil {
		return nil, classify(err, "failed to update employee")
	}

	return &updated, nil
}

// UpdateStatus sets status and the matching action
func (r *EmployeeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.EmployeeStatus, action models.EmployeeAction) (*models.Employee, error) {
	query := `
		UPDATE employees
		SET status = $1, action = $2, updated_at = $3
		WHERE id = $4
		RETURNING ` + employeeColumns

	var updated models.Employee
	if err := r.db.GetContext(ctx, &updated, query, status, action, time.Now(), id); err != nil {
		return nil, classify(err, "failed to update employee status")
	}

	return &updated, nil
}

// Delete removes one employee and returns the row as it was.
func (r *EmployeeRepository) Delete(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	query := `DELETE FROM employees WHERE id = $1 RETURNING ` + employeeColumns

	var deleted models.Employee
	if err := r.db.GetContext(ctx, &deleted, query, id); err != nil {
		return nil, classify(err, "failed to delete employee")
	}

	return &deleted, nil
}

// DeleteMany removes every listed employee that exists in one transaction
// and returns the removed rows. Unknown IDs are skipped.
func (r *EmployeeRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) ([]models.Employee, error) {
	if len(ids) == 0 {
		return []models.Employee{}, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lockQuery, args, err := sqlx.In(`SELECT `+employeeColumns+` FROM employees WHERE id IN (?) ORDER BY last_name, first_name FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare employee query: %w", err)
	}

	deleted := []models.Employee{}
	if err = tx.SelectContext(ctx, &deleted, tx.Rebind(lockQuery), args...); err != nil {
		return nil, fmt.Errorf("failed to lock employees: %w", err)
	}

	if len(deleted) > 0 {
		found := make([]uuid.UUID, 0, len(deleted))
		for _, e := range deleted {
			found = append(found, e.ID)
		}

		var deleteQuery string
		deleteQuery, args, err = sqlx.In(`DELETE FROM employees WHERE id IN (?)`, found)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare employee delete: %w", err)
		}
		if _, err = tx.ExecContext(ctx, tx.Rebind(deleteQuery), args...); err != nil {
			return nil, fmt.Errorf("failed to delete employees: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return deleted, nil
}
