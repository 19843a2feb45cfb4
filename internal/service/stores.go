package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/ksk-project/employee-service/internal/models"
)

// UserStore is the persistence the auth and user services need.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user models.User) (*models.User, error)
	Update(ctx context.Context, user models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type RegionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Region, error)
	List(ctx context.Context, search string) ([]models.Region, error)
	Create(ctx context.Context, region models.Region) (*models.Region, error)
	Update(ctx context.Context, region models.Region) (*models.Region, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type EmployeeStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	Search(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error)
	ExistsDuplicate(ctx context.Context, e models.Employee) (bool, error)
	Create(ctx context.Context, e models.Employee) (*models.Employee, error)
	Update(ctx context.Context, e models.Employee) (*models.Employee, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.EmployeeStatus, action models.EmployeeAction) (*models.Employee, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	DeleteMany(ctx context.Context, ids []uuid.UUID) ([]models.Employee, error)
}

type PasswordPolicyStore interface {
	GetOrCreate(ctx context.Context) (*models.PasswordPolicy, error)
	Create(ctx context.Context, p models.PasswordPolicy) (*models.PasswordPolicy, error)
	Update(ctx context.Context, p models.PasswordPolicy) (*models.PasswordPolicy, error)
	Delete(ctx context.Context) error
}

type ActionLogReader interface {
	List(ctx context.Context, filter models.ActionLogFilter) ([]models.ActionLog, error)
}

type LoginHistoryReader interface {
	List(ctx context.Context, filter models.LoginHistoryFilter) ([]models.LoginHistory, error)
}

// Auditor appends to the action log. Implementations must not fail the
// caller's operation.
type Auditor interface {
	Record(ctx context.Context, actor *models.User, action, subject string)
}

// AuthEvents receives the three authentication hook points.
type AuthEvents interface {
	LoggedIn(ctx context.Context, user *models.User)
	LoggedOut(ctx context.Context, user *models.User)
	LoginFailed(ctx context.Context, username string)
}

// PasswordGenerator produces a password with the exact composition of a policy.
type PasswordGenerator interface {
	Password(policy models.PasswordPolicy) string
}

// Action log labels
const (
	ActionEmployeeCreate     = "employee.create"
	ActionEmployeeUpdate     = "employee.update"
	ActionEmployeeBlock      = "employee.block"
	ActionEmployeeUnblock    = "employee.unblock"
	ActionEmployeeDelete     = "employee.delete"
	ActionEmployeeBulkDelete = "employee.bulk_delete"
	ActionEmployeeExport     = "employee.export"
	ActionRegionCreate       = "region.create"
	ActionRegionUpdate       = "region.update"
	ActionRegionDelete       = "region.delete"
	ActionPolicyUpdate       = "password_policy.update"
	ActionUserCreate         = "user.create"
	ActionUserUpdate         = "user.update"
	ActionUserDeactivate     = "user.deactivate"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

func pageSize(limit uint64) uint64 {
	switch {
	case limit == 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	default:
		return limit
	}
}
