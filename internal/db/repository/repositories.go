package repository

import (
	"github.com/jmoiron/sqlx"
	"github.com/ksk-project/employee-service/internal/db"
)

// Repositories provides access to all repository instances
type Repositories struct {
	User           *UserRepository
	Region         *RegionRepository
	Employee       *EmployeeRepository
	ActionLog      *ActionLogRepository
	LoginHistory   *LoginHistoryRepository
	PasswordPolicy *PasswordPolicyRepository
}

// NewRepositories creates a new repositories container
func NewRepositories(database *db.Postgres) *Repositories {
	return newRepositories(database.DB)
}

func newRepositories(conn *sqlx.DB) *Repositories {
	return &Repositories{
		User:           NewUserRepository(conn),
		Region:         NewRegionRepository(conn),
		Employee:       NewEmployeeRepository(conn),
		ActionLog:      NewActionLogRepository(conn),
		LoginHistory:   NewLoginHistoryRepository(conn),
		PasswordPolicy: NewPasswordPolicyRepository(conn),
	}
}
