package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ksk-project/employee-service/internal/access"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/sirupsen/logrus"
)

// UserService is the administrators' account management
type UserService struct {
	users UserStore
	auth  *AuthService
	audit Auditor
	log   logrus.FieldLogger
}

// NewUserService creates a new user service
func NewUserService(log logrus.FieldLogger, users UserStore, auth *AuthService, audit Auditor) *UserService {
	return &UserService{
		users: users,
		auth:  auth,
		audit: audit,
		log:   log.WithField("service", "users"),
	}
}

// List retrieves all users
func (s *UserService) List(ctx context.Context, actor *models.User) ([]models.User, error) {
	if !access.AllowAdministration(actor) {
		return nil, ErrForbidden
	}
	return s.users.List(ctx)
}

// Get retrieves a user by ID
func (s *UserService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.User, error) {
	if !access.AllowAdministration(actor) {
		return nil, ErrForbidden
	}
	return s.users.GetByID(ctx, id)
}

// Create adds a staff account
func (s *UserService) Create(ctx context.Context, actor *models.User, req models.UserRequest) (*models.User, error) {
	if !access.AllowAdministration(actor) {
		return nil, ErrForbidden
	}

	created, err := s.auth.RegisterUser(ctx, req)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, ActionUserCreate, created.String())
	return created, nil
}

// Update changes name, role, superuser and active flags
func (s *UserService) Update(ctx context.Context, actor *models.User, id uuid.UUID, req models.UserUpdateRequest) (*models.User, error) {
	if !access.AllowAdministration(actor) {
		return nil, ErrForbidden
	}
	if err := validateStruct(req).Err(); err != nil {
		return nil, err
	}
	if id == actor.ID && (!req.IsActive || !(req.IsSuperuser || req.Role == models.RoleAdministrator)) {
		return nil, NewValidationError("role", "you cannot remove your own administrator access")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = req.Name
	user.Role = req.Role
	user.IsSuperuser = req.IsSuperuser
	user.IsActive = req.IsActive

	updated, err := s.users.Update(ctx, *user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.audit.Record(ctx, actor, ActionUserUpdate, updated.String())
	return updated, nil
}

// Deactivate disables an account. Accounts are kept so audit entries
// stay attributable.
func (s *UserService) Deactivate(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if !access.AllowAdministration(actor) {
		return ErrForbidden
	}
	if id == actor.ID {
		return NewValidationError("id", "you cannot deactivate your own account")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.users.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"username": user.Username,
		"actor":    actor.Username,
	}).Info("User deactivated")
	s.audit.Record(ctx, actor, ActionUserDeactivate, user.String())

	return nil
}
