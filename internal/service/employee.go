package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ksk-project/employee-service/internal/access"
	"github.com/ksk-project/employee-service/internal/credentials"
	"github.com/ksk-project/employee-service/internal/db/repository"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/sirupsen/logrus"
)

// EmployeeService handles the employee directory
type EmployeeService struct {
	employees EmployeeStore
	regions   RegionStore
	policies  PasswordPolicyStore
	passwords PasswordGenerator
	audit     Auditor
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewEmployeeService creates a new employee service
func NewEmployeeService(
	log logrus.FieldLogger,
	employees EmployeeStore,
	regions RegionStore,
	policies PasswordPolicyStore,
	passwords PasswordGenerator,
	audit Auditor,
) *EmployeeService {
	return &EmployeeService{
		employees: employees,
		regions:   regions,
		policies:  policies,
		passwords: passwords,
		audit:     audit,
		log:       log.WithField("service", "employees"),
		now:       time.Now,
	}
}

// Get retrieves an employee by ID
func (s *EmployeeService) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Employee, error) {
	if !access.Allow(actor, access.OperationRead) {
		return nil, ErrForbidden
	}
	return s.employees.GetByID(ctx, id)
}

// Search lists employees matching filter
func (s *EmployeeService) Search(ctx context.Context, actor *models.User, filter models.EmployeeFilter) ([]models.Employee, error) {
	if !access.Allow(actor, access.OperationRead) {
		return nil, ErrForbidden
	}

	filter.Limit = pageSize(filter.Limit)
	return s.search(ctx, filter)
}

func (s *EmployeeService) search(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error) {
	employees, err := s.employees.Search(ctx, filter)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidOrdering) {
			return nil, NewValidationError("ordering", err.Error())
		}
		return nil, err
	}
	return employees, nil
}

// Create validates req, issues credentials and stores the employee. The
// password policy is read once for the whole operation.
func (s *EmployeeService) Create(ctx context.Context, actor *models.User, req models.EmployeeRequest) (*models.Employee, error) {
	if !access.Allow(actor, access.OperationCreate) {
		return nil, ErrForbidden
	}

	normalizeEmployeeRequest(&req)
	regionName, regionCode, err := s.checkRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	employee := models.Employee{
		LastName:     req.LastName,
		FirstName:    req.FirstName,
		Patronymic:   req.Patronymic,
		RegionNameID: regionName.ID,
		RegionCodeID: regionCode.ID,
		NoteDate:     req.NoteDate,
		NoteNumber:   req.NoteNumber,
		Status:       models.EmployeeStatusActive,
		Action:       models.EmployeeActionCreate,
	}
	if req.Status == models.EmployeeStatusBlocked {
		employee.Status = models.EmployeeStatusBlocked
		employee.Action = models.EmployeeActionBlock
	}

	duplicate, err := s.employees.ExistsDuplicate(ctx, employee)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, fmt.Errorf("%s, %s: %w", employee.FullName(), regionName, ErrDuplicate)
	}

	employee.Login = credentials.GenerateLogin(req.LastName, req.FirstName, req.Patronymic, regionCode.Code)
	if req.Login != nil {
		employee.Login = *req.Login
	}

	if req.Password != nil {
		employee.Password = *req.Password
	} else {
		policy, err := s.policies.GetOrCreate(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load password policy: %w", err)
		}
		employee.Password = s.passwords.Password(*policy)
	}

	created, err := s.employees.Create(ctx, employee)
	if err != nil {
		return nil, loginConflict(err, employee.Login)
	}
	created.RegionName = regionName
	created.RegionCode = regionCode

	s.audit.Record(ctx, actor, ActionEmployeeCreate, created.Snapshot())
	s.log.WithFields(logrus.Fields{
		"login": created.Login,
		"actor": actor.Username,
	}).Info("Employee created")

	return created, nil
}

// Update rewrites an employee. Credentials change only when the request
// carries an explicit override.
func (s *EmployeeService) Update(ctx context.Context, actor *models.User, id uuid.UUID, req models.EmployeeRequest) (*models.Employee, error) {
	if !access.Allow(actor, access.OperationUpdate) {
		return nil, ErrForbidden
	}

	existing, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	normalizeEmployeeRequest(&req)
	regionName, regionCode, err := s.checkRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	employee := *existing
	employee.LastName = req.LastName
	employee.FirstName = req.FirstName
	employee.Patronymic = req.Patronymic
	employee.RegionNameID = regionName.ID
	employee.RegionCodeID = regionCode.ID
	employee.NoteDate = req.NoteDate
	employee.NoteNumber = req.NoteNumber
	if req.Status != "" {
		employee.Status = req.Status
		employee.Action = actionForStatus(req.Status)
	}
	if req.Login != nil {
		employee.Login = *req.Login
	}
	if req.Password != nil {
		employee.Password = *req.Password
	}

	updated, err := s.employees.Update(ctx, employee)
	if err != nil {
		return nil, loginConflict(err, employee.Login)
	}
	updated.RegionName = regionName
	updated.RegionCode = regionCode

	s.audit.Record(ctx, actor, ActionEmployeeUpdate, updated.Snapshot())

	return updated, nil
}

// SetStatus blocks or unblocks an employee
func (s *EmployeeService) SetStatus(ctx context.Context, actor *models.User, id uuid.UUID, req models.EmployeeStatusRequest) (*models.Employee, error) {
	if !access.Allow(actor, access.OperationUpdate) {
		return nil, ErrForbidden
	}
	if err := validateStruct(req).Err(); err != nil {
		return nil, err
	}

	updated, err := s.employees.UpdateStatus(ctx, id, req.Status, actionForStatus(req.Status))
	if err != nil {
		return nil, err
	}

	label := ActionEmployeeUnblock
	if req.Status == models.EmployeeStatusBlocked {
		label = ActionEmployeeBlock
	}
	s.audit.Record(ctx, actor, label, updated.Snapshot())

	return updated, nil
}

// Delete removes an employee. The audit subject is the row as it was
// before removal.
func (s *EmployeeService) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if !access.Allow(actor, access.OperationDelete) {
		return ErrForbidden
	}

	deleted, err := s.employees.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.audit.Record(ctx, actor, ActionEmployeeDelete, deleted.Snapshot())
	return nil
}

// BulkDelete removes every listed employee that exists, all or nothing,
// and records one entry per removed employee.
func (s *EmployeeService) BulkDelete(ctx context.Context, actor *models.User, ids []uuid.UUID) ([]models.Employee, error) {
	if !access.Allow(actor, access.OperationDelete) {
		return nil, ErrForbidden
	}

	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, NewValidationError("ids", "select at least one employee")
	}

	deleted, err := s.employees.DeleteMany(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(deleted) == 0 {
		return nil, fmt.Errorf("no matching employees: %w", ErrNotFound)
	}

	for i := range deleted {
		s.audit.Record(ctx, actor, ActionEmployeeBulkDelete, deleted[i].Snapshot())
	}
	s.log.WithFields(logrus.Fields{
		"count": len(deleted),
		"actor": actor.Username,
	}).Info("Employees deleted")

	return deleted, nil
}

// checkRequest runs field validation and resolves both regions. A missing
// region_code_id means the same region as region_name_id.
func (s *EmployeeService) checkRequest(ctx context.Context, req models.EmployeeRequest) (*models.Region, *models.Region, error) {
	verr := validateStruct(req)

	if req.NoteDate != nil && req.NoteDate.After(models.NewDate(s.now())) {
		verr.Add("note_date", "must not be in the future")
	}

	var regionName, regionCode *models.Region
	if req.RegionNameID != uuid.Nil {
		r, err := s.resolveRegion(ctx, req.RegionNameID)
		if err != nil {
			return nil, nil, err
		}
		if r == nil {
			verr.Add("region_name_id", "unknown region")
		}
		regionName = r
	}

	regionCode = regionName
	if req.RegionCodeID != nil && *req.RegionCodeID != req.RegionNameID {
		r, err := s.resolveRegion(ctx, *req.RegionCodeID)
		if err != nil {
			return nil, nil, err
		}
		if r == nil {
			verr.Add("region_code_id", "unknown region")
		}
		regionCode = r
	}

	if err := verr.Err(); err != nil {
		return nil, nil, err
	}
	return regionName, regionCode, nil
}

// resolveRegion returns nil, nil for an unknown region.
func (s *EmployeeService) resolveRegion(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	region, err := s.regions.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load region: %w", err)
	}
	return region, nil
}

func normalizeEmployeeRequest(req *models.EmployeeRequest) {
	req.LastName = credentials.Capitalize(req.LastName)
	req.FirstName = credentials.Capitalize(req.FirstName)
	req.Patronymic = credentials.Capitalize(req.Patronymic)
	req.NoteNumber = strings.TrimSpace(req.NoteNumber)
	if req.Login != nil {
		login := strings.TrimSpace(*req.Login)
		req.Login = &login
	}
}

func actionForStatus(status models.EmployeeStatus) models.EmployeeAction {
	if status == models.EmployeeStatusBlocked {
		return models.EmployeeActionBlock
	}
	return models.EmployeeActionCreate
}

func loginConflict(err error, login string) error {
	if errors.Is(err, ErrConflict) {
		return fmt.Errorf("login %q is already taken: %w", login, ErrConflict)
	}
	return err
}
