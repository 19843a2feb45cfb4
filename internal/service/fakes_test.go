package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func nullLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

var (
	admin   = &models.User{ID: uuid.New(), Username: "admin", Role: models.RoleAdministrator, IsActive: true}
	manager = &models.User{ID: uuid.New(), Username: "manager", Role: models.RoleManager, IsActive: true}
	viewer  = &models.User{ID: uuid.New(), Username: "viewer", Role: models.RoleViewer, IsActive: true}
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{users: map[uuid.UUID]models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", ErrNotFound)
	}
	return &u, nil
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", ErrNotFound)
}

func (f *fakeUsers) List(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeUsers) Create(ctx context.Context, user models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username {
			return nil, fmt.Errorf("create user: %w", ErrConflict)
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return &user, nil
}

func (f *fakeUsers) Update(ctx context.Context, user models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return nil, fmt.Errorf("update user: %w", ErrNotFound)
	}
	f.users[user.ID] = user
	return &user, nil
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("update password: %w", ErrNotFound)
	}
	u.PasswordHash = passwordHash
	f.users[id] = u
	return nil
}

func (f *fakeUsers) Deactivate(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("deactivate user: %w", ErrNotFound)
	}
	u.IsActive = false
	f.users[id] = u
	return nil
}

type fakeRegions struct {
	regions map[uuid.UUID]models.Region
	inUse   map[uuid.UUID]bool
}

func newFakeRegions(regions ...models.Region) *fakeRegions {
	f := &fakeRegions{regions: map[uuid.UUID]models.Region{}, inUse: map[uuid.UUID]bool{}}
	for _, r := range regions {
		f.regions[r.ID] = r
	}
	return f
}

func (f *fakeRegions) GetByID(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	r, ok := f.regions[id]
	if !ok {
		return nil, fmt.Errorf("get region: %w", ErrNotFound)
	}
	return &r, nil
}

func (f *fakeRegions) List(ctx context.Context, search string) ([]models.Region, error) {
	var out []models.Region
	for _, r := range f.regions {
		if search == "" || strings.Contains(r.Code, search) || strings.Contains(strings.ToLower(r.Name), strings.ToLower(search)) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeRegions) Create(ctx context.Context, region models.Region) (*models.Region, error) {
	for _, r := range f.regions {
		if r.Code == region.Code {
			return nil, fmt.Errorf("create region: %w", ErrConflict)
		}
	}
	region.ID = uuid.New()
	f.regions[region.ID] = region
	return &region, nil
}

func (f *fakeRegions) Update(ctx context.Context, region models.Region) (*models.Region, error) {
	if _, ok := f.regions[region.ID]; !ok {
		return nil, fmt.Errorf("update region: %w", ErrNotFound)
	}
	for _, r := range f.regions {
		if r.Code == region.Code && r.ID != region.ID {
			return nil, fmt.Errorf("update region: %w", ErrConflict)
		}
	}
	f.regions[region.ID] = region
	return &region, nil
}

func (f *fakeRegions) Delete(ctx context.Context, id uuid.UUID) error {
	if f.inUse[id] {
		return fmt.Errorf("delete region: %w", ErrInUse)
	}
	if _, ok := f.regions[id]; !ok {
		return fmt.Errorf("delete region: %w", ErrNotFound)
	}
	delete(f.regions, id)
	return nil
}

type fakeEmployees struct {
	employees   map[uuid.UUID]models.Employee
	lastFilter  models.EmployeeFilter
	deleteBatch [][]uuid.UUID
	searchErr   error
}

func newFakeEmployees(employees ...models.Employee) *fakeEmployees {
	f := &fakeEmployees{employees: map[uuid.UUID]models.Employee{}}
	for _, e := range employees {
		f.employees[e.ID] = e
	}
	return f
}

func (f *fakeEmployees) GetByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, fmt.Errorf("get employee: %w", ErrNotFound)
	}
	return &e, nil
}

func (f *fakeEmployees) Search(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error) {
	f.lastFilter = filter
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := make([]models.Employee, 0, len(f.employees))
	for _, e := range f.employees {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

func (f *fakeEmployees) ExistsDuplicate(ctx context.Context, e models.Employee) (bool, error) {
	for _, other := range f.employees {
		if other.ID != e.ID &&
			strings.EqualFold(other.LastName, e.LastName) &&
			strings.EqualFold(other.FirstName, e.FirstName) &&
			strings.EqualFold(other.Patronymic, e.Patronymic) &&
			other.RegionNameID == e.RegionNameID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEmployees) Create(ctx context.Context, e models.Employee) (*models.Employee, error) {
	for _, other := range f.employees {
		if other.Login == e.Login {
			return nil, fmt.Errorf("create employee: %w", ErrConflict)
		}
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	f.employees[e.ID] = e
	return &e, nil
}

func (f *fakeEmployees) Update(ctx context.Context, e models.Employee) (*models.Employee, error) {
	if _, ok := f.employees[e.ID]; !ok {
		return nil, fmt.Errorf("update employee: %w", ErrNotFound)
	}
	for _, other := range f.employees {
		if other.ID != e.ID && other.Login == e.Login {
			return nil, fmt.Errorf("update employee: %w", ErrConflict)
		}
	}
	f.employees[e.ID] = e
	return &e, nil
}

func (f *fakeEmployees) UpdateStatus(ctx context.Context, id uuid.UUID, status models.EmployeeStatus, action models.EmployeeAction) (*models.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, fmt.Errorf("update employee status: %w", ErrNotFound)
	}
	e.Status = status
	e.Action = action
	f.employees[id] = e
	return &e, nil
}

func (f *fakeEmployees) Delete(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, fmt.Errorf("delete employee: %w", ErrNotFound)
	}
	delete(f.employees, id)
	return &e, nil
}

func (f *fakeEmployees) DeleteMany(ctx context.Context, ids []uuid.UUID) ([]models.Employee, error) {
	f.deleteBatch = append(f.deleteBatch, ids)
	var out []models.Employee
	for _, id := range ids {
		if e, ok := f.employees[id]; ok {
			out = append(out, e)
			delete(f.employees, id)
		}
	}
	return out, nil
}

type fakePolicies struct {
	policy     *models.PasswordPolicy
	getCreates int
}

func (f *fakePolicies) GetOrCreate(ctx context.Context) (*models.PasswordPolicy, error) {
	if f.policy == nil {
		p := models.DefaultPasswordPolicy()
		f.policy = &p
	}
	f.getCreates++
	p := *f.policy
	return &p, nil
}

func (f *fakePolicies) Create(ctx context.Context, p models.PasswordPolicy) (*models.PasswordPolicy, error) {
	if f.policy != nil {
		return nil, ErrPolicyExists
	}
	f.policy = &p
	return &p, nil
}

func (f *fakePolicies) Update(ctx context.Context, p models.PasswordPolicy) (*models.PasswordPolicy, error) {
	f.policy = &p
	return &p, nil
}

func (f *fakePolicies) Delete(ctx context.Context) error {
	return ErrPolicyUndeletable
}

// stubPasswords returns a fixed password and remembers the policy it saw.
type stubPasswords struct {
	password string
	policies []models.PasswordPolicy
}

func (s *stubPasswords) Password(policy models.PasswordPolicy) string {
	s.policies = append(s.policies, policy)
	return s.password
}

type auditEntry struct {
	actor   *models.User
	action  string
	subject string
}

type recordingAuditor struct {
	entries []auditEntry
}

func (r *recordingAuditor) Record(ctx context.Context, actor *models.User, action, subject string) {
	r.entries = append(r.entries, auditEntry{actor: actor, action: action, subject: subject})
}

func (r *recordingAuditor) actions() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.action)
	}
	return out
}

type recordingEvents struct {
	loggedIn    []string
	loggedOut   []string
	loginFailed []string
}

func (r *recordingEvents) LoggedIn(ctx context.Context, user *models.User) {
	r.loggedIn = append(r.loggedIn, user.Username)
}

func (r *recordingEvents) LoggedOut(ctx context.Context, user *models.User) {
	r.loggedOut = append(r.loggedOut, user.Username)
}

func (r *recordingEvents) LoginFailed(ctx context.Context, username string) {
	r.loginFailed = append(r.loginFailed, username)
}
