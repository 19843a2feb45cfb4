package service

import (
	"context"
	"fmt"

	"github.com/ksk-project/employee-service/internal/access"
	"github.com/ksk-project/employee-service/internal/models"
)

// PasswordPolicyService manages the single password policy
type PasswordPolicyService struct {
	policies  PasswordPolicyStore
	passwords PasswordGenerator
	audit     Auditor
}

// NewPasswordPolicyService creates a new password policy service
func NewPasswordPolicyService(policies PasswordPolicyStore, passwords PasswordGenerator, audit Auditor) *PasswordPolicyService {
	return &PasswordPolicyService{
		policies:  policies,
		passwords: passwords,
		audit:     audit,
	}
}

// Get returns the current policy, storing the defaults on first use
func (s *PasswordPolicyService) Get(ctx context.Context, actor *models.User) (*models.PasswordPolicy, error) {
	if !access.Allow(actor, access.OperationRead) {
		return nil, ErrForbidden
	}
	return s.policies.GetOrCreate(ctx)
}

// Create stores a policy when none exists yet
func (s *PasswordPolicyService) Create(ctx context.Context, actor *models.User, req models.PasswordPolicyRequest) (*models.PasswordPolicy, error) {
	if !access.AllowAdministration(actor) {
		return nil, ErrForbidden
	}
	if err := validatePolicy(req); err != nil {
		return nil, err
	}

	created, err := s.policies.Create(ctx, req.Policy())
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, ActionPolicyUpdate, created.String())
	return created, nil
}

// Update replaces the policy
func (s *PasswordPolicyService) Update(ctx context.Context, actor *models.User, req models.PasswordPolicyRequest) (*models.PasswordPolicy, error) {
	if !access.AllowAdministration(actor) {
		return nil, ErrForbidden
	}
	if err := validatePolicy(req); err != nil {
		return nil, err
	}

	updated, err := s.policies.Update(ctx, req.Policy())
	if err != nil {
		return nil, fmt.Errorf("failed to update password policy: %w", err)
	}

	s.audit.Record(ctx, actor, ActionPolicyUpdate, updated.String())
	return updated, nil
}

// Delete is never allowed
func (s *PasswordPolicyService) Delete(ctx context.Context, actor *models.User) error {
	if !access.AllowAdministration(actor) {
		return ErrForbidden
	}
	return s.policies.Delete(ctx)
}

// GeneratePassword returns one password under the current policy
func (s *PasswordPolicyService) GeneratePassword(ctx context.Context, actor *models.User) (string, error) {
	if !access.Allow(actor, access.OperationRead) {
		return "", ErrForbidden
	}

	policy, err := s.policies.GetOrCreate(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load password policy: %w", err)
	}

	return s.passwords.Password(*policy), nil
}

func validatePolicy(req models.PasswordPolicyRequest) error {
	verr := validateStruct(req)
	if len(verr.Fields) == 0 && req.Policy().Length() == 0 {
		verr.Add("uppercase", "the policy must produce at least one character")
	}
	return verr.Err()
}
