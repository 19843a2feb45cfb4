package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/ksk-project/employee-service/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// JWTConfig holds configuration for JWT token generation
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// AuthService handles authentication and the caller's own account
type AuthService struct {
	users     UserStore
	events    AuthEvents
	jwtConfig JWTConfig
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(log logrus.FieldLogger, users UserStore, events AuthEvents, jwtConfig JWTConfig) *AuthService {
	return &AuthService{
		users:     users,
		events:    events,
		jwtConfig: jwtConfig,
		log:       log.WithField("service", "auth"),
		now:       time.Now,
	}
}

// Claims represents JWT claims
type Claims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Superuser bool   `json:"superuser,omitempty"`
	jwt.RegisteredClaims
}

// Login authenticates a user and returns a JWT token. Every rejected
// attempt fires LoginFailed exactly once, whatever the reason.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// burn comparable time so unknown usernames are not obvious
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			s.events.LoginFailed(ctx, username)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.events.LoginFailed(ctx, username)
		return "", nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.events.LoginFailed(ctx, username)
		return "", nil, ErrInactiveUser
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.events.LoggedIn(ctx, user)
	s.log.WithField("username", user.Username).Info("User logged in")

	return token, user, nil
}

// Logout records the end of a session. Tokens are stateless and stay
// valid until they expire.
func (s *AuthService) Logout(ctx context.Context, user *models.User) {
	s.events.LoggedOut(ctx, user)
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.DefaultCost)

// generateToken generates a JWT token for a user
func (s *AuthService) generateToken(user *models.User) (string, error) {
	now := s.now()

	claims := &Claims{
		UserID:    user.ID.String(),
		Role:      string(user.Role),
		Superuser: user.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.Secret))
}

// ValidateToken validates a JWT token and returns the claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	if !token.Valid {
		return nil, ErrInvalidCredentials
	}

	return claims, nil
}

// Authenticate resolves a bearer token into the current user. The user is
// reloaded so role changes and deactivation apply immediately.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID in token", ErrInvalidCredentials)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	return user, nil
}

// RegisterUser creates an account without an acting user. It backs the
// createuser command that bootstraps the first administrator.
func (s *AuthService) RegisterUser(ctx context.Context, req models.UserRequest) (*models.User, error) {
	if err := validateStruct(req).Err(); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: hashed,
		Name:         req.Name,
		Role:         req.Role,
		IsSuperuser:  req.IsSuperuser,
		IsActive:     req.IsActive,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, NewValidationError("username", "a user with this username already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

// ChangePassword changes the caller's own password
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, req models.PasswordChangeRequest) error {
	if user == nil {
		return ErrForbidden
	}
	if err := validateStruct(req).Err(); err != nil {
		return err
	}

	current, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(current.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return NewValidationError("current_password", "current password is incorrect")
	}

	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
