package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"posada/internal/core/apperror"
	appctx "posada/internal/core/context"
	"posada/internal/core/tenant"
	"posada/internal/domain/audit"
	"posada/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts int
	LockDuration     time.Duration
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// Service provides authentication logic.
type Service struct {
	userRepo   UserRepository
	jwtService *JWTService
	audit      audit.Recorder
	config     ServiceConfig
}

// NewService creates a new auth service. The audit recorder may be nil.
func NewService(userRepo UserRepository, jwtService *JWTService, auditRec audit.Recorder, config ServiceConfig) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtService: jwtService,
		audit:      auditRec,
		config:     config,
	}
}

func (s *Service) requireTenantID(ctx context.Context) (string, error) {
	tenantID := tenant.GetTenantID(ctx)
	if tenantID == "" {
		// Should be prevented by the tenant middleware; treat as bad request.
		return "", apperror.NewValidation("tenant is required").
			WithDetail("header", "X-Tenant-ID")
	}
	return tenantID, nil
}

// Login authenticates a user and returns an access token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *User, error) {
	tenantID, err := s.requireTenantID(ctx)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, creds.Email)
	if err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}
	if err := user.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		_ = s.userRepo.Update(ctx, user)
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	roles, err := s.userRepo.LoadRoles(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load roles: %w", err)
	}
	user.Roles = roles

	token, expiresAt, err := s.jwtService.GenerateAccessToken(user.ID.String(), tenantID, user.Email, roles)
	if err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}

	user.RecordSuccessfulLogin()
	_ = s.userRepo.Update(ctx, user)

	if s.audit != nil {
		event := audit.Event{
			EntityType: "user",
			EntityID:   user.ID,
			Action:     audit.ActionLogin,
			UserID:     user.ID.String(),
			UserEmail:  user.Email,
		}
		if err := s.audit.Record(ctx, event); err != nil {
			logger.Warn(ctx, "failed to record login audit", "error", err)
		}
	}

	logger.Info(ctx, "user logged in",
		"user_id", user.ID,
		"email", user.Email)

	return &TokenPair{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		TokenType:   "Bearer",
	}, user, nil
}

// ValidateToken validates an access token.
func (s *Service) ValidateToken(tokenString string) (*appctx.UserContext, error) {
	return s.jwtService.ValidateToken(tokenString)
}
