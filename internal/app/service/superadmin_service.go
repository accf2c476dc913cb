package service

import (
	"context"
	"fmt"
	"time"

	"credtrack/internal/common"
	"credtrack/internal/common/security"
	"credtrack/internal/domain/model"
	"credtrack/internal/domain/repository"
	"credtrack/internal/platform/config"

	"github.com/google/uuid"
)

// SuperAdminService handles the bootstrap path for super_admin accounts.
type SuperAdminService struct {
	userRepo repository.UserRepository
	sessions repository.SessionRepository
}

func NewSuperAdminService(userRepo repository.UserRepository, sessions repository.SessionRepository) *SuperAdminService {
	return &SuperAdminService{userRepo: userRepo, sessions: sessions}
}

type CreateSuperAdminRequest struct {
	SecretKey            string `json:"secret_key"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// CreateSuperAdminResponse carries a token only when this call created the
// first super_admin (auto-login); otherwise the caller already holds one.
type CreateSuperAdminResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token,omitempty"`
	ExpiresAt string      `json:"expires_at,omitempty"`
}

// Create branches on whether any super_admin row exists. The check runs
// fresh on every call, so creating the first super_admin immediately closes
// the unauthenticated path for every later request.
//
// Zero super_admins: the pre-shared secret gates creation and the new account
// is logged in. One or more: the actor must be an authenticated super_admin
// and no token is issued.
func (s *SuperAdminService) Create(ctx context.Context, actor *model.User, req CreateSuperAdminRequest) (*CreateSuperAdminResponse, error) {
	exists, err := s.userRepo.SuperAdminExists(ctx)
	if err != nil {
		return nil, err
	}

	if !exists {
		if req.SecretKey == "" || req.SecretKey != config.AppConfig.SuperAdminSecretKey {
			return nil, fmt.Errorf("invalid secret key: %w", common.ErrForbidden)
		}
	} else {
		if actor == nil || actor.Role != model.RoleSuperAdmin {
			return nil, fmt.Errorf("super admin access required: %w", common.ErrForbidden)
		}
	}

	ve := &common.ValidationError{}
	requireText(ve, "name", req.Name)
	if !validEmail(req.Email) {
		ve.Add("email", "The email must be a valid email address.")
	}
	checkPassword(ve, req.Password, req.PasswordConfirmation)
	if !ve.Empty() {
		return nil, ve
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Name:           common.SanitizeText(req.Name),
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           model.RoleSuperAdmin,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create super admin: %w", err)
	}
	user.HashedPassword = ""

	resp := &CreateSuperAdminResponse{User: user}
	if !exists {
		issued, err := security.GenerateToken(user.ID, string(user.Role), config.AppConfig.ExtendedTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}
		if err := s.sessions.Create(ctx, issued.JTI, user.ID, config.AppConfig.ExtendedTokenTTL); err != nil {
			return nil, err
		}
		resp.Token = issued.Token
		resp.ExpiresAt = issued.ExpiresAt.Format(time.RFC3339)
	}
	return resp, nil
}
