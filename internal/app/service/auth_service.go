package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/url"
	"time"

	"credtrack/internal/common"
	"credtrack/internal/common/security"
	"credtrack/internal/domain/model"
	"credtrack/internal/domain/repository"
	"credtrack/internal/platform/config"
	"credtrack/internal/platform/mailer"
	"credtrack/internal/platform/storage"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo  repository.UserRepository
	sessions  repository.SessionRepository
	fileStore storage.FileStore
	mail      mailer.Mailer
	logger    *slog.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessions repository.SessionRepository,
	fileStore storage.FileStore,
	mail mailer.Mailer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		sessions:  sessions,
		fileStore: fileStore,
		mail:      mail,
		logger:    logger,
	}
}

type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role"`

	Avatar *multipart.FileHeader `json:"-"`
}

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type AuthResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	ve := &common.ValidationError{}
	requireText(ve, "name", req.Name)
	if !validEmail(req.Email) {
		ve.Add("email", "The email must be a valid email address.")
	}
	checkPassword(ve, req.Password, req.PasswordConfirmation)

	role := model.RoleRecruiter
	if req.Role != "" {
		role = model.Role(req.Role)
		if role != model.RoleRecruiter && role != model.RoleAdmin {
			ve.Add("role", "The selected role is invalid.")
		}
	}
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
		Role:           role,
	}

	if req.Avatar != nil {
		avatarURL, err := s.uploadAvatar(ctx, req.Avatar, user.Name)
		if err != nil {
			return nil, err
		}
		user.AvatarURL = &avatarURL
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict on a duplicate email
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Registrations get the extended lifetime so a fresh signup is not
	// logged out the next day.
	return s.issueToken(ctx, user, config.AppConfig.ExtendedTokenTTL)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	ve := &common.ValidationError{}
	if !validEmail(req.Email) {
		ve.Add("email", "The email must be a valid email address.")
	}
	if req.Password == "" {
		ve.Add("password", "The password field is required.")
	}
	if !ve.Empty() {
		return nil, ve
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewValidationError("email", "The provided credentials are incorrect.")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.NewValidationError("email", "The provided credentials are incorrect.")
	}

	ttl := config.AppConfig.TokenTTL
	if req.RememberMe {
		ttl = config.AppConfig.ExtendedTokenTTL
	}
	return s.issueToken(ctx, user, ttl)
}

// Logout revokes only the presenting token; the user's other sessions stay
// alive.
func (s *AuthService) Logout(ctx context.Context, jti string) error {
	if err := s.sessions.Delete(ctx, jti); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

type UpdateProfileRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	CurrentPassword      string `json:"current_password"`

	Avatar *multipart.FileHeader `json:"-"`
}

func (s *AuthService) UpdateProfile(ctx context.Context, actor *model.User, req UpdateProfileRequest) (*model.User, error) {
	ve := &common.ValidationError{}
	if req.Name != "" && len(req.Name) > maxFieldLen {
		ve.Add("name", "The name may not be greater than 255 characters.")
	}
	if req.Email != "" && !validEmail(req.Email) {
		ve.Add("email", "The email must be a valid email address.")
	}
	if req.Password != "" {
		checkPassword(ve, req.Password, req.PasswordConfirmation)
		if req.CurrentPassword == "" {
			ve.Add("current_password", "The current password field is required when changing password.")
		}
	}
	if !ve.Empty() {
		return nil, ve
	}

	if req.Password != "" && !security.CheckPasswordHash(req.CurrentPassword, actor.HashedPassword) {
		return nil, common.NewValidationError("current_password", "The current password is incorrect.")
	}

	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if req.Name != "" {
		user.Name = common.SanitizeText(req.Name)
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Password != "" {
		hashedPassword, err := security.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.HashedPassword = hashedPassword
	}
	if req.Avatar != nil {
		avatarURL, err := s.uploadAvatar(ctx, req.Avatar, user.Name)
		if err != nil {
			return nil, err
		}
		user.AvatarURL = &avatarURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ForgotPassword never reveals whether the address is registered: the caller
// always sees the same generic success, and any failure to find the account
// is swallowed.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if !validEmail(email) {
		return common.NewValidationError("email", "The email must be a valid email address.")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	if err := s.sessions.CreateResetToken(ctx, token, user.ID, config.AppConfig.ResetTokenTTL); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s&email=%s",
		config.AppConfig.FrontendURL, token, url.QueryEscape(user.Email))

	body, err := mailer.RenderPasswordReset(mailer.ResetData{ResetURL: resetURL})
	if err != nil {
		return fmt.Errorf("failed to render reset email: %w", err)
	}
	if err := s.mail.Send(ctx, user.Email, "Reset your password", body); err != nil {
		// Losing the mail must not expose account existence either; log and
		// report the generic success.
		s.logger.Error("password reset mail failed", "error", err)
	}
	return nil
}

type ResetPasswordRequest struct {
	Token                string `json:"token"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	ve := &common.ValidationError{}
	if req.Token == "" {
		ve.Add("token", "The token field is required.")
	}
	if !validEmail(req.Email) {
		ve.Add("email", "The email must be a valid email address.")
	}
	checkPassword(ve, req.Password, req.PasswordConfirmation)
	if !ve.Empty() {
		return ve
	}

	userID, err := s.sessions.ConsumeResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("invalid or expired reset token: %w", common.ErrBadRequest)
		}
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user.Email != req.Email {
		return fmt.Errorf("invalid or expired reset token: %w", common.ErrBadRequest)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashedPassword

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

func (s *AuthService) issueToken(ctx context.Context, user *model.User, ttl time.Duration) (*AuthResponse, error) {
	issued, err := security.GenerateToken(user.ID, string(user.Role), ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.sessions.Create(ctx, issued.JTI, user.ID, ttl); err != nil {
		return nil, err
	}
	user.HashedPassword = "" // Clear password before returning
	return &AuthResponse{User: user, Token: issued.Token, ExpiresAt: issued.ExpiresAt}, nil
}

func (s *AuthService) uploadAvatar(ctx context.Context, fh *multipart.FileHeader, name string) (string, error) {
	if err := validateUpload("avatar", fh, maxAvatarBytes, imageContentTypes); err != nil {
		return "", err
	}
	avatarURL, err := s.fileStore.UploadFromHeader(ctx, fh, "avatars", name)
	if err != nil {
		return "", fmt.Errorf("avatar upload failed: %w", common.ErrServiceUnavailable)
	}
	return avatarURL, nil
}

func generateResetToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(tokenBytes), nil
}
