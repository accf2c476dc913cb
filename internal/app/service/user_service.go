package service

import (
	"context"
	"fmt"

	"credtrack/internal/common"
	"credtrack/internal/common/security"
	"credtrack/internal/domain/model"
	"credtrack/internal/domain/policy"
	"credtrack/internal/domain/repository"

	"github.com/google/uuid"
)

// UserService implements the super-admin user management surface.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		user.HashedPassword = ""
	}
	return users, nil
}

type CreateUserRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role"`
}

func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	ve := &common.ValidationError{}
	requireText(ve, "name", req.Name)
	if !validEmail(req.Email) {
		ve.Add("email", "The email must be a valid email address.")
	}
	checkPassword(ve, req.Password, req.PasswordConfirmation)
	if !model.ValidRole(model.Role(req.Role)) {
		ve.Add("role", "The selected role is invalid.")
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
		Role:           model.Role(req.Role),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.HashedPassword = ""
	return user, nil
}

type UpdateUserRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role"`
}

func (s *UserService) Update(ctx context.Context, actor *model.User, id string, req UpdateUserRequest) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ve := &common.ValidationError{}
	if req.Name != "" && len(req.Name) > maxFieldLen {
		ve.Add("name", "The name may not be greater than 255 characters.")
	}
	if req.Email != "" && !validEmail(req.Email) {
		ve.Add("email", "The email must be a valid email address.")
	}
	if req.Password != "" {
		checkPassword(ve, req.Password, req.PasswordConfirmation)
	}
	if req.Role != "" && !model.ValidRole(model.Role(req.Role)) {
		ve.Add("role", "The selected role is invalid.")
	}
	if !ve.Empty() {
		return nil, ve
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
	if req.Role != "" {
		newRole := model.Role(req.Role)
		if !policy.CanChangeRole(actor.Role, actor.ID, user.ID, newRole) {
			return nil, common.NewValidationError("role", "You cannot remove your own super admin role.")
		}
		user.Role = newRole
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.HashedPassword = ""
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actor *model.User, id string) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteUser(actor.Role, actor.ID, user.ID) {
		return common.NewValidationError("user", "You cannot delete your own account.")
	}
	return s.userRepo.Delete(ctx, id)
}
