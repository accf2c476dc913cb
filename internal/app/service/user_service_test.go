package service

import (
	"context"
	"testing"

	"credtrack/internal/common"
	"credtrack/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func superAdmin(id string) *model.User {
	return &model.User{ID: id, Name: "Root", Email: id + "@example.com", Role: model.RoleSuperAdmin}
}

func TestUserListClearsPasswordHashes(t *testing.T) {
	users := newFakeUserRepo(
		&model.User{ID: "u-1", Email: "a@example.com", HashedPassword: "hash-a"},
		&model.User{ID: "u-2", Email: "b@example.com", HashedPassword: "hash-b"},
	)
	s := NewUserService(users)

	listed, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)
	for _, user := range listed {
		assert.Empty(t, user.HashedPassword)
	}
}

func TestUserCreate(t *testing.T) {
	users := newFakeUserRepo()
	s := NewUserService(users)

	user, err := s.Create(context.Background(), CreateUserRequest{
		Name:                 "Bob",
		Email:                "bob@example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
		Role:                 string(model.RoleAdmin),
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.Empty(t, user.HashedPassword)
	assert.Len(t, users.users, 1)
}

func TestUserCreateInvalidRole(t *testing.T) {
	s := NewUserService(newFakeUserRepo())

	_, err := s.Create(context.Background(), CreateUserRequest{
		Name:                 "Bob",
		Email:                "bob@example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
		Role:                 "owner",
	})

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "role")
}

func TestUserUpdateRole(t *testing.T) {
	target := &model.User{ID: "u-2", Name: "Bob", Email: "bob@example.com", Role: model.RoleRecruiter}
	users := newFakeUserRepo(target)
	s := NewUserService(users)

	updated, err := s.Update(context.Background(), superAdmin("u-1"), "u-2", UpdateUserRequest{
		Role: string(model.RoleAdmin),
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, updated.Role)
}

func TestUserUpdateSelfDemotionForbidden(t *testing.T) {
	actor := superAdmin("u-1")
	users := newFakeUserRepo(actor)
	s := NewUserService(users)

	_, err := s.Update(context.Background(), actor, "u-1", UpdateUserRequest{
		Role: string(model.RoleAdmin),
	})

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields["role"], "You cannot remove your own super admin role.")
	assert.Equal(t, model.RoleSuperAdmin, users.users["u-1"].Role)
}

func TestUserUpdateNotFound(t *testing.T) {
	s := NewUserService(newFakeUserRepo())

	_, err := s.Update(context.Background(), superAdmin("u-1"), "missing", UpdateUserRequest{Name: "X"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUserDelete(t *testing.T) {
	users := newFakeUserRepo(
		superAdmin("u-1"),
		&model.User{ID: "u-2", Email: "bob@example.com", Role: model.RoleRecruiter},
	)
	s := NewUserService(users)

	require.NoError(t, s.Delete(context.Background(), superAdmin("u-1"), "u-2"))
	assert.NotContains(t, users.users, "u-2")
}

func TestUserDeleteSelfForbidden(t *testing.T) {
	actor := superAdmin("u-1")
	users := newFakeUserRepo(actor)
	s := NewUserService(users)

	err := s.Delete(context.Background(), actor, "u-1")

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields["user"], "You cannot delete your own account.")
	assert.Contains(t, users.users, "u-1")
}
