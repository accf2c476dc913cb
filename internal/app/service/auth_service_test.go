package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"credtrack/internal/common"
	"credtrack/internal/common/security"
	"credtrack/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAuthService(users *fakeUserRepo, sessions *fakeSessionRepo, mail *fakeMailer) *AuthService {
	return NewAuthService(users, sessions, &fakeFileStore{}, mail, discardLogger())
}

func registerRequest() RegisterRequest {
	return RegisterRequest{
		Name:                 "Alice",
		Email:                "alice@example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
	}
}

func TestRegisterDefaultsToRecruiter(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	s := newTestAuthService(users, sessions, newFakeMailer())

	resp, err := s.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	assert.Equal(t, model.RoleRecruiter, resp.User.Role)
	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, resp.User.HashedPassword)
	assert.Len(t, sessions.sessions, 1)
}

func TestRegisterRejectsSuperAdminRole(t *testing.T) {
	s := newTestAuthService(newFakeUserRepo(), newFakeSessionRepo(), newFakeMailer())

	req := registerRequest()
	req.Role = string(model.RoleSuperAdmin)

	_, err := s.Register(context.Background(), req)

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "role")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newFakeUserRepo(&model.User{ID: "u-1", Email: "alice@example.com"})
	s := newTestAuthService(users, newFakeSessionRepo(), newFakeMailer())

	_, err := s.Register(context.Background(), registerRequest())
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestRegisterPasswordRules(t *testing.T) {
	s := newTestAuthService(newFakeUserRepo(), newFakeSessionRepo(), newFakeMailer())

	req := registerRequest()
	req.Password = "short"
	req.PasswordConfirmation = "different"

	_, err := s.Register(context.Background(), req)

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields["password"], 2)
}

func TestLogin(t *testing.T) {
	hashed, err := security.HashPassword("password123")
	require.NoError(t, err)
	users := newFakeUserRepo(&model.User{
		ID: "u-1", Email: "alice@example.com", HashedPassword: hashed, Role: model.RoleRecruiter,
	})
	sessions := newFakeSessionRepo()
	s := newTestAuthService(users, sessions, newFakeMailer())

	resp, err := s.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, resp.User.HashedPassword)
	assert.Len(t, sessions.sessions, 1)
}

func TestLoginWrongPassword(t *testing.T) {
	hashed, err := security.HashPassword("password123")
	require.NoError(t, err)
	users := newFakeUserRepo(&model.User{ID: "u-1", Email: "alice@example.com", HashedPassword: hashed})
	s := newTestAuthService(users, newFakeSessionRepo(), newFakeMailer())

	_, err = s.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "wrong"})

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields["email"], "The provided credentials are incorrect.")
}

func TestLoginUnknownEmailLooksLikeWrongPassword(t *testing.T) {
	s := newTestAuthService(newFakeUserRepo(), newFakeSessionRepo(), newFakeMailer())

	_, err := s.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "password123"})

	// Same message as a wrong password, so the endpoint does not leak which
	// addresses are registered.
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields["email"], "The provided credentials are incorrect.")
}

func TestLogoutRevokesOnlyPresentingSession(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.sessions["jti-1"] = "u-1"
	sessions.sessions["jti-2"] = "u-1"
	s := newTestAuthService(newFakeUserRepo(), sessions, newFakeMailer())

	require.NoError(t, s.Logout(context.Background(), "jti-1"))

	_, stillAlive := sessions.sessions["jti-2"]
	assert.True(t, stillAlive)
	_, revoked := sessions.sessions["jti-1"]
	assert.False(t, revoked)
}

func TestUpdateProfileRequiresCurrentPassword(t *testing.T) {
	hashed, err := security.HashPassword("password123")
	require.NoError(t, err)
	actor := &model.User{ID: "u-1", Email: "alice@example.com", HashedPassword: hashed}
	users := newFakeUserRepo(actor)
	s := newTestAuthService(users, newFakeSessionRepo(), newFakeMailer())

	_, err = s.UpdateProfile(context.Background(), actor, UpdateProfileRequest{
		Password:             "newpassword1",
		PasswordConfirmation: "newpassword1",
		CurrentPassword:      "wrong",
	})

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "current_password")
}

func TestUpdateProfileChangesNameAndPassword(t *testing.T) {
	hashed, err := security.HashPassword("password123")
	require.NoError(t, err)
	actor := &model.User{ID: "u-1", Name: "Alice", Email: "alice@example.com", HashedPassword: hashed}
	users := newFakeUserRepo(actor)
	s := newTestAuthService(users, newFakeSessionRepo(), newFakeMailer())

	updated, err := s.UpdateProfile(context.Background(), actor, UpdateProfileRequest{
		Name:                 "Alice Updated",
		Password:             "newpassword1",
		PasswordConfirmation: "newpassword1",
		CurrentPassword:      "password123",
	})
	require.NoError(t, err)

	assert.Equal(t, "Alice Updated", updated.Name)
	stored := users.users["u-1"]
	assert.True(t, security.CheckPasswordHash("newpassword1", stored.HashedPassword))
}

func TestForgotPasswordSendsResetMail(t *testing.T) {
	users := newFakeUserRepo(&model.User{ID: "u-1", Email: "alice@example.com"})
	sessions := newFakeSessionRepo()
	mail := newFakeMailer()
	s := newTestAuthService(users, sessions, mail)

	require.NoError(t, s.ForgotPassword(context.Background(), "alice@example.com"))

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "alice@example.com", mail.sent[0].to)
	assert.Len(t, sessions.resetTokens, 1)
}

func TestForgotPasswordUnknownEmailSucceedsSilently(t *testing.T) {
	mail := newFakeMailer()
	s := newTestAuthService(newFakeUserRepo(), newFakeSessionRepo(), mail)

	assert.NoError(t, s.ForgotPassword(context.Background(), "ghost@example.com"))
	assert.Empty(t, mail.sent)
}

func TestResetPassword(t *testing.T) {
	hashed, err := security.HashPassword("oldpassword1")
	require.NoError(t, err)
	users := newFakeUserRepo(&model.User{ID: "u-1", Email: "alice@example.com", HashedPassword: hashed})
	sessions := newFakeSessionRepo()
	sessions.resetTokens["tok-1"] = "u-1"
	s := newTestAuthService(users, sessions, newFakeMailer())

	err = s.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:                "tok-1",
		Email:                "alice@example.com",
		Password:             "newpassword1",
		PasswordConfirmation: "newpassword1",
	})
	require.NoError(t, err)

	stored := users.users["u-1"]
	assert.True(t, security.CheckPasswordHash("newpassword1", stored.HashedPassword))
	assert.Empty(t, sessions.resetTokens, "token is consumed")
}

func TestResetPasswordInvalidToken(t *testing.T) {
	users := newFakeUserRepo(&model.User{ID: "u-1", Email: "alice@example.com"})
	s := newTestAuthService(users, newFakeSessionRepo(), newFakeMailer())

	err := s.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:                "bogus",
		Email:                "alice@example.com",
		Password:             "newpassword1",
		PasswordConfirmation: "newpassword1",
	})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}

func TestResetPasswordEmailMismatch(t *testing.T) {
	users := newFakeUserRepo(&model.User{ID: "u-1", Email: "alice@example.com"})
	sessions := newFakeSessionRepo()
	sessions.resetTokens["tok-1"] = "u-1"
	s := newTestAuthService(users, sessions, newFakeMailer())

	err := s.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:                "tok-1",
		Email:                "other@example.com",
		Password:             "newpassword1",
		PasswordConfirmation: "newpassword1",
	})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}
