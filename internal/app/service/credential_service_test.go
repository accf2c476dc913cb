package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"credtrack/internal/common"
	"credtrack/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

func newTestCredentialService(credRepo *fakeCredentialRepo, fileStore *fakeFileStore) *CredentialService {
	s := NewCredentialService(credRepo, fileStore)
	s.now = func() time.Time { return testToday }
	return s
}

func testCredential(id, ownerID string, expiry *time.Time) *model.Credential {
	return &model.Credential{
		ID:             id,
		UserID:         ownerID,
		CandidateName:  "Jane Nurse",
		Position:       "RN",
		CredentialType: "Nursing License",
		IssueDate:      testToday.AddDate(-1, 0, 0),
		ExpiryDate:     expiry,
		Email:          "jane@example.com",
		CreatedAt:      testToday,
		UpdatedAt:      testToday,
		Owner:          &model.UserRef{ID: ownerID, Name: "Owner", Email: "owner@example.com"},
	}
}

func recruiter(id string) *model.User {
	return &model.User{ID: id, Name: "Recruiter", Email: id + "@example.com", Role: model.RoleRecruiter}
}

func admin(id string) *model.User {
	return &model.User{ID: id, Name: "Admin", Email: id + "@example.com", Role: model.RoleAdmin}
}

func validInput() CredentialInput {
	return CredentialInput{
		CandidateName:  "Jane Nurse",
		Position:       "RN",
		CredentialType: "Nursing License",
		IssueDate:      "2025-03-15",
		ExpiryDate:     "2026-09-15",
		Email:          "jane@example.com",
	}
}

func TestCredentialListScopesRecruiterToOwnRows(t *testing.T) {
	credRepo := newFakeCredentialRepo(
		testCredential("c-1", "u-1", nil),
		testCredential("c-2", "u-2", nil),
	)
	s := newTestCredentialService(credRepo, &fakeFileStore{})

	result, err := s.List(context.Background(), recruiter("u-1"), ListParams{})
	require.NoError(t, err)

	assert.Equal(t, "u-1", credRepo.lastFilter.OwnerID)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "c-1", result.Data[0].ID)
}

func TestCredentialListAdminSeesAll(t *testing.T) {
	credRepo := newFakeCredentialRepo(
		testCredential("c-1", "u-1", nil),
		testCredential("c-2", "u-2", nil),
	)
	s := newTestCredentialService(credRepo, &fakeFileStore{})

	result, err := s.List(context.Background(), admin("u-9"), ListParams{})
	require.NoError(t, err)

	assert.Empty(t, credRepo.lastFilter.OwnerID)
	assert.Len(t, result.Data, 2)
	assert.Equal(t, 2, result.Meta.Total)
}

func TestCredentialListClampsPaging(t *testing.T) {
	credRepo := newFakeCredentialRepo()
	s := newTestCredentialService(credRepo, &fakeFileStore{})

	_, err := s.List(context.Background(), admin("u-9"), ListParams{Page: -2, PerPage: 5000})
	require.NoError(t, err)
	assert.Equal(t, 1, credRepo.lastFilter.Page)
	assert.Equal(t, 100, credRepo.lastFilter.PerPage)

	_, err = s.List(context.Background(), admin("u-9"), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 10, credRepo.lastFilter.PerPage)
}

func TestCredentialListEmptyMetaLastPage(t *testing.T) {
	s := newTestCredentialService(newFakeCredentialRepo(), &fakeFileStore{})

	result, err := s.List(context.Background(), admin("u-9"), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Meta.Total)
	assert.Equal(t, 1, result.Meta.LastPage)
}

func TestCredentialGetForbiddenForForeignRow(t *testing.T) {
	credRepo := newFakeCredentialRepo(testCredential("c-1", "u-2", nil))
	s := newTestCredentialService(credRepo, &fakeFileStore{})

	_, err := s.Get(context.Background(), recruiter("u-1"), "c-1")
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestCredentialGetComputesStatusPair(t *testing.T) {
	expiry := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC) // already past
	credential := testCredential("c-1", "u-1", &expiry)
	manual := model.StatusActive
	credential.ManualStatus = &manual
	s := newTestCredentialService(newFakeCredentialRepo(credential), &fakeFileStore{})

	resp, err := s.Get(context.Background(), recruiter("u-1"), "c-1")
	require.NoError(t, err)

	assert.Equal(t, model.StatusActive, resp.Status)
	assert.Equal(t, "green", resp.StatusColor)
	assert.Equal(t, model.StatusExpired, resp.CalculatedStatus)
	assert.Equal(t, "red", resp.CalculatedStatusColor)
}

func TestCredentialCreate(t *testing.T) {
	credRepo := newFakeCredentialRepo()
	s := newTestCredentialService(credRepo, &fakeFileStore{})

	resp, err := s.Create(context.Background(), admin("u-9"), validInput())
	require.NoError(t, err)

	assert.Equal(t, "u-9", resp.UserID)
	assert.Equal(t, "Jane Nurse", resp.CandidateName)
	require.NotNil(t, resp.ExpiryDate)
	assert.Equal(t, "2026-09-15", *resp.ExpiryDate)
	assert.Equal(t, model.StatusActive, resp.Status)
	assert.Len(t, credRepo.credentials, 1)
}

func TestCredentialCreateRejectsExpiryNotAfterIssue(t *testing.T) {
	s := newTestCredentialService(newFakeCredentialRepo(), &fakeFileStore{})

	input := validInput()
	input.ExpiryDate = input.IssueDate

	_, err := s.Create(context.Background(), admin("u-9"), input)

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "expiry_date")
}

func TestCredentialCreateCollectsAllFieldErrors(t *testing.T) {
	s := newTestCredentialService(newFakeCredentialRepo(), &fakeFileStore{})

	_, err := s.Create(context.Background(), admin("u-9"), CredentialInput{
		Email:  "not-an-email",
		Status: "bogus",
	})

	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	for _, field := range []string{"candidate_name", "position", "credential_type", "issue_date", "email", "status"} {
		assert.Contains(t, ve.Fields, field)
	}
}

func TestCredentialCreateSanitizesText(t *testing.T) {
	credRepo := newFakeCredentialRepo()
	s := newTestCredentialService(credRepo, &fakeFileStore{})

	input := validInput()
	input.CandidateName = "  Jane <b>Nurse</b>  "

	resp, err := s.Create(context.Background(), admin("u-9"), input)
	require.NoError(t, err)
	assert.Equal(t, "Jane Nurse", resp.CandidateName)
}

func TestCredentialUpdateForbiddenForForeignRow(t *testing.T) {
	credRepo := newFakeCredentialRepo(testCredential("c-1", "u-2", nil))
	s := newTestCredentialService(credRepo, &fakeFileStore{})

	_, err := s.Update(context.Background(), recruiter("u-1"), "c-1", validInput())
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestCredentialUpdateNotFound(t *testing.T) {
	s := newTestCredentialService(newFakeCredentialRepo(), &fakeFileStore{})

	_, err := s.Update(context.Background(), admin("u-9"), "missing", validInput())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCredentialDeleteForbiddenForForeignRow(t *testing.T) {
	credRepo := newFakeCredentialRepo(testCredential("c-1", "u-2", nil))
	s := newTestCredentialService(credRepo, &fakeFileStore{})

	err := s.Delete(context.Background(), recruiter("u-1"), "c-1")
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.Len(t, credRepo.credentials, 1)
}

func TestCredentialDelete(t *testing.T) {
	credRepo := newFakeCredentialRepo(testCredential("c-1", "u-2", nil))
	s := newTestCredentialService(credRepo, &fakeFileStore{})

	require.NoError(t, s.Delete(context.Background(), admin("u-9"), "c-1"))
	assert.Empty(t, credRepo.credentials)
}

func TestCredentialCreateUploadFailure(t *testing.T) {
	s := newTestCredentialService(newFakeCredentialRepo(), &fakeFileStore{err: errors.New("cloud down")})

	input := validInput()
	input.Document = pdfHeader(t)

	_, err := s.Create(context.Background(), admin("u-9"), input)
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestCredentialWriteCSV(t *testing.T) {
	expiry := time.Date(2026, time.September, 15, 0, 0, 0, 0, time.UTC)
	credRepo := newFakeCredentialRepo(testCredential("c-1", "u-1", &expiry))
	s := newTestCredentialService(credRepo, &fakeFileStore{})

	var buf bytes.Buffer
	require.NoError(t, s.WriteCSV(context.Background(), admin("u-9"), ListParams{}, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "candidate_name,position,credential_type,issue_date,expiry_date,email,status,calculated_status,managed_by", lines[0])
	assert.Contains(t, lines[1], "Jane Nurse")
	assert.Contains(t, lines[1], "2026-09-15")
	assert.Contains(t, lines[1], "active")
}

func TestCredentialWriteCSVExportsBeyondOneBatch(t *testing.T) {
	credRepo := newFakeCredentialRepo()
	total := exportPageSize + 25
	for i := 0; i < total; i++ {
		credRepo.credentials[fmt.Sprintf("c-%06d", i)] = testCredential(fmt.Sprintf("c-%06d", i), "u-1", nil)
	}
	s := newTestCredentialService(credRepo, &fakeFileStore{})

	var buf bytes.Buffer
	require.NoError(t, s.WriteCSV(context.Background(), admin("u-9"), ListParams{}, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, total+1, "header plus every row across batches")
}

func TestCredentialWriteCSVScopesRecruiter(t *testing.T) {
	credRepo := newFakeCredentialRepo(
		testCredential("c-1", "u-1", nil),
		testCredential("c-2", "u-2", nil),
	)
	s := newTestCredentialService(credRepo, &fakeFileStore{})

	var buf bytes.Buffer
	require.NoError(t, s.WriteCSV(context.Background(), recruiter("u-1"), ListParams{}, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2) // header plus the one owned row
	assert.Equal(t, "u-1", credRepo.lastFilter.OwnerID)
}
