package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"credtrack/internal/common"
	"credtrack/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCredentialRepoWithMock(t *testing.T) (CredentialRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPgCredentialRepository(db), mock, db
}

var credentialTestColumns = []string{
	"id", "user_id", "candidate_name", "position", "credential_type",
	"issue_date", "expiry_date", "email", "status", "document_url", "created_at", "updated_at",
	"owner_id", "owner_name", "owner_email",
}

func credentialRow(id, ownerID string, expiry *time.Time) []driver.Value {
	now := time.Now()
	issue := now.AddDate(-1, 0, 0)
	var expiryVal driver.Value
	if expiry != nil {
		expiryVal = *expiry
	}
	return []driver.Value{
		id, ownerID, "Jane Nurse", "RN", "Nursing License",
		issue, expiryVal, "jane@example.com", nil, nil, now, now,
		ownerID, "Owner Name", "owner@example.com",
	}
}

func TestCredentialRepositoryCreate(t *testing.T) {
	repo, mock, db := newCredentialRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO credentials`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.Credential{
		ID:             "c-1",
		UserID:         "u-1",
		CandidateName:  "Jane Nurse",
		Position:       "RN",
		CredentialType: "Nursing License",
		IssueDate:      time.Now(),
		Email:          "jane@example.com",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepositoryFindByID(t *testing.T) {
	repo, mock, db := newCredentialRepoWithMock(t)
	defer db.Close()

	expiry := time.Now().AddDate(0, 6, 0)
	rows := sqlmock.NewRows(credentialTestColumns).AddRow(credentialRow("c-1", "u-1", &expiry)...)
	mock.ExpectQuery(`(?s)SELECT .+ FROM credentials c\s+JOIN users u ON u\.id = c\.user_id\s+WHERE c\.id = \$1`).
		WithArgs("c-1").
		WillReturnRows(rows)

	credential, err := repo.FindByID(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", credential.ID)
	assert.Equal(t, "Jane Nurse", credential.CandidateName)
	require.NotNil(t, credential.Owner)
	assert.Equal(t, "owner@example.com", credential.Owner.Email)
	require.NotNil(t, credential.ExpiryDate)
}

func TestCredentialRepositoryFindByIDNotFound(t *testing.T) {
	repo, mock, db := newCredentialRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT .+ FROM credentials c`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCredentialRepositoryListUnfiltered(t *testing.T) {
	repo, mock, db := newCredentialRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM credentials c WHERE 1=1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	rows := sqlmock.NewRows(credentialTestColumns).
		AddRow(credentialRow("c-1", "u-1", nil)...).
		AddRow(credentialRow("c-2", "u-2", nil)...)
	mock.ExpectQuery(`(?s)SELECT .+ FROM credentials c\s+JOIN users u .+ WHERE 1=1 ORDER BY c\.created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 0).
		WillReturnRows(rows)

	credentials, total, err := repo.List(context.Background(), CredentialFilter{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, credentials, 2)
}

func TestCredentialRepositoryListScopedAndFiltered(t *testing.T) {
	repo, mock, db := newCredentialRepoWithMock(t)
	defer db.Close()

	// Owner scope, name and type filters bind in order, paging args last.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM credentials c WHERE 1=1 AND c\.user_id = \$1 AND c\.candidate_name ILIKE \$2 AND c\.credential_type ILIKE \$3`).
		WithArgs("u-1", "%jane%", "%license%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows(credentialTestColumns).AddRow(credentialRow("c-1", "u-1", nil)...)
	mock.ExpectQuery(`(?s)SELECT .+ FROM credentials c.+LIMIT \$4 OFFSET \$5`).
		WithArgs("u-1", "%jane%", "%license%", 5, 5).
		WillReturnRows(rows)

	credentials, total, err := repo.List(context.Background(), CredentialFilter{
		OwnerID: "u-1",
		Name:    "jane",
		Type:    "license",
		Page:    2,
		PerPage: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, credentials, 1)
}

func TestCredentialRepositoryUpdateNotFound(t *testing.T) {
	repo, mock, db := newCredentialRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE credentials`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.Credential{ID: "missing"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCredentialRepositoryDelete(t *testing.T) {
	repo, mock, db := newCredentialRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM credentials WHERE id = \$1`).
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(context.Background(), "c-1"))
}

func TestCredentialRepositoryExpiringOn(t *testing.T) {
	repo, mock, db := newCredentialRepoWithMock(t)
	defer db.Close()

	target := time.Date(2026, time.September, 28, 0, 0, 0, 0, time.UTC)
	expiry := target
	rows := sqlmock.NewRows(credentialTestColumns).AddRow(credentialRow("c-1", "u-1", &expiry)...)
	mock.ExpectQuery(`(?s)SELECT .+ FROM credentials c.+WHERE c\.expiry_date = \$1`).
		WithArgs("2026-09-28").
		WillReturnRows(rows)

	credentials, err := repo.ExpiringOn(context.Background(), target)
	require.NoError(t, err)
	assert.Len(t, credentials, 1)
}

func TestCredentialRepositoryExpiringBetween(t *testing.T) {
	repo, mock, db := newCredentialRepoWithMock(t)
	defer db.Close()

	from := time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 30)
	expiry := from.AddDate(0, 0, 10)
	rows := sqlmock.NewRows(credentialTestColumns).AddRow(credentialRow("c-1", "u-1", &expiry)...)
	mock.ExpectQuery(`(?s)SELECT .+ FROM credentials c.+WHERE c\.expiry_date >= \$1 AND c\.expiry_date <= \$2.+ORDER BY c\.expiry_date ASC`).
		WithArgs("2026-08-29", "2026-09-28").
		WillReturnRows(rows)

	credentials, err := repo.ExpiringBetween(context.Background(), from, to)
	require.NoError(t, err)
	assert.Len(t, credentials, 1)
}
