package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"credtrack/internal/common"
	"credtrack/internal/domain/model"
)

// CredentialFilter narrows and pages a credential listing. An empty OwnerID
// means no ownership scoping (admin view); Name and Type are substring
// matches.
type CredentialFilter struct {
	OwnerID string
	Name    string
	Type    string
	Page    int
	PerPage int
}

type CredentialRepository interface {
	Create(ctx context.Context, credential *model.Credential) error
	FindByID(ctx context.Context, id string) (*model.Credential, error)
	List(ctx context.Context, filter CredentialFilter) ([]*model.Credential, int, error)
	Update(ctx context.Context, credential *model.Credential) error
	Delete(ctx context.Context, id string) error
	ExpiringOn(ctx context.Context, date time.Time) ([]*model.Credential, error)
	ExpiringBetween(ctx context.Context, from, to time.Time) ([]*model.Credential, error)
}

type pgCredentialRepository struct {
	db *sql.DB
}

func NewPgCredentialRepository(db *sql.DB) CredentialRepository {
	return &pgCredentialRepository{db: db}
}

const credentialColumns = `c.id, c.user_id, c.candidate_name, c.position, c.credential_type,
	c.issue_date, c.expiry_date, c.email, c.status, c.document_url, c.created_at, c.updated_at,
	u.id, u.name, u.email`

func (r *pgCredentialRepository) Create(ctx context.Context, credential *model.Credential) error {
	query := `INSERT INTO credentials (id, user_id, candidate_name, position, credential_type,
	              issue_date, expiry_date, email, status, document_url)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		credential.ID, credential.UserID, credential.CandidateName, credential.Position, credential.CredentialType,
		credential.IssueDate, credential.ExpiryDate, credential.Email, credential.ManualStatus, credential.DocumentURL,
	)
	if err != nil {
		return fmt.Errorf("pgCredentialRepository.Create: %w", err)
	}
	return nil
}

func (r *pgCredentialRepository) FindByID(ctx context.Context, id string) (*model.Credential, error) {
	query := `SELECT ` + credentialColumns + `
	          FROM credentials c
	          JOIN users u ON u.id = c.user_id
	          WHERE c.id = $1`
	credential, err := scanCredential(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgCredentialRepository.FindByID: %w", err)
	}
	return credential, nil
}

func (r *pgCredentialRepository) List(ctx context.Context, filter CredentialFilter) ([]*model.Credential, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		where += fmt.Sprintf(" AND c.user_id = $%d", len(args))
	}
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		where += fmt.Sprintf(" AND c.candidate_name ILIKE $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, "%"+filter.Type+"%")
		where += fmt.Sprintf(" AND c.credential_type ILIKE $%d", len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM credentials c` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgCredentialRepository.List: %w", err)
	}

	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)
	query := `SELECT ` + credentialColumns + `
	          FROM credentials c
	          JOIN users u ON u.id = c.user_id` + where +
		fmt.Sprintf(` ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgCredentialRepository.List: %w", err)
	}
	defer rows.Close()

	credentials, err := collectCredentials(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("pgCredentialRepository.List: %w", err)
	}
	return credentials, total, nil
}

func (r *pgCredentialRepository) Update(ctx context.Context, credential *model.Credential) error {
	query := `UPDATE credentials
	          SET candidate_name = $2, position = $3, credential_type = $4, issue_date = $5,
	              expiry_date = $6, email = $7, status = $8, document_url = $9, updated_at = now()
	          WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		credential.ID, credential.CandidateName, credential.Position, credential.CredentialType,
		credential.IssueDate, credential.ExpiryDate, credential.Email, credential.ManualStatus, credential.DocumentURL,
	)
	if err != nil {
		return fmt.Errorf("pgCredentialRepository.Update: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgCredentialRepository.Update: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgCredentialRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgCredentialRepository.Delete: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgCredentialRepository.Delete: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ExpiringOn returns credentials whose expiry date falls exactly on the given
// calendar day, with owners hydrated for reminder dispatch.
func (r *pgCredentialRepository) ExpiringOn(ctx context.Context, date time.Time) ([]*model.Credential, error) {
	query := `SELECT ` + credentialColumns + `
	          FROM credentials c
	          JOIN users u ON u.id = c.user_id
	          WHERE c.expiry_date = $1
	          ORDER BY c.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("pgCredentialRepository.ExpiringOn: %w", err)
	}
	defer rows.Close()

	credentials, err := collectCredentials(rows)
	if err != nil {
		return nil, fmt.Errorf("pgCredentialRepository.ExpiringOn: %w", err)
	}
	return credentials, nil
}

// ExpiringBetween returns credentials with an expiry date inside [from, to],
// soonest expiry first.
func (r *pgCredentialRepository) ExpiringBetween(ctx context.Context, from, to time.Time) ([]*model.Credential, error) {
	query := `SELECT ` + credentialColumns + `
	          FROM credentials c
	          JOIN users u ON u.id = c.user_id
	          WHERE c.expiry_date >= $1 AND c.expiry_date <= $2
	          ORDER BY c.expiry_date ASC`
	rows, err := r.db.QueryContext(ctx, query, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("pgCredentialRepository.ExpiringBetween: %w", err)
	}
	defer rows.Close()

	credentials, err := collectCredentials(rows)
	if err != nil {
		return nil, fmt.Errorf("pgCredentialRepository.ExpiringBetween: %w", err)
	}
	return credentials, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*model.Credential, error) {
	credential := &model.Credential{Owner: &model.UserRef{}}
	err := row.Scan(
		&credential.ID, &credential.UserID, &credential.CandidateName, &credential.Position, &credential.CredentialType,
		&credential.IssueDate, &credential.ExpiryDate, &credential.Email, &credential.ManualStatus, &credential.DocumentURL,
		&credential.CreatedAt, &credential.UpdatedAt,
		&credential.Owner.ID, &credential.Owner.Name, &credential.Owner.Email,
	)
	if err != nil {
		return nil, err
	}
	return credential, nil
}

func collectCredentials(rows *sql.Rows) ([]*model.Credential, error) {
	var credentials []*model.Credential
	for rows.Next() {
		credential, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		credentials = append(credentials, credential)
	}
	return credentials, rows.Err()
}
