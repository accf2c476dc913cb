package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"credtrack/internal/common"
	"credtrack/internal/domain/model"
	"credtrack/internal/domain/policy"
	"credtrack/internal/domain/repository"
	"credtrack/internal/platform/storage"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type CredentialService struct {
	credRepo  repository.CredentialRepository
	fileStore storage.FileStore
	now       func() time.Time
}

func NewCredentialService(credRepo repository.CredentialRepository, fileStore storage.FileStore) *CredentialService {
	return &CredentialService{credRepo: credRepo, fileStore: fileStore, now: time.Now}
}

// CredentialInput is the write payload for create and update. Dates arrive
// as YYYY-MM-DD strings from both JSON and multipart forms.
type CredentialInput struct {
	CandidateName  string `json:"candidate_name"`
	Position       string `json:"position"`
	CredentialType string `json:"credential_type"`
	IssueDate      string `json:"issue_date"`
	ExpiryDate     string `json:"expiry_date"`
	Email          string `json:"email"`
	Status         string `json:"status"`

	Document *multipart.FileHeader `json:"-"`
}

// CredentialResponse is the read model: the stored row plus the
// calculated/effective status pair.
type CredentialResponse struct {
	ID                    string          `json:"id"`
	UserID                string          `json:"user_id"`
	User                  *model.UserRef  `json:"user,omitempty"`
	CandidateName         string          `json:"candidate_name"`
	Position              string          `json:"position"`
	CredentialType        string          `json:"credential_type"`
	IssueDate             string          `json:"issue_date"`
	ExpiryDate            *string         `json:"expiry_date"`
	Email                 string          `json:"email"`
	Status                model.Status    `json:"status"`
	StatusColor           string          `json:"status_color"`
	CalculatedStatus      model.Status    `json:"calculated_status"`
	CalculatedStatusColor string          `json:"calculated_status_color"`
	DocumentURL           *string         `json:"document_url"`
	CreatedAt             string          `json:"created_at"`
	UpdatedAt             string          `json:"updated_at"`
}

type ListParams struct {
	Name    string
	Type    string
	Page    int
	PerPage int
}

type PageMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}

type PaginatedCredentials struct {
	Data []CredentialResponse `json:"data"`
	Meta PageMeta             `json:"meta"`
}

func (s *CredentialService) List(ctx context.Context, actor *model.User, params ListParams) (*PaginatedCredentials, error) {
	filter := repository.CredentialFilter{
		Name:    params.Name,
		Type:    params.Type,
		Page:    params.Page,
		PerPage: params.PerPage,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = 10
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	// Recruiters only ever see their own rows.
	if !policy.Allows(actor.Role, policy.ActionViewAnyCredential) {
		filter.OwnerID = actor.ID
	}

	credentials, total, err := s.credRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	today := s.now()
	data := make([]CredentialResponse, 0, len(credentials))
	for _, credential := range credentials {
		data = append(data, toCredentialResponse(credential, today))
	}

	lastPage := (total + filter.PerPage - 1) / filter.PerPage
	if lastPage < 1 {
		lastPage = 1
	}
	return &PaginatedCredentials{
		Data: data,
		Meta: PageMeta{
			CurrentPage: filter.Page,
			PerPage:     filter.PerPage,
			Total:       total,
			LastPage:    lastPage,
		},
	}, nil
}

func (s *CredentialService) Get(ctx context.Context, actor *model.User, id string) (*CredentialResponse, error) {
	credential, err := s.credRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessCredential(actor.Role, actor.ID, credential.UserID) {
		return nil, fmt.Errorf("you can only view your own credentials: %w", common.ErrForbidden)
	}
	resp := toCredentialResponse(credential, s.now())
	return &resp, nil
}

func (s *CredentialService) Create(ctx context.Context, actor *model.User, input CredentialInput) (*CredentialResponse, error) {
	fields, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	credential := &model.Credential{
		ID:             uuid.NewString(),
		UserID:         actor.ID,
		CandidateName:  fields.candidateName,
		Position:       fields.position,
		CredentialType: fields.credentialType,
		IssueDate:      fields.issueDate,
		ExpiryDate:     fields.expiryDate,
		Email:          fields.email,
		ManualStatus:   fields.manualStatus,
	}

	if input.Document != nil {
		documentURL, err := s.uploadDocument(ctx, input.Document, credential.CandidateName)
		if err != nil {
			return nil, err
		}
		credential.DocumentURL = &documentURL
	}

	if err := s.credRepo.Create(ctx, credential); err != nil {
		return nil, err
	}

	credential.Owner = &model.UserRef{ID: actor.ID, Name: actor.Name, Email: actor.Email}
	now := s.now()
	credential.CreatedAt = now
	credential.UpdatedAt = now
	resp := toCredentialResponse(credential, now)
	return &resp, nil
}

func (s *CredentialService) Update(ctx context.Context, actor *model.User, id string, input CredentialInput) (*CredentialResponse, error) {
	credential, err := s.credRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessCredential(actor.Role, actor.ID, credential.UserID) {
		return nil, fmt.Errorf("you can only update your own credentials: %w", common.ErrForbidden)
	}

	fields, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	credential.CandidateName = fields.candidateName
	credential.Position = fields.position
	credential.CredentialType = fields.credentialType
	credential.IssueDate = fields.issueDate
	credential.ExpiryDate = fields.expiryDate
	credential.Email = fields.email
	credential.ManualStatus = fields.manualStatus

	if input.Document != nil {
		documentURL, err := s.uploadDocument(ctx, input.Document, credential.CandidateName)
		if err != nil {
			return nil, err
		}
		credential.DocumentURL = &documentURL
	}

	if err := s.credRepo.Update(ctx, credential); err != nil {
		return nil, err
	}

	now := s.now()
	credential.UpdatedAt = now
	resp := toCredentialResponse(credential, now)
	return &resp, nil
}

func (s *CredentialService) Delete(ctx context.Context, actor *model.User, id string) error {
	credential, err := s.credRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanAccessCredential(actor.Role, actor.ID, credential.UserID) {
		return fmt.Errorf("you can only delete your own credentials: %w", common.ErrForbidden)
	}
	return s.credRepo.Delete(ctx, id)
}

// exportPageSize is the batch size WriteCSV pulls per repository round trip.
const exportPageSize = 500

// WriteCSV streams the actor's visible credentials, after the same filters
// as List but without pagination, as CSV. Rows are fetched in batches until
// the listing is exhausted.
func (s *CredentialService) WriteCSV(ctx context.Context, actor *model.User, params ListParams, w io.Writer) error {
	filter := repository.CredentialFilter{Name: params.Name, Type: params.Type, Page: 1, PerPage: exportPageSize}
	if !policy.Allows(actor.Role, policy.ActionViewAnyCredential) {
		filter.OwnerID = actor.ID
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"candidate_name", "position", "credential_type", "issue_date", "expiry_date",
		"email", "status", "calculated_status", "managed_by",
	}); err != nil {
		return err
	}

	today := s.now()
	for {
		credentials, _, err := s.credRepo.List(ctx, filter)
		if err != nil {
			return err
		}
		for _, credential := range credentials {
			resp := toCredentialResponse(credential, today)
			expiry := ""
			if resp.ExpiryDate != nil {
				expiry = *resp.ExpiryDate
			}
			managedBy := ""
			if credential.Owner != nil {
				managedBy = credential.Owner.Name
			}
			if err := cw.Write([]string{
				resp.CandidateName, resp.Position, resp.CredentialType, resp.IssueDate, expiry,
				resp.Email, string(resp.Status), string(resp.CalculatedStatus), managedBy,
			}); err != nil {
				return err
			}
		}
		if len(credentials) < filter.PerPage {
			break
		}
		filter.Page++
	}
	cw.Flush()
	return cw.Error()
}

type credentialFields struct {
	candidateName  string
	position       string
	credentialType string
	issueDate      time.Time
	expiryDate     *time.Time
	email          string
	manualStatus   *model.Status
}

func (s *CredentialService) validateInput(input CredentialInput) (*credentialFields, error) {
	ve := &common.ValidationError{}

	candidateName := common.SanitizeText(input.CandidateName)
	position := common.SanitizeText(input.Position)
	credentialType := common.SanitizeText(input.CredentialType)
	email := common.SanitizeText(input.Email)

	requireText(ve, "candidate_name", candidateName)
	requireText(ve, "position", position)
	requireText(ve, "credential_type", credentialType)
	if !validEmail(email) {
		ve.Add("email", "The email must be a valid email address.")
	}

	var issueDate time.Time
	if input.IssueDate == "" {
		ve.Add("issue_date", "The issue date field is required.")
	} else {
		var err error
		issueDate, err = time.Parse(dateLayout, input.IssueDate)
		if err != nil {
			ve.Add("issue_date", "The issue date is not a valid date.")
		}
	}

	var expiryDate *time.Time
	if input.ExpiryDate != "" {
		parsed, err := time.Parse(dateLayout, input.ExpiryDate)
		if err != nil {
			ve.Add("expiry_date", "The expiry date is not a valid date.")
		} else if !issueDate.IsZero() && !parsed.After(issueDate) {
			// Strictly after: an expiry equal to the issue date is rejected.
			ve.Add("expiry_date", "The expiry date must be a date after issue date.")
		} else {
			expiryDate = &parsed
		}
	}

	var manualStatus *model.Status
	if input.Status != "" {
		status := model.Status(input.Status)
		if !model.ValidStatus(status) {
			ve.Add("status", "The selected status is invalid.")
		} else {
			manualStatus = &status
		}
	}

	if !ve.Empty() {
		return nil, ve
	}
	return &credentialFields{
		candidateName:  candidateName,
		position:       position,
		credentialType: credentialType,
		issueDate:      issueDate,
		expiryDate:     expiryDate,
		email:          email,
		manualStatus:   manualStatus,
	}, nil
}

func (s *CredentialService) uploadDocument(ctx context.Context, fh *multipart.FileHeader, name string) (string, error) {
	if err := validateUpload("document", fh, maxDocumentBytes, documentContentTypes); err != nil {
		return "", err
	}
	documentURL, err := s.fileStore.UploadFromHeader(ctx, fh, "credentials", name)
	if err != nil {
		return "", fmt.Errorf("document upload failed: %w", common.ErrServiceUnavailable)
	}
	return documentURL, nil
}

func toCredentialResponse(credential *model.Credential, today time.Time) CredentialResponse {
	view := credential.StatusView(today)
	resp := CredentialResponse{
		ID:                    credential.ID,
		UserID:                credential.UserID,
		User:                  credential.Owner,
		CandidateName:         credential.CandidateName,
		Position:              credential.Position,
		CredentialType:        credential.CredentialType,
		IssueDate:             credential.IssueDate.Format(dateLayout),
		Email:                 credential.Email,
		Status:                view.Status,
		StatusColor:           view.StatusColor,
		CalculatedStatus:      view.CalculatedStatus,
		CalculatedStatusColor: view.CalculatedStatusColor,
		DocumentURL:           credential.DocumentURL,
		CreatedAt:             credential.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             credential.UpdatedAt.Format(time.RFC3339),
	}
	if credential.ExpiryDate != nil {
		expiry := credential.ExpiryDate.Format(dateLayout)
		resp.ExpiryDate = &expiry
	}
	return resp
}
