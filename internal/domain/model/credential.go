package model

import (
	"time"
)

// Credential is a trackable compliance artifact (license, certification,
// background check) tied to a candidate and owned by the user who manages it.
type Credential struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	CandidateName  string     `json:"candidate_name"`
	Position       string     `json:"position"`
	CredentialType string     `json:"credential_type"`
	IssueDate      time.Time  `json:"issue_date"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	Email          string     `json:"email"`
	ManualStatus   *Status    `json:"status"` // nil means derive from expiry_date
	DocumentURL    *string    `json:"document_url"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Owner is hydrated by list/show queries.
	Owner *UserRef `json:"user,omitempty"`
}

// UserRef is the embedded owner summary of a credential read model.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StatusView pairs the displayed status with the system-calculated one so
// clients can show "system says X, overridden to Y".
type StatusView struct {
	Status                Status `json:"status"`
	StatusColor           string `json:"status_color"`
	CalculatedStatus      Status `json:"calculated_status"`
	CalculatedStatusColor string `json:"calculated_status_color"`
}

// StatusView computes both the calculated and the effective status relative
// to today. A non-empty manual status wins for display; the calculated pair
// is always reported alongside it.
func (c *Credential) StatusView(today time.Time) StatusView {
	calculated := CalculatedStatus(c.ExpiryDate, today)
	view := StatusView{
		Status:                calculated,
		StatusColor:           StatusColor(calculated),
		CalculatedStatus:      calculated,
		CalculatedStatusColor: StatusColor(calculated),
	}
	if c.ManualStatus != nil && *c.ManualStatus != "" {
		view.Status = *c.ManualStatus
		view.StatusColor = StatusColor(*c.ManualStatus)
	}
	return view
}
