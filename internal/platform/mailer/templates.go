package mailer

import (
	"bytes"
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ReminderData fills the expiry reminder template.
type ReminderData struct {
	CandidateName   string
	Position        string
	CredentialType  string
	ExpiryDate      string
	DaysUntilExpiry int
}

// SummaryItem is one row of the expiry summary table.
type SummaryItem struct {
	CandidateName  string
	Position       string
	CredentialType string
	ExpiryDate     string
}

// SummaryData fills the daily summary template.
type SummaryData struct {
	Credentials []SummaryItem
}

// ResetData fills the password reset template.
type ResetData struct {
	ResetURL string
}

func RenderReminder(data ReminderData) (string, error) {
	return render("reminder.html", data)
}

func RenderSummary(data SummaryData) (string, error) {
	return render("summary.html", data)
}

func RenderPasswordReset(data ResetData) (string, error) {
	return render("password_reset.html", data)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
