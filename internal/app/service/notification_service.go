package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credtrack/internal/common"
	"credtrack/internal/domain/model"
	"credtrack/internal/domain/repository"
	"credtrack/internal/platform/mailer"
)

// DefaultReminderDays are the expiry distances that trigger a reminder when
// the caller does not specify its own.
var DefaultReminderDays = []int{30, 14, 7}

type NotificationService struct {
	credRepo repository.CredentialRepository
	userRepo repository.UserRepository
	mail     mailer.Mailer
	logger   *slog.Logger
	now      func() time.Time
}

func NewNotificationService(
	credRepo repository.CredentialRepository,
	userRepo repository.UserRepository,
	mail mailer.Mailer,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		credRepo: credRepo,
		userRepo: userRepo,
		mail:     mail,
		logger:   logger,
		now:      time.Now,
	}
}

// sendResult records the outcome of one attempted delivery. Results are
// collected first and aggregated once, so a failed recipient never stops the
// rest of the batch.
type sendResult struct {
	recipient string
	err       error
}

// DispatchReport is the response body for both email triggers.
type DispatchReport struct {
	Message          string   `json:"message"`
	TotalSent        int      `json:"total_sent"`
	CredentialsCount int      `json:"credentials_count,omitempty"`
	Errors           []string `json:"errors"`
}

// SendReminders emails the owner of every credential expiring in exactly the
// given number of days (per day bucket). Each matching credential produces
// one email.
func (s *NotificationService) SendReminders(ctx context.Context, days []int) (*DispatchReport, error) {
	if len(days) == 0 {
		days = DefaultReminderDays
	}

	today := s.now()
	var results []sendResult
	for _, d := range days {
		target := today.AddDate(0, 0, d)
		credentials, err := s.credRepo.ExpiringOn(ctx, target)
		if err != nil {
			return nil, err
		}
		for _, credential := range credentials {
			if credential.Owner == nil || credential.Owner.Email == "" {
				continue
			}
			results = append(results, sendResult{
				recipient: credential.Owner.Email,
				err:       s.sendReminder(ctx, credential, d),
			})
		}
	}

	report := aggregate(results)
	report.Message = "Reminder emails sent successfully"
	return report, nil
}

// SendSummary emails every admin a table of credentials expiring within the
// next 30 days. Fails with 400 when no admin exists to receive it.
func (s *NotificationService) SendSummary(ctx context.Context) (*DispatchReport, error) {
	today := s.now()
	credentials, err := s.credRepo.ExpiringBetween(ctx, today, today.AddDate(0, 0, model.ExpiringSoonWindowDays))
	if err != nil {
		return nil, err
	}

	admins, err := s.userRepo.FindByRole(ctx, model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if len(admins) == 0 {
		return nil, fmt.Errorf("no admin users found: %w", common.ErrBadRequest)
	}

	items := make([]mailer.SummaryItem, 0, len(credentials))
	for _, credential := range credentials {
		item := mailer.SummaryItem{
			CandidateName:  credential.CandidateName,
			Position:       credential.Position,
			CredentialType: credential.CredentialType,
		}
		if credential.ExpiryDate != nil {
			item.ExpiryDate = credential.ExpiryDate.Format(dateLayout)
		}
		items = append(items, item)
	}

	body, err := mailer.RenderSummary(mailer.SummaryData{Credentials: items})
	if err != nil {
		return nil, fmt.Errorf("failed to render summary email: %w", err)
	}

	var results []sendResult
	for _, admin := range admins {
		if admin.Email == "" {
			continue
		}
		results = append(results, sendResult{
			recipient: admin.Email,
			err:       s.mail.Send(ctx, admin.Email, "Upcoming credential expiries", body),
		})
	}

	report := aggregate(results)
	report.Message = "Summary emails sent successfully"
	report.CredentialsCount = len(credentials)
	return report, nil
}

func (s *NotificationService) sendReminder(ctx context.Context, credential *model.Credential, days int) error {
	data := mailer.ReminderData{
		CandidateName:   credential.CandidateName,
		Position:        credential.Position,
		CredentialType:  credential.CredentialType,
		DaysUntilExpiry: days,
	}
	if credential.ExpiryDate != nil {
		data.ExpiryDate = credential.ExpiryDate.Format(dateLayout)
	}

	body, err := mailer.RenderReminder(data)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Credential expiring in %d days: %s", days, credential.CandidateName)
	return s.mail.Send(ctx, credential.Owner.Email, subject, body)
}

func aggregate(results []sendResult) *DispatchReport {
	report := &DispatchReport{Errors: []string{}}
	for _, r := range results {
		if r.err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to send email to %s: %v", r.recipient, r.err))
			continue
		}
		report.TotalSent++
	}
	return report
}
