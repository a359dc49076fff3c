package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"maktaba-backend/internal/domain"
	"maktaba-backend/internal/logger"
)

type sendgridEmailService struct {
	client *sendgrid.Client
	from   *mail.Email
	log    *slog.Logger
}

// NewEmailService builds the SendGrid-backed notification sender. Returns
// nil when no API key is configured so callers can skip email entirely.
func NewEmailService(apiKey, fromAddress, fromName string) EmailService {
	if apiKey == "" {
		return nil
	}
	return &sendgridEmailService{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
		log:    logger.WithService("email"),
	}
}

func (s *sendgridEmailService) SendIssueReceipt(ctx context.Context, loan *domain.LoanDetail) error {
	subject := fmt.Sprintf("Book issued: %s", loan.BookTitle)
	body := fmt.Sprintf(
		"Hello %s,\n\nYou have borrowed %q.\nIssue date: %s\nDue date: %s\n\nPlease return the book by the due date to avoid late fines.\n",
		loan.HolderName,
		loan.BookTitle,
		loan.IssueDate.Format("2006-01-02"),
		loan.DueDate.Format("2006-01-02"),
	)
	return s.send(ctx, loan.HolderName, loan.HolderEmail, subject, body)
}

func (s *sendgridEmailService) SendOverdueReminder(ctx context.Context, loan *domain.LoanDetail, fineSoFar float64) error {
	subject := fmt.Sprintf("Overdue book: %s", loan.BookTitle)
	body := fmt.Sprintf(
		"Hello %s,\n\nThe book %q was due on %s and has not been returned.\nFine accrued so far: %.3f\n\nPlease return the book as soon as possible.\n",
		loan.HolderName,
		loan.BookTitle,
		loan.DueDate.Format("2006-01-02"),
		fineSoFar,
	)
	return s.send(ctx, loan.HolderName, loan.HolderEmail, subject, body)
}

func (s *sendgridEmailService) send(ctx context.Context, toName, toAddress, subject, body string) error {
	if toAddress == "" {
		return domain.Validation("recipient has no email address")
	}

	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail(toName, toAddress), body, "")
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return domain.Unexpected(err, "failed to send email")
	}
	if resp.StatusCode >= 400 {
		return domain.Unexpected(fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body), "failed to send email")
	}
	s.log.Debug("email sent", "to", toAddress, "subject", subject)
	return nil
}
