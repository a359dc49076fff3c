package jobs

import (
	"context"
	"time"

	"maktaba-backend/internal/logger"
	"maktaba-backend/internal/utils"
)

// SendOverdueReminders emails every holder of an overdue loan. Overdue is
// derived from due_date and return_date at run time; the job never writes
// a status back to storage.
func (jr *JobRunner) SendOverdueReminders() {
	jr.runWithRecovery("SendOverdueReminders", func() {
		if jr.email == nil {
			logger.Warn("Email service not configured, skipping overdue reminders")
			return
		}

		ctx := context.Background()
		today := utils.DateOnly(time.Now())

		overdue, err := jr.store.ListOverdue(ctx, today)
		if err != nil {
			logger.Error("Failed to list overdue loans", "error", err)
			return
		}

		policy := jr.config.FinePolicy()
		sent := 0
		for i := range overdue {
			loan := &overdue[i]
			fineSoFar := utils.CalculateFine(loan.DueDate, nil, today, policy)
			if err := jr.email.SendOverdueReminder(ctx, loan, fineSoFar); err != nil {
				logger.Error("Failed to send overdue reminder",
					"record_id", loan.ID,
					"user_id", loan.UserID,
					"error", err)
				continue
			}
			sent++
			logger.Debug("Sent overdue reminder",
				"record_id", loan.ID,
				"user_id", loan.UserID,
				"due_date", loan.DueDate.Format("2006-01-02"),
				"fine_so_far", fineSoFar)
		}

		logger.Info("Overdue reminders sent", "overdue_loans", len(overdue), "emails_sent", sent)
	})
}

// KeepAlivePing issues a trivial query so the hosted database is never
// paused for inactivity.
func (jr *JobRunner) KeepAlivePing() {
	jr.runWithRecovery("KeepAlivePing", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var one int
		if err := jr.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			logger.Error("Keep-alive ping failed", "error", err)
			return
		}
		logger.Debug("Keep-alive ping succeeded")
	})
}
