package utils

import (
	"math"
	"time"

	"maktaba-backend/internal/domain"
)

// DateOnly truncates t to midnight so fine and days-left math always works
// in whole calendar days regardless of the time-of-day in the input.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b is before a. Each operand contributes the calendar date
// of its own location; the subtraction happens in UTC so mixed-zone
// inputs can never produce a fractional day.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// DaysLeft returns the signed number of days from asOf until the due date.
// Negative means the loan is overdue.
func DaysLeft(dueDate, asOf time.Time) int {
	return DaysBetween(asOf, dueDate)
}

// DeriveStatus computes a loan's status from its stored inputs. This is the
// single derivation used everywhere: a record is returned iff return_date is
// set, overdue iff unreturned and past due as of asOf, active otherwise.
func DeriveStatus(dueDate time.Time, returnDate *time.Time, asOf time.Time) domain.LoanStatus {
	if returnDate != nil {
		return domain.LoanStatusReturned
	}
	if DaysLeft(dueDate, asOf) < 0 {
		return domain.LoanStatusOverdue
	}
	return domain.LoanStatusActive
}

// RoundCurrency rounds an amount to 3 decimal places, the minor-unit
// precision of the fine currency.
func RoundCurrency(amount float64) float64 {
	return math.Round(amount*1000) / 1000
}

// FineBreakdown computes the full fine breakdown for a loan. For an
// unreturned loan pass returnDate = nil and the fine accrues up to asOf.
// calculated_fine is the uncapped amount kept for diagnostics; fine_amount
// is what is actually charged, capped at policy.MaxFine.
func FineBreakdown(dueDate time.Time, returnDate *time.Time, asOf time.Time, policy domain.FinePolicy) domain.FineBreakdown {
	checkDate := asOf
	if returnDate != nil {
		checkDate = *returnDate
	}

	b := domain.FineBreakdown{
		DailyRate: policy.PerDay,
		MaxFine:   policy.MaxFine,
	}

	overdueDays := DaysBetween(dueDate, checkDate)
	if overdueDays <= 0 {
		return b
	}

	b.OverdueDays = overdueDays
	b.CalculatedFine = RoundCurrency(float64(overdueDays) * policy.PerDay)
	b.IsCapped = b.CalculatedFine > policy.MaxFine
	b.CappedFine = b.CalculatedFine
	if b.IsCapped {
		b.CappedFine = policy.MaxFine
	}
	b.FineAmount = b.CappedFine
	return b
}

// CalculateFine returns only the chargeable (capped) fine amount.
func CalculateFine(dueDate time.Time, returnDate *time.Time, asOf time.Time, policy domain.FinePolicy) float64 {
	return FineBreakdown(dueDate, returnDate, asOf, policy).FineAmount
}
