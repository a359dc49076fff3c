package utils

import (
	"testing"
	"time"

	"maktaba-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

var testPolicy = domain.FinePolicy{PerDay: 0.5, MaxFine: 50.0}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysLeft(t *testing.T) {
	due := date(2025, 3, 15)

	t.Run("Before due date", func(t *testing.T) {
		assert.Equal(t, 5, DaysLeft(due, date(2025, 3, 10)))
	})

	t.Run("On due date", func(t *testing.T) {
		assert.Equal(t, 0, DaysLeft(due, date(2025, 3, 15)))
	})

	t.Run("Past due date", func(t *testing.T) {
		assert.Equal(t, -3, DaysLeft(due, date(2025, 3, 18)))
	})

	t.Run("Ignores time of day", func(t *testing.T) {
		lateEvening := time.Date(2025, 3, 10, 23, 55, 0, 0, time.UTC)
		assert.Equal(t, 5, DaysLeft(due, lateEvening))
	})

	t.Run("Mixed time zones", func(t *testing.T) {
		// Due dates are stored at UTC midnight while the clock runs in
		// the process zone; a western zone must not shave off a day.
		west := time.FixedZone("UTC-5", -5*60*60)
		eveningBefore := time.Date(2025, 3, 14, 22, 0, 0, 0, west)
		assert.Equal(t, 1, DaysLeft(due, eveningBefore))

		east := time.FixedZone("UTC+9", 9*60*60)
		morningOfDue := time.Date(2025, 3, 15, 8, 0, 0, 0, east)
		assert.Equal(t, 0, DaysLeft(due, morningOfDue))
	})
}

func TestDeriveStatus(t *testing.T) {
	due := date(2025, 3, 15)

	t.Run("Returned wins regardless of due date", func(t *testing.T) {
		ret := date(2025, 4, 1)
		assert.Equal(t, domain.LoanStatusReturned, DeriveStatus(due, &ret, date(2025, 4, 10)))
	})

	t.Run("Overdue when unreturned and past due", func(t *testing.T) {
		assert.Equal(t, domain.LoanStatusOverdue, DeriveStatus(due, nil, date(2025, 3, 16)))
	})

	t.Run("Active on the due date itself", func(t *testing.T) {
		assert.Equal(t, domain.LoanStatusActive, DeriveStatus(due, nil, date(2025, 3, 15)))
	})

	t.Run("Active before due date", func(t *testing.T) {
		assert.Equal(t, domain.LoanStatusActive, DeriveStatus(due, nil, date(2025, 3, 1)))
	})
}

func TestFineBreakdown(t *testing.T) {
	due := date(2025, 1, 1)

	t.Run("No fine on or before due date", func(t *testing.T) {
		for _, ret := range []time.Time{date(2024, 12, 20), date(2025, 1, 1)} {
			r := ret
			b := FineBreakdown(due, &r, date(2025, 6, 1), testPolicy)
			assert.Equal(t, 0, b.OverdueDays)
			assert.Equal(t, 0.0, b.FineAmount)
			assert.False(t, b.IsCapped)
		}
	})

	t.Run("Ten days overdue", func(t *testing.T) {
		ret := date(2025, 1, 11)
		b := FineBreakdown(due, &ret, ret, testPolicy)
		assert.Equal(t, 10, b.OverdueDays)
		assert.Equal(t, 5.0, b.CalculatedFine)
		assert.Equal(t, 5.0, b.FineAmount)
		assert.False(t, b.IsCapped)
	})

	t.Run("Capped at max fine", func(t *testing.T) {
		ret := due.AddDate(0, 0, 200)
		b := FineBreakdown(due, &ret, ret, testPolicy)
		assert.Equal(t, 200, b.OverdueDays)
		assert.Equal(t, 100.0, b.CalculatedFine)
		assert.Equal(t, 50.0, b.FineAmount)
		assert.True(t, b.IsCapped)
	})

	t.Run("Unreturned loan accrues up to asOf", func(t *testing.T) {
		b := FineBreakdown(due, nil, date(2025, 1, 5), testPolicy)
		assert.Equal(t, 4, b.OverdueDays)
		assert.Equal(t, 2.0, b.FineAmount)
	})

	t.Run("Monotonically non-decreasing in return date", func(t *testing.T) {
		prev := 0.0
		for i := 0; i <= 150; i++ {
			ret := due.AddDate(0, 0, i)
			fine := CalculateFine(due, &ret, ret, testPolicy)
			assert.GreaterOrEqual(t, fine, prev, "fine decreased at day %d", i)
			assert.LessOrEqual(t, fine, testPolicy.MaxFine)
			prev = fine
		}
	})
}

func TestRoundCurrency(t *testing.T) {
	assert.Equal(t, 1.234, RoundCurrency(1.23449))
	assert.Equal(t, 1.235, RoundCurrency(1.2345))
	assert.Equal(t, 0.0, RoundCurrency(0))
}
