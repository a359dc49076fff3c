package unit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"maktaba-backend/internal/domain"
	"maktaba-backend/internal/service"
)

func TestReportsService_Stats(t *testing.T) {
	loans := new(MockLoanRepo)
	books := new(MockBookRepo)
	svc := service.NewReportsService(loans, books, testPolicy)

	ctx := context.Background()
	actor := staffActor()

	frequentBook := uuid.New()
	frequentUser := uuid.New()

	returnedToday := day(0)
	returnedEarlier := day(-4)
	paidFine := 3.5
	unpaidFine := 5.0

	details := []domain.LoanDetail{
		*loanDetail(uuid.New(), frequentUser, day(5), nil, 0),  // active
		*loanDetail(uuid.New(), frequentUser, day(-2), nil, 0), // overdue
		*loanDetail(uuid.New(), uuid.New(), day(-6), &returnedToday, 0),
		*loanDetail(uuid.New(), frequentUser, day(-10), &returnedEarlier, 0),
	}
	details[0].BookID = frequentBook
	details[1].BookID = frequentBook
	details[2].FineAmount = &paidFine
	details[2].FinePaid = true
	details[3].FineAmount = &unpaidFine

	loans.On("List", ctx, mock.AnythingOfType("domain.LoanFilter")).Return(details, nil)

	stats, err := svc.Stats(ctx, actor)
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveIssues)
	assert.Equal(t, 1, stats.OverdueBooks)
	assert.Equal(t, 1, stats.ReturnedToday)
	assert.Equal(t, 8.5, stats.TotalFines)
	assert.Equal(t, 3.5, stats.TotalFinesPaid)

	// The fixture issues 15 days before the due date, so both returned
	// loans were out for 21 days.
	assert.Equal(t, 21.0, stats.AverageBorrowDuration)

	assert.Equal(t, frequentBook, stats.MostBorrowedBooks[0].BookID)
	assert.Equal(t, 2, stats.MostBorrowedBooks[0].Count)
	assert.Equal(t, frequentUser, stats.MostActiveUsers[0].UserID)
	assert.Equal(t, 3, stats.MostActiveUsers[0].Count)
}

func TestReportsService_StatsPermission(t *testing.T) {
	svc := service.NewReportsService(new(MockLoanRepo), new(MockBookRepo), testPolicy)

	stats, err := svc.Stats(context.Background(), patronActor(uuid.New()))
	assert.Nil(t, stats)
	assert.Equal(t, domain.ErrForbidden, domain.KindOf(err))
}

func TestReportsService_Trends(t *testing.T) {
	loans := new(MockLoanRepo)
	svc := service.NewReportsService(loans, new(MockBookRepo), testPolicy)

	ctx := context.Background()
	actor := staffActor()

	issuedYesterday := *loanDetail(uuid.New(), uuid.New(), day(14), nil, 0)
	issuedYesterday.IssueDate = day(-1)
	returnedToday := day(0)
	closed := *loanDetail(uuid.New(), uuid.New(), day(-5), &returnedToday, 0)
	outsideWindow := *loanDetail(uuid.New(), uuid.New(), day(40), nil, 0)
	outsideWindow.IssueDate = day(-30)

	loans.On("List", ctx, mock.AnythingOfType("domain.LoanFilter")).
		Return([]domain.LoanDetail{issuedYesterday, closed, outsideWindow}, nil)

	points, err := svc.Trends(ctx, actor, 7)
	assert.NoError(t, err)
	assert.Len(t, points, 7)
	assert.Equal(t, day(-1).Format("2006-01-02"), points[5].Date)
	assert.Equal(t, 1, points[5].Issues)
	assert.Equal(t, 1, points[6].Returns)

	var totalIssues int
	for _, p := range points {
		totalIssues += p.Issues
	}
	assert.Equal(t, 1, totalIssues)
}

func TestReportsService_Summary(t *testing.T) {
	loans := new(MockLoanRepo)
	books := new(MockBookRepo)
	svc := service.NewReportsService(loans, books, testPolicy)

	ctx := context.Background()
	actor := staffActor()

	returned := day(-1)
	books.On("CountCopies", ctx).Return(10, 40, 33, nil)
	loans.On("List", ctx, mock.AnythingOfType("domain.LoanFilter")).Return([]domain.LoanDetail{
		*loanDetail(uuid.New(), uuid.New(), day(5), nil, 0),
		*loanDetail(uuid.New(), uuid.New(), day(-3), nil, 0),
		*loanDetail(uuid.New(), uuid.New(), day(-8), &returned, 0),
	}, nil)

	summary, err := svc.Summary(ctx, actor)
	assert.NoError(t, err)
	assert.Equal(t, 10, summary.TotalBooks)
	assert.Equal(t, 40, summary.TotalCopies)
	assert.Equal(t, 33, summary.AvailableCopies)
	assert.Equal(t, 1, summary.ActiveLoans)
	assert.Equal(t, 1, summary.OverdueLoans)
	assert.Equal(t, 1, summary.ReturnedLoans)
}
