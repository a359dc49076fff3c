package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"maktaba-backend/internal/domain"
	"maktaba-backend/internal/logger"
	"maktaba-backend/internal/repository"
	"maktaba-backend/internal/utils"
)

const topRankSize = 5

type reportsService struct {
	loans  repository.LoanRepository
	books  repository.BookRepository
	policy domain.FinePolicy
	log    *slog.Logger
}

func NewReportsService(loans repository.LoanRepository, books repository.BookRepository, policy domain.FinePolicy) ReportsService {
	return &reportsService{
		loans:  loans,
		books:  books,
		policy: policy,
		log:    logger.WithService("reports"),
	}
}

// Stats walks every circulation record once and derives status with the
// same rules the read endpoints use, so the dashboard can never disagree
// with a record's own view.
func (s *reportsService) Stats(ctx context.Context, actor *domain.Actor) (*domain.CirculationStats, error) {
	if !actor.Can(domain.PermReportsView) {
		return nil, domain.Forbidden("missing permission to view reports")
	}

	details, err := s.loans.List(ctx, domain.LoanFilter{})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	today := utils.DateOnly(now)
	stats := &domain.CirculationStats{}

	bookCounts := map[uuid.UUID]*domain.BookCount{}
	userCounts := map[uuid.UUID]*domain.UserCount{}
	var bookOrder []uuid.UUID
	var userOrder []uuid.UUID
	var durationTotal, durationCount int

	for i := range details {
		d := &details[i]
		switch utils.DeriveStatus(d.DueDate, d.ReturnDate, now) {
		case domain.LoanStatusActive:
			stats.ActiveIssues++
		case domain.LoanStatusOverdue:
			stats.OverdueBooks++
		case domain.LoanStatusReturned:
			if utils.DateOnly(*d.ReturnDate).Equal(today) {
				stats.ReturnedToday++
			}
			durationTotal += utils.DaysBetween(d.IssueDate, *d.ReturnDate)
			durationCount++
		}

		if d.FineAmount != nil {
			stats.TotalFines += *d.FineAmount
			if d.FinePaid {
				stats.TotalFinesPaid += *d.FineAmount
			}
		}

		if bc, ok := bookCounts[d.BookID]; ok {
			bc.Count++
		} else {
			bookCounts[d.BookID] = &domain.BookCount{BookID: d.BookID, Title: d.BookTitle, Count: 1}
			bookOrder = append(bookOrder, d.BookID)
		}
		if uc, ok := userCounts[d.UserID]; ok {
			uc.Count++
		} else {
			userCounts[d.UserID] = &domain.UserCount{UserID: d.UserID, Name: d.HolderName, Count: 1}
			userOrder = append(userOrder, d.UserID)
		}
	}

	stats.TotalFines = utils.RoundCurrency(stats.TotalFines)
	stats.TotalFinesPaid = utils.RoundCurrency(stats.TotalFinesPaid)
	if durationCount > 0 {
		stats.AverageBorrowDuration = utils.RoundCurrency(float64(durationTotal) / float64(durationCount))
	}
	stats.MostBorrowedBooks = topBooks(bookCounts, bookOrder)
	stats.MostActiveUsers = topUsers(userCounts, userOrder)
	return stats, nil
}

// topBooks ranks by count descending; ties keep first-encountered order,
// which the stable sort preserves.
func topBooks(counts map[uuid.UUID]*domain.BookCount, order []uuid.UUID) []domain.BookCount {
	ranked := make([]domain.BookCount, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, *counts[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > topRankSize {
		ranked = ranked[:topRankSize]
	}
	return ranked
}

func topUsers(counts map[uuid.UUID]*domain.UserCount, order []uuid.UUID) []domain.UserCount {
	ranked := make([]domain.UserCount, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, *counts[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > topRankSize {
		ranked = ranked[:topRankSize]
	}
	return ranked
}

// Trends returns daily issue and return counts for the trailing window,
// including days with no activity.
func (s *reportsService) Trends(ctx context.Context, actor *domain.Actor, days int) ([]domain.TrendPoint, error) {
	if !actor.Can(domain.PermReportsView) {
		return nil, domain.Forbidden("missing permission to view reports")
	}
	if days < 1 {
		days = 7
	}
	if days > 90 {
		days = 90
	}

	details, err := s.loans.List(ctx, domain.LoanFilter{})
	if err != nil {
		return nil, err
	}

	today := utils.DateOnly(time.Now())
	start := today.AddDate(0, 0, -(days - 1))
	points := make([]domain.TrendPoint, days)
	index := map[string]int{}
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		points[i] = domain.TrendPoint{Date: date}
		index[date] = i
	}

	for i := range details {
		d := &details[i]
		if idx, ok := index[utils.DateOnly(d.IssueDate).Format("2006-01-02")]; ok {
			points[idx].Issues++
		}
		if d.ReturnDate != nil {
			if idx, ok := index[utils.DateOnly(*d.ReturnDate).Format("2006-01-02")]; ok {
				points[idx].Returns++
			}
		}
	}
	return points, nil
}

func (s *reportsService) Summary(ctx context.Context, actor *domain.Actor) (*domain.ReportSummary, error) {
	if !actor.Can(domain.PermReportsView) {
		return nil, domain.Forbidden("missing permission to view reports")
	}

	books, copies, available, err := s.books.CountCopies(ctx)
	if err != nil {
		return nil, err
	}
	details, err := s.loans.List(ctx, domain.LoanFilter{})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summary := &domain.ReportSummary{
		TotalBooks:      books,
		TotalCopies:     copies,
		AvailableCopies: available,
	}
	for i := range details {
		switch utils.DeriveStatus(details[i].DueDate, details[i].ReturnDate, now) {
		case domain.LoanStatusActive:
			summary.ActiveLoans++
		case domain.LoanStatusOverdue:
			summary.OverdueLoans++
		case domain.LoanStatusReturned:
			summary.ReturnedLoans++
		}
	}
	return summary, nil
}
