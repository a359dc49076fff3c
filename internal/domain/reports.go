package domain

import "github.com/google/uuid"

// CirculationStats is the read-side aggregate over all loan records.
type CirculationStats struct {
	ActiveIssues          int         `json:"active_issues"`
	OverdueBooks          int         `json:"overdue_books"`
	ReturnedToday         int         `json:"returned_today"`
	TotalFines            float64     `json:"total_fines"`
	TotalFinesPaid        float64     `json:"total_fines_paid"`
	AverageBorrowDuration float64     `json:"average_borrow_duration"`
	MostBorrowedBooks     []BookCount `json:"most_borrowed_books"`
	MostActiveUsers       []UserCount `json:"most_active_users"`
}

// BookCount and UserCount rank by raw borrow frequency. Ties keep
// first-encountered order; the ranking makes no further promise.
type BookCount struct {
	BookID uuid.UUID `json:"book_id"`
	Title  string    `json:"title"`
	Count  int       `json:"count"`
}

type UserCount struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Count  int       `json:"count"`
}

// TrendPoint is one day's issue/return counts in a trend window.
type TrendPoint struct {
	Date    string `json:"date"`
	Issues  int    `json:"issues"`
	Returns int    `json:"returns"`
}

type ReportSummary struct {
	TotalBooks      int `json:"total_books"`
	TotalCopies     int `json:"total_copies"`
	AvailableCopies int `json:"available_copies"`
	ActiveLoans     int `json:"active_loans"`
	OverdueLoans    int `json:"overdue_loans"`
	ReturnedLoans   int `json:"returned_loans"`
}
