package domain

import (
	"time"

	"github.com/google/uuid"
)

// LoanStatus is never stored; it is derived from due_date and return_date
// at read time so a record can never carry a stale status.
type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusOverdue  LoanStatus = "overdue"
	LoanStatusReturned LoanStatus = "returned"
)

type BookCondition string

const (
	ConditionGood    BookCondition = "good"
	ConditionFair    BookCondition = "fair"
	ConditionDamaged BookCondition = "damaged"
)

// MaxRenewals bounds renewal_count; a loan can be extended at most twice.
const MaxRenewals = 2

// LoanRecord is a single checkout transaction linking one user to one book
// copy. return_date is set exactly once, on return, and never cleared.
type LoanRecord struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"user_id"`
	BookID        uuid.UUID     `json:"book_id"`
	IssueDate     time.Time     `json:"issue_date"`
	DueDate       time.Time     `json:"due_date"`
	ReturnDate    *time.Time    `json:"return_date,omitempty"`
	BookCondition BookCondition `json:"book_condition,omitempty"`
	FineAmount    *float64      `json:"fine_amount,omitempty"`
	FinePaid      bool          `json:"fine_paid"`
	RenewalCount  int           `json:"renewal_count"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// LoanDetail is a loan record joined with holder and book columns for
// read paths. The holder fields come from the users/roles join, the book
// fields from the books join.
type LoanDetail struct {
	LoanRecord
	HolderName    string `json:"user_name"`
	HolderRole    string `json:"user_role"`
	HolderType    string `json:"user_type"`
	HolderEmail   string `json:"user_email,omitempty"`
	BookTitle     string `json:"book_title"`
	BookISBN      string `json:"book_isbn,omitempty"`
	Category      string `json:"category,omitempty"`
	ShelfLocation string `json:"shelf_location,omitempty"`
}

// LoanView is a LoanDetail with the derived fields attached. Status and
// DaysLeft are computed on every read, never persisted.
type LoanView struct {
	LoanDetail
	Status        LoanStatus     `json:"status"`
	DaysLeft      int            `json:"days_left"`
	FineBreakdown *FineBreakdown `json:"fine_breakdown,omitempty"`
}

// FinePolicy holds the process-wide fine constants, read from config at
// startup and immutable for the process lifetime.
type FinePolicy struct {
	PerDay  float64
	MaxFine float64
}

// FineBreakdown exposes both the uncapped calculated fine (informational)
// and the capped amount actually charged.
type FineBreakdown struct {
	OverdueDays    int     `json:"overdue_days"`
	DailyRate      float64 `json:"daily_rate"`
	CalculatedFine float64 `json:"calculated_fine"`
	CappedFine     float64 `json:"capped_fine"`
	FineAmount     float64 `json:"fine_amount"`
	IsCapped       bool    `json:"is_capped"`
	MaxFine        float64 `json:"max_fine"`
}

type RenewalResult struct {
	RecordID          uuid.UUID `json:"record_id"`
	NewDueDate        time.Time `json:"new_due_date"`
	RenewalsRemaining int       `json:"renewals_remaining"`
	TotalRenewals     int       `json:"total_renewals"`
}

type FineCollection struct {
	UserID         uuid.UUID               `json:"user_id"`
	TotalCollected float64                 `json:"total_collected"`
	RecordsUpdated int                     `json:"records_updated"`
	Failures       []FineCollectionFailure `json:"failures,omitempty"`
}

// FineCollectionFailure reports a record that could not be marked paid
// during a collect-fines batch. The batch continues past failures.
type FineCollectionFailure struct {
	RecordID uuid.UUID `json:"record_id"`
	Reason   string    `json:"reason"`
}

type DueDateFilter string

const (
	DueToday      DueDateFilter = "today"
	DueTomorrow   DueDateFilter = "tomorrow"
	DueWithinWeek DueDateFilter = "week"
	DueOverdue    DueDateFilter = "overdue"
)

// LoanFilter carries list-endpoint filters. UserID restricts results to a
// single holder (patron data isolation). Status and Search are applied
// against derived values after the rows are loaded.
type LoanFilter struct {
	Search    string
	Status    LoanStatus
	UserID    *uuid.UUID
	UserType  string
	DueDate   DueDateFilter
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

type LoanPage struct {
	Items      []LoanView `json:"items"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

// IssueParams are the inputs to the issue operation.
type IssueParams struct {
	UserID    uuid.UUID
	BookID    uuid.UUID
	IssueDate time.Time
	DueDate   time.Time
	Notes     string
	SendEmail bool
}

// ReturnParams are the inputs to the return operation.
type ReturnParams struct {
	ReturnDate    time.Time
	BookCondition BookCondition
	Notes         string
}

// LoanUpdateParams carries the optional fields of the staff PATCH
// operation; nil means "leave unchanged".
type LoanUpdateParams struct {
	DueDate    *time.Time
	FineAmount *float64
	FinePaid   *bool
	Notes      *string
}

func (p LoanUpdateParams) Empty() bool {
	return p.DueDate == nil && p.FineAmount == nil && p.FinePaid == nil && p.Notes == nil
}

func ValidBookCondition(c BookCondition) bool {
	switch c {
	case ConditionGood, ConditionFair, ConditionDamaged:
		return true
	}
	return false
}
