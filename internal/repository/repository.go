package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"maktaba-backend/internal/domain"
)

type UserRepository interface {
	// GetByID resolves a user together with their role and permission set.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, *domain.Role, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, *domain.Role, error)
}

type BookRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	CheckAvailable(ctx context.Context, id uuid.UUID) (bool, error)
	// CountCopies reports total and available copies across the catalog.
	CountCopies(ctx context.Context) (books, total, available int, err error)
}

type LoanRepository interface {
	// Create inserts the loan record and decrements the book's available
	// count in a single transaction. The decrement is conditional on
	// available_quantity > 0; when no copy is free the whole transaction
	// rolls back and a Conflict error is returned.
	Create(ctx context.Context, loan *domain.LoanRecord) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanDetail, error)

	// List applies the storage-level parts of the filter (holder, holder
	// type, due-date bucket, sort). Derived-status and search filtering
	// happen in the service so the derivation is never duplicated in SQL.
	List(ctx context.Context, f domain.LoanFilter) ([]domain.LoanDetail, error)

	// MarkReturned sets return_date, condition and fine, guarded by
	// return_date IS NULL, and restores one available copy unless the
	// book came back damaged. Returns Conflict when the guard fails.
	MarkReturned(ctx context.Context, id uuid.UUID, returnDate time.Time, condition domain.BookCondition, fineAmount float64, notes string) error

	// Renew extends due_date and increments renewal_count with a
	// compare-and-swap on the expected count, so concurrent renewals
	// cannot both succeed.
	Renew(ctx context.Context, id uuid.UUID, newDueDate time.Time, expectedCount int) error

	ListUnpaidFines(ctx context.Context, userID uuid.UUID) ([]domain.LoanRecord, error)
	MarkFinePaid(ctx context.Context, id uuid.UUID) error

	Update(ctx context.Context, id uuid.UUID, p domain.LoanUpdateParams) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ListOverdue returns unreturned loans past due as of the given date,
	// with holder contact columns, for reminder jobs.
	ListOverdue(ctx context.Context, asOf time.Time) ([]domain.LoanDetail, error)
}
