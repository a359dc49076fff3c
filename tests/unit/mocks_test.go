package unit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"maktaba-backend/internal/domain"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, *domain.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.User), args.Get(1).(*domain.Role), args.Error(2)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, *domain.Role, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.User), args.Get(1).(*domain.Role), args.Error(2)
}

// MockBookRepo
type MockBookRepo struct {
	mock.Mock
}

func (m *MockBookRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}
func (m *MockBookRepo) CheckAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *MockBookRepo) CountCopies(ctx context.Context) (int, int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Int(2), args.Error(3)
}

// MockLoanRepo
type MockLoanRepo struct {
	mock.Mock
}

func (m *MockLoanRepo) Create(ctx context.Context, loan *domain.LoanRecord) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}
func (m *MockLoanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanDetail), args.Error(1)
}
func (m *MockLoanRepo) List(ctx context.Context, f domain.LoanFilter) ([]domain.LoanDetail, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LoanDetail), args.Error(1)
}
func (m *MockLoanRepo) MarkReturned(ctx context.Context, id uuid.UUID, returnDate time.Time, condition domain.BookCondition, fineAmount float64, notes string) error {
	args := m.Called(ctx, id, returnDate, condition, fineAmount, notes)
	return args.Error(0)
}
func (m *MockLoanRepo) Renew(ctx context.Context, id uuid.UUID, newDueDate time.Time, expectedCount int) error {
	args := m.Called(ctx, id, newDueDate, expectedCount)
	return args.Error(0)
}
func (m *MockLoanRepo) ListUnpaidFines(ctx context.Context, userID uuid.UUID) ([]domain.LoanRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LoanRecord), args.Error(1)
}
func (m *MockLoanRepo) MarkFinePaid(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockLoanRepo) Update(ctx context.Context, id uuid.UUID, p domain.LoanUpdateParams) error {
	args := m.Called(ctx, id, p)
	return args.Error(0)
}
func (m *MockLoanRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockLoanRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.LoanDetail, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LoanDetail), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendIssueReceipt(ctx context.Context, loan *domain.LoanDetail) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}
func (m *MockEmailService) SendOverdueReminder(ctx context.Context, loan *domain.LoanDetail, fineSoFar float64) error {
	args := m.Called(ctx, loan, fineSoFar)
	return args.Error(0)
}
