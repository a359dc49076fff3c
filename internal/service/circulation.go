package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"maktaba-backend/internal/domain"
	"maktaba-backend/internal/logger"
	"maktaba-backend/internal/repository"
	"maktaba-backend/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type circulationService struct {
	loans       repository.LoanRepository
	books       repository.BookRepository
	users       repository.UserRepository
	email       EmailService
	policy      domain.FinePolicy
	renewalDays int
	log         *slog.Logger
}

// NewCirculationService wires the loan lifecycle engine. email may be nil
// when outbound notifications are disabled.
func NewCirculationService(
	loans repository.LoanRepository,
	books repository.BookRepository,
	users repository.UserRepository,
	email EmailService,
	policy domain.FinePolicy,
	renewalDays int,
) CirculationService {
	if renewalDays <= 0 {
		renewalDays = 14
	}
	return &circulationService{
		loans:       loans,
		books:       books,
		users:       users,
		email:       email,
		policy:      policy,
		renewalDays: renewalDays,
		log:         logger.WithService("circulation"),
	}
}

func (s *circulationService) Issue(ctx context.Context, actor *domain.Actor, p domain.IssueParams) (*domain.LoanView, error) {
	if !actor.Can(domain.PermCheckout) {
		return nil, domain.Forbidden("missing permission to issue books")
	}
	if p.UserID == uuid.Nil || p.BookID == uuid.Nil {
		return nil, domain.Validation("user_id and book_id are required")
	}
	issueDate := utils.DateOnly(p.IssueDate)
	dueDate := utils.DateOnly(p.DueDate)
	if !dueDate.After(issueDate) {
		return nil, domain.Validation("due date must be after the issue date")
	}

	holder, _, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if !holder.IsActive {
		return nil, domain.InvalidState("user account is inactive")
	}
	if _, err := s.books.GetByID(ctx, p.BookID); err != nil {
		return nil, err
	}
	// Fast availability check; the conditional decrement inside Create
	// still decides under concurrency.
	available, err := s.books.CheckAvailable(ctx, p.BookID)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, domain.Conflict("no available copies for this book")
	}

	record := &domain.LoanRecord{
		ID:        uuid.New(),
		UserID:    p.UserID,
		BookID:    p.BookID,
		IssueDate: issueDate,
		DueDate:   dueDate,
		Notes:     p.Notes,
	}
	if err := s.loans.Create(ctx, record); err != nil {
		return nil, err
	}

	detail, err := s.loans.GetByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("book issued",
		"record_id", record.ID,
		"user_id", p.UserID,
		"book_id", p.BookID,
		"due_date", dueDate.Format("2006-01-02"))

	if p.SendEmail && s.email != nil {
		if err := s.email.SendIssueReceipt(ctx, detail); err != nil {
			s.log.Warn("issue receipt email failed", "record_id", record.ID, "error", err)
		}
	}
	return s.view(detail, time.Now()), nil
}

func (s *circulationService) Return(ctx context.Context, actor *domain.Actor, recordID uuid.UUID, p domain.ReturnParams) (*domain.LoanView, error) {
	if !actor.Can(domain.PermCheckin) {
		return nil, domain.Forbidden("missing permission to accept returns")
	}
	if !domain.ValidBookCondition(p.BookCondition) {
		return nil, domain.Validation("book condition must be good, fair or damaged")
	}

	detail, err := s.loans.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if detail.ReturnDate != nil {
		return nil, domain.Conflict("book has already been returned")
	}

	returnDate := utils.DateOnly(p.ReturnDate)
	breakdown := utils.FineBreakdown(detail.DueDate, &returnDate, returnDate, s.policy)

	if err := s.loans.MarkReturned(ctx, recordID, returnDate, p.BookCondition, breakdown.FineAmount, p.Notes); err != nil {
		return nil, err
	}

	detail, err = s.loans.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	s.log.Info("book returned",
		"record_id", recordID,
		"condition", p.BookCondition,
		"fine_amount", breakdown.FineAmount,
		"overdue_days", breakdown.OverdueDays)

	v := s.view(detail, time.Now())
	v.FineBreakdown = &breakdown
	return v, nil
}

// Renew checks its preconditions in a fixed order so callers always see
// the most specific failure: existence, ownership, returned, overdue,
// then the renewal limit.
func (s *circulationService) Renew(ctx context.Context, actor *domain.Actor, recordID uuid.UUID) (*domain.RenewalResult, error) {
	if !actor.CanAny(domain.PermRenew, domain.PermLoansView) {
		return nil, domain.Forbidden("missing permission to renew loans")
	}

	detail, err := s.loans.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	// Renewing someone else's loan takes the staff renewal permission;
	// holders renew their own loans with either grant.
	if detail.UserID != actor.ID && !(actor.IsStaff() && actor.Can(domain.PermRenew)) {
		return nil, domain.Forbidden("you can only renew your own loans")
	}
	if detail.ReturnDate != nil {
		return nil, domain.Conflict("returned loans cannot be renewed")
	}
	if utils.DaysLeft(detail.DueDate, time.Now()) < 0 {
		return nil, domain.InvalidState("overdue loans cannot be renewed, return the book and settle the fine first")
	}
	if detail.RenewalCount >= domain.MaxRenewals {
		return nil, domain.InvalidState("renewal limit of %d reached", domain.MaxRenewals)
	}

	newDueDate := detail.DueDate.AddDate(0, 0, s.renewalDays)
	if err := s.loans.Renew(ctx, recordID, newDueDate, detail.RenewalCount); err != nil {
		return nil, err
	}

	total := detail.RenewalCount + 1
	s.log.Info("loan renewed",
		"record_id", recordID,
		"new_due_date", newDueDate.Format("2006-01-02"),
		"total_renewals", total)

	return &domain.RenewalResult{
		RecordID:          recordID,
		NewDueDate:        newDueDate,
		RenewalsRemaining: domain.MaxRenewals - total,
		TotalRenewals:     total,
	}, nil
}

// CollectFines marks every unpaid fine of one user as paid. Records that
// fail to update are reported individually and do not abort the batch.
func (s *circulationService) CollectFines(ctx context.Context, actor *domain.Actor, userID uuid.UUID) (*domain.FineCollection, error) {
	if !actor.Can(domain.PermFeesCollect) {
		return nil, domain.Forbidden("missing permission to collect fines")
	}
	if _, _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	records, err := s.loans.ListUnpaidFines(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &domain.FineCollection{UserID: userID}
	for _, rec := range records {
		if err := s.loans.MarkFinePaid(ctx, rec.ID); err != nil {
			s.log.Warn("fine collection skipped record", "record_id", rec.ID, "error", err)
			result.Failures = append(result.Failures, domain.FineCollectionFailure{
				RecordID: rec.ID,
				Reason:   domain.MessageOf(err),
			})
			continue
		}
		if rec.FineAmount != nil {
			result.TotalCollected += *rec.FineAmount
		}
		result.RecordsUpdated++
	}
	result.TotalCollected = utils.RoundCurrency(result.TotalCollected)

	s.log.Info("fines collected",
		"user_id", userID,
		"records_updated", result.RecordsUpdated,
		"total_collected", result.TotalCollected,
		"failures", len(result.Failures))
	return result, nil
}

func (s *circulationService) Get(ctx context.Context, actor *domain.Actor, recordID uuid.UUID) (*domain.LoanView, error) {
	detail, err := s.loans.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if detail.UserID != actor.ID && !(actor.IsStaff() && actor.Can(domain.PermLoansView)) {
		return nil, domain.Forbidden("you can only view your own loans")
	}
	return s.view(detail, time.Now()), nil
}

func (s *circulationService) List(ctx context.Context, actor *domain.Actor, f domain.LoanFilter) (*domain.LoanPage, error) {
	// Patrons only ever see their own records, whatever filter they asked
	// for. The full ledger takes a staff account with loans.view.
	if actor.IsStaff() {
		if !actor.Can(domain.PermLoansView) {
			return nil, domain.Forbidden("missing permission to view loans")
		}
	} else {
		id := actor.ID
		f.UserID = &id
	}

	details, err := s.loans.List(ctx, f)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]domain.LoanView, 0, len(details))
	for i := range details {
		v := s.view(&details[i], now)
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if f.Search != "" && !matchesSearch(v, f.Search) {
			continue
		}
		views = append(views, *v)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	total := len(views)
	totalPages := (total + size - 1) / size
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	return &domain.LoanPage{
		Items:      views[start:end],
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}, nil
}

func (s *circulationService) Update(ctx context.Context, actor *domain.Actor, recordID uuid.UUID, p domain.LoanUpdateParams) (*domain.LoanView, error) {
	if !actor.Can(domain.PermCheckin) {
		return nil, domain.Forbidden("missing permission to edit circulation records")
	}
	if p.Empty() {
		return nil, domain.Validation("no fields to update")
	}
	if p.DueDate != nil {
		d := utils.DateOnly(*p.DueDate)
		p.DueDate = &d
	}
	if p.FineAmount != nil && *p.FineAmount < 0 {
		return nil, domain.Validation("fine amount cannot be negative")
	}

	if err := s.loans.Update(ctx, recordID, p); err != nil {
		return nil, err
	}
	detail, err := s.loans.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	s.log.Info("circulation record updated", "record_id", recordID)
	return s.view(detail, time.Now()), nil
}

func (s *circulationService) Delete(ctx context.Context, actor *domain.Actor, recordID uuid.UUID) error {
	if !actor.Can(domain.PermCheckin) {
		return domain.Forbidden("missing permission to delete circulation records")
	}
	detail, err := s.loans.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	// An open loan still holds a reserved copy; deleting it would leave
	// the book's available count permanently short.
	if detail.ReturnDate == nil {
		return domain.Conflict("open loans cannot be deleted, return the book first")
	}
	if err := s.loans.Delete(ctx, recordID); err != nil {
		return err
	}
	s.log.Info("circulation record deleted", "record_id", recordID)
	return nil
}

// view attaches the derived fields to a loan detail. Status and days left
// are never read from storage.
func (s *circulationService) view(d *domain.LoanDetail, asOf time.Time) *domain.LoanView {
	v := &domain.LoanView{LoanDetail: *d}
	v.Status = utils.DeriveStatus(d.DueDate, d.ReturnDate, asOf)
	v.DaysLeft = utils.DaysLeft(d.DueDate, asOf)
	if b := utils.FineBreakdown(d.DueDate, d.ReturnDate, asOf, s.policy); b.OverdueDays > 0 {
		v.FineBreakdown = &b
	}
	return v
}

func matchesSearch(v *domain.LoanView, term string) bool {
	term = strings.ToLower(term)
	for _, field := range []string{v.BookTitle, v.BookISBN, v.HolderName, v.HolderEmail} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
