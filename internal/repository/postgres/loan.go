package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"maktaba-backend/internal/domain"
	"maktaba-backend/internal/repository"
)

type loanRepository struct {
	db *sql.DB
}

func NewLoanRepository(db *sql.DB) repository.LoanRepository {
	return &loanRepository{db: db}
}

const loanDetailColumns = `c.id, c.user_id, c.book_id, c.issue_date, c.due_date, c.return_date,
	       COALESCE(c.book_condition, ''), c.fine_amount, c.fine_paid, c.renewal_count, COALESCE(c.notes, ''),
	       c.created_at, c.updated_at,
	       u.full_name, r.name, u.user_type, u.email,
	       b.title, COALESCE(b.isbn, ''), COALESCE(b.category, ''), COALESCE(b.shelf_location, '')`

const loanDetailJoins = ` FROM circulation_records c
	       JOIN users u ON u.id = c.user_id
	       JOIN roles r ON r.id = u.role_id
	       JOIN books b ON b.id = c.book_id`

func (l *loanRepository) Create(ctx context.Context, loan *domain.LoanRecord) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Unexpected(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Conditional decrement: the availability check and the reservation are
	// one statement, so two concurrent issues cannot both take the last copy.
	res, err := tx.ExecContext(ctx,
		`UPDATE books SET available_quantity = available_quantity - 1, updated_at = NOW()
		 WHERE id = $1 AND available_quantity > 0`, loan.BookID)
	if err != nil {
		return domain.Unexpected(err, "failed to reserve copy")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Unexpected(err, "failed to reserve copy")
	}
	if affected == 0 {
		err = domain.Conflict("no available copies for this book")
		return err
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO circulation_records (id, user_id, book_id, issue_date, due_date, fine_paid, renewal_count, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, false, 0, $6, NOW(), NOW()) RETURNING created_at, updated_at`,
		loan.ID, loan.UserID, loan.BookID, loan.IssueDate, loan.DueDate, loan.Notes,
	).Scan(&loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return domain.Unexpected(err, "failed to insert loan record")
	}

	if err = tx.Commit(); err != nil {
		return domain.Unexpected(err, "failed to commit issue")
	}
	return nil
}

func (l *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LoanDetail, error) {
	query := `SELECT ` + loanDetailColumns + loanDetailJoins + ` WHERE c.id = $1`
	d, err := scanLoanDetail(l.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("circulation record not found")
		}
		return nil, domain.Unexpected(err, "failed to load circulation record")
	}
	return d, nil
}

func (l *loanRepository) List(ctx context.Context, f domain.LoanFilter) ([]domain.LoanDetail, error) {
	query := `SELECT ` + loanDetailColumns + loanDetailJoins + ` WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if f.UserID != nil {
		query += fmt.Sprintf(" AND c.user_id = $%d", argIdx)
		args = append(args, *f.UserID)
		argIdx++
	}
	if f.UserType != "" {
		query += fmt.Sprintf(" AND u.user_type = $%d", argIdx)
		args = append(args, f.UserType)
		argIdx++
	}

	switch f.DueDate {
	case domain.DueToday:
		query += " AND c.due_date = CURRENT_DATE"
	case domain.DueTomorrow:
		query += " AND c.due_date = CURRENT_DATE + 1"
	case domain.DueWithinWeek:
		query += " AND c.due_date >= CURRENT_DATE AND c.due_date <= CURRENT_DATE + 7"
	case domain.DueOverdue:
		// Same predicate as the derived overdue status.
		query += " AND c.due_date < CURRENT_DATE AND c.return_date IS NULL"
	}

	query += " ORDER BY " + sortColumn(f.SortBy) + " " + sortDirection(f.SortOrder)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to list circulation records")
	}
	defer rows.Close()

	var details []domain.LoanDetail
	for rows.Next() {
		d, err := scanLoanDetail(rows)
		if err != nil {
			return nil, domain.Unexpected(err, "failed to scan circulation record")
		}
		details = append(details, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unexpected(err, "failed to iterate circulation records")
	}
	return details, nil
}

// sortColumn whitelists sort keys; anything unknown falls back to issue_date.
func sortColumn(key string) string {
	switch key {
	case "due_date":
		return "c.due_date"
	case "return_date":
		return "c.return_date"
	case "created_at":
		return "c.created_at"
	case "user_name":
		return "u.full_name"
	case "book_title":
		return "b.title"
	default:
		return "c.issue_date"
	}
}

func sortDirection(order string) string {
	if order == "asc" {
		return "ASC"
	}
	return "DESC"
}

func (l *loanRepository) MarkReturned(ctx context.Context, id uuid.UUID, returnDate time.Time, condition domain.BookCondition, fineAmount float64, notes string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Unexpected(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE circulation_records
		 SET return_date = $2, book_condition = $3, fine_amount = $4, fine_paid = false, notes = $5, updated_at = NOW()
		 WHERE id = $1 AND return_date IS NULL`,
		id, returnDate, condition, fineAmount, notes)
	if err != nil {
		return domain.Unexpected(err, "failed to record return")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Unexpected(err, "failed to record return")
	}
	if affected == 0 {
		err = domain.Conflict("book has already been returned")
		return err
	}

	// Damaged copies stay out of circulation; the available count is only
	// restored for copies fit to lend again.
	if condition != domain.ConditionDamaged {
		_, err = tx.ExecContext(ctx,
			`UPDATE books SET available_quantity = LEAST(available_quantity + 1, quantity), updated_at = NOW()
			 WHERE id = (SELECT book_id FROM circulation_records WHERE id = $1)`, id)
		if err != nil {
			return domain.Unexpected(err, "failed to release copy")
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Unexpected(err, "failed to commit return")
	}
	return nil
}

func (l *loanRepository) Renew(ctx context.Context, id uuid.UUID, newDueDate time.Time, expectedCount int) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE circulation_records
		 SET due_date = $2, renewal_count = renewal_count + 1, updated_at = NOW()
		 WHERE id = $1 AND renewal_count = $3 AND return_date IS NULL`,
		id, newDueDate, expectedCount)
	if err != nil {
		return domain.Unexpected(err, "failed to renew loan")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Unexpected(err, "failed to renew loan")
	}
	if affected == 0 {
		return domain.Conflict("loan was modified concurrently, please retry")
	}
	return nil
}

func (l *loanRepository) ListUnpaidFines(ctx context.Context, userID uuid.UUID) ([]domain.LoanRecord, error) {
	query := `SELECT c.id, c.user_id, c.book_id, c.issue_date, c.due_date, c.return_date,
	                 COALESCE(c.book_condition, ''), c.fine_amount, c.fine_paid, c.renewal_count, COALESCE(c.notes, ''),
	                 c.created_at, c.updated_at
	          FROM circulation_records c
	          WHERE c.user_id = $1 AND c.fine_paid = false AND c.fine_amount > 0`
	rows, err := l.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to list unpaid fines")
	}
	defer rows.Close()

	var records []domain.LoanRecord
	for rows.Next() {
		rec, err := scanLoanRecord(rows)
		if err != nil {
			return nil, domain.Unexpected(err, "failed to scan loan record")
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unexpected(err, "failed to iterate unpaid fines")
	}
	return records, nil
}

func (l *loanRepository) MarkFinePaid(ctx context.Context, id uuid.UUID) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE circulation_records SET fine_paid = true, updated_at = NOW() WHERE id = $1 AND fine_paid = false`, id)
	if err != nil {
		return domain.Unexpected(err, "failed to mark fine paid")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Unexpected(err, "failed to mark fine paid")
	}
	if affected == 0 {
		return domain.Conflict("fine already paid or record missing")
	}
	return nil
}

func (l *loanRepository) Update(ctx context.Context, id uuid.UUID, p domain.LoanUpdateParams) error {
	query := `UPDATE circulation_records SET updated_at = NOW()`
	args := []interface{}{id}
	argIdx := 2

	if p.DueDate != nil {
		query += fmt.Sprintf(", due_date = $%d", argIdx)
		args = append(args, *p.DueDate)
		argIdx++
	}
	if p.FineAmount != nil {
		query += fmt.Sprintf(", fine_amount = $%d", argIdx)
		args = append(args, *p.FineAmount)
		argIdx++
	}
	if p.FinePaid != nil {
		query += fmt.Sprintf(", fine_paid = $%d", argIdx)
		args = append(args, *p.FinePaid)
		argIdx++
	}
	if p.Notes != nil {
		query += fmt.Sprintf(", notes = $%d", argIdx)
		args = append(args, *p.Notes)
		argIdx++
	}
	query += " WHERE id = $1"

	res, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Unexpected(err, "failed to update circulation record")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Unexpected(err, "failed to update circulation record")
	}
	if affected == 0 {
		return domain.NotFound("circulation record not found")
	}
	return nil
}

func (l *loanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM circulation_records WHERE id = $1`, id)
	if err != nil {
		return domain.Unexpected(err, "failed to delete circulation record")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Unexpected(err, "failed to delete circulation record")
	}
	if affected == 0 {
		return domain.NotFound("circulation record not found")
	}
	return nil
}

func (l *loanRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.LoanDetail, error) {
	query := `SELECT ` + loanDetailColumns + loanDetailJoins + `
	          WHERE c.return_date IS NULL AND c.due_date < $1
	          ORDER BY c.due_date ASC`
	rows, err := l.db.QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, domain.Unexpected(err, "failed to list overdue loans")
	}
	defer rows.Close()

	var details []domain.LoanDetail
	for rows.Next() {
		d, err := scanLoanDetail(rows)
		if err != nil {
			return nil, domain.Unexpected(err, "failed to scan overdue loan")
		}
		details = append(details, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Unexpected(err, "failed to iterate overdue loans")
	}
	return details, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLoanRecord(row rowScanner) (*domain.LoanRecord, error) {
	rec := &domain.LoanRecord{}
	var returnDate sql.NullTime
	var fineAmount sql.NullFloat64
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.BookID, &rec.IssueDate, &rec.DueDate, &returnDate,
		&rec.BookCondition, &fineAmount, &rec.FinePaid, &rec.RenewalCount, &rec.Notes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if returnDate.Valid {
		t := returnDate.Time
		rec.ReturnDate = &t
	}
	if fineAmount.Valid {
		f := fineAmount.Float64
		rec.FineAmount = &f
	}
	return rec, nil
}

func scanLoanDetail(row rowScanner) (*domain.LoanDetail, error) {
	d := &domain.LoanDetail{}
	var returnDate sql.NullTime
	var fineAmount sql.NullFloat64
	err := row.Scan(
		&d.ID, &d.UserID, &d.BookID, &d.IssueDate, &d.DueDate, &returnDate,
		&d.BookCondition, &fineAmount, &d.FinePaid, &d.RenewalCount, &d.Notes,
		&d.CreatedAt, &d.UpdatedAt,
		&d.HolderName, &d.HolderRole, &d.HolderType, &d.HolderEmail,
		&d.BookTitle, &d.BookISBN, &d.Category, &d.ShelfLocation,
	)
	if err != nil {
		return nil, err
	}
	if returnDate.Valid {
		t := returnDate.Time
		d.ReturnDate = &t
	}
	if fineAmount.Valid {
		f := fineAmount.Float64
		d.FineAmount = &f
	}
	return d, nil
}
