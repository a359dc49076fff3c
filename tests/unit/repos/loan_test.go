package repos

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"maktaba-backend/internal/domain"
	"maktaba-backend/internal/repository/postgres"
)

func TestLoanRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLoanRepository(db)
	ctx := context.Background()

	newRecord := func() *domain.LoanRecord {
		return &domain.LoanRecord{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			BookID:    uuid.New(),
			IssueDate: time.Now(),
			DueDate:   time.Now().AddDate(0, 0, 15),
		}
	}

	t.Run("Success", func(t *testing.T) {
		record := newRecord()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE books SET available_quantity = available_quantity - 1").
			WithArgs(record.BookID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO circulation_records").
			WithArgs(record.ID, record.UserID, record.BookID, record.IssueDate, record.DueDate, record.Notes).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
		mock.ExpectCommit()

		err := repo.Create(ctx, record)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Copies Rolls Back", func(t *testing.T) {
		record := newRecord()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE books SET available_quantity = available_quantity - 1").
			WithArgs(record.BookID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Create(ctx, record)
		assert.Equal(t, domain.ErrConflict, domain.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLoanRepository_MarkReturned(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLoanRepository(db)
	ctx := context.Background()
	recordID := uuid.New()
	returnDate := time.Now()

	t.Run("Good Condition Restores Copy", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE circulation_records").
			WithArgs(recordID, returnDate, domain.ConditionGood, 5.0, "").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE books SET available_quantity = LEAST").
			WithArgs(recordID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.MarkReturned(ctx, recordID, returnDate, domain.ConditionGood, 5.0, "")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Damaged Copy Stays Out Of Circulation", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE circulation_records").
			WithArgs(recordID, returnDate, domain.ConditionDamaged, 0.0, "water damage").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.MarkReturned(ctx, recordID, returnDate, domain.ConditionDamaged, 0.0, "water damage")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Second Return Hits Guard", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE circulation_records").
			WithArgs(recordID, returnDate, domain.ConditionGood, 0.0, "").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.MarkReturned(ctx, recordID, returnDate, domain.ConditionGood, 0.0, "")
		assert.Equal(t, domain.ErrConflict, domain.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLoanRepository_Renew(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLoanRepository(db)
	ctx := context.Background()
	recordID := uuid.New()
	newDue := time.Now().AddDate(0, 0, 14)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE circulation_records").
			WithArgs(recordID, newDue, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Renew(ctx, recordID, newDue, 1)
		assert.NoError(t, err)
	})

	t.Run("Stale Renewal Count Conflicts", func(t *testing.T) {
		mock.ExpectExec("UPDATE circulation_records").
			WithArgs(recordID, newDue, 0).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Renew(ctx, recordID, newDue, 0)
		assert.Equal(t, domain.ErrConflict, domain.KindOf(err))
	})
}

func TestLoanRepository_MarkFinePaid(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLoanRepository(db)
	ctx := context.Background()
	recordID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE circulation_records SET fine_paid = true").
			WithArgs(recordID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkFinePaid(ctx, recordID))
	})

	t.Run("Already Paid", func(t *testing.T) {
		mock.ExpectExec("UPDATE circulation_records SET fine_paid = true").
			WithArgs(recordID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkFinePaid(ctx, recordID)
		assert.Equal(t, domain.ErrConflict, domain.KindOf(err))
	})
}

func TestLoanRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLoanRepository(db)
	ctx := context.Background()

	columns := []string{
		"id", "user_id", "book_id", "issue_date", "due_date", "return_date",
		"book_condition", "fine_amount", "fine_paid", "renewal_count", "notes",
		"created_at", "updated_at",
		"full_name", "name", "user_type", "email",
		"title", "isbn", "category", "shelf_location",
	}

	t.Run("Filters By Holder", func(t *testing.T) {
		userID := uuid.New()
		rows := sqlmock.NewRows(columns).AddRow(
			uuid.New().String(), userID.String(), uuid.New().String(), time.Now(), time.Now().AddDate(0, 0, 15), nil,
			"", nil, false, 0, "",
			time.Now(), time.Now(),
			"Patron", "member", "patron", "patron@test.com",
			"Title", "", "", "",
		)

		mock.ExpectQuery("SELECT (.+) FROM circulation_records c").
			WithArgs(userID).
			WillReturnRows(rows)

		details, err := repo.List(ctx, domain.LoanFilter{UserID: &userID})
		assert.NoError(t, err)
		assert.Len(t, details, 1)
		assert.Equal(t, userID, details[0].UserID)
		assert.Equal(t, "Patron", details[0].HolderName)
		assert.Nil(t, details[0].ReturnDate)
	})

	t.Run("Empty Result", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM circulation_records c").
			WillReturnRows(sqlmock.NewRows(columns))

		details, err := repo.List(ctx, domain.LoanFilter{})
		assert.NoError(t, err)
		assert.Empty(t, details)
	})
}

func TestLoanRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLoanRepository(db)
	recordID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM circulation_records c").
		WithArgs(recordID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	detail, err := repo.GetByID(context.Background(), recordID)
	assert.Nil(t, detail)
	assert.Equal(t, domain.ErrNotFound, domain.KindOf(err))
}
