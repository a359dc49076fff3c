package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"maktaba-backend/internal/domain"
	"maktaba-backend/internal/repository"
)

type bookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) repository.BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	b := &domain.Book{}
	query := `SELECT id, title, COALESCE(author, ''), COALESCE(isbn, ''), COALESCE(category, ''), COALESCE(shelf_location, ''), quantity, available_quantity, created_at, updated_at
	          FROM books WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Category, &b.ShelfLocation, &b.Quantity, &b.AvailableQuantity, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("book not found")
		}
		return nil, domain.Unexpected(err, "failed to load book")
	}
	return b, nil
}

func (r *bookRepository) CheckAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	var available int
	query := `SELECT available_quantity FROM books WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, domain.NotFound("book not found")
		}
		return false, domain.Unexpected(err, "failed to check availability")
	}
	return available > 0, nil
}

func (r *bookRepository) CountCopies(ctx context.Context) (books, total, available int, err error) {
	query := `SELECT count(*), COALESCE(sum(quantity), 0), COALESCE(sum(available_quantity), 0) FROM books`
	if err := r.db.QueryRowContext(ctx, query).Scan(&books, &total, &available); err != nil {
		return 0, 0, 0, domain.Unexpected(err, "failed to count copies")
	}
	return books, total, available, nil
}
