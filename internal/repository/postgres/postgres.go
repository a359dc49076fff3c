package postgres

import (
	"database/sql"

	"maktaba-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.BookRepository
	repository.LoanRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:             db,
		UserRepository: NewUserRepository(db),
		BookRepository: NewBookRepository(db),
		LoanRepository: NewLoanRepository(db),
	}
}
