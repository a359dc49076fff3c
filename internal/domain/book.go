package domain

import (
	"time"

	"github.com/google/uuid"
)

// Book is the inventory view the circulation engine depends on.
// available_quantity is the authoritative count of copies not on loan;
// the engine never tracks individual physical copies.
type Book struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Author            string    `json:"author,omitempty"`
	ISBN              string    `json:"isbn,omitempty"`
	Category          string    `json:"category,omitempty"`
	ShelfLocation     string    `json:"shelf_location,omitempty"`
	Quantity          int       `json:"quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
