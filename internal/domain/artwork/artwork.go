package artwork

import (
	"errors"
)

var (
	ErrNotFound        = errors.New("artwork: not found")
	ErrInvalidPrice    = errors.New("artwork: price must be zero or greater")
	ErrInvalidQuantity = errors.New("artwork: quantity must be zero or greater")
)

// Artwork is a gallery piece held in stock. Quantity is mutated only through
// DecrementStock or administrative tooling outside this service.
type Artwork struct {
	ID          int64
	Name        string
	Description string
	Technique   string
	Year        int
	Price       float64
	Quantity    int
	CycleID     *int64
}

func New(id int64, name string, price float64, quantity int) (*Artwork, error) {
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Artwork{
		ID:       id,
		Name:     name,
		Price:    price,
		Quantity: quantity,
	}, nil
}

// Decrement is one stock subtraction requested by a completed purchase.
type Decrement struct {
	ArtworkID int64
	Quantity  int
}

// DecrementResult reports the outcome of a single stock subtraction.
// Satisfied is false when on-hand stock was short and the decrement clamped
// at zero instead of going negative.
type DecrementResult struct {
	ArtworkID int64
	Remaining int
	Satisfied bool
}
