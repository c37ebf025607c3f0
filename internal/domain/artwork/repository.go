package artwork

import "context"

type Repository interface {
	Get(ctx context.Context, id int64) (*Artwork, error)
	List(ctx context.Context) ([]*Artwork, error)

	// DecrementStock applies all decrements as one unit. Each row's
	// subtraction is atomic and clamps at zero; entries for unknown ids are
	// skipped and absent from the result.
	DecrementStock(ctx context.Context, decrements []Decrement) ([]DecrementResult, error)
}
