package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/edge-gallery/storefront/internal/domain/artwork"
)

type ArtworkRepository struct {
	db *sql.DB
}

func NewArtworkRepository(db *sql.DB) *ArtworkRepository {
	return &ArtworkRepository{db: db}
}

const artworkColumns = `id, name, description, technique, year, price, quantity, cycle_id`

func (r *ArtworkRepository) Get(ctx context.Context, id int64) (*domain.Artwork, error) {
	query := `SELECT ` + artworkColumns + ` FROM artworks WHERE id = $1`

	a, err := scanArtwork(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query artwork by id: %w", err)
	}
	return a, nil
}

func (r *ArtworkRepository) List(ctx context.Context) ([]*domain.Artwork, error) {
	query := `SELECT ` + artworkColumns + ` FROM artworks ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query artworks: %w", err)
	}
	defer rows.Close()

	var artworks []*domain.Artwork
	for rows.Next() {
		a, serr := scanArtwork(rows)
		if serr != nil {
			return nil, fmt.Errorf("scan artwork row: %w", serr)
		}
		artworks = append(artworks, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return artworks, nil
}

// DecrementStock runs all subtractions in one transaction. Each row is
// locked before the clamped update so concurrent decrements serialize and
// the pre-update quantity used for the Satisfied flag is never stale.
// Unknown ids match no row and are skipped.
func (r *ArtworkRepository) DecrementStock(ctx context.Context, decrements []domain.Decrement) ([]domain.DecrementResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin decrement tx: %w", err)
	}
	defer tx.Rollback()

	lockQuery := `SELECT quantity FROM artworks WHERE id = $1 FOR UPDATE`
	updateQuery := `UPDATE artworks SET quantity = GREATEST(quantity - $2, 0)
	                WHERE id = $1 RETURNING quantity`

	results := make([]domain.DecrementResult, 0, len(decrements))
	for _, d := range decrements {
		var before int
		serr := tx.QueryRowContext(ctx, lockQuery, d.ArtworkID).Scan(&before)
		if errors.Is(serr, sql.ErrNoRows) {
			continue
		}
		if serr != nil {
			return nil, fmt.Errorf("lock artwork %d: %w", d.ArtworkID, serr)
		}

		var remaining int
		if uerr := tx.QueryRowContext(ctx, updateQuery, d.ArtworkID, d.Quantity).Scan(&remaining); uerr != nil {
			return nil, fmt.Errorf("decrement artwork %d: %w", d.ArtworkID, uerr)
		}
		results = append(results, domain.DecrementResult{
			ArtworkID: d.ArtworkID,
			Remaining: remaining,
			Satisfied: before >= d.Quantity,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit decrement tx: %w", err)
	}
	return results, nil
}

// Put upserts an artwork. Used for seeding and tests.
func (r *ArtworkRepository) Put(ctx context.Context, a *domain.Artwork) error {
	query := `INSERT INTO artworks (id, name, description, technique, year, price, quantity, cycle_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (id) DO UPDATE SET
	            name = EXCLUDED.name,
	            description = EXCLUDED.description,
	            technique = EXCLUDED.technique,
	            year = EXCLUDED.year,
	            price = EXCLUDED.price,
	            quantity = EXCLUDED.quantity,
	            cycle_id = EXCLUDED.cycle_id`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Description, a.Technique, a.Year, a.Price, a.Quantity, a.CycleID)
	if err != nil {
		return fmt.Errorf("upsert artwork: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtwork(row rowScanner) (*domain.Artwork, error) {
	var a domain.Artwork
	var cycleID sql.NullInt64
	if err := row.Scan(&a.ID, &a.Name, &a.Description, &a.Technique, &a.Year, &a.Price, &a.Quantity, &cycleID); err != nil {
		return nil, err
	}
	if cycleID.Valid {
		a.CycleID = &cycleID.Int64
	}
	return &a, nil
}
