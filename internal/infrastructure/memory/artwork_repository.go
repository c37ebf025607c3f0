package memory

import (
	"context"
	"sort"
	"sync"

	domain "github.com/edge-gallery/storefront/internal/domain/artwork"
)

type ArtworkRepository struct {
	mu       sync.RWMutex
	artworks map[int64]*domain.Artwork
}

func NewArtworkRepository() *ArtworkRepository {
	return &ArtworkRepository{
		artworks: make(map[int64]*domain.Artwork),
	}
}

// Put seeds or replaces an artwork. Used at startup and in tests.
func (r *ArtworkRepository) Put(ctx context.Context, a *domain.Artwork) error {
	_ = ctx
	if a == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.artworks[a.ID] = cloneArtwork(a)
	return nil
}

func (r *ArtworkRepository) Get(ctx context.Context, id int64) (*domain.Artwork, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.artworks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneArtwork(a), nil
}

func (r *ArtworkRepository) List(ctx context.Context) ([]*domain.Artwork, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Artwork, 0, len(r.artworks))
	for _, a := range r.artworks {
		out = append(out, cloneArtwork(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DecrementStock clamps each row at zero. Unknown ids are skipped.
func (r *ArtworkRepository) DecrementStock(ctx context.Context, decrements []domain.Decrement) ([]domain.DecrementResult, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	results := make([]domain.DecrementResult, 0, len(decrements))
	for _, d := range decrements {
		a, ok := r.artworks[d.ArtworkID]
		if !ok {
			continue
		}
		satisfied := a.Quantity >= d.Quantity
		a.Quantity -= d.Quantity
		if a.Quantity < 0 {
			a.Quantity = 0
		}
		results = append(results, domain.DecrementResult{
			ArtworkID: d.ArtworkID,
			Remaining: a.Quantity,
			Satisfied: satisfied,
		})
	}
	return results, nil
}

func cloneArtwork(a *domain.Artwork) *domain.Artwork {
	if a == nil {
		return nil
	}
	clone := *a
	if a.CycleID != nil {
		cid := *a.CycleID
		clone.CycleID = &cid
	}
	return &clone
}
