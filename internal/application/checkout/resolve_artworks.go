package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edge-gallery/storefront/internal/domain/artwork"
	domain "github.com/edge-gallery/storefront/internal/domain/checkout"
	"github.com/edge-gallery/storefront/internal/observability"
	"github.com/edge-gallery/storefront/internal/observability/logctx"
)

// SessionArtworks resolves every line item of a checkout session back to a
// local artwork with its purchased quantity. Line items whose reference does
// not parse or whose artwork no longer exists are skipped; a session may
// reference artworks deleted since checkout. Repeated artwork ids are merged
// with their quantities summed, first-seen order preserved.
func (s *Service) SessionArtworks(ctx context.Context, sessionID string) ([]domain.ResolvedArtwork, error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCaseResolveArtworks))

	if sessionID == "" {
		return nil, errors.New("checkout: session id is required")
	}

	callStart := time.Now()
	items, err := s.provider.SessionLineItems(ctx, sessionID)
	s.recordProviderCall("checkout.session.line_items", callStart, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrResolution, err)
	}

	resolved := []domain.ResolvedArtwork{}
	index := make(map[int64]int)

	for _, li := range items {
		id, perr := domain.DecodeArtworkRef(li.Ref)
		if perr != nil {
			logger.Warn("line_item_skipped_bad_ref",
				observability.F("session_id", sessionID),
				observability.F("ref", li.Ref),
			)
			continue
		}

		art, gerr := s.artworks.Get(ctx, id)
		if errors.Is(gerr, artwork.ErrNotFound) {
			logger.Warn("line_item_skipped_artwork_missing",
				observability.F("session_id", sessionID),
				observability.F("artwork_id", id),
			)
			continue
		}
		if gerr != nil {
			return nil, fmt.Errorf("checkout: load artwork %d: %w", id, gerr)
		}

		if pos, ok := index[id]; ok {
			resolved[pos].Quantity += int(li.Quantity)
			continue
		}
		index[id] = len(resolved)
		resolved = append(resolved, domain.ResolvedArtwork{
			ArtworkID: art.ID,
			Name:      art.Name,
			Price:     art.Price,
			Quantity:  int(li.Quantity),
		})
	}

	return resolved, nil
}
