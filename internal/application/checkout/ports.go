package checkout

import (
	"context"

	domain "github.com/edge-gallery/storefront/internal/domain/checkout"
)

// Notifier sends the purchase-confirmation message. Delivery is best-effort:
// a failure is logged and never rolls back fulfillment.
type Notifier interface {
	SendPurchaseConfirmation(ctx context.Context, email string, items []domain.ResolvedArtwork) error
}

// ProcessedEventStore remembers webhook event ids whose fulfillment
// completed, guarding redelivered events. This also covers guest sessions,
// which leave no order row behind to check against. Marking happens only
// after fulfillment succeeds so that provider redelivery still acts as the
// retry mechanism for failed attempts.
type ProcessedEventStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}
