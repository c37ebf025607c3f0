package checkout

import (
	"github.com/edge-gallery/storefront/internal/domain/artwork"
	domain "github.com/edge-gallery/storefront/internal/domain/checkout"
	"github.com/edge-gallery/storefront/internal/domain/order"
	"github.com/edge-gallery/storefront/internal/domain/outbox"
	"github.com/edge-gallery/storefront/internal/observability"
)

const (
	serviceName = "checkout-service"
	spanPrefix  = "UC."

	useCaseCreateSession   = "checkout.session_create"
	useCaseProcessWebhook  = "checkout.webhook_process"
	useCaseResolveArtworks = "checkout.session_resolve"

	peerProvider = "stripe"
)

// Service orchestrates the checkout and payment-fulfillment pipeline:
// building provider-hosted sessions, processing webhook deliveries, and
// resolving completed sessions back onto local inventory.
type Service struct {
	provider  domain.Provider
	verifier  domain.WebhookVerifier
	artworks  artwork.Repository
	orders    order.Repository
	notifier  Notifier
	processed ProcessedEventStore
	publisher outbox.Publisher
	clientURL string

	tel observability.Observability
	log observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
	shortCounter observability.Counter   // stock_shortfalls_total
}

// Config carries the wiring for NewService. Notifier, ProcessedEventStore
// and Publisher are optional; a nil port degrades to a no-op for that step.
type Config struct {
	Provider  domain.Provider
	Verifier  domain.WebhookVerifier
	Artworks  artwork.Repository
	Orders    order.Repository
	Notifier  Notifier
	Processed ProcessedEventStore
	Publisher outbox.Publisher

	// ClientURL is the outward-facing base URL used to template the
	// success/cancel redirect targets.
	ClientURL string

	Observability observability.Observability
}

func NewService(cfg Config) *Service {
	tel := cfg.Observability
	if tel == nil {
		tel = observability.Nop()
	}

	log := tel.Logger().With(observability.F("service", serviceName))
	metrics := tel.Metrics()

	return &Service{
		provider:     cfg.Provider,
		verifier:     cfg.Verifier,
		artworks:     cfg.Artworks,
		orders:       cfg.Orders,
		notifier:     cfg.Notifier,
		processed:    cfg.Processed,
		publisher:    cfg.Publisher,
		clientURL:    cfg.ClientURL,
		tel:          tel,
		log:          log,
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
		shortCounter: metrics.Counter(observability.MStockShortfalls),
	}
}
