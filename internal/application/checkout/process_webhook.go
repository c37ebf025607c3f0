package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edge-gallery/storefront/internal/domain/artwork"
	domain "github.com/edge-gallery/storefront/internal/domain/checkout"
	"github.com/edge-gallery/storefront/internal/domain/order"
	"github.com/edge-gallery/storefront/internal/observability"
	"github.com/edge-gallery/storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const publishTimeout = 300 * time.Millisecond

// WebhookResult is the definite outcome reported back to the HTTP layer.
// Handled is true only when a completed-session event ran (or had already
// run) fulfillment.
type WebhookResult struct {
	Handled   bool
	EventType string
}

// ProcessWebhook verifies one raw webhook delivery and, for completed
// checkout sessions, runs the fulfillment sequence: resolve artworks,
// decrement stock, record the order for non-guest buyers, notify the buyer.
// The provider may deliver events at-least-once and out of order relative to
// the originating checkout call; every guard below assumes that.
func (s *Service) ProcessWebhook(ctx context.Context, payload []byte, sigHeader string) (_ *WebhookResult, err error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCaseProcessWebhook))

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+"ProcessWebhookEvent",
		attribute.String("use_case", useCaseProcessWebhook),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		s.reqCounter.Add(1,
			observability.L("use_case", useCaseProcessWebhook),
			observability.L("outcome", outcome),
		)
		s.durHistogram.Observe(lat,
			observability.L("use_case", useCaseProcessWebhook),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	ev, verr := s.verifier.VerifyAndParse(payload, sigHeader)
	if verr != nil {
		outcome, statusText = "error", "SIGNATURE_INVALID"
		return nil, fmt.Errorf("%w: %w", domain.ErrSignature, verr)
	}

	span.SetAttributes(attribute.String("event.type", ev.Type))
	logger = logger.With(observability.F("event_id", ev.ID), observability.F("event_type", ev.Type))

	if ev.Type != domain.EventTypeSessionCompleted {
		statusText = "EVENT_IGNORED"
		logger.Info("webhook_event_ignored")
		return &WebhookResult{Handled: false, EventType: ev.Type}, nil
	}

	sess := ev.Session
	if sess == nil {
		outcome, statusText = "error", "SESSION_MISSING"
		return nil, fmt.Errorf("%w: completed event carries no session", domain.ErrProvider)
	}
	span.SetAttributes(attribute.String("session.id", sess.ID))
	logger = logger.With(observability.F("session_id", sess.ID))

	// At-least-once delivery: the provider reuses the event id on redelivery,
	// so a hit here means fulfillment already completed. Store outages fail
	// open; the ledger's unique payment intent still covers the non-guest
	// path.
	if s.processed != nil && ev.ID != "" {
		seen, derr := s.processed.Seen(ctx, ev.ID)
		if derr != nil {
			logger.Warn("event_dedup_unavailable", observability.F("error", derr.Error()))
		} else if seen {
			statusText = "DUPLICATE_DELIVERY"
			logger.Info("webhook_event_replayed")
			return &WebhookResult{Handled: true, EventType: ev.Type}, nil
		}
	}

	// A payment intent that already produced an order means this delivery is
	// a replay; skip the decrement so stock is not subtracted twice.
	if sess.ClientReferenceID != "" && sess.PaymentIntentID != "" {
		if _, ferr := s.orders.FindByPaymentIntent(ctx, sess.PaymentIntentID); ferr == nil {
			statusText = "ORDER_ALREADY_RECORDED"
			logger.Info("fulfillment_idempotent_replay",
				observability.F("payment_intent_id", sess.PaymentIntentID),
			)
			return &WebhookResult{Handled: true, EventType: ev.Type}, nil
		} else if !errors.Is(ferr, order.ErrNotFound) {
			outcome, statusText = "error", "LEDGER_LOOKUP_FAILED"
			return nil, fmt.Errorf("checkout: ledger lookup: %w", ferr)
		}
	}

	resolved, rerr := s.SessionArtworks(ctx, sess.ID)
	if rerr != nil {
		outcome, statusText = "error", "RESOLUTION_FAILED"
		return nil, rerr
	}

	if derr := s.decrementStock(ctx, logger, resolved); derr != nil {
		outcome, statusText = "error", "INVENTORY_DECREMENT_FAILED"
		return nil, derr
	}

	if sess.ClientReferenceID != "" {
		created, oerr := s.recordOrder(ctx, sess, resolved)
		if oerr != nil {
			outcome, statusText = "error", "ORDER_RECORD_FAILED"
			return nil, oerr
		}
		if !created {
			statusText = "ORDER_ALREADY_RECORDED"
			logger.Info("order_idempotent_replay",
				observability.F("payment_intent_id", sess.PaymentIntentID),
			)
		}
	} else {
		// Guest checkout leaves no ledger entry; only the decrement and the
		// confirmation message happen.
		logger.Info("guest_session_order_skipped")
	}

	if sess.CustomerEmail != "" && s.notifier != nil {
		if nerr := s.notifier.SendPurchaseConfirmation(ctx, sess.CustomerEmail, resolved); nerr != nil {
			logger.Warn("confirmation_send_failed", observability.F("error", nerr.Error()))
		}
	}

	if s.processed != nil && ev.ID != "" {
		if derr := s.processed.MarkProcessed(ctx, ev.ID); derr != nil {
			logger.Warn("event_mark_processed_failed", observability.F("error", derr.Error()))
		}
	}

	s.publishFulfilled(ctx, logger, sess, resolved)

	return &WebhookResult{Handled: true, EventType: ev.Type}, nil
}

func (s *Service) decrementStock(ctx context.Context, logger observability.Logger, resolved []domain.ResolvedArtwork) error {
	if len(resolved) == 0 {
		return nil
	}

	decrements := make([]artwork.Decrement, 0, len(resolved))
	for _, r := range resolved {
		decrements = append(decrements, artwork.Decrement{ArtworkID: r.ArtworkID, Quantity: r.Quantity})
	}

	results, err := s.artworks.DecrementStock(ctx, decrements)
	if err != nil {
		return fmt.Errorf("checkout: decrement stock: %w", err)
	}

	for _, res := range results {
		if !res.Satisfied {
			s.shortCounter.Add(1, observability.L("outcome", "clamped"))
			logger.Warn("stock_short",
				observability.F("artwork_id", res.ArtworkID),
				observability.F("remaining", res.Remaining),
			)
		}
	}
	return nil
}

func (s *Service) recordOrder(ctx context.Context, sess *domain.Session, resolved []domain.ResolvedArtwork) (bool, error) {
	uid := sess.ClientReferenceID
	o, err := order.New(&uid, sess.PaymentIntentID, sess.AmountTotalCents, sess.PaymentStatus)
	if err != nil {
		return false, fmt.Errorf("checkout: build order: %w", err)
	}

	o.ReceiptURL = sess.ReceiptURL
	o.Description = purchaseDescription(resolved)
	o.BillingAddress = sess.BillingAddress.Formatted()
	o.Metadata["artwork_ids"] = joinArtworkIDs(resolved)
	o.Metadata["session_id"] = sess.ID
	for _, r := range resolved {
		o.AddItem(r.ArtworkID, artwork.MinorUnits(r.Price), r.Quantity)
	}

	_, created, cerr := s.orders.CreateIfAbsent(ctx, o)
	if cerr != nil {
		return false, fmt.Errorf("checkout: record order: %w", cerr)
	}
	return created, nil
}

func (s *Service) publishFulfilled(ctx context.Context, logger observability.Logger, sess *domain.Session, resolved []domain.ResolvedArtwork) {
	if s.publisher == nil {
		return
	}

	ev := domain.FulfilledEvent{
		SessionID:       sess.ID,
		PaymentIntentID: sess.PaymentIntentID,
		AmountCents:     sess.AmountTotalCents,
		Guest:           sess.ClientReferenceID == "",
		OccurredAt:      time.Now().UTC(),
	}
	if sess.ClientReferenceID != "" {
		uid := sess.ClientReferenceID
		ev.UserID = &uid
	}
	for _, r := range resolved {
		ev.ArtworkIDs = append(ev.ArtworkIDs, r.ArtworkID)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if perr := s.publisher.Publish(pubCtx, ev); perr != nil {
		logger.Warn("fulfilled_event_publish_failed", observability.F("error", perr.Error()))
	}
}

// purchaseDescription renders the human-readable summary stored on the
// order, e.g. "Purchase of 3 artwork(s): 2x Dusk, 1x Tide".
func purchaseDescription(resolved []domain.ResolvedArtwork) string {
	total := 0
	parts := make([]string, 0, len(resolved))
	for _, r := range resolved {
		total += r.Quantity
		parts = append(parts, fmt.Sprintf("%dx %s", r.Quantity, r.Name))
	}
	return fmt.Sprintf("Purchase of %d artwork(s): %s", total, strings.Join(parts, ", "))
}

func joinArtworkIDs(resolved []domain.ResolvedArtwork) string {
	ids := make([]string, 0, len(resolved))
	for _, r := range resolved {
		ids = append(ids, domain.EncodeArtworkRef(r.ArtworkID))
	}
	return strings.Join(ids, ",")
}
