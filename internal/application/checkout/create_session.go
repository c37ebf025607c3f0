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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type CreateSessionInput struct {
	Lines []domain.Line
	// UserID correlates the session to an authenticated buyer; nil for
	// guest checkout.
	UserID *string
}

type CreateSessionResult struct {
	SessionID     string
	PaymentStatus string
	Status        string
}

// CreateSession builds one provider line item per cart line and creates a
// provider-hosted checkout session. No local state is touched.
func (s *Service) CreateSession(ctx context.Context, input CreateSessionInput) (_ *CreateSessionResult, err error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCaseCreateSession))

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+"CreateCheckoutSession",
		attribute.String("use_case", useCaseCreateSession),
		attribute.Int("cart.lines", len(input.Lines)),
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
			observability.L("use_case", useCaseCreateSession),
			observability.L("outcome", outcome),
		)
		s.durHistogram.Observe(lat,
			observability.L("use_case", useCaseCreateSession),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if len(input.Lines) == 0 {
		outcome, statusText = "error", "CART_EMPTY"
		return nil, errors.New("checkout: cart must contain at least one line")
	}
	for _, line := range input.Lines {
		if line.Quantity < 1 {
			outcome, statusText = "error", "QUANTITY_INVALID"
			return nil, fmt.Errorf("checkout: artwork %d: quantity must be at least one", line.ArtworkID)
		}
		if line.UnitPrice < 0 {
			outcome, statusText = "error", "PRICE_INVALID"
			return nil, fmt.Errorf("checkout: artwork %d: price must be zero or greater", line.ArtworkID)
		}
	}

	req := domain.SessionRequest{
		ClientReferenceID: input.UserID,
		SuccessURL:        s.clientURL + "/successful-payment?sessionId={CHECKOUT_SESSION_ID}",
		CancelURL:         s.clientURL + "/unsuccessful-payment",
	}
	for _, line := range input.Lines {
		req.Lines = append(req.Lines, domain.ProviderLine{
			Ref:             domain.EncodeArtworkRef(line.ArtworkID),
			UnitAmountCents: artwork.MinorUnits(line.UnitPrice),
			Quantity:        int64(line.Quantity),
		})
	}

	callStart := time.Now()
	sess, err := s.provider.CreateSession(ctx, req)
	s.recordProviderCall("checkout.session.create", callStart, err)
	if err != nil {
		if errors.Is(err, domain.ErrNoCredential) {
			outcome, statusText = "error", "CREDENTIAL_MISSING"
			return nil, err
		}
		outcome, statusText = "error", "PROVIDER_FAILED"
		return nil, fmt.Errorf("%w: %w", domain.ErrProvider, err)
	}

	span.SetAttributes(attribute.String("session.id", sess.ID))
	return &CreateSessionResult{
		SessionID:     sess.ID,
		PaymentStatus: sess.PaymentStatus,
		Status:        sess.Status,
	}, nil
}

// recordProviderCall feeds external-call metrics for one provider round trip.
func (s *Service) recordProviderCall(endpoint string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.extCounter.Add(1,
		observability.L("peer", peerProvider),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	s.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peerProvider),
		observability.L("endpoint", endpoint),
	)
}
