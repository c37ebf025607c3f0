package stripeclient

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/edge-gallery/storefront/internal/domain/checkout"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Client implements the checkout provider ports against the Stripe API.
// The secret key lives on the client instance; nothing mutates the SDK's
// process-wide configuration.
type Client struct {
	api           *client.API
	key           string
	webhookSecret string
}

func New(secretKey, webhookSecret string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{
		api:           api,
		key:           secretKey,
		webhookSecret: webhookSecret,
	}
}

// CreateSession creates a Stripe-hosted checkout session. Unit amounts are
// already in minor units; the artwork reference rides in the product name.
func (c *Client) CreateSession(ctx context.Context, req domain.SessionRequest) (*domain.Session, error) {
	if c.key == "" {
		return nil, domain.ErrNoCredential
	}

	params := &stripe.CheckoutSessionParams{
		Params:                   stripe.Params{Context: ctx},
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		SuccessURL:               stripe.String(req.SuccessURL),
		CancelURL:                stripe.String(req.CancelURL),
	}
	if req.ClientReferenceID != nil {
		params.ClientReferenceID = stripe.String(*req.ClientReferenceID)
	}
	for _, line := range req.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyUSD)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Ref),
				},
				UnitAmount: stripe.Int64(line.UnitAmountCents),
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return normalizeSession(sess), nil
}

// SessionLineItems drains every page of the session's line items.
func (c *Client) SessionLineItems(ctx context.Context, sessionID string) ([]domain.LineItem, error) {
	if c.key == "" {
		return nil, domain.ErrNoCredential
	}

	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx

	var items []domain.LineItem
	iter := c.api.CheckoutSessions.ListLineItems(params)
	for iter.Next() {
		li := iter.LineItem()
		items = append(items, domain.LineItem{
			Ref:      li.Description,
			Quantity: li.Quantity,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe: list line items for %s: %w", sessionID, err)
	}
	return items, nil
}

// VerifyAndParse authenticates a raw webhook delivery against the signing
// secret and decodes the event envelope. Completed-session events carry the
// normalized session.
func (c *Client) VerifyAndParse(payload []byte, sigHeader string) (*domain.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("stripe: verify webhook: %w", err)
	}

	out := &domain.Event{ID: event.ID, Type: string(event.Type)}
	if out.Type == domain.EventTypeSessionCompleted {
		var sess stripe.CheckoutSession
		if uerr := json.Unmarshal(event.Data.Raw, &sess); uerr != nil {
			return nil, fmt.Errorf("stripe: decode session payload: %w", uerr)
		}
		out.Session = normalizeSession(&sess)
	}
	return out, nil
}

func normalizeSession(s *stripe.CheckoutSession) *domain.Session {
	out := &domain.Session{
		ID:                s.ID,
		PaymentStatus:     string(s.PaymentStatus),
		Status:            string(s.Status),
		ClientReferenceID: s.ClientReferenceID,
		AmountTotalCents:  s.AmountTotal,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if cd := s.CustomerDetails; cd != nil {
		out.CustomerEmail = cd.Email
		if a := cd.Address; a != nil {
			out.BillingAddress = domain.Address{
				Line1:      a.Line1,
				Line2:      a.Line2,
				City:       a.City,
				State:      a.State,
				PostalCode: a.PostalCode,
				Country:    a.Country,
			}
		}
	}
	// Receipt falls back to the buyer email when no invoice PDF exists.
	if s.Invoice != nil && s.Invoice.InvoicePDF != "" {
		out.ReceiptURL = s.Invoice.InvoicePDF
	} else {
		out.ReceiptURL = out.CustomerEmail
	}
	return out
}
