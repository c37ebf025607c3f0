package checkout

import "context"

// Provider is the payment provider's hosted-checkout surface.
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)

	// SessionLineItems drains every page of the session's line items.
	SessionLineItems(ctx context.Context, sessionID string) ([]LineItem, error)
}

// WebhookVerifier authenticates a raw webhook delivery and decodes it into
// an event envelope. Verification failure must be indistinguishable from a
// tampered body.
type WebhookVerifier interface {
	VerifyAndParse(payload []byte, sigHeader string) (*Event, error)
}
