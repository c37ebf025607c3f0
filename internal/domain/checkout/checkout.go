package checkout

import (
	"errors"
	"strings"
)

var (
	// ErrNoCredential means no provider secret key is configured.
	ErrNoCredential = errors.New("checkout: provider credential not configured")
	// ErrProvider wraps transport or validation failures from the provider
	// during session creation.
	ErrProvider = errors.New("checkout: provider request failed")
	// ErrResolution wraps provider transport failures while listing a
	// session's line items.
	ErrResolution = errors.New("checkout: session resolution failed")
	// ErrSignature means the webhook payload failed signature verification.
	ErrSignature = errors.New("checkout: webhook signature invalid")
)

// EventTypeSessionCompleted is the only provider event that triggers
// fulfillment; every other type is acknowledged and ignored.
const EventTypeSessionCompleted = "checkout.session.completed"

// Line is one entry of a buyer's cart: ephemeral, never persisted.
type Line struct {
	ArtworkID int64
	UnitPrice float64
	Quantity  int
}

// SessionRequest is the provider-agnostic shape of a session creation call.
type SessionRequest struct {
	Lines             []ProviderLine
	ClientReferenceID *string
	SuccessURL        string
	CancelURL         string
}

// ProviderLine is one priced line item as transmitted to the provider.
// Ref carries the encoded artwork reference (see EncodeArtworkRef).
type ProviderLine struct {
	Ref             string
	UnitAmountCents int64
	Quantity        int64
}

// Session is the normalized projection of a provider checkout session; the
// rest of the provider object stays opaque.
type Session struct {
	ID                string
	PaymentIntentID   string
	PaymentStatus     string
	Status            string
	ClientReferenceID string
	CustomerEmail     string
	AmountTotalCents  int64
	BillingAddress    Address
	ReceiptURL        string
}

// Address holds the structured billing fields collected by the provider.
type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// Formatted joins the non-blank address components with single spaces.
func (a Address) Formatted() string {
	parts := []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country}
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// LineItem is one line item as read back from the provider.
type LineItem struct {
	Ref      string
	Quantity int64
}

// ResolvedArtwork maps one provider line item back onto local inventory.
// Repeated artwork ids within a session are merged with quantities summed.
type ResolvedArtwork struct {
	ArtworkID int64
	Name      string
	Price     float64
	Quantity  int
}

// Event is a verified webhook envelope. Session is populated only for
// completed-session events.
type Event struct {
	ID      string
	Type    string
	Session *Session
}
