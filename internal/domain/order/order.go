package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound             = errors.New("order: not found")
	ErrConflict             = errors.New("order: already exists")
	ErrPersistence          = errors.New("order: persistence failure")
	ErrMissingPaymentIntent = errors.New("order: payment intent id is required")
)

// Order is the ledger record of one fulfilled purchase. PaymentIntentID is
// unique across all orders and is the sole fulfillment idempotency key.
// UserID is nil for guest checkouts.
type Order struct {
	ID              uuid.UUID
	UserID          *string
	AmountCents     int64
	Status          string
	PaymentIntentID string
	ReceiptURL      string
	Description     string
	BillingAddress  string
	Metadata        map[string]string
	CreatedAt       time.Time
	Items           []OrderItem
}

// OrderItem freezes the price of one purchased artwork at purchase time.
// Items are created atomically with their order and never updated after.
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ArtworkID  int64
	PriceCents int64
	Quantity   int
	CreatedAt  time.Time
}

func New(userID *string, paymentIntentID string, amountCents int64, status string) (*Order, error) {
	if paymentIntentID == "" {
		return nil, ErrMissingPaymentIntent
	}
	return &Order{
		ID:              uuid.New(),
		UserID:          userID,
		AmountCents:     amountCents,
		Status:          status,
		PaymentIntentID: paymentIntentID,
		Metadata:        map[string]string{},
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// AddItem appends an item owned by this order, price frozen in minor units.
func (o *Order) AddItem(artworkID int64, priceCents int64, quantity int) {
	o.Items = append(o.Items, OrderItem{
		ID:         uuid.New(),
		OrderID:    o.ID,
		ArtworkID:  artworkID,
		PriceCents: priceCents,
		Quantity:   quantity,
		CreatedAt:  time.Now().UTC(),
	})
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]OrderItem(nil), o.Items...)
	if o.Metadata != nil {
		clone.Metadata = make(map[string]string, len(o.Metadata))
		for k, v := range o.Metadata {
			clone.Metadata[k] = v
		}
	}
	if o.UserID != nil {
		uid := *o.UserID
		clone.UserID = &uid
	}
	return &clone
}
