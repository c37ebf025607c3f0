package order

import "context"

type Repository interface {
	// CreateIfAbsent records the order and its items as one atomic unit,
	// keyed by PaymentIntentID. When an order for that payment intent
	// already exists it is returned unmodified with created=false.
	CreateIfAbsent(ctx context.Context, o *Order) (existing *Order, created bool, err error)

	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
}
