package checkout

import "time"

// FulfilledEvent is emitted after a completed-session webhook has been
// fulfilled (stock decremented, order recorded for non-guest buyers).
type FulfilledEvent struct {
	SessionID       string    `json:"session_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	UserID          *string   `json:"user_id,omitempty"`
	ArtworkIDs      []int64   `json:"artwork_ids"`
	AmountCents     int64     `json:"amount_cents"`
	Guest           bool      `json:"guest"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func (FulfilledEvent) EventName() string { return "checkout.fulfilled" }
