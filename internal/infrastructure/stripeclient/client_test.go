package stripeclient

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	domain "github.com/edge-gallery/storefront/internal/domain/checkout"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(t *testing.T, secret string, payload []byte) string {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyAndParseCompletedSession(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"payment_intent": {"id": "pi_1"},
				"payment_status": "paid",
				"status": "complete",
				"client_reference_id": "user-7",
				"amount_total": 4500,
				"customer_details": {
					"email": "buyer@example.com",
					"address": {
						"line1": "12 Brush St",
						"city": "Lisbon",
						"postal_code": "1100",
						"country": "PT"
					}
				}
			}
		}
	}`)

	c := New("sk_test_x", testWebhookSecret)
	ev, err := c.VerifyAndParse(payload, signPayload(t, testWebhookSecret, payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, domain.EventTypeSessionCompleted, ev.Type)
	require.NotNil(t, ev.Session)
	assert.Equal(t, "cs_test_1", ev.Session.ID)
	assert.Equal(t, "pi_1", ev.Session.PaymentIntentID)
	assert.Equal(t, "user-7", ev.Session.ClientReferenceID)
	assert.Equal(t, int64(4500), ev.Session.AmountTotalCents)
	assert.Equal(t, "buyer@example.com", ev.Session.CustomerEmail)
	assert.Equal(t, "12 Brush St Lisbon 1100 PT", ev.Session.BillingAddress.Formatted())
}

func TestVerifyAndParseRejectsBadSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_2","type":"checkout.session.completed","data":{"object":{}}}`)

	c := New("sk_test_x", testWebhookSecret)
	_, err := c.VerifyAndParse(payload, signPayload(t, "whsec_other", payload))
	require.Error(t, err)
}

func TestVerifyAndParseIgnoresOtherEventTypes(t *testing.T) {
	payload := []byte(`{"id":"evt_3","type":"payment_intent.created","data":{"object":{"id":"pi_9"}}}`)

	c := New("sk_test_x", testWebhookSecret)
	ev, err := c.VerifyAndParse(payload, signPayload(t, testWebhookSecret, payload))
	require.NoError(t, err)
	assert.Equal(t, "payment_intent.created", ev.Type)
	assert.Nil(t, ev.Session)
}

func TestCreateSessionWithoutCredential(t *testing.T) {
	c := New("", testWebhookSecret)
	_, err := c.CreateSession(context.Background(), domain.SessionRequest{})
	assert.ErrorIs(t, err, domain.ErrNoCredential)
}

func TestNormalizeSessionReceiptFallsBackToEmail(t *testing.T) {
	sess := normalizeSession(&stripe.CheckoutSession{
		ID:              "cs_4",
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "fallback@example.com"},
	})
	assert.Equal(t, "fallback@example.com", sess.ReceiptURL)

	sess = normalizeSession(&stripe.CheckoutSession{
		ID:              "cs_5",
		Invoice:         &stripe.Invoice{InvoicePDF: "https://pay.example.com/receipt.pdf"},
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "x@example.com"},
	})
	assert.Equal(t, "https://pay.example.com/receipt.pdf", sess.ReceiptURL)
}
