package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appcheckout "github.com/edge-gallery/storefront/internal/application/checkout"
	artdomain "github.com/edge-gallery/storefront/internal/domain/artwork"
	domain "github.com/edge-gallery/storefront/internal/domain/checkout"
	"github.com/edge-gallery/storefront/internal/infrastructure/memory"
	"github.com/edge-gallery/storefront/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCheckoutService struct {
	createFn  func(ctx context.Context, input appcheckout.CreateSessionInput) (*appcheckout.CreateSessionResult, error)
	webhookFn func(ctx context.Context, payload []byte, sigHeader string) (*appcheckout.WebhookResult, error)
	resolveFn func(ctx context.Context, sessionID string) ([]domain.ResolvedArtwork, error)
}

func (f *fakeCheckoutService) CreateSession(ctx context.Context, input appcheckout.CreateSessionInput) (*appcheckout.CreateSessionResult, error) {
	return f.createFn(ctx, input)
}

func (f *fakeCheckoutService) ProcessWebhook(ctx context.Context, payload []byte, sigHeader string) (*appcheckout.WebhookResult, error) {
	return f.webhookFn(ctx, payload, sigHeader)
}

func (f *fakeCheckoutService) SessionArtworks(ctx context.Context, sessionID string) ([]domain.ResolvedArtwork, error) {
	return f.resolveFn(ctx, sessionID)
}

func newTestHandler(t *testing.T, svc CheckoutService) (*Handler, *memory.ArtworkRepository, *memory.OrderRepository) {
	t.Helper()
	artworks := memory.NewArtworkRepository()
	orders := memory.NewOrderRepository()
	return NewHandler(svc, artworks, orders, observability.Nop()), artworks, orders
}

func TestCreateSessionEndpoint(t *testing.T) {
	svc := &fakeCheckoutService{
		createFn: func(_ context.Context, input appcheckout.CreateSessionInput) (*appcheckout.CreateSessionResult, error) {
			require.Len(t, input.Lines, 1)
			assert.Equal(t, int64(3), input.Lines[0].ArtworkID)
			require.NotNil(t, input.UserID)
			assert.Equal(t, "user-1", *input.UserID)
			return &appcheckout.CreateSessionResult{SessionID: "cs_1", PaymentStatus: "unpaid", Status: "open"}, nil
		},
	}
	h, _, _ := newTestHandler(t, svc)

	body := `{"items":[{"artworkId":3,"price":19.99,"quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/checkout/session", strings.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cs_1", resp["sessionId"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCreateSessionErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"no credential", domain.ErrNoCredential, http.StatusServiceUnavailable},
		{"provider failure", domain.ErrProvider, http.StatusBadGateway},
		{"validation", errors.New("checkout: cart must contain at least one line"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeCheckoutService{
				createFn: func(context.Context, appcheckout.CreateSessionInput) (*appcheckout.CreateSessionResult, error) {
					return nil, tc.err
				},
			}
			h, _, _ := newTestHandler(t, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/checkout/session", strings.NewReader(`{"items":[]}`))
			rec := httptest.NewRecorder()
			h.Router().ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestWebhookEndpointStatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		result  *appcheckout.WebhookResult
		err     error
		status  int
		contain string
	}{
		{"handled", &appcheckout.WebhookResult{Handled: true, EventType: domain.EventTypeSessionCompleted}, nil, http.StatusOK, `{"succeeded":true,"data":true}`},
		{"ignored", &appcheckout.WebhookResult{Handled: false, EventType: "payment_intent.created"}, nil, http.StatusOK, `{"succeeded":true,"data":false}`},
		{"bad signature", nil, domain.ErrSignature, http.StatusBadRequest, "signature"},
		{"fulfillment failure", nil, errors.New("stock backend down"), http.StatusInternalServerError, "stock backend down"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeCheckoutService{
				webhookFn: func(_ context.Context, payload []byte, sigHeader string) (*appcheckout.WebhookResult, error) {
					assert.Equal(t, "sig-header", sigHeader)
					assert.Equal(t, `{"id":"evt_1"}`, string(payload))
					return tc.result, tc.err
				},
			}
			h, _, _ := newTestHandler(t, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/checkout/webhook", bytes.NewReader([]byte(`{"id":"evt_1"}`)))
			req.Header.Set("Stripe-Signature", "sig-header")
			rec := httptest.NewRecorder()
			h.Router().ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.contain)
		})
	}
}

func TestSessionArtworksEndpoint(t *testing.T) {
	svc := &fakeCheckoutService{
		resolveFn: func(_ context.Context, sessionID string) ([]domain.ResolvedArtwork, error) {
			assert.Equal(t, "cs_9", sessionID)
			return []domain.ResolvedArtwork{{ArtworkID: 4, Name: "Tidal Study", Price: 120.5, Quantity: 2}}, nil
		},
	}
	h, _, _ := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/checkout/session/cs_9/artworks", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Tidal Study", resp[0]["name"])
	assert.Equal(t, float64(2), resp[0]["quantity"])
}

func TestArtworkEndpoints(t *testing.T) {
	h, artworks, _ := newTestHandler(t, &fakeCheckoutService{})
	ctx := context.Background()

	a, err := artdomain.New(12, "Blue Interval", 80, 1)
	require.NoError(t, err)
	require.NoError(t, artworks.Put(ctx, a))

	req := httptest.NewRequest(http.MethodGet, "/api/artworks/12", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Blue Interval")

	req = httptest.NewRequest(http.MethodGet, "/api/artworks/404", nil)
	rec = httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/artworks/not-a-number", nil)
	rec = httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/artworks", nil)
	rec = httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListOrdersRequiresUserID(t *testing.T) {
	h, _, _ := newTestHandler(t, &fakeCheckoutService{})

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h, _, _ := newTestHandler(t, &fakeCheckoutService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
