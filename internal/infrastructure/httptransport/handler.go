package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	appcheckout "github.com/edge-gallery/storefront/internal/application/checkout"
	artdomain "github.com/edge-gallery/storefront/internal/domain/artwork"
	domain "github.com/edge-gallery/storefront/internal/domain/checkout"
	orderdomain "github.com/edge-gallery/storefront/internal/domain/order"
	"github.com/edge-gallery/storefront/internal/observability"
	"github.com/go-chi/chi/v5"
)

// maxWebhookBody bounds raw webhook payload reads. Provider events are a
// few KB; anything near this limit is hostile.
const maxWebhookBody = 1 << 20

// CheckoutService is the slice of the application layer the HTTP handler
// needs. Narrowed to an interface so tests can swap in fakes.
type CheckoutService interface {
	CreateSession(ctx context.Context, input appcheckout.CreateSessionInput) (*appcheckout.CreateSessionResult, error)
	ProcessWebhook(ctx context.Context, payload []byte, sigHeader string) (*appcheckout.WebhookResult, error)
	SessionArtworks(ctx context.Context, sessionID string) ([]domain.ResolvedArtwork, error)
}

type Handler struct {
	checkout CheckoutService
	artworks artdomain.Repository
	orders   orderdomain.Repository
	log      observability.Logger
	tel      observability.Observability
}

const componentHTTPHandler = "http_server"

func NewHandler(checkoutSvc CheckoutService, artworks artdomain.Repository, orders orderdomain.Repository, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		checkout: checkoutSvc,
		artworks: artworks,
		orders:   orders,
		log:      tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:      tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(ObservabilityMiddleware(h.log, h.tel))

	r.Route("/api", func(r chi.Router) {
		r.Post("/checkout/session", h.handleCreateSession)
		r.Post("/checkout/webhook", h.handleWebhook)
		r.Get("/checkout/session/{sessionID}/artworks", h.handleSessionArtworks)
		r.Get("/artworks", h.handleListArtworks)
		r.Get("/artworks/{id}", h.handleGetArtwork)
		r.Get("/orders", h.handleListOrders)
	})
	r.Get("/health", h.handleHealth)

	return r
}

type sessionItemRequest struct {
	ArtworkID int64   `json:"artworkId"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type createSessionRequest struct {
	Items []sessionItemRequest `json:"items"`
}

type createSessionResponse struct {
	SessionID     string `json:"sessionId"`
	PaymentStatus string `json:"paymentStatus"`
	Status        string `json:"status"`
}

// headerUserID carries the authenticated principal resolved upstream; auth
// itself lives outside this service.
const headerUserID = "X-User-ID"

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var input appcheckout.CreateSessionInput
	if uid := r.Header.Get(headerUserID); uid != "" {
		input.UserID = &uid
	}
	for _, item := range req.Items {
		input.Lines = append(input.Lines, domain.Line{
			ArtworkID: item.ArtworkID,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		})
	}

	result, err := h.checkout.CreateSession(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoCredential):
			writeError(w, http.StatusServiceUnavailable, err)
		case errors.Is(err, domain.ErrProvider):
			writeError(w, http.StatusBadGateway, err)
		default:
			writeError(w, http.StatusBadRequest, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, createSessionResponse{
		SessionID:     result.SessionID,
		PaymentStatus: result.PaymentStatus,
		Status:        result.Status,
	})
}

type webhookResponse struct {
	Succeeded bool `json:"succeeded"`
	Data      bool `json:"data"`
}

// handleWebhook maps pipeline outcomes onto provider retry semantics: 400
// tells the provider the delivery itself is bad, 500 asks it to redeliver,
// 200 acknowledges.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.checkout.ProcessWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, domain.ErrSignature) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{Succeeded: true, Data: result.Handled})
}

type resolvedArtworkResponse struct {
	ArtworkID int64   `json:"artworkId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

func (h *Handler) handleSessionArtworks(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	resolved, err := h.checkout.SessionArtworks(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoCredential):
			writeError(w, http.StatusServiceUnavailable, err)
		case errors.Is(err, domain.ErrResolution):
			writeError(w, http.StatusBadGateway, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	out := make([]resolvedArtworkResponse, 0, len(resolved))
	for _, a := range resolved {
		out = append(out, resolvedArtworkResponse{
			ArtworkID: a.ArtworkID,
			Name:      a.Name,
			Price:     a.Price,
			Quantity:  a.Quantity,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type artworkResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Technique   string  `json:"technique"`
	Year        int     `json:"year"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	CycleID     *int64  `json:"cycleId,omitempty"`
}

func toArtworkResponse(a *artdomain.Artwork) artworkResponse {
	return artworkResponse{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Technique:   a.Technique,
		Year:        a.Year,
		Price:       a.Price,
		Quantity:    a.Quantity,
		CycleID:     a.CycleID,
	}
}

func (h *Handler) handleListArtworks(w http.ResponseWriter, r *http.Request) {
	artworks, err := h.artworks.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]artworkResponse, 0, len(artworks))
	for _, a := range artworks {
		out = append(out, toArtworkResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetArtwork(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("artwork id must be an integer"))
		return
	}

	a, err := h.artworks.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, artdomain.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toArtworkResponse(a))
}

type orderItemResponse struct {
	ArtworkID  int64 `json:"artworkId"`
	PriceCents int64 `json:"priceCents"`
	Quantity   int   `json:"quantity"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	AmountCents     int64               `json:"amountCents"`
	Status          string              `json:"status"`
	PaymentIntentID string              `json:"paymentIntentId"`
	ReceiptURL      string              `json:"receiptUrl"`
	Description     string              `json:"description"`
	BillingAddress  string              `json:"billingAddress"`
	CreatedAt       string              `json:"createdAt"`
	Items           []orderItemResponse `json:"items"`
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, errors.New("userId query parameter is required"))
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp := orderResponse{
			ID:              o.ID.String(),
			AmountCents:     o.AmountCents,
			Status:          o.Status,
			PaymentIntentID: o.PaymentIntentID,
			ReceiptURL:      o.ReceiptURL,
			Description:     o.Description,
			BillingAddress:  o.BillingAddress,
			CreatedAt:       o.CreatedAt.Format(time.RFC3339),
			Items:           make([]orderItemResponse, 0, len(o.Items)),
		}
		for _, item := range o.Items {
			resp.Items = append(resp.Items, orderItemResponse{
				ArtworkID:  item.ArtworkID,
				PriceCents: item.PriceCents,
				Quantity:   item.Quantity,
			})
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
