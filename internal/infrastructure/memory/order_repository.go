package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/edge-gallery/storefront/internal/domain/order"
	"github.com/google/uuid"
)

type OrderRepository struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*domain.Order
	byIntent map[string]uuid.UUID
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:   make(map[uuid.UUID]*domain.Order),
		byIntent: make(map[string]uuid.UUID),
	}
}

func (r *OrderRepository) CreateIfAbsent(ctx context.Context, o *domain.Order) (*domain.Order, bool, error) {
	_ = ctx
	if o == nil || o.ID == uuid.Nil {
		return nil, false, fmt.Errorf("order repository: id is required")
	}
	if o.PaymentIntentID == "" {
		return nil, false, domain.ErrMissingPaymentIntent
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existingID, ok := r.byIntent[o.PaymentIntentID]; ok {
		if existing, found := r.orders[existingID]; found {
			return existing.Clone(), false, nil
		}
	}

	r.orders[o.ID] = o.Clone()
	r.byIntent[o.PaymentIntentID] = o.ID
	return o.Clone(), true, nil
}

func (r *OrderRepository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Order, error) {
	_ = ctx
	if paymentIntentID == "" {
		return nil, domain.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	orderID, ok := r.byIntent[paymentIntentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o, found := r.orders[orderID]
	if !found {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
