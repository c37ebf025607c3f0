package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/edge-gallery/storefront/internal/domain/order"
	"github.com/lib/pq"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateIfAbsent inserts the order and its items in one transaction. The
// UNIQUE constraint on payment_intent_id is the idempotency guard: a
// conflicting insert affects no rows and the stored order is returned
// instead.
func (r *OrderRepository) CreateIfAbsent(ctx context.Context, o *domain.Order) (*domain.Order, bool, error) {
	if o == nil || o.PaymentIntentID == "" {
		return nil, false, domain.ErrMissingPaymentIntent
	}

	metadataJSON, err := json.Marshal(o.Metadata)
	if err != nil {
		return nil, false, fmt.Errorf("marshal order metadata: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: begin order tx: %w", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	orderQuery := `INSERT INTO orders (id, user_id, amount_cents, status, payment_intent_id, receipt_url, description, billing_address, metadata, created_at)
	               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	               ON CONFLICT (payment_intent_id) DO NOTHING`

	res, insertErr := tx.ExecContext(ctx, orderQuery,
		o.ID,
		o.UserID,
		o.AmountCents,
		o.Status,
		o.PaymentIntentID,
		o.ReceiptURL,
		o.Description,
		o.BillingAddress,
		metadataJSON,
		o.CreatedAt,
	)
	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			existing, ferr := r.FindByPaymentIntent(ctx, o.PaymentIntentID)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("%w: insert order: %w", domain.ErrPersistence, insertErr)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("%w: insert order result: %w", domain.ErrPersistence, err)
	}
	if affected == 0 {
		existing, ferr := r.FindByPaymentIntent(ctx, o.PaymentIntentID)
		if ferr != nil {
			return nil, false, ferr
		}
		return existing, false, nil
	}

	itemQuery := `INSERT INTO order_items (id, order_id, artwork_id, price_cents, quantity, created_at)
	              VALUES ($1, $2, $3, $4, $5, $6)`
	for _, item := range o.Items {
		if _, ierr := tx.ExecContext(ctx, itemQuery,
			item.ID, item.OrderID, item.ArtworkID, item.PriceCents, item.Quantity, item.CreatedAt,
		); ierr != nil {
			return nil, false, fmt.Errorf("%w: insert order item: %w", domain.ErrPersistence, ierr)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("%w: commit order tx: %w", domain.ErrPersistence, err)
	}
	return o.Clone(), true, nil
}

const orderColumns = `id, user_id, amount_cents, status, payment_intent_id, receipt_url, description, billing_address, metadata, created_at`

func (r *OrderRepository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Order, error) {
	if paymentIntentID == "" {
		return nil, domain.ErrNotFound
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_intent_id = $1`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, paymentIntentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query order by payment intent: %w", domain.ErrPersistence, err)
	}

	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: query orders by user id: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, serr := scanOrder(rows)
		if serr != nil {
			return nil, fmt.Errorf("scan order row: %w", serr)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, o := range orders {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, o *domain.Order) error {
	query := `SELECT id, order_id, artwork_id, price_cents, quantity, created_at
	          FROM order_items WHERE order_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, o.ID)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if serr := rows.Scan(&item.ID, &item.OrderID, &item.ArtworkID, &item.PriceCents, &item.Quantity, &item.CreatedAt); serr != nil {
			return fmt.Errorf("scan order item row: %w", serr)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var userID sql.NullString
	var metadataJSON []byte
	if err := row.Scan(
		&o.ID,
		&userID,
		&o.AmountCents,
		&o.Status,
		&o.PaymentIntentID,
		&o.ReceiptURL,
		&o.Description,
		&o.BillingAddress,
		&metadataJSON,
		&o.CreatedAt,
	); err != nil {
		return nil, err
	}
	if userID.Valid {
		o.UserID = &userID.String
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &o.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal order metadata: %w", err)
		}
	}
	return &o, nil
}
