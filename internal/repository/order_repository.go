package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/riichikun/materials-sign/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderEventColumns = `
	id, order_id, status, delivery_type, payment_type,
	profile_event_id, order_profile_id, created_at
`

// EventByID returns the immutable snapshot with the given event id.
func (r *OrderRepository) EventByID(ctx context.Context, eventID uuid.UUID) (*domain.OrderEvent, error) {
	query := `SELECT ` + orderEventColumns + ` FROM order_events WHERE id = $1`

	return r.queryEvent(ctx, query, eventID)
}

// CurrentEvent returns the latest snapshot of the order.
func (r *OrderRepository) CurrentEvent(ctx context.Context, orderID uuid.UUID) (*domain.OrderEvent, error) {
	query := `
		SELECT ` + orderEventColumns + `
		FROM order_events
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.queryEvent(ctx, query, orderID)
}

func (r *OrderRepository) queryEvent(ctx context.Context, query string, arg interface{}) (*domain.OrderEvent, error) {
	event := &domain.OrderEvent{}

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&event.ID,
		&event.OrderID,
		&event.Status,
		&event.DeliveryType,
		&event.PaymentType,
		&event.ProfileEventID,
		&event.OrderProfileID,
		&event.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderEventNotFound
		}
		return nil, fmt.Errorf("order event query error: %v", err)
	}

	items, err := r.loadItems(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	event.Items = items

	return event, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, eventID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT product_event_id, offer_value, variation_value, modification_value, quantity
		FROM order_items
		WHERE order_event_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("order items query error: %v", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var offer, variation, modification sql.NullString

		err := rows.Scan(&item.ProductEventID, &offer, &variation, &modification, &item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("order item scan error: %v", err)
		}

		item.OfferValue = fromNullString(offer)
		item.VariationValue = fromNullString(variation)
		item.ModificationValue = fromNullString(modification)

		items = append(items, item)
	}

	return items, rows.Err()
}

// ProfileEvent returns the client profile snapshot with its
// classification type.
func (r *OrderRepository) ProfileEvent(ctx context.Context, profileEventID uuid.UUID) (*domain.ProfileEvent, error) {
	query := `SELECT id, profile_id, type FROM profile_events WHERE id = $1`

	event := &domain.ProfileEvent{}
	err := r.db.QueryRowContext(ctx, query, profileEventID).Scan(&event.ID, &event.ProfileID, &event.Type)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProfileEventNotFound
		}
		return nil, fmt.Errorf("profile event query error: %v", err)
	}

	return event, nil
}

// ExistsByStatus reports whether any snapshot of the order ever carried
// the given status.
func (r *OrderRepository) ExistsByStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM order_events WHERE order_id = $1 AND status = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, orderID, status).Scan(&exists); err != nil {
		return false, fmt.Errorf("order status query error: %v", err)
	}

	return exists, nil
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	value := s.String
	return &value
}
