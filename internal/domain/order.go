package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusPackage   OrderStatus = "package"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCanceled  OrderStatus = "canceled"
)

type ProfileType string

const (
	ProfileTypeWorker       ProfileType = "worker"       // internal staff
	ProfileTypeUser         ProfileType = "user"         // individual consumer
	ProfileTypeOrganization ProfileType = "organization" // legal entity
	ProfileTypeEntrepreneur ProfileType = "entrepreneur" // sole proprietor
)

// OrderEvent is one immutable snapshot of an order. Every order mutation
// produces a new event; ID identifies the snapshot, OrderID the order.
type OrderEvent struct {
	ID             uuid.UUID   `json:"id"`
	OrderID        uuid.UUID   `json:"order_id"`
	Status         OrderStatus `json:"status"`
	DeliveryType   string      `json:"delivery_type"`
	PaymentType    string      `json:"payment_type"`
	ProfileEventID uuid.UUID   `json:"profile_event_id"` // client profile snapshot
	OrderProfileID uuid.UUID   `json:"order_profile_id"` // fulfilling warehouse profile
	Items          []OrderItem `json:"items"`
	CreatedAt      time.Time   `json:"created_at"`
}

// OrderItem is one line of an order: a product variant selection and the
// number of units requested.
type OrderItem struct {
	ProductEventID    uuid.UUID `json:"product_event_id"`
	OfferValue        *string   `json:"offer_value,omitempty"`
	VariationValue    *string   `json:"variation_value,omitempty"`
	ModificationValue *string   `json:"modification_value,omitempty"`
	Quantity          int       `json:"quantity"`
}

// MaterialComponent is one regulated material a product line resolves to.
// A bundled product may carry several distinct materials, each needing
// its own signs.
type MaterialComponent struct {
	MaterialID        uuid.UUID  `json:"material_id"`
	OfferConst        *uuid.UUID `json:"offer_const,omitempty"`
	VariationConst    *uuid.UUID `json:"variation_const,omitempty"`
	ModificationConst *uuid.UUID `json:"modification_const,omitempty"`
}

// ProfileEvent is the current snapshot of a client profile: its root
// profile identity and classification type.
type ProfileEvent struct {
	ID        uuid.UUID   `json:"id"`
	ProfileID uuid.UUID   `json:"profile_id"`
	Type      ProfileType `json:"type"`
}
