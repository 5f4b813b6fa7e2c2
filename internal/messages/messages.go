package messages

import (
	"github.com/google/uuid"
)

// Message kinds double as routing keys on the signs exchange.
const (
	KindReserve = "sign.reserve"
	KindCancel  = "sign.cancel"
	KindReissue = "sign.reissue"
)

// ReservationRequest asks for one New-status sign matching the material
// variant to be reserved for the order. One request corresponds to one
// unit of goods.
type ReservationRequest struct {
	OrderID           uuid.UUID  `json:"order_id"`
	BatchID           uuid.UUID  `json:"batch_id"`
	UserID            uuid.UUID  `json:"user_id"`
	ProfileID         uuid.UUID  `json:"profile_id"`
	MaterialID        uuid.UUID  `json:"material_id"`
	OfferConst        *uuid.UUID `json:"offer_const,omitempty"`
	VariationConst    *uuid.UUID `json:"variation_const,omitempty"`
	ModificationConst *uuid.UUID `json:"modification_const,omitempty"`
}

// WithBatch returns a copy of the request carrying the given batch
// identifier. Requests are never mutated after construction; batch
// re-assignment always reconstructs the value.
func (r ReservationRequest) WithBatch(batch uuid.UUID) ReservationRequest {
	r.BatchID = batch
	return r
}

// CancelRequest returns a reserved sign to the free pool.
type CancelRequest struct {
	ProfileID   uuid.UUID `json:"profile_id"`
	SignEventID uuid.UUID `json:"sign_event_id"`
}

// ReissueCommand cancels every sign reserved for the order and
// regenerates the reservation requests for all of its units.
type ReissueCommand struct {
	OrderEventID uuid.UUID  `json:"order_event_id"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	ProfileID    uuid.UUID  `json:"profile_id"`
}
