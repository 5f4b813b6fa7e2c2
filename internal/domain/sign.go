package domain

import (
	"time"

	"github.com/google/uuid"
)

type SignStatus string

const (
	SignStatusNew     SignStatus = "new"     // available in the pool, not bound to an order
	SignStatusProcess SignStatus = "process" // reserved for an order unit
	SignStatusDone    SignStatus = "done"
	SignStatusError   SignStatus = "error"
)

// SellerUnassigned is the sentinel profile identifier used when searching
// for candidate signs on marketplace orders. The sign store maps it to
// "seller IS NULL": marketplace-owned signs are provisioned without a
// pre-assigned seller of record.
var SellerUnassigned = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Sign is a single regulatory marking-code unit. Its observable state is
// the latest event of an append-only history; Sign itself only points at
// the current event.
type Sign struct {
	ID      uuid.UUID `json:"id"`
	EventID uuid.UUID `json:"event_id"`
}

// SignEvent is one immutable entry of a sign's status history.
type SignEvent struct {
	ID         uuid.UUID             `json:"id"`
	SignID     uuid.UUID             `json:"sign_id"`
	OrderID    *uuid.UUID            `json:"order_id,omitempty"`
	Status     SignStatus            `json:"status"`
	Invariable ReservationInvariable `json:"invariable"`
	CreatedAt  time.Time             `json:"created_at"`
}

// ReservationInvariable is the fixed attribute snapshot carried by a sign
// event: what material the code marks, which variant, who owns it and
// which print batch it belongs to.
type ReservationInvariable struct {
	ProfileID         uuid.UUID  `json:"profile_id"`
	SellerID          *uuid.UUID `json:"seller_id,omitempty"`
	MaterialID        uuid.UUID  `json:"material_id"`
	OfferConst        *uuid.UUID `json:"offer_const,omitempty"`
	VariationConst    *uuid.UUID `json:"variation_const,omitempty"`
	ModificationConst *uuid.UUID `json:"modification_const,omitempty"`
	BatchID           *uuid.UUID `json:"batch_id,omitempty"`
}
