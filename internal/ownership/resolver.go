package ownership

import (
	"github.com/google/uuid"

	"github.com/riichikun/materials-sign/internal/channel"
	"github.com/riichikun/materials-sign/internal/domain"
)

// Inputs carries the three profile identities the decision table can
// pick between.
type Inputs struct {
	// CandidateSeller is the owning profile of the sign matched in the
	// pool. Marketplace candidates are matched with their seller still
	// unset, and ownership settles on the profile that provisioned them.
	CandidateSeller *uuid.UUID
	// OrderProfile is the fulfilling warehouse profile of the order.
	OrderProfile uuid.UUID
	// ClientProfile is the buyer's own root profile.
	ClientProfile uuid.UUID
}

// Resolve determines the seller of record to stamp on a reservation.
// The rules are evaluated in priority order and are mutually exclusive:
//
//   - marketplace channel: the sign stays with the profile that
//     provisioned it into the pool;
//   - direct + worker: no seller, the sign is neither transferred nor
//     written off;
//   - direct + individual consumer: the warehouse profile sells;
//   - direct + organization or sole proprietor: the sign is formally
//     transferred, the client profile becomes the seller.
//
// A profile type outside the table resolves to no seller, same as
// worker.
func Resolve(class channel.Class, profileType domain.ProfileType, in Inputs) *uuid.UUID {
	if class == channel.ClassMarketplace {
		return in.CandidateSeller
	}

	switch profileType {
	case domain.ProfileTypeUser:
		seller := in.OrderProfile
		return &seller
	case domain.ProfileTypeOrganization, domain.ProfileTypeEntrepreneur:
		seller := in.ClientProfile
		return &seller
	}

	return nil
}
