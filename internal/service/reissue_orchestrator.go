package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/riichikun/materials-sign/internal/messages"
	"github.com/riichikun/materials-sign/internal/repository"
)

// batchSize caps how many consecutive units share one print batch.
const batchSize = 100

// ReissueOrchestrator handles a reissue command: it cancels every sign
// currently reserved for the order and regenerates one reservation
// request per unit of every order line, partitioned into print batches.
type ReissueOrchestrator struct {
	orders     OrderStore
	signs      SignStore
	catalog    Catalog
	dispatcher Dispatcher
}

func NewReissueOrchestrator(
	orders OrderStore,
	signs SignStore,
	catalog Catalog,
	dispatcher Dispatcher,
) *ReissueOrchestrator {
	return &ReissueOrchestrator{
		orders:     orders,
		signs:      signs,
		catalog:    catalog,
		dispatcher: dispatcher,
	}
}

func (o *ReissueOrchestrator) Handle(ctx context.Context, command messages.ReissueCommand) error {
	orderEvent, err := o.orders.EventByID(ctx, command.OrderEventID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderEventNotFound) {
			log.Printf("CRITICAL: order event %s not found, reissue dropped", command.OrderEventID)
			return nil
		}
		return err
	}

	// Cancel the current sign set. Fire-and-forget: cancellation and
	// regeneration are deliberately not transactional against each
	// other, the lease keeps double-reservation impossible regardless of
	// interleaving.
	reserved, err := o.signs.ProcessByOrder(ctx, orderEvent.OrderID)
	if err != nil {
		return fmt.Errorf("reserved signs lookup error: %v", err)
	}

	for _, signEvent := range reserved {
		cancel := messages.CancelRequest{
			ProfileID:   command.ProfileID,
			SignEventID: signEvent.ID,
		}
		if err := o.dispatcher.Dispatch(messages.KindCancel, cancel, 0); err != nil {
			return fmt.Errorf("cancel dispatch error: %v", err)
		}
	}

	log.Printf("Reissue started: OrderID=%s canceled=%d", orderEvent.OrderID, len(reserved))

	var userID uuid.UUID
	if command.UserID != nil {
		userID = *command.UserID
	}

	// Regenerate per-unit requests. The batch identifier is minted on
	// every 100th unit of the whole pass, so a single line may straddle
	// two batches.
	var batchID uuid.UUID
	unit := 0

	for _, item := range orderEvent.Items {
		components, err := o.catalog.MaterialComponents(ctx, item)
		if err != nil {
			return fmt.Errorf("material components error: %v", err)
		}

		// Lines without regulated materials need no signs.
		if len(components) == 0 {
			continue
		}

		for _, component := range components {
			request := messages.ReservationRequest{
				OrderID:           orderEvent.OrderID,
				UserID:            userID,
				ProfileID:         command.ProfileID,
				MaterialID:        component.MaterialID,
				OfferConst:        component.OfferConst,
				VariationConst:    component.VariationConst,
				ModificationConst: component.ModificationConst,
			}

			for i := 0; i < item.Quantity; i++ {
				if unit%batchSize == 0 {
					batchID = uuid.New()
				}
				unit++

				if err := o.dispatcher.Dispatch(messages.KindReserve, request.WithBatch(batchID), 0); err != nil {
					return fmt.Errorf("reservation dispatch error: %v", err)
				}
			}
		}
	}

	log.Printf("Reissue requests emitted: OrderID=%s units=%d", orderEvent.OrderID, unit)
	return nil
}
