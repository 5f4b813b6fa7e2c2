package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/riichikun/materials-sign/internal/channel"
	"github.com/riichikun/materials-sign/internal/domain"
	"github.com/riichikun/materials-sign/internal/lease"
	"github.com/riichikun/materials-sign/internal/messages"
	"github.com/riichikun/materials-sign/internal/ownership"
	"github.com/riichikun/materials-sign/internal/repository"
)

const (
	// leaseTTL covers the write path with a wide margin and keeps the
	// sign out of reach of concurrent reservations shortly after the
	// successful one. A crashed holder locks the sign out for at most
	// this long.
	leaseTTL = time.Minute

	// contentionDelay is the fixed re-delivery delay when the candidate
	// sign is leased by another worker. Retried indefinitely.
	contentionDelay = 5 * time.Second
)

// ReservationProcessor consumes one per-unit reservation request at a
// time: it finds an available sign matching the requested variant,
// resolves the seller of record and transitions the sign New→Process
// under the sign's lease.
type ReservationProcessor struct {
	orders     OrderStore
	signs      SignStore
	locker     lease.Locker
	classifier *channel.Classifier
	dispatcher Dispatcher
}

func NewReservationProcessor(
	orders OrderStore,
	signs SignStore,
	locker lease.Locker,
	classifier *channel.Classifier,
	dispatcher Dispatcher,
) *ReservationProcessor {
	return &ReservationProcessor{
		orders:     orders,
		signs:      signs,
		locker:     locker,
		classifier: classifier,
		dispatcher: dispatcher,
	}
}

func (p *ReservationProcessor) Handle(ctx context.Context, request messages.ReservationRequest) error {
	orderEvent, err := p.orders.CurrentEvent(ctx, request.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderEventNotFound) {
			log.Printf("Order event not found, reservation dropped: OrderID=%s", request.OrderID)
			return nil
		}
		return err
	}

	class := p.classifier.Classify(orderEvent.DeliveryType, orderEvent.PaymentType)

	// Marketplace-provisioned signs carry no seller; the sentinel scope
	// tells the store to match exactly those.
	sellerScope := request.ProfileID
	if class == channel.ClassMarketplace {
		sellerScope = domain.SellerUnassigned
	}

	candidate, err := p.signs.FindOneNew(ctx, repository.CandidateFilter{
		SellerScope:       sellerScope,
		MaterialID:        request.MaterialID,
		OfferConst:        request.OfferConst,
		VariationConst:    request.VariationConst,
		ModificationConst: request.ModificationConst,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNoCandidateSign) {
			log.Printf("No available sign for material %s, reservation dropped: OrderID=%s",
				request.MaterialID, request.OrderID)
			return nil
		}
		return err
	}

	acquired, err := p.locker.Acquire(ctx, candidate.SignID.String(), leaseTTL)
	if err != nil {
		return fmt.Errorf("lease acquire error for sign %s: %v", candidate.SignID, err)
	}

	if !acquired {
		// Another worker is reserving this sign. Re-deliver the identical
		// request after a fixed delay; the lease is not released on
		// success, so the retry lands on the next free candidate.
		if err := p.dispatcher.Dispatch(messages.KindReserve, request, contentionDelay); err != nil {
			return fmt.Errorf("contention re-dispatch error: %v", err)
		}
		log.Printf("Sign %s is leased, reservation re-enqueued: OrderID=%s", candidate.SignID, request.OrderID)
		return nil
	}

	profileEvent, err := p.orders.ProfileEvent(ctx, orderEvent.ProfileEventID)
	if err != nil {
		return fmt.Errorf("client profile lookup error: %v", err)
	}

	// Marketplace candidates carry no seller yet; ownership falls to the
	// pool profile the sign was provisioned under.
	candidateProfile := candidate.Invariable.ProfileID
	seller := ownership.Resolve(class, profileEvent.Type, ownership.Inputs{
		CandidateSeller: &candidateProfile,
		OrderProfile:    orderEvent.OrderProfileID,
		ClientProfile:   profileEvent.ProfileID,
	})

	batch := request.BatchID
	invariable := domain.ReservationInvariable{
		ProfileID:         request.ProfileID,
		SellerID:          seller,
		MaterialID:        request.MaterialID,
		OfferConst:        request.OfferConst,
		VariationConst:    request.VariationConst,
		ModificationConst: request.ModificationConst,
		BatchID:           &batch,
	}

	if _, err := p.signs.AppendProcess(ctx, candidate.SignID, orderEvent.OrderID, invariable); err != nil {
		// Fatal for this attempt: leave the message unacknowledged so the
		// transport's redelivery policy applies.
		log.Printf("CRITICAL: sign status update failed: SignID=%s OrderID=%s: %v",
			candidate.SignID, request.OrderID, err)
		return fmt.Errorf("sign status update error: %v", err)
	}

	log.Printf("Sign reserved: SignID=%s OrderID=%s BatchID=%s", candidate.SignID, request.OrderID, request.BatchID)
	return nil
}
