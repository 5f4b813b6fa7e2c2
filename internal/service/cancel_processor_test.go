package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/riichikun/materials-sign/internal/domain"
	"github.com/riichikun/materials-sign/internal/messages"
)

func TestCancel_ReturnsSignToPool(t *testing.T) {
	signs := newFakeSignStore()

	orderID := uuid.New()
	reserved := &domain.SignEvent{
		ID:      uuid.New(),
		SignID:  uuid.New(),
		OrderID: &orderID,
		Status:  domain.SignStatusProcess,
		Invariable: domain.ReservationInvariable{
			ProfileID:  uuid.New(),
			SellerID:   uuidPtr(uuid.New()),
			MaterialID: uuid.New(),
			BatchID:    uuidPtr(uuid.New()),
		},
	}
	signs.events[reserved.ID] = reserved

	processor := NewCancelProcessor(signs)

	err := processor.Handle(context.Background(), messages.CancelRequest{
		ProfileID:   uuid.New(),
		SignEventID: reserved.ID,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(signs.canceled) != 1 || signs.canceled[0] != reserved.SignID {
		t.Errorf("Expected sign %s canceled, got %v", reserved.SignID, signs.canceled)
	}
}

func TestCancel_EventMissing(t *testing.T) {
	processor := NewCancelProcessor(newFakeSignStore())

	err := processor.Handle(context.Background(), messages.CancelRequest{
		ProfileID:   uuid.New(),
		SignEventID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("Expected a missing event to drop the request, got: %v", err)
	}
}

func TestCancel_PersistenceFault(t *testing.T) {
	signs := newFakeSignStore()
	signs.appendErr = errors.New("connection reset")

	event := &domain.SignEvent{
		ID:     uuid.New(),
		SignID: uuid.New(),
		Status: domain.SignStatusProcess,
		Invariable: domain.ReservationInvariable{
			ProfileID:  uuid.New(),
			MaterialID: uuid.New(),
		},
	}
	signs.events[event.ID] = event

	processor := NewCancelProcessor(signs)

	err := processor.Handle(context.Background(), messages.CancelRequest{
		ProfileID:   uuid.New(),
		SignEventID: event.ID,
	})
	if err == nil {
		t.Fatal("Expected a persistence fault to surface as an error")
	}
}
