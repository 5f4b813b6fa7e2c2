package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/riichikun/materials-sign/internal/domain"
	"github.com/riichikun/materials-sign/internal/messages"
)

func reissueFixture(quantities ...int) (*fakeOrderStore, *fakeSignStore, *fakeCatalog, *domain.OrderEvent, uuid.UUID) {
	orders := newFakeOrderStore()
	signs := newFakeSignStore()
	catalog := newFakeCatalog()

	materialID := uuid.New()

	event := &domain.OrderEvent{
		ID:             uuid.New(),
		OrderID:        uuid.New(),
		Status:         domain.OrderStatusPackage,
		ProfileEventID: uuid.New(),
		OrderProfileID: uuid.New(),
	}

	for _, quantity := range quantities {
		productEventID := uuid.New()
		event.Items = append(event.Items, domain.OrderItem{
			ProductEventID: productEventID,
			Quantity:       quantity,
		})
		catalog.components[productEventID] = []domain.MaterialComponent{{MaterialID: materialID}}
	}

	orders.add(event)

	return orders, signs, catalog, event, materialID
}

func batchSizes(t *testing.T, dispatches []dispatched) map[uuid.UUID]int {
	t.Helper()

	sizes := make(map[uuid.UUID]int)
	for _, d := range dispatches {
		request, ok := d.Payload.(messages.ReservationRequest)
		if !ok {
			t.Fatalf("Expected ReservationRequest payload, got %T", d.Payload)
		}
		sizes[request.BatchID]++
	}
	return sizes
}

func TestReissue_EmitsOneRequestPerUnit(t *testing.T) {
	orders, signs, catalog, event, materialID := reissueFixture(250)
	dispatcher := &fakeDispatcher{}

	orchestrator := NewReissueOrchestrator(orders, signs, catalog, dispatcher)

	command := messages.ReissueCommand{
		OrderEventID: event.ID,
		ProfileID:    uuid.New(),
	}

	if err := orchestrator.Handle(context.Background(), command); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	reserves := dispatcher.byKind(messages.KindReserve)
	if len(reserves) != 250 {
		t.Fatalf("Expected 250 reservation requests, got %d", len(reserves))
	}

	sizes := batchSizes(t, reserves)
	if len(sizes) != 3 {
		t.Errorf("Expected 3 distinct batches for 250 units, got %d", len(sizes))
	}

	hundreds, fifties := 0, 0
	for _, size := range sizes {
		switch size {
		case 100:
			hundreds++
		case 50:
			fifties++
		default:
			t.Errorf("Unexpected batch size %d", size)
		}
	}
	if hundreds != 2 || fifties != 1 {
		t.Errorf("Expected batch sizes 100/100/50, got %v", sizes)
	}

	for _, d := range reserves {
		request := d.Payload.(messages.ReservationRequest)
		if request.OrderID != event.OrderID {
			t.Errorf("Expected order %s on request, got %s", event.OrderID, request.OrderID)
		}
		if request.MaterialID != materialID {
			t.Errorf("Expected material %s on request, got %s", materialID, request.MaterialID)
		}
		if request.ProfileID != command.ProfileID {
			t.Errorf("Expected profile %s on request, got %s", command.ProfileID, request.ProfileID)
		}
		if d.Delay != 0 {
			t.Errorf("Expected immediate dispatch, got delay %s", d.Delay)
		}
	}
}

func TestReissue_BatchStraddlesLineBoundary(t *testing.T) {
	orders, signs, catalog, event, _ := reissueFixture(60, 60)
	dispatcher := &fakeDispatcher{}

	orchestrator := NewReissueOrchestrator(orders, signs, catalog, dispatcher)

	err := orchestrator.Handle(context.Background(), messages.ReissueCommand{
		OrderEventID: event.ID,
		ProfileID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	reserves := dispatcher.byKind(messages.KindReserve)
	if len(reserves) != 120 {
		t.Fatalf("Expected 120 reservation requests, got %d", len(reserves))
	}

	// The boundary falls at cumulative unit 100, inside the second line.
	first := reserves[0].Payload.(messages.ReservationRequest).BatchID
	for i := 0; i < 100; i++ {
		if reserves[i].Payload.(messages.ReservationRequest).BatchID != first {
			t.Fatalf("Expected unit %d in the first batch", i)
		}
	}
	second := reserves[100].Payload.(messages.ReservationRequest).BatchID
	if second == first {
		t.Error("Expected a fresh batch at cumulative unit 100")
	}
	for i := 100; i < 120; i++ {
		if reserves[i].Payload.(messages.ReservationRequest).BatchID != second {
			t.Fatalf("Expected unit %d in the second batch", i)
		}
	}
}

func TestReissue_CancelsExistingSignsFirst(t *testing.T) {
	orders, signs, catalog, event, _ := reissueFixture(5)

	reservedEvents := []domain.SignEvent{
		{ID: uuid.New(), SignID: uuid.New(), Status: domain.SignStatusProcess},
		{ID: uuid.New(), SignID: uuid.New(), Status: domain.SignStatusProcess},
	}
	signs.reserved = reservedEvents

	dispatcher := &fakeDispatcher{}
	orchestrator := NewReissueOrchestrator(orders, signs, catalog, dispatcher)

	command := messages.ReissueCommand{OrderEventID: event.ID, ProfileID: uuid.New()}
	if err := orchestrator.Handle(context.Background(), command); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(dispatcher.messages) != 7 {
		t.Fatalf("Expected 2 cancels + 5 reserves, got %d messages", len(dispatcher.messages))
	}

	// Cancellations are emitted before any regenerated request.
	for i := 0; i < 2; i++ {
		if dispatcher.messages[i].Kind != messages.KindCancel {
			t.Errorf("Expected message %d to be a cancel, got %s", i, dispatcher.messages[i].Kind)
		}
		cancel := dispatcher.messages[i].Payload.(messages.CancelRequest)
		if cancel.SignEventID != reservedEvents[i].ID {
			t.Errorf("Expected cancel for event %s, got %s", reservedEvents[i].ID, cancel.SignEventID)
		}
		if cancel.ProfileID != command.ProfileID {
			t.Errorf("Expected cancel profile %s, got %s", command.ProfileID, cancel.ProfileID)
		}
	}
}

func TestReissue_SkipsLinesWithoutMaterials(t *testing.T) {
	orders, signs, catalog, event, _ := reissueFixture(3)

	// A second line whose product resolves to no regulated material.
	bare := domain.OrderItem{ProductEventID: uuid.New(), Quantity: 10}
	event.Items = append(event.Items, bare)

	dispatcher := &fakeDispatcher{}
	orchestrator := NewReissueOrchestrator(orders, signs, catalog, dispatcher)

	err := orchestrator.Handle(context.Background(), messages.ReissueCommand{
		OrderEventID: event.ID,
		ProfileID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if got := len(dispatcher.byKind(messages.KindReserve)); got != 3 {
		t.Errorf("Expected 3 requests with the bare line skipped, got %d", got)
	}
}

func TestReissue_MultipleComponentsPerLine(t *testing.T) {
	orders, signs, catalog, event, _ := reissueFixture(2)

	// Bundled product: the line resolves to two distinct materials.
	second := domain.MaterialComponent{MaterialID: uuid.New()}
	productEventID := event.Items[0].ProductEventID
	catalog.components[productEventID] = append(catalog.components[productEventID], second)

	dispatcher := &fakeDispatcher{}
	orchestrator := NewReissueOrchestrator(orders, signs, catalog, dispatcher)

	err := orchestrator.Handle(context.Background(), messages.ReissueCommand{
		OrderEventID: event.ID,
		ProfileID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	reserves := dispatcher.byKind(messages.KindReserve)
	if len(reserves) != 4 {
		t.Fatalf("Expected 2 units x 2 materials = 4 requests, got %d", len(reserves))
	}

	perMaterial := make(map[uuid.UUID]int)
	for _, d := range reserves {
		perMaterial[d.Payload.(messages.ReservationRequest).MaterialID]++
	}
	for materialID, count := range perMaterial {
		if count != 2 {
			t.Errorf("Expected 2 requests for material %s, got %d", materialID, count)
		}
	}
}

func TestReissue_OrderEventMissing(t *testing.T) {
	orders := newFakeOrderStore()
	dispatcher := &fakeDispatcher{}

	orchestrator := NewReissueOrchestrator(orders, newFakeSignStore(), newFakeCatalog(), dispatcher)

	err := orchestrator.Handle(context.Background(), messages.ReissueCommand{
		OrderEventID: uuid.New(),
		ProfileID:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("Expected the command to be dropped without error, got: %v", err)
	}
	if len(dispatcher.messages) != 0 {
		t.Errorf("Expected no messages for a missing order event, got %d", len(dispatcher.messages))
	}
}

func TestReissue_Deterministic(t *testing.T) {
	orders, signs, catalog, event, _ := reissueFixture(30, 20)

	run := func() []messages.ReservationRequest {
		dispatcher := &fakeDispatcher{}
		orchestrator := NewReissueOrchestrator(orders, signs, catalog, dispatcher)
		if err := orchestrator.Handle(context.Background(), messages.ReissueCommand{
			OrderEventID: event.ID,
			ProfileID:    uuid.New(),
		}); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		var requests []messages.ReservationRequest
		for _, d := range dispatcher.byKind(messages.KindReserve) {
			requests = append(requests, d.Payload.(messages.ReservationRequest))
		}
		return requests
	}

	first := run()
	second := run()

	if len(first) != len(second) {
		t.Fatalf("Expected identical emission counts, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].MaterialID != second[i].MaterialID || first[i].OrderID != second[i].OrderID {
			t.Errorf("Emission order diverged at unit %d", i)
		}
	}
}
