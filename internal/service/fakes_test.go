package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/riichikun/materials-sign/internal/domain"
	"github.com/riichikun/materials-sign/internal/repository"
)

type fakeOrderStore struct {
	byEventID map[uuid.UUID]*domain.OrderEvent
	byOrderID map[uuid.UUID]*domain.OrderEvent
	profiles  map[uuid.UUID]*domain.ProfileEvent
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		byEventID: make(map[uuid.UUID]*domain.OrderEvent),
		byOrderID: make(map[uuid.UUID]*domain.OrderEvent),
		profiles:  make(map[uuid.UUID]*domain.ProfileEvent),
	}
}

func (s *fakeOrderStore) add(event *domain.OrderEvent) {
	s.byEventID[event.ID] = event
	s.byOrderID[event.OrderID] = event
}

func (s *fakeOrderStore) EventByID(ctx context.Context, eventID uuid.UUID) (*domain.OrderEvent, error) {
	event, ok := s.byEventID[eventID]
	if !ok {
		return nil, repository.ErrOrderEventNotFound
	}
	return event, nil
}

func (s *fakeOrderStore) CurrentEvent(ctx context.Context, orderID uuid.UUID) (*domain.OrderEvent, error) {
	event, ok := s.byOrderID[orderID]
	if !ok {
		return nil, repository.ErrOrderEventNotFound
	}
	return event, nil
}

func (s *fakeOrderStore) ProfileEvent(ctx context.Context, profileEventID uuid.UUID) (*domain.ProfileEvent, error) {
	profile, ok := s.profiles[profileEventID]
	if !ok {
		return nil, repository.ErrProfileEventNotFound
	}
	return profile, nil
}

type appendedReservation struct {
	SignID     uuid.UUID
	OrderID    uuid.UUID
	Invariable domain.ReservationInvariable
}

type fakeSignStore struct {
	pool       []*domain.SignEvent
	events     map[uuid.UUID]*domain.SignEvent
	reserved   []domain.SignEvent
	appended   []appendedReservation
	canceled   []uuid.UUID
	appendErr  error
	lastFilter repository.CandidateFilter
}

func newFakeSignStore() *fakeSignStore {
	return &fakeSignStore{events: make(map[uuid.UUID]*domain.SignEvent)}
}

func (s *fakeSignStore) addToPool(event *domain.SignEvent) {
	s.pool = append(s.pool, event)
	s.events[event.ID] = event
}

func (s *fakeSignStore) FindOneNew(ctx context.Context, filter repository.CandidateFilter) (*domain.SignEvent, error) {
	s.lastFilter = filter

	for _, candidate := range s.pool {
		if candidate.Status != domain.SignStatusNew {
			continue
		}
		if candidate.Invariable.MaterialID != filter.MaterialID {
			continue
		}
		if filter.SellerScope == domain.SellerUnassigned {
			if candidate.Invariable.SellerID != nil {
				continue
			}
		} else if candidate.Invariable.ProfileID != filter.SellerScope {
			continue
		}
		if !uuidPtrEqual(candidate.Invariable.OfferConst, filter.OfferConst) ||
			!uuidPtrEqual(candidate.Invariable.VariationConst, filter.VariationConst) ||
			!uuidPtrEqual(candidate.Invariable.ModificationConst, filter.ModificationConst) {
			continue
		}
		return candidate, nil
	}

	return nil, repository.ErrNoCandidateSign
}

func (s *fakeSignStore) EventByID(ctx context.Context, eventID uuid.UUID) (*domain.SignEvent, error) {
	event, ok := s.events[eventID]
	if !ok {
		return nil, repository.ErrSignEventNotFound
	}
	return event, nil
}

func (s *fakeSignStore) ProcessByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.SignEvent, error) {
	return s.reserved, nil
}

func (s *fakeSignStore) AppendProcess(ctx context.Context, signID, orderID uuid.UUID, invariable domain.ReservationInvariable) (*domain.SignEvent, error) {
	if s.appendErr != nil {
		return nil, s.appendErr
	}

	for _, candidate := range s.pool {
		if candidate.SignID == signID {
			candidate.Status = domain.SignStatusProcess
		}
	}

	s.appended = append(s.appended, appendedReservation{SignID: signID, OrderID: orderID, Invariable: invariable})

	event := &domain.SignEvent{
		ID:         uuid.New(),
		SignID:     signID,
		OrderID:    &orderID,
		Status:     domain.SignStatusProcess,
		Invariable: invariable,
	}
	return event, nil
}

func (s *fakeSignStore) AppendCancel(ctx context.Context, event *domain.SignEvent) (*domain.SignEvent, error) {
	if s.appendErr != nil {
		return nil, s.appendErr
	}

	s.canceled = append(s.canceled, event.SignID)

	canceled := &domain.SignEvent{
		ID:     uuid.New(),
		SignID: event.SignID,
		Status: domain.SignStatusNew,
		Invariable: domain.ReservationInvariable{
			ProfileID:  event.Invariable.ProfileID,
			MaterialID: event.Invariable.MaterialID,
		},
	}
	return canceled, nil
}

type fakeCatalog struct {
	components map[uuid.UUID][]domain.MaterialComponent
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{components: make(map[uuid.UUID][]domain.MaterialComponent)}
}

func (c *fakeCatalog) MaterialComponents(ctx context.Context, item domain.OrderItem) ([]domain.MaterialComponent, error) {
	return c.components[item.ProductEventID], nil
}

type dispatched struct {
	Kind    string
	Payload interface{}
	Delay   time.Duration
}

type fakeDispatcher struct {
	messages []dispatched
	err      error
}

func (d *fakeDispatcher) Dispatch(kind string, payload interface{}, delay time.Duration) error {
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, dispatched{Kind: kind, Payload: payload, Delay: delay})
	return nil
}

func (d *fakeDispatcher) byKind(kind string) []dispatched {
	var result []dispatched
	for _, m := range d.messages {
		if m.Kind == kind {
			result = append(result, m)
		}
	}
	return result
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
