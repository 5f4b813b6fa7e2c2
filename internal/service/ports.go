package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/riichikun/materials-sign/internal/domain"
	"github.com/riichikun/materials-sign/internal/repository"
)

// The services depend on narrow interfaces so tests can substitute
// fakes; the repository and messaging packages provide the production
// implementations.

type OrderStore interface {
	EventByID(ctx context.Context, eventID uuid.UUID) (*domain.OrderEvent, error)
	CurrentEvent(ctx context.Context, orderID uuid.UUID) (*domain.OrderEvent, error)
	ProfileEvent(ctx context.Context, profileEventID uuid.UUID) (*domain.ProfileEvent, error)
}

type SignStore interface {
	FindOneNew(ctx context.Context, filter repository.CandidateFilter) (*domain.SignEvent, error)
	EventByID(ctx context.Context, eventID uuid.UUID) (*domain.SignEvent, error)
	ProcessByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.SignEvent, error)
	AppendProcess(ctx context.Context, signID, orderID uuid.UUID, invariable domain.ReservationInvariable) (*domain.SignEvent, error)
	AppendCancel(ctx context.Context, event *domain.SignEvent) (*domain.SignEvent, error)
}

type Catalog interface {
	MaterialComponents(ctx context.Context, item domain.OrderItem) ([]domain.MaterialComponent, error)
}

type Dispatcher interface {
	Dispatch(kind string, payload interface{}, delay time.Duration) error
}
