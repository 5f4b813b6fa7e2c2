package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/riichikun/materials-sign/internal/domain"
	"github.com/riichikun/materials-sign/internal/messages"
	"github.com/riichikun/materials-sign/internal/repository"
	"github.com/riichikun/materials-sign/internal/service"
)

// SignHandler is the administrative HTTP surface: the reissue trigger
// and the per-order batch report.
type SignHandler struct {
	orders     *repository.OrderRepository
	signs      *repository.SignRepository
	dispatcher service.Dispatcher
}

func NewSignHandler(
	orders *repository.OrderRepository,
	signs *repository.SignRepository,
	dispatcher service.Dispatcher,
) *SignHandler {
	return &SignHandler{
		orders:     orders,
		signs:      signs,
		dispatcher: dispatcher,
	}
}

func (h *SignHandler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"service": "sign-service",
		"status":  "healthy",
	})
}

type reissueRequest struct {
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	ProfileID uuid.UUID  `json:"profile_id"`
}

// Reissue verifies the business preconditions and emits one reissue
// command. The asynchronous outcome is not visible here; the caller
// only learns that the command was accepted.
func (h *SignHandler) Reissue(c *fiber.Ctx) error {
	orderEventID, err := uuid.Parse(c.Params("order_event_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order event id")
	}

	var body reissueRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if body.ProfileID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "profile_id is required")
	}

	orderEvent, err := h.orders.EventByID(c.Context(), orderEventID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderEventNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order event not found")
		}
		return err
	}

	// Signs exist only after packaging; reissue on a completed order
	// would regenerate codes for goods already shipped.
	packaged, err := h.orders.ExistsByStatus(c.Context(), orderEvent.OrderID, domain.OrderStatusPackage)
	if err != nil {
		return err
	}
	if !packaged {
		return fiber.NewError(fiber.StatusConflict, "order not yet packaged")
	}

	completed, err := h.orders.ExistsByStatus(c.Context(), orderEvent.OrderID, domain.OrderStatusCompleted)
	if err != nil {
		return err
	}
	if completed {
		return fiber.NewError(fiber.StatusBadRequest, "order already completed")
	}

	command := messages.ReissueCommand{
		OrderEventID: orderEventID,
		UserID:       body.UserID,
		ProfileID:    body.ProfileID,
	}

	if err := h.dispatcher.Dispatch(messages.KindReissue, command, 0); err != nil {
		log.Printf("Reissue dispatch error: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to dispatch reissue command")
	}

	log.Printf("Reissue command dispatched: OrderEventID=%s", orderEventID)

	return c.JSON(fiber.Map{
		"success":        true,
		"message":        "reissue started",
		"order_event_id": orderEventID,
	})
}

// Report lists the order's reserved signs grouped by print batch.
func (h *SignHandler) Report(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("order_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	groups, err := h.signs.GroupedByOrder(c.Context(), orderID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"order_id": orderID,
		"batches":  groups,
	})
}
