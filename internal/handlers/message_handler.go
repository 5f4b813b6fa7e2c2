package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/riichikun/materials-sign/internal/messages"
	"github.com/riichikun/materials-sign/internal/messaging"
	"github.com/riichikun/materials-sign/internal/service"
)

// MessageHandler routes envelopes from the work queue to the service
// that owns the message kind.
type MessageHandler struct {
	processor    *service.ReservationProcessor
	orchestrator *service.ReissueOrchestrator
	canceler     *service.CancelProcessor
}

func NewMessageHandler(
	processor *service.ReservationProcessor,
	orchestrator *service.ReissueOrchestrator,
	canceler *service.CancelProcessor,
) *MessageHandler {
	return &MessageHandler{
		processor:    processor,
		orchestrator: orchestrator,
		canceler:     canceler,
	}
}

func (h *MessageHandler) StartConsuming(consumer *messaging.Consumer) error {
	return consumer.Consume(h.HandleEnvelope)
}

func (h *MessageHandler) HandleEnvelope(envelope messaging.Envelope) error {
	ctx := context.Background()

	switch envelope.Kind {
	case messages.KindReserve:
		var request messages.ReservationRequest
		if err := json.Unmarshal(envelope.Payload, &request); err != nil {
			return fmt.Errorf("reservation request decode error: %v", err)
		}
		return h.processor.Handle(ctx, request)

	case messages.KindCancel:
		var request messages.CancelRequest
		if err := json.Unmarshal(envelope.Payload, &request); err != nil {
			return fmt.Errorf("cancel request decode error: %v", err)
		}
		return h.canceler.Handle(ctx, request)

	case messages.KindReissue:
		var command messages.ReissueCommand
		if err := json.Unmarshal(envelope.Payload, &command); err != nil {
			return fmt.Errorf("reissue command decode error: %v", err)
		}
		return h.orchestrator.Handle(ctx, command)

	default:
		log.Printf("Unhandled message kind: %s", envelope.Kind)
		return nil
	}
}
