package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/riichikun/materials-sign/internal/messages"
	"github.com/riichikun/materials-sign/internal/repository"
)

// CancelProcessor returns a reserved sign to the free pool by appending
// a New-status event without order binding.
type CancelProcessor struct {
	signs SignStore
}

func NewCancelProcessor(signs SignStore) *CancelProcessor {
	return &CancelProcessor{signs: signs}
}

func (p *CancelProcessor) Handle(ctx context.Context, request messages.CancelRequest) error {
	event, err := p.signs.EventByID(ctx, request.SignEventID)
	if err != nil {
		if errors.Is(err, repository.ErrSignEventNotFound) {
			log.Printf("Sign event %s not found, cancel dropped", request.SignEventID)
			return nil
		}
		return err
	}

	if _, err := p.signs.AppendCancel(ctx, event); err != nil {
		log.Printf("CRITICAL: sign cancel failed: SignID=%s: %v", event.SignID, err)
		return fmt.Errorf("sign cancel error: %v", err)
	}

	log.Printf("Sign returned to pool: SignID=%s", event.SignID)
	return nil
}
