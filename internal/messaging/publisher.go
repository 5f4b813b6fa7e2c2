package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Envelope wraps every message crossing the signs exchange. Kind decides
// which handler receives the payload.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type Publisher struct {
	client *RabbitMQClient
}

func NewPublisher(client *RabbitMQClient) *Publisher {
	return &Publisher{client: client}
}

// Dispatch enqueues a message for asynchronous at-least-once delivery.
// A positive delay parks the message in the delay queue; the broker
// dead-letters it back onto the work exchange once the delay elapses.
func (p *Publisher) Dispatch(kind string, payload interface{}, delay time.Duration) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("no connection to RabbitMQ")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("payload serialization error: %v", err)
	}

	envelope := Envelope{
		ID:        uuid.New(),
		Kind:      kind,
		Payload:   body,
		Timestamp: time.Now(),
	}

	envelopeBody, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("envelope serialization error: %v", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         envelopeBody,
		DeliveryMode: amqp.Persistent,
		MessageId:    envelope.ID.String(),
		Timestamp:    envelope.Timestamp,
		Headers: amqp.Table{
			"kind": kind,
		},
	}

	channel := p.client.Channel()

	if delay > 0 {
		publishing.Expiration = strconv.FormatInt(delay.Milliseconds(), 10)

		// Direct publication to the delay queue; the queue's dead-letter
		// arguments bring the message back with the redelivery key.
		if err := channel.Publish("", p.client.config.DelayQueue, false, false, publishing); err != nil {
			return fmt.Errorf("delayed publish error: %v", err)
		}

		log.Printf("Message delayed %s: %s", delay, kind)
		return nil
	}

	if err := channel.Publish(p.client.config.Exchange, kind, false, false, publishing); err != nil {
		return fmt.Errorf("publish error: %v", err)
	}

	return nil
}
