package messaging

import (
	"encoding/json"
	"fmt"
	"log"
)

type EnvelopeHandler func(envelope Envelope) error

// Consumer pulls envelopes off the shared work queue. Workers are
// independent: prefetch keeps up to workerCount deliveries in flight and
// each is handled on its own goroutine, so coordination only ever
// crosses the lease store and the sign store.
type Consumer struct {
	client       *RabbitMQClient
	consumerName string
	workerCount  int
}

func NewConsumer(client *RabbitMQClient, consumerName string, workerCount int) *Consumer {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Consumer{
		client:       client,
		consumerName: consumerName,
		workerCount:  workerCount,
	}
}

// Consume attaches the handler to the work queue and keeps it attached
// across broker reconnects.
func (c *Consumer) Consume(handler EnvelopeHandler) error {
	c.client.OnReconnect(func() error {
		return c.subscribe(handler)
	})
	return c.subscribe(handler)
}

func (c *Consumer) subscribe(handler EnvelopeHandler) error {
	if !c.client.IsConnected() {
		return fmt.Errorf("no connection to RabbitMQ")
	}

	channel := c.client.Channel()

	queue, err := channel.QueueDeclare(
		c.client.config.WorkQueue, // name
		true,                      // durable
		false,                     // delete when unused
		false,                     // exclusive
		false,                     // no-wait
		nil,                       // arguments
	)
	if err != nil {
		return fmt.Errorf("queue declare error: %v", err)
	}

	// One binding covers every message kind plus the redelivery key.
	err = channel.QueueBind(queue.Name, "sign.#", c.client.config.Exchange, false, nil)
	if err != nil {
		return fmt.Errorf("queue bind error: %v", err)
	}

	if err := channel.Qos(c.workerCount, 0, false); err != nil {
		return fmt.Errorf("qos error: %v", err)
	}

	deliveries, err := channel.Consume(
		queue.Name,     // queue
		c.consumerName, // consumer
		false,          // auto-ack
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("consume start error: %v", err)
	}

	log.Printf("Consuming messages on queue: %s (workers: %d)", queue.Name, c.workerCount)

	go func() {
		for {
			select {
			case msg, ok := <-deliveries:
				if !ok {
					return
				}
				go func() {
					var envelope Envelope
					if err := json.Unmarshal(msg.Body, &envelope); err != nil {
						log.Printf("Envelope deserialize error: %v", err)
						msg.Nack(false, false)
						return
					}

					if err := handler(envelope); err != nil {
						// Leave redelivery to the broker: the handler only
						// errors on faults the next attempt may not hit.
						log.Printf("Message handling error (%s): %v", envelope.Kind, err)
						msg.Nack(false, true)
						return
					}

					msg.Ack(false)
				}()
			case <-c.client.ctx.Done():
				log.Printf("Consumer stopped: %s", c.consumerName)
				return
			}
		}
	}()

	return nil
}
