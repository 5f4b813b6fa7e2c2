package messaging

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// RabbitMQClient owns the broker connection and the topology used by the
// sign pipeline: a topic exchange for work messages plus a consumerless
// delay queue that dead-letters expired messages back into the exchange.
type RabbitMQClient struct {
	config     *RabbitMQConfig
	connection *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	isClosing  bool
	reattach   []func() error
	ctx        context.Context
	cancel     context.CancelFunc
}

// redeliveryKey is the routing key expired messages re-enter the
// exchange with. It matches the work queue binding; consumers route on
// the envelope kind, not on the key.
const redeliveryKey = "sign.redelivery"

func NewRabbitMQClient(config *RabbitMQConfig) *RabbitMQClient {
	ctx, cancel := context.WithCancel(context.Background())

	return &RabbitMQClient{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (r *RabbitMQClient) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	for i := 0; i < r.config.RetryCount; i++ {
		r.connection, err = amqp.Dial(r.config.ConnectionURL())
		if err != nil {
			log.Printf("RabbitMQ connection error (attempt %d/%d): %v", i+1, r.config.RetryCount, err)
			if i < r.config.RetryCount-1 {
				time.Sleep(r.config.RetryDelay)
				continue
			}
			return fmt.Errorf("failed to connect to RabbitMQ: %v", err)
		}

		r.channel, err = r.connection.Channel()
		if err != nil {
			r.connection.Close()
			return fmt.Errorf("failed to open RabbitMQ channel: %v", err)
		}

		if err := r.declareTopology(); err != nil {
			r.channel.Close()
			r.connection.Close()
			return err
		}

		log.Printf("Successfully connected to RabbitMQ: %s", r.config.Host)

		go r.handleReconnection()

		return nil
	}

	return err
}

func (r *RabbitMQClient) declareTopology() error {
	err := r.channel.ExchangeDeclare(
		r.config.Exchange, // name
		"topic",           // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to create exchange: %v", err)
	}

	// Messages published here with a per-message TTL are dead-lettered
	// back into the work exchange once the TTL elapses. Nothing ever
	// consumes this queue directly.
	_, err = r.channel.QueueDeclare(
		r.config.DelayQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-dead-letter-exchange":    r.config.Exchange,
			"x-dead-letter-routing-key": redeliveryKey,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare delay queue: %v", err)
	}

	return nil
}

func (r *RabbitMQClient) handleReconnection() {
	notifyClose := make(chan *amqp.Error)
	r.connection.NotifyClose(notifyClose)

	select {
	case err := <-notifyClose:
		if !r.isClosing {
			log.Printf("RabbitMQ connection lost: %v. Reconnecting...", err)
			time.Sleep(time.Second * 2)
			if reconnectErr := r.Connect(); reconnectErr != nil {
				log.Printf("RabbitMQ reconnect error: %v", reconnectErr)
				return
			}
			r.resubscribe()
		}
	case <-r.ctx.Done():
	}
}

// OnReconnect registers a callback the client runs after re-establishing
// a lost connection. Consumers use it to re-attach to the fresh channel;
// without it their delivery streams die with the old one.
func (r *RabbitMQClient) OnReconnect(fn func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reattach = append(r.reattach, fn)
}

func (r *RabbitMQClient) resubscribe() {
	r.mu.RLock()
	callbacks := make([]func() error, len(r.reattach))
	copy(callbacks, r.reattach)
	r.mu.RUnlock()

	for _, fn := range callbacks {
		if err := fn(); err != nil {
			log.Printf("RabbitMQ re-subscribe error: %v", err)
		}
	}
}

func (r *RabbitMQClient) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

func (r *RabbitMQClient) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.connection != nil && !r.connection.IsClosed()
}

func (r *RabbitMQClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isClosing {
		return nil
	}

	r.isClosing = true
	r.cancel()

	var closeErr error

	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			closeErr = fmt.Errorf("channel close error: %v", err)
		}
	}

	if r.connection != nil {
		if err := r.connection.Close(); err != nil {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; connection close error: %v", closeErr, err)
			} else {
				closeErr = fmt.Errorf("connection close error: %v", err)
			}
		}
	}

	if closeErr == nil {
		log.Println("RabbitMQ connection closed")
	}

	return closeErr
}
