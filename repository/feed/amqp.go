package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// AMQP publishes notices on a topic exchange; each subscription binds its own
// exclusive, auto-deleted queue to the collection's routing key.
type AMQP struct {
	conn     *amqp.Connection
	exchange string

	mu  sync.Mutex
	pub *amqp.Channel
}

func NewAMQP(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &AMQP{conn: conn, exchange: exchange, pub: ch}, nil
}

func (a *AMQP) Notify(_ context.Context, path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.pub.Publish(
		a.exchange,
		topic(path),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "text/plain",
			Timestamp:   time.Now(),
			Body:        []byte(path),
		},
	)
	if err != nil {
		return fmt.Errorf("notice publish error: %w", err)
	}
	return nil
}

func (a *AMQP) Subscribe(ctx context.Context, path string) (<-chan struct{}, error) {
	ch, err := a.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("queue declare error: %w", err)
	}
	if err := ch.QueueBind(q.Name, topic(path), a.exchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("queue bind error (%s): %w", path, err)
	}
	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("consume start error: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case _, ok := <-msgs:
				if !ok {
					return
				}
				signal(out)
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.pub.Close(); err != nil {
		a.conn.Close()
		return fmt.Errorf("channel close error: %w", err)
	}
	return a.conn.Close()
}
