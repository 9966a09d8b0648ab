package notify

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPTransport publishes confirmations to a durable RabbitMQ queue consumed
// by the mail worker.
type AMQPTransport struct {
	conn  *amqp.Connection
	chn   *amqp.Channel
	queue string
}

func NewAMQPTransport(url, queue string) (*AMQPTransport, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	chn, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = chn.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		chn.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQPTransport{conn: conn, chn: chn, queue: queue}, nil
}

func (t *AMQPTransport) Send(ctx context.Context, body []byte) error {
	return t.chn.PublishWithContext(
		ctx,
		"",      // exchange
		t.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (t *AMQPTransport) Close() error {
	if err := t.chn.Close(); err != nil {
		return err
	}
	return t.conn.Close()
}
