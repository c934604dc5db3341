// Package bus implements the Message Bus (C3): a durable work queue
// over RabbitMQ carrying job dispatch, and a Redis-backed result
// channel carrying PENDING/PROCESSING/SUCCESS/FAILURE progress tokens.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuemby/visionq/pkg/task"
)

const jobQueueName = "visionq.jobs"

// Job is the message published to the durable queue by the ingress
// controller and consumed by workers.
type Job struct {
	TaskID    string            `json:"task_id"`
	ImagePath string            `json:"image_path"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Config    *task.Config      `json:"config,omitempty"`
}

// Delivery wraps one dequeued Job with its acknowledgment handles. The
// worker performs late acknowledgment: Ack is only called after the
// terminal Result Store write commits, and a failed Result Store write
// is answered with a requeueing Nack.
type Delivery struct {
	Job Job

	raw amqp.Delivery
}

func (d Delivery) Ack() error            { return d.raw.Ack(false) }
func (d Delivery) Nack(requeue bool) error { return d.raw.Nack(false, requeue) }

// Queue is the durable work queue contract.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Consume(ctx context.Context) (<-chan Delivery, error)
	Close() error
}

// AMQPQueue is the Queue implementation over RabbitMQ.
type AMQPQueue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPQueue dials amqpURL, declares the durable job queue, and sets
// a prefetch count of 1 so a worker process never holds more than one
// in-flight job at a time.
func NewAMQPQueue(amqpURL string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(jobQueueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &AMQPQueue{conn: conn, channel: ch}, nil
}

func (q *AMQPQueue) Close() error {
	q.channel.Close()
	return q.conn.Close()
}

func (q *AMQPQueue) Enqueue(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.TaskID, err)
	}
	return q.channel.PublishWithContext(ctx, "", jobQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		CorrelationId: job.TaskID,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (q *AMQPQueue) Consume(ctx context.Context) (<-chan Delivery, error) {
	msgs, err := q.channel.Consume(jobQueueName, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume queue: %w", err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-msgs:
				if !ok {
					return
				}
				var job Job
				if err := json.Unmarshal(raw.Body, &job); err != nil {
					raw.Nack(false, false)
					continue
				}
				select {
				case out <- Delivery{Job: job, raw: raw}:
				case <-ctx.Done():
					raw.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}
