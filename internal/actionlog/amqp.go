package actionlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/yukikurage/workload-dashboard/internal/models"
)

// DefaultExchange is the topic exchange action entries are published to.
const DefaultExchange = "workload.actions"

// AMQPSink publishes entries to a topic exchange with the routing key
// "action.<type>".
type AMQPSink struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
	mu       sync.Mutex
}

func NewAMQPSink(url, exchange string, logger *slog.Logger) (*AMQPSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info("action log sink connected", "exchange", exchange)
	return &AMQPSink{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

func (s *AMQPSink) Publish(ctx context.Context, entry models.ActionLogEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode action entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel.PublishWithContext(ctx,
		s.exchange,
		RoutingKey(entry.Action),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			MessageId:    entry.ID.String(),
			Body:         body,
		},
	)
}

func (s *AMQPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.channel.Close(); err != nil {
		s.logger.Warn("error closing channel", "error", err)
	}
	return s.conn.Close()
}

// RoutingKey is the topic used for an action type.
func RoutingKey(action models.ActionType) string {
	return "action." + string(action)
}
