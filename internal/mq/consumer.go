package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает одно сообщение.
//
// Ошибка, обёрнутая в ErrPermanent, отправляет сообщение в DLQ.
// Остальные ошибки возвращают его в очередь один раз: повторная
// неудача уже доставленного сообщения тоже уходит в DLQ.
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery: входящее сообщение вместе с исходной AMQP доставкой.
type Delivery struct {
	Message Message
	Raw     amqp.Delivery
}

// disposition: итог обработки доставки.
type disposition int

const (
	dispAck disposition = iota
	dispRequeue
	dispDeadLetter
)

func (d disposition) String() string {
	switch d {
	case dispAck:
		return "ack"
	case dispRequeue:
		return "requeue"
	default:
		return "dead-letter"
	}
}

// settle выбирает итог по ошибке обработчика.
func settle(err error, redelivered bool) disposition {
	switch {
	case err == nil:
		return dispAck
	case errors.Is(err, ErrPermanent), redelivered:
		return dispDeadLetter
	default:
		return dispRequeue
	}
}

// apply подтверждает или отклоняет доставку.
func (d disposition) apply(raw amqp.Delivery) error {
	if d == dispAck {
		return raw.Ack(false)
	}
	return raw.Nack(false, d == dispRequeue)
}

// ConsumerConfig: параметры consumer.
type ConsumerConfig struct {
	Queue   string
	Handler Handler

	// Tag: consumer tag в брокере (пустой: сгенерирует сервер).
	Tag string

	// Prefetch: сколько неподтверждённых сообщений держит consumer (default: 1).
	Prefetch int
}

// Consumer читает очередь и переживает переподключения Connection.
type Consumer struct {
	conn   *Connection
	cfg    ConsumerConfig
	logger *slog.Logger

	cancelFunc context.CancelFunc
}

// NewConsumer создаёт consumer для одной очереди.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		conn:   conn,
		cfg:    cfg,
		logger: logger.With("queue", cfg.Queue),
	}
}

// Start блокируется, пока ctx не отменён или не вызван Stop.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("consumer session ended, waiting for reconnect", "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
			c.logger.Info("reconnected, resuming consumer")
		}
	}
}

// Stop прерывает Start.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

// session читает доставки одного канала до его закрытия.
func (c *Consumer) session(ctx context.Context) error {
	ch := c.conn.Channel()
	if ch == nil {
		return ErrNoChannel
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	// autoAck выключен: итог задаёт settle.
	deliveries, err := ch.Consume(c.cfg.Queue, c.cfg.Tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}
	c.logger.Info("consumer started", "prefetch", c.cfg.Prefetch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.dispatch(ctx, raw)
		}
	}
}

// dispatch декодирует конверт, вызывает обработчик и фиксирует итог.
func (c *Consumer) dispatch(ctx context.Context, raw amqp.Delivery) {
	msg, err := decodeMessage(raw.Body)
	if err != nil {
		c.logger.Error("dropping undecodable message", "error", err, "body", string(raw.Body))
		c.finish(raw, dispDeadLetter)
		return
	}

	log := c.logger.With("message_id", msg.ID, "type", msg.Type)
	log.Debug("received message", "redelivered", raw.Redelivered)

	err = c.cfg.Handler(ctx, &Delivery{Message: msg, Raw: raw})
	d := settle(err, raw.Redelivered)
	if err != nil {
		log.Error("handler failed", "outcome", d.String(), "error", err)
	}
	c.finish(raw, d)
}

func (c *Consumer) finish(raw amqp.Delivery, d disposition) {
	if err := d.apply(raw); err != nil {
		c.logger.Warn("settle delivery failed", "outcome", d.String(), "error", err)
	}
}

// decodeMessage разбирает конверт, оставляя payload сырым JSON.
func decodeMessage(body []byte) (Message, error) {
	var env struct {
		Message
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	msg := env.Message
	msg.Payload = env.Payload
	return msg, nil
}

// ParsePayload приводит payload сообщения к типу T.
func ParsePayload[T any](msg *Message) (T, error) {
	var out T

	raw, ok := msg.Payload.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(msg.Payload)
		if err != nil {
			return out, fmt.Errorf("marshal payload: %w", err)
		}
		raw = b
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unmarshal payload: %w", err)
	}
	return out, nil
}
