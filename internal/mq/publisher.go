package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Rendezvous/internal/domain"
)

// MessageType: тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeEpisodeRequested MessageType = "episode.requested"
	MessageTypeEpisodeCompleted MessageType = "episode.completed"
)

// Message: конверт сообщения.
type Message struct {
	// ID: уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type: тип сообщения.
	Type MessageType `json:"type"`

	// Payload: полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp: время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(typ MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// EpisodeRequestedPayload: запрос на прогон эпизодов.
type EpisodeRequestedPayload struct {
	// Task: путь к task-файлу, доступный раннеру.
	Task string `json:"task"`

	// Vars: значения для шаблона task-файла.
	Vars map[string]string `json:"vars,omitempty"`

	Policy   string `json:"policy,omitempty"`
	Seed     int64  `json:"seed"`
	Episodes int    `json:"episodes"`
}

// EpisodeCompletedPayload: итог эпизода.
type EpisodeCompletedPayload struct {
	EpisodeID   uuid.UUID          `json:"episode_id"`
	Task        string             `json:"task"`
	Seed        int64              `json:"seed"`
	Outcome     domain.Outcome     `json:"outcome"`
	Failure     domain.FailureCode `json:"failure"`
	Steps       int                `json:"steps"`
	TotalReward float64            `json:"total_reward"`
	Error       string             `json:"error,omitempty"`
}

// CompletedPayload собирает payload из записи эпизода.
func CompletedPayload(ep *domain.Episode) EpisodeCompletedPayload {
	return EpisodeCompletedPayload{
		EpisodeID:   ep.ID,
		Task:        ep.Task,
		Seed:        ep.Seed,
		Outcome:     ep.Outcome,
		Failure:     ep.Failure,
		Steps:       ep.Steps,
		TotalReward: ep.TotalReward,
		Error:       ep.Error,
	}
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishEpisodeRequested ставит запрос на прогон в очередь раннера.
func (p *Publisher) PublishEpisodeRequested(ctx context.Context, payload EpisodeRequestedPayload) error {
	msg := NewMessage(MessageTypeEpisodeRequested, payload)
	return p.Publish(ctx, ExchangeEpisodes, RoutingKeyRequested, msg)
}

// PublishEpisodeCompleted публикует итог эпизода.
func (p *Publisher) PublishEpisodeCompleted(ctx context.Context, ep *domain.Episode) error {
	msg := NewMessage(MessageTypeEpisodeCompleted, CompletedPayload(ep))
	return p.Publish(ctx, ExchangeEpisodes, RoutingKeyCompleted, msg)
}
