package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange: тип для имени обменника.
type Exchange string

// Queue: тип для имени очереди.
type Queue string

// RoutingKey: тип для ключа маршрутизации.
type RoutingKey string

// Exchanges: имена обменников.
const (
	ExchangeEpisodes Exchange = "rendezvous.episodes"
	ExchangeDLQ      Exchange = "rendezvous.dlq"
)

// Queues: имена очередей.
const (
	QueueEpisodesRequested Queue = "episodes.requested"
	QueueEpisodesCompleted Queue = "episodes.completed"
	QueueDLQEpisodes       Queue = "dlq.episodes"
)

// Routing keys.
const (
	RoutingKeyRequested   RoutingKey = "requested"
	RoutingKeyCompleted   RoutingKey = "completed"
	RoutingKeyDLQEpisodes RoutingKey = "episodes"
)

// ExchangeDecl: объявление обменника.
type ExchangeDecl struct {
	Name Exchange
	Kind string
}

// QueueDecl: объявление очереди.
type QueueDecl struct {
	Name Queue
	Args amqp.Table
}

// Binding: привязка очереди к обменнику.
type Binding struct {
	Queue      Queue
	RoutingKey RoutingKey
	Exchange   Exchange
}

// Topology: полная топология брокера.
type Topology struct {
	Exchanges []ExchangeDecl
	Queues    []QueueDecl
	Bindings  []Binding
}

// DefaultTopology возвращает топологию раннера.
//
// episodes.requested уходит в DLQ: запрос с битой задачей не должен
// крутиться в очереди бесконечно.
func DefaultTopology() Topology {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQEpisodes),
	}

	return Topology{
		Exchanges: []ExchangeDecl{
			{ExchangeEpisodes, "direct"},
			{ExchangeDLQ, "direct"},
		},
		Queues: []QueueDecl{
			{QueueEpisodesRequested, dlqArgs},
			{QueueEpisodesCompleted, nil},
			{QueueDLQEpisodes, nil},
		},
		Bindings: []Binding{
			{QueueEpisodesRequested, RoutingKeyRequested, ExchangeEpisodes},
			{QueueEpisodesCompleted, RoutingKeyCompleted, ExchangeEpisodes},
			{QueueDLQEpisodes, RoutingKeyDLQEpisodes, ExchangeDLQ},
		},
	}
}

// SetupTopology объявляет exchanges, queues и bindings.
func SetupTopology(ctx context.Context, conn *Connection) error {
	t := DefaultTopology()
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range t.Exchanges {
			err := ch.ExchangeDeclare(
				string(ex.Name), // name
				ex.Kind,         // type
				true,            // durable
				false,           // auto-deleted
				false,           // internal
				false,           // no-wait
				nil,             // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.Name, err)
			}
		}

		for _, q := range t.Queues {
			_, err := ch.QueueDeclare(
				string(q.Name), // name
				true,           // durable
				false,          // delete when unused
				false,          // exclusive
				false,          // no-wait
				q.Args,         // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q.Name, err)
			}
		}

		for _, b := range t.Bindings {
			err := ch.QueueBind(
				string(b.Queue),      // queue name
				string(b.RoutingKey), // routing key
				string(b.Exchange),   // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.Queue, b.Exchange, err)
			}
		}
		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Rendezvous RabbitMQ Topology:

    rendezvous.episodes (direct)
    ├── episodes.requested [routing: requested]
    │       Consumer: rendezvous-runner
    │       DLQ: dlq.episodes
    └── episodes.completed [routing: completed]
            Consumer: downstream analytics

    rendezvous.dlq (direct)
    └── dlq.episodes [routing: episodes]
            Manual processing
  `
}
