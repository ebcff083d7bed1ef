// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go: управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go: объявление exchanges, queues, bindings
//   - publisher.go: публикация сообщений
//   - consumer.go: потребление сообщений из очередей
//
// Типы сообщений:
//   - episode.requested: запрос на прогон эпизодов задачи
//   - episode.completed: эпизод завершён (итог, награда, шаги)
//
// Exchanges:
//   - rendezvous.episodes: события эпизодов
//   - rendezvous.dlq: dead letter queue
package mq
