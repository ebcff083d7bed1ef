// Package runner прогоняет эпизоды задачи от Reset до завершения.
//
// Каждый эпизод получает собственные окружение, пайплайн и политику:
// состояние процессоров между эпизодами не разделяется, поэтому эпизоды
// одной задачи можно безопасно гонять параллельно (RunBatch).
//
// Итог эпизода уходит в необязательные приёмники:
//   - EpisodeStore: PostgreSQL (repo.EpisodeRepo)
//   - EventPublisher: RabbitMQ (mq.Publisher)
//   - telemetry.Metrics: Prometheus
//
// Ошибки приёмников логируются и не прерывают эпизод.
//
// Daemon: долгоживущий процесс раннера, потребляет episodes.requested
// и по cron-расписанию запускает оценочные прогоны.
package runner
