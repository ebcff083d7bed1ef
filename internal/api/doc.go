// Package api содержит HTTP API раннера.
//
// Структура:
//   - handler.go: Handler с DI (хранилище эпизодов, publisher, logger)
//   - routes.go: регистрация маршрутов
//   - middleware.go: middleware (logging, recovery)
//   - response.go: унифицированные JSON-ответы и обработка ошибок
//   - dto.go: Data Transfer Objects (request/response)
//   - episode_handler.go: обработчики для /episodes
//
// API только читает сохранённые эпизоды; прогоны ставятся в очередь
// через episode.requested и выполняются раннером асинхронно.
package api
