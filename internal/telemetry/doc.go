// Package telemetry обеспечивает наблюдаемость раннера и CLI.
//
// Включает:
//   - logging.go: structured logging через slog
//   - metrics.go: Prometheus метрики эпизодов
//
// Раннер экспортирует метрики на /metrics endpoint.
package telemetry
