package runner

import "errors"

var (
	// ErrInvalidEpisodes: количество эпизодов в пачке не положительно.
	ErrInvalidEpisodes = errors.New("episodes must be positive")

	// ErrNilSpec: запрос без спецификации задачи.
	ErrNilSpec = errors.New("task spec is nil")

	// ErrInvalidSchedule: некорректное cron-выражение.
	ErrInvalidSchedule = errors.New("invalid schedule")
)
