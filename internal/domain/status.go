package domain

import "encoding/json"

// EpisodeState: состояние эпизода в пайплайне задачи.
//
// Жизненный цикл:
//
//	INIT → RUNNING → TERMINAL
//
// TERMINAL поглощающее: до следующего Reset шаги не выполняются.
type EpisodeState string

const (
	// EpisodeInit: пайплайн создан, Reset ещё не вызывался.
	EpisodeInit EpisodeState = "INIT"

	// EpisodeRunning: эпизод идёт, Step разрешён.
	EpisodeRunning EpisodeState = "RUNNING"

	// EpisodeTerminal: достигнут success или failure.
	EpisodeTerminal EpisodeState = "TERMINAL"
)

// IsTerminal возвращает true, если эпизод завершён.
func (s EpisodeState) IsTerminal() bool {
	return s == EpisodeTerminal
}

// FailureCode: код неуспешного завершения эпизода.
//
// Пустое значение (FailureNone) означает "нет отказа" и в JSON
// сериализуется как false, как и в логах исходных сценариев.
type FailureCode string

const (
	// FailureNone: отказа нет.
	FailureNone FailureCode = ""

	// FailureCrash: объекты сблизились меньше safety margin.
	FailureCrash FailureCode = "crash"

	// FailureTimeout: истекло время эпизода.
	FailureTimeout FailureCode = "timeout"

	// FailureDistance: агент ушёл дальше max goal distance.
	FailureDistance FailureCode = "distance"
)

// IsFailure возвращает true для любого непустого кода.
func (c FailureCode) IsFailure() bool {
	return c != FailureNone
}

// MarshalJSON сериализует FailureNone как false.
func (c FailureCode) MarshalJSON() ([]byte, error) {
	if c == FailureNone {
		return []byte("false"), nil
	}
	return json.Marshal(string(c))
}

// UnmarshalJSON принимает false или строку.
func (c *FailureCode) UnmarshalJSON(data []byte) error {
	if string(data) == "false" || string(data) == "null" {
		*c = FailureNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = FailureCode(s)
	return nil
}

// Outcome: итог эпизода для хранения и метрик.
type Outcome string

const (
	// OutcomeNone: эпизод ещё не завершён.
	OutcomeNone Outcome = ""

	// OutcomeSuccess: выполнено условие успеха.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailure: сработало одно из условий отказа.
	OutcomeFailure Outcome = "failure"

	// OutcomeTruncated: эпизод остановлен раннером по max_steps.
	OutcomeTruncated Outcome = "truncated"

	// OutcomeError: эпизод прерван программной ошибкой.
	OutcomeError Outcome = "error"
)

// Termination: терминальный статус шага.
//
// Success и Failure вычисляются из одного status mapping;
// при одновременном срабатывании отказ имеет приоритет.
type Termination struct {
	Success bool        `json:"success"`
	Failure FailureCode `json:"failure"`
}

// Done возвращает true, если эпизод должен завершиться.
func (t Termination) Done() bool {
	return t.Success || t.Failure.IsFailure()
}

// Outcome переводит терминальный статус в Outcome.
func (t Termination) Outcome() Outcome {
	switch {
	case t.Failure.IsFailure():
		return OutcomeFailure
	case t.Success:
		return OutcomeSuccess
	default:
		return OutcomeNone
	}
}
