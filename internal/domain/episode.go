package domain

import (
	"time"

	"github.com/google/uuid"
)

// Accumulator: состояние одного reward-процессора за эпизод.
//
// Total меняется только через Add. Отрицательный вклад (refund при
// выходе из области) уменьшает Total, это ожидаемое поведение.
type Accumulator struct {
	// Step: вклад последнего шага.
	Step float64 `json:"step"`

	// Total: накопленная сумма за эпизод.
	Total float64 `json:"total"`
}

// Add фиксирует вклад шага.
func (a *Accumulator) Add(v float64) {
	a.Step = v
	a.Total += v
}

// ComponentInfo: вклад одного reward-процессора в info.
type ComponentInfo struct {
	Name  string  `json:"name"`
	Step  float64 `json:"step"`
	Total float64 `json:"total"`
}

// RewardInfo: награды шага и эпизода.
type RewardInfo struct {
	Step       float64         `json:"step"`
	Total      float64         `json:"total"`
	Components []ComponentInfo `json:"components"`
}

// Info: структурированная запись шага для логирования и телеметрии.
type Info struct {
	Step        int                   `json:"step"`
	Elapsed     float64               `json:"elapsed"`
	State       EpisodeState          `json:"state"`
	Success     bool                  `json:"success"`
	Failure     FailureCode           `json:"failure"`
	Status      *Status               `json:"status"`
	Reward      RewardInfo            `json:"reward"`
	Observation []float64             `json:"observation,omitempty"`
	Objects     map[string]ObjectInfo `json:"objects,omitempty"`
}

// StepRecord: строка журнала эпизода.
type StepRecord struct {
	Step   int     `json:"step"`
	Reward float64 `json:"reward"`
	Info   Info    `json:"info"`
}

// Episode: один прогон задачи от Reset до терминального состояния.
type Episode struct {
	// ID: уникальный идентификатор эпизода.
	ID uuid.UUID `json:"id"`

	// Task: имя задачи из TaskSpec.
	Task string `json:"task"`

	// Policy: имя политики управления агентом.
	Policy string `json:"policy"`

	// Seed: seed политики; эпизод с тем же seed воспроизводим.
	Seed int64 `json:"seed"`

	// State: состояние пайплайна на момент записи.
	State EpisodeState `json:"state"`

	// Outcome: итог эпизода.
	Outcome Outcome `json:"outcome,omitempty"`

	// Failure: код отказа, если Outcome == failure.
	Failure FailureCode `json:"failure"`

	// Steps: количество выполненных шагов.
	Steps int `json:"steps"`

	// TotalReward: суммарная награда за эпизод.
	TotalReward float64 `json:"total_reward"`

	// Error: текст программной ошибки, если Outcome == error.
	Error string `json:"error,omitempty"`

	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewEpisode создаёт эпизод в состоянии INIT.
func NewEpisode(task, policy string, seed int64) *Episode {
	return &Episode{
		ID:        uuid.New(),
		Task:      task,
		Policy:    policy,
		Seed:      seed,
		State:     EpisodeInit,
		CreatedAt: time.Now(),
	}
}

// Duration возвращает продолжительность эпизода по часам раннера.
func (e *Episode) Duration() time.Duration {
	if e.StartedAt == nil || e.FinishedAt == nil {
		return 0
	}
	return e.FinishedAt.Sub(*e.StartedAt)
}

// MarkRunning переводит эпизод в RUNNING.
func (e *Episode) MarkRunning() {
	now := time.Now()
	e.State = EpisodeRunning
	e.StartedAt = &now
}

// MarkFinished фиксирует итог по терминальному статусу.
func (e *Episode) MarkFinished(t Termination, steps int, totalReward float64) {
	now := time.Now()
	e.State = EpisodeTerminal
	e.Outcome = t.Outcome()
	e.Failure = t.Failure
	e.Steps = steps
	e.TotalReward = totalReward
	e.FinishedAt = &now
}

// MarkTruncated фиксирует остановку по max_steps.
func (e *Episode) MarkTruncated(steps int, totalReward float64) {
	now := time.Now()
	e.Outcome = OutcomeTruncated
	e.Steps = steps
	e.TotalReward = totalReward
	e.FinishedAt = &now
}

// MarkErrored фиксирует программную ошибку.
func (e *Episode) MarkErrored(err string, steps int, totalReward float64) {
	now := time.Now()
	e.Outcome = OutcomeError
	e.Error = err
	e.Steps = steps
	e.TotalReward = totalReward
	e.FinishedAt = &now
}
