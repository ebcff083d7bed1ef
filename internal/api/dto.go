package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/mq"
	"github.com/shaiso/Rendezvous/internal/sim"
)

// maxRequestedEpisodes: верхняя граница одного запроса.
const maxRequestedEpisodes = 1000

// Episode DTOs

// EpisodeResponse: ответ с эпизодом.
type EpisodeResponse struct {
	ID          uuid.UUID           `json:"id"`
	Task        string              `json:"task"`
	Policy      string              `json:"policy"`
	Seed        int64               `json:"seed"`
	State       domain.EpisodeState `json:"state"`
	Outcome     domain.Outcome      `json:"outcome,omitempty"`
	Failure     domain.FailureCode  `json:"failure"`
	Steps       int                 `json:"steps"`
	TotalReward float64             `json:"total_reward"`
	Error       string              `json:"error,omitempty"`
	DurationMS  int64               `json:"duration_ms,omitempty"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// EpisodeFromDomain конвертирует domain.Episode в EpisodeResponse.
func EpisodeFromDomain(e domain.Episode) EpisodeResponse {
	return EpisodeResponse{
		ID:          e.ID,
		Task:        e.Task,
		Policy:      e.Policy,
		Seed:        e.Seed,
		State:       e.State,
		Outcome:     e.Outcome,
		Failure:     e.Failure,
		Steps:       e.Steps,
		TotalReward: e.TotalReward,
		Error:       e.Error,
		DurationMS:  e.Duration().Milliseconds(),
		StartedAt:   e.StartedAt,
		FinishedAt:  e.FinishedAt,
		CreatedAt:   e.CreatedAt,
	}
}

// Request DTOs

// RequestEpisodesRequest: запрос на прогон эпизодов.
type RequestEpisodesRequest struct {
	// Task: путь к task-файлу на стороне раннера.
	Task     string            `json:"task"`
	Vars     map[string]string `json:"vars,omitempty"`
	Policy   string            `json:"policy,omitempty"`
	Seed     int64             `json:"seed"`
	Episodes int               `json:"episodes"`
}

// Validate проверяет запрос и подставляет значения по умолчанию.
func (r *RequestEpisodesRequest) Validate() error {
	if r.Task == "" {
		return fmt.Errorf("task is required")
	}
	if r.Episodes == 0 {
		r.Episodes = 1
	}
	if r.Episodes < 0 || r.Episodes > maxRequestedEpisodes {
		return fmt.Errorf("episodes must be in [1, %d], got %d", maxRequestedEpisodes, r.Episodes)
	}
	switch r.Policy {
	case "":
		r.Policy = sim.PolicyZero
	case sim.PolicyZero, sim.PolicyRandom:
	default:
		return fmt.Errorf("unknown policy %q", r.Policy)
	}
	return nil
}

// Payload переводит запрос в сообщение очереди.
func (r RequestEpisodesRequest) Payload() mq.EpisodeRequestedPayload {
	return mq.EpisodeRequestedPayload{
		Task:     r.Task,
		Vars:     r.Vars,
		Policy:   r.Policy,
		Seed:     r.Seed,
		Episodes: r.Episodes,
	}
}
