package runner

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Rendezvous/internal/domain"
)

// BatchRequest: пачка эпизодов одной задачи.
// Эпизод i получает seed Seed+i.
type BatchRequest struct {
	Spec     *domain.TaskSpec
	Policy   string
	Seed     int64
	Episodes int
}

// RunBatch прогоняет эпизоды параллельно, не больше Workers одновременно.
//
// Результаты упорядочены по индексу эпизода. Ошибка процессора внутри
// эпизода остаётся в его записи (outcome error) и пачку не прерывает;
// ошибка конфигурации или отмена контекста останавливают пачку.
func (r *Runner) RunBatch(ctx context.Context, req BatchRequest) ([]*domain.Episode, error) {
	if req.Episodes <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidEpisodes, req.Episodes)
	}

	// Конфигурация проверяется один раз, до запуска воркеров
	if _, err := r.prepare(Request{Spec: req.Spec, Policy: req.Policy, Seed: req.Seed}); err != nil {
		return nil, err
	}

	results := make([]*domain.Episode, req.Episodes)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := 0; i < req.Episodes; i++ {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			ep, err := r.RunEpisode(gctx, Request{
				Spec:   req.Spec,
				Policy: req.Policy,
				Seed:   req.Seed + int64(i),
			})
			results[i] = ep
			if err != nil && (ep == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Summary: агрегат пачки эпизодов.
type Summary struct {
	Task       string                     `json:"task"`
	Episodes   int                        `json:"episodes"`
	Outcomes   map[domain.Outcome]int     `json:"outcomes"`
	Failures   map[domain.FailureCode]int `json:"failures,omitempty"`
	MeanReward float64                    `json:"mean_reward"`
	MeanSteps  float64                    `json:"mean_steps"`
}

// Summarize считает итоги пачки. nil-записи пропускаются.
func Summarize(episodes []*domain.Episode) Summary {
	s := Summary{
		Outcomes: make(map[domain.Outcome]int),
		Failures: make(map[domain.FailureCode]int),
	}

	var reward, steps float64
	for _, ep := range episodes {
		if ep == nil {
			continue
		}
		s.Task = ep.Task
		s.Episodes++
		s.Outcomes[ep.Outcome]++
		if ep.Failure.IsFailure() {
			s.Failures[ep.Failure]++
		}
		reward += ep.TotalReward
		steps += float64(ep.Steps)
	}

	if s.Episodes > 0 {
		s.MeanReward = reward / float64(s.Episodes)
		s.MeanSteps = steps / float64(s.Episodes)
	}
	return s
}
