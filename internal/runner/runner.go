package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/google/uuid"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/processors"
	"github.com/shaiso/Rendezvous/internal/sim"
	"github.com/shaiso/Rendezvous/internal/task"
	"github.com/shaiso/Rendezvous/internal/telemetry"
)

// Default configuration values.
const (
	defaultStepBatch = 256
)

// EpisodeStore сохраняет эпизоды и их пошаговый журнал.
type EpisodeStore interface {
	Create(ctx context.Context, ep *domain.Episode) error
	AppendSteps(ctx context.Context, episodeID uuid.UUID, steps []domain.StepRecord) error
	Finish(ctx context.Context, ep *domain.Episode) error
}

// EventPublisher публикует итог эпизода.
type EventPublisher interface {
	PublishEpisodeCompleted(ctx context.Context, ep *domain.Episode) error
}

// Config: конфигурация Runner.
type Config struct {
	// Store: хранилище эпизодов (опционально).
	Store EpisodeStore

	// Publisher: публикация итогов (опционально).
	Publisher EventPublisher

	// Metrics: Prometheus коллекторы (опционально).
	Metrics *telemetry.Metrics

	// Registry: реестр процессоров (default: processors.DefaultRegistry()).
	Registry *processors.Registry

	// RecordSteps: писать пошаговый журнал в Store.
	RecordSteps bool

	// StepBatch: размер пачки шагов для Store.AppendSteps (default: 256).
	StepBatch int

	// Workers: параллельность RunBatch (default: GOMAXPROCS).
	Workers int

	// Logger
	Logger *slog.Logger
}

// Runner прогоняет эпизоды.
type Runner struct {
	store       EpisodeStore
	publisher   EventPublisher
	metrics     *telemetry.Metrics
	registry    *processors.Registry
	recordSteps bool
	stepBatch   int
	workers     int
	logger      *slog.Logger
}

// New создаёт новый Runner.
func New(cfg Config) *Runner {
	stepBatch := cfg.StepBatch
	if stepBatch <= 0 {
		stepBatch = defaultStepBatch
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	registry := cfg.Registry
	if registry == nil {
		registry = processors.DefaultRegistry()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		store:       cfg.Store,
		publisher:   cfg.Publisher,
		metrics:     cfg.Metrics,
		registry:    registry,
		recordSteps: cfg.RecordSteps,
		stepBatch:   stepBatch,
		workers:     workers,
		logger:      logger,
	}
}

// Request: параметры одного эпизода.
type Request struct {
	Spec   *domain.TaskSpec
	Policy string
	Seed   int64
}

// episode: всё, чем владеет один прогон.
type episode struct {
	record   *domain.Episode
	env      *sim.Environment
	pipeline *task.Pipeline
	policy   sim.Policy
	logger   *slog.Logger
	pending  []domain.StepRecord
}

// prepare собирает окружение, пайплайн и политику.
// Ошибки здесь: ошибки конфигурации, эпизод не создаётся.
func (r *Runner) prepare(req Request) (*episode, error) {
	if req.Spec == nil {
		return nil, ErrNilSpec
	}

	env, err := sim.NewEnvironment(req.Spec.Env)
	if err != nil {
		return nil, fmt.Errorf("build environment: %w", err)
	}

	policy, err := sim.NewPolicy(req.Policy, env.ControlDim(), req.Seed)
	if err != nil {
		return nil, err
	}

	record := domain.NewEpisode(req.Spec.Name, policy.Name(), req.Seed)
	logger := telemetry.EpisodeLogger(r.logger, record.ID.String(), req.Spec.Name, req.Seed)

	pipeline, err := task.New(task.Config{
		Spec:     req.Spec,
		Registry: r.registry,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	return &episode{
		record:   record,
		env:      env,
		pipeline: pipeline,
		policy:   policy,
		logger:   logger,
	}, nil
}

// RunEpisode прогоняет один эпизод до TERMINAL или max_steps.
//
// Ошибка конфигурации возвращается без эпизода. Ошибка процессора
// во время эпизода фиксируется в записи (outcome error) и тоже
// возвращается вместе с записью.
func (r *Runner) RunEpisode(ctx context.Context, req Request) (*domain.Episode, error) {
	ep, err := r.prepare(req)
	if err != nil {
		return nil, err
	}

	if r.store != nil {
		if err := r.store.Create(ctx, ep.record); err != nil {
			ep.logger.Warn("failed to store episode", "error", err)
		}
	}
	if r.metrics != nil {
		r.metrics.EpisodesInFlight.Inc()
		defer r.metrics.EpisodesInFlight.Dec()
	}

	runErr := r.loop(ctx, ep)
	r.finish(ctx, ep)
	return ep.record, runErr
}

// loop выполняет шаги эпизода.
func (r *Runner) loop(ctx context.Context, ep *episode) error {
	if _, err := ep.pipeline.Reset(ep.env.Objects()); err != nil {
		ep.record.MarkErrored(err.Error(), 0, 0)
		return fmt.Errorf("reset: %w", err)
	}
	ep.record.MarkRunning()
	ep.logger.Info("episode started", "policy", ep.record.Policy, "seed", ep.record.Seed)

	maxSteps := ep.env.MaxSteps
	for {
		if err := ctx.Err(); err != nil {
			ep.record.MarkErrored(err.Error(), ep.pipeline.Steps(), ep.pipeline.TotalReward())
			return err
		}

		control := ep.policy.Act(ep.pipeline.Observation())
		res, err := ep.pipeline.Advance(ep.env, control)
		if err != nil {
			ep.record.MarkErrored(err.Error(), ep.pipeline.Steps(), ep.pipeline.TotalReward())
			return fmt.Errorf("step %d: %w", ep.pipeline.Steps()+1, err)
		}

		r.record(ctx, ep, res)

		switch {
		case res.Terminal:
			ep.record.MarkFinished(res.Termination, ep.pipeline.Steps(), ep.pipeline.TotalReward())
			return nil
		case maxSteps > 0 && ep.pipeline.Steps() >= maxSteps:
			ep.record.MarkTruncated(ep.pipeline.Steps(), ep.pipeline.TotalReward())
			return nil
		}
	}
}

// record буферизует шаг и сбрасывает пачку в Store.
func (r *Runner) record(ctx context.Context, ep *episode, res task.StepResult) {
	if r.store == nil || !r.recordSteps {
		return
	}
	ep.pending = append(ep.pending, domain.StepRecord{
		Step:   ep.pipeline.Steps(),
		Reward: res.Reward,
		Info:   ep.pipeline.Info(),
	})
	if len(ep.pending) >= r.stepBatch {
		r.flush(ctx, ep)
	}
}

func (r *Runner) flush(ctx context.Context, ep *episode) {
	if len(ep.pending) == 0 {
		return
	}
	if err := r.store.AppendSteps(ctx, ep.record.ID, ep.pending); err != nil {
		ep.logger.Warn("failed to store steps", "count", len(ep.pending), "error", err)
	}
	ep.pending = ep.pending[:0]
}

// finish отдаёт итог эпизода приёмникам.
//
// Приёмники получают контекст без отмены: итог прерванного эпизода
// тоже должен быть записан.
func (r *Runner) finish(ctx context.Context, ep *episode) {
	sinkCtx := context.WithoutCancel(ctx)
	rec := ep.record

	if r.store != nil {
		if r.recordSteps {
			r.flush(sinkCtx, ep)
		}
		if err := r.store.Finish(sinkCtx, rec); err != nil {
			ep.logger.Warn("failed to finish episode", "error", err)
		}
	}

	if r.publisher != nil {
		if err := r.publisher.PublishEpisodeCompleted(sinkCtx, rec); err != nil {
			ep.logger.Warn("failed to publish episode.completed", "error", err)
		}
	}

	if r.metrics != nil {
		r.metrics.ObserveEpisode(rec.Task, string(rec.Outcome), string(rec.Failure), rec.Steps, rec.TotalReward)
	}

	ep.logger.Info("episode finished",
		"outcome", rec.Outcome,
		"failure", string(rec.Failure),
		"steps", rec.Steps,
		"total_reward", rec.TotalReward,
		"duration", rec.Duration(),
	)
}
