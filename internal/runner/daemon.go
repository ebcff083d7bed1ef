package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/engine"
	"github.com/shaiso/Rendezvous/internal/mq"
)

// Default configuration values.
const (
	defaultPrefetch          = 1
	defaultScheduledEpisodes = 10
)

// SpecLoader загружает задачу по пути и значениям шаблона.
type SpecLoader func(path string, vars map[string]string) (*domain.TaskSpec, error)

// DaemonConfig: конфигурация Daemon.
type DaemonConfig struct {
	// Runner: исполнитель эпизодов.
	Runner *Runner

	// Conn: соединение с RabbitMQ (опционально; nil: только расписание).
	Conn *mq.Connection

	// Loader: загрузка task-файлов (default: engine.LoadTaskSpec).
	Loader SpecLoader

	// Prefetch: сколько запросов брать из очереди одновременно (default: 1).
	Prefetch int

	// Schedule: cron-выражение оценочных прогонов (пусто: выключено).
	Schedule string

	// ScheduledTask: task-файл оценочных прогонов.
	ScheduledTask string

	// ScheduledEpisodes: эпизодов за один прогон (default: 10).
	ScheduledEpisodes int

	// ScheduledPolicy: политика оценочных прогонов.
	ScheduledPolicy string

	// Logger
	Logger *slog.Logger
}

// Daemon: долгоживущий процесс раннера.
//
// Запускает:
//   - Consumer для episodes.requested
//   - cron-расписание оценочных прогонов
type Daemon struct {
	runner *Runner
	conn   *mq.Connection
	loader SpecLoader

	prefetch int

	schedule          string
	scheduledTask     string
	scheduledEpisodes int
	scheduledPolicy   string

	consumer *mq.Consumer
	cron     *cron.Cron

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewDaemon создаёт Daemon. Некорректное расписание: ошибка.
func NewDaemon(cfg DaemonConfig) (*Daemon, error) {
	if cfg.Schedule != "" {
		if _, err := ParseSchedule(cfg.Schedule); err != nil {
			return nil, err
		}
		if cfg.ScheduledTask == "" {
			return nil, fmt.Errorf("%w: schedule without task file", ErrInvalidSchedule)
		}
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	episodes := cfg.ScheduledEpisodes
	if episodes <= 0 {
		episodes = defaultScheduledEpisodes
	}

	loader := cfg.Loader
	if loader == nil {
		loader = engine.LoadTaskSpec
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Daemon{
		runner:            cfg.Runner,
		conn:              cfg.Conn,
		loader:            loader,
		prefetch:          prefetch,
		schedule:          cfg.Schedule,
		scheduledTask:     cfg.ScheduledTask,
		scheduledEpisodes: episodes,
		scheduledPolicy:   cfg.ScheduledPolicy,
		logger:            logger,
	}, nil
}

// Start запускает consumer и расписание.
func (d *Daemon) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancelFunc = cancel

	d.logger.Info("starting runner daemon",
		"schedule", d.schedule,
		"scheduled_task", d.scheduledTask,
		"mq", d.conn != nil,
	)

	if d.conn != nil {
		d.consumer = mq.NewConsumer(d.conn, d.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueEpisodesRequested),
			Handler:  d.handleRequested,
			Prefetch: d.prefetch,
		})

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := d.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Error("episode consumer error", "error", err)
			}
		}()
	}

	if d.schedule != "" {
		d.cron = cron.New(cron.WithParser(cronParser))
		_, err := d.cron.AddFunc(d.schedule, func() {
			if err := d.runScheduled(ctx, time.Now()); err != nil {
				d.logger.Error("scheduled evaluation failed", "error", err)
			}
		})
		if err != nil {
			cancel()
			return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
		}
		d.cron.Start()
	}

	d.logger.Info("runner daemon started")
	return nil
}

// Stop останавливает daemon и ждёт текущие прогоны.
func (d *Daemon) Stop() {
	d.logger.Info("stopping runner daemon...")

	if d.cancelFunc != nil {
		d.cancelFunc()
	}
	if d.consumer != nil {
		d.consumer.Stop()
	}
	if d.cron != nil {
		<-d.cron.Stop().Done()
	}

	d.wg.Wait()
	d.logger.Info("runner daemon stopped")
}

// handleRequested обрабатывает episode.requested.
//
// Битый payload и битая задача не исправятся повтором: они уходят в DLQ.
func (d *Daemon) handleRequested(ctx context.Context, delivery *mq.Delivery) error {
	req, err := mq.ParsePayload[mq.EpisodeRequestedPayload](&delivery.Message)
	if err != nil {
		return fmt.Errorf("%w: %v", mq.ErrPermanent, err)
	}
	if req.Episodes <= 0 {
		req.Episodes = 1
	}

	spec, err := d.loader(req.Task, req.Vars)
	if err != nil {
		return fmt.Errorf("%w: load %s: %v", mq.ErrPermanent, req.Task, err)
	}

	episodes, err := d.runner.RunBatch(ctx, BatchRequest{
		Spec:     spec,
		Policy:   req.Policy,
		Seed:     req.Seed,
		Episodes: req.Episodes,
	})
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %v", mq.ErrPermanent, err)
	}

	sum := Summarize(episodes)
	d.logger.Info("request processed",
		"message_id", delivery.Message.ID,
		"task", sum.Task,
		"episodes", sum.Episodes,
		"mean_reward", sum.MeanReward,
	)
	return nil
}

// runScheduled выполняет один оценочный прогон.
func (d *Daemon) runScheduled(ctx context.Context, at time.Time) error {
	spec, err := d.loader(d.scheduledTask, nil)
	if err != nil {
		return fmt.Errorf("load %s: %w", d.scheduledTask, err)
	}

	episodes, err := d.runner.RunBatch(ctx, BatchRequest{
		Spec:     spec,
		Policy:   d.scheduledPolicy,
		Seed:     ScheduleSeed(at),
		Episodes: d.scheduledEpisodes,
	})
	if err != nil {
		return err
	}

	sum := Summarize(episodes)
	d.logger.Info("scheduled evaluation completed",
		"task", sum.Task,
		"episodes", sum.Episodes,
		"outcomes", sum.Outcomes,
		"mean_reward", sum.MeanReward,
	)
	return nil
}
