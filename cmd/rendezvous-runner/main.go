// Rendezvous Runner: долгоживущий исполнитель эпизодов.
//
// Runner:
//   - Отдаёт HTTP API эпизодов (/api/v1/episodes)
//   - Получает episode.requested из RabbitMQ
//   - Запускает оценочные прогоны по cron-расписанию (RUNNER_SCHEDULE)
//   - Сохраняет эпизоды в PostgreSQL
//   - Публикует episode.completed
//
// PostgreSQL и RabbitMQ опциональны: без них runner работает
// только по расписанию и пишет итоги в лог и метрики.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Rendezvous/internal/api"
	"github.com/shaiso/Rendezvous/internal/mq"
	"github.com/shaiso/Rendezvous/internal/repo"
	"github.com/shaiso/Rendezvous/internal/runner"
	"github.com/shaiso/Rendezvous/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting rendezvous-runner")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := runner.Config{
		Metrics:     telemetry.NewMetrics(nil),
		RecordSteps: os.Getenv("RUNNER_RECORD_STEPS") == "true",
		Workers:     envInt("RUNNER_WORKERS", 0),
		Logger:      logger,
	}

	apiCfg := api.Config{Logger: logger}

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Warn("database not available, episodes will not be stored", "error", err)
	} else {
		defer pool.Close()
		if err := repo.Migrate(ctx, pool); err != nil {
			logger.Error("failed to migrate schema", "error", err)
			os.Exit(1)
		}
		episodes := repo.NewEpisodeRepo(pool)
		cfg.Store = episodes
		apiCfg.Episodes = episodes
		logger.Info("database connected")
	}

	// RabbitMQ
	var mqConn *mq.Connection
	mqConn, err = mq.Dial(mq.ConnectionConfig{Name: "rendezvous-runner", Logger: logger})
	if err != nil {
		logger.Warn("RabbitMQ not available, running in schedule-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher := mq.NewPublisher(mqConn, logger)
		cfg.Publisher = publisher
		apiCfg.Publisher = publisher
	}

	d, err := runner.NewDaemon(runner.DaemonConfig{
		Runner:            runner.New(cfg),
		Conn:              mqConn,
		Prefetch:          envInt("RUNNER_PREFETCH", 0),
		Schedule:          os.Getenv("RUNNER_SCHEDULE"),
		ScheduledTask:     os.Getenv("RUNNER_TASK"),
		ScheduledEpisodes: envInt("RUNNER_EPISODES", 0),
		ScheduledPolicy:   os.Getenv("RUNNER_POLICY"),
		Logger:            logger,
	})
	if err != nil {
		logger.Error("invalid runner configuration", "error", err)
		os.Exit(1)
	}

	if err := d.Start(ctx); err != nil {
		logger.Error("failed to start runner", "error", err)
		os.Exit(1)
	}

	// HTTP mux: API + /healthz + /metrics
	mux := http.NewServeMux()
	api.NewHandler(apiCfg).RegisterRoutes(mux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		// Без брокера раннер работает по расписанию, это не деградация
		if mqConn != nil && !mqConn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, "rabbitmq reconnecting (reconnects: %d)", mqConn.Reconnects())
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("RUNNER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	d.Stop()
	logger.Info("rendezvous-runner stopped")
}

// envInt читает целое из окружения; пусто или мусор: def.
func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
