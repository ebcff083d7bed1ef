package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/mq"
	"github.com/shaiso/Rendezvous/internal/repo"
)

// EpisodeReader: чтение сохранённых эпизодов.
type EpisodeReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Episode, error)
	List(ctx context.Context, filter repo.EpisodeFilter) ([]domain.Episode, error)
	Steps(ctx context.Context, episodeID uuid.UUID) ([]domain.StepRecord, error)
}

// RequestPublisher ставит прогоны в очередь раннера.
type RequestPublisher interface {
	PublishEpisodeRequested(ctx context.Context, payload mq.EpisodeRequestedPayload) error
}

// Handler: главный обработчик API с зависимостями.
type Handler struct {
	episodes  EpisodeReader
	publisher RequestPublisher
	logger    *slog.Logger
}

// Config: конфигурация для создания Handler.
type Config struct {
	// Episodes: хранилище эпизодов (nil: эндпоинты чтения отвечают 503).
	Episodes EpisodeReader

	// Publisher: очередь запросов (nil: POST отвечает 503).
	Publisher RequestPublisher

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		episodes:  cfg.Episodes,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}
