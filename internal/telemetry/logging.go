package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogConfig: параметры логгера.
type LogConfig struct {
	Level slog.Level

	// JSON: формат записи; false даёт key=value для разработки.
	JSON bool

	// Output: куда писать (default: os.Stderr, stdout CLI занят таблицами и JSON).
	Output io.Writer
}

// LogConfigFromEnv читает LOG_LEVEL и LOG_FORMAT.
//
// LOG_LEVEL принимает debug/info/warn/error в любом регистре,
// нераспознанное значение даёт info. LOG_FORMAT=text включает
// текстовый формат, иначе JSON.
func LogConfigFromEnv() LogConfig {
	return LogConfig{
		Level: ParseLevel(os.Getenv("LOG_LEVEL")),
		JSON:  !strings.EqualFold(os.Getenv("LOG_FORMAT"), "text"),
	}
}

// ParseLevel разбирает имя уровня.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger строит логгер по конфигурации.
// На уровне debug в записи попадает source.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.Level <= slog.LevelDebug,
	}

	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// SetupLogger строит логгер из окружения и делает его глобальным.
func SetupLogger() *slog.Logger {
	logger := NewLogger(LogConfigFromEnv())
	slog.SetDefault(logger)
	return logger
}

type loggerKey struct{}

// WithLogger кладёт логгер в контекст запроса.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext достаёт логгер запроса, а без него отдаёт slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// EpisodeLogger: логгер с полями эпизода.
func EpisodeLogger(logger *slog.Logger, episodeID, task string, seed int64) *slog.Logger {
	return logger.With(
		slog.Group("episode",
			slog.String("id", episodeID),
			slog.String("task", task),
			slog.Int64("seed", seed),
		),
	)
}
