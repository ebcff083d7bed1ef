package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Rendezvous/internal/domain"
)

// EpisodeRepo: репозиторий эпизодов и их пошагового журнала.
type EpisodeRepo struct {
	pool *pgxpool.Pool
}

// NewEpisodeRepo создаёт новый EpisodeRepo.
func NewEpisodeRepo(pool *pgxpool.Pool) *EpisodeRepo {
	return &EpisodeRepo{pool: pool}
}

// Create создаёт эпизод.
func (r *EpisodeRepo) Create(ctx context.Context, ep *domain.Episode) error {
	query := `
		INSERT INTO episodes (id, task, policy, seed, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		ep.ID,
		ep.Task,
		ep.Policy,
		ep.Seed,
		ep.State,
		ep.CreatedAt,
	)
	return classify(err, "insert episode")
}

// AppendSteps записывает пачку шагов через COPY.
func (r *EpisodeRepo) AppendSteps(ctx context.Context, episodeID uuid.UUID, steps []domain.StepRecord) error {
	if len(steps) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(steps))
	for _, s := range steps {
		info, err := json.Marshal(s.Info)
		if err != nil {
			return fmt.Errorf("marshal info: %w", err)
		}
		rows = append(rows, []any{episodeID, s.Step, s.Reward, info})
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"episode_steps"},
		[]string{"episode_id", "step", "reward", "info"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy episode steps: %w", err)
	}
	return nil
}

// Finish сохраняет итог эпизода.
func (r *EpisodeRepo) Finish(ctx context.Context, ep *domain.Episode) error {
	query := `
		UPDATE episodes
		SET state = $2, outcome = $3, failure = $4, steps = $5, total_reward = $6,
		    error = $7, started_at = $8, finished_at = $9
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		ep.ID,
		ep.State,
		nullString(string(ep.Outcome)),
		nullString(string(ep.Failure)),
		ep.Steps,
		ep.TotalReward,
		nullString(ep.Error),
		ep.StartedAt,
		ep.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update episode: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает эпизод по ID.
func (r *EpisodeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Episode, error) {
	query := `
		SELECT id, task, policy, seed, state, outcome, failure, steps, total_reward,
		       error, started_at, finished_at, created_at
		FROM episodes
		WHERE id = $1
	`
	ep, err := scanEpisode(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classify(err, "get episode")
	}
	return ep, nil
}

// EpisodeFilter: параметры фильтрации эпизодов.
type EpisodeFilter struct {
	Task    string
	Outcome domain.Outcome
	Limit   int
	Offset  int
}

// List возвращает эпизоды, новые первыми.
func (r *EpisodeRepo) List(ctx context.Context, filter EpisodeFilter) ([]domain.Episode, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	query := `
		SELECT id, task, policy, seed, state, outcome, failure, steps, total_reward,
		       error, started_at, finished_at, created_at
		FROM episodes
		WHERE ($1::text IS NULL OR task = $1)
		  AND ($2::text IS NULL OR outcome = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.Task),
		nullString(string(filter.Outcome)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []domain.Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, *ep)
	}
	return episodes, rows.Err()
}

// Steps возвращает журнал шагов эпизода.
func (r *EpisodeRepo) Steps(ctx context.Context, episodeID uuid.UUID) ([]domain.StepRecord, error) {
	query := `
		SELECT step, reward, info
		FROM episode_steps
		WHERE episode_id = $1
		ORDER BY step
	`
	rows, err := r.pool.Query(ctx, query, episodeID)
	if err != nil {
		return nil, fmt.Errorf("list episode steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.StepRecord
	for rows.Next() {
		var (
			s    domain.StepRecord
			info []byte
		)
		if err := rows.Scan(&s.Step, &s.Reward, &info); err != nil {
			return nil, fmt.Errorf("scan episode step: %w", err)
		}
		if err := json.Unmarshal(info, &s.Info); err != nil {
			return nil, fmt.Errorf("unmarshal info: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// --- Helpers ---

// scanEpisode сканирует строку в Episode (pgx.Row и pgx.Rows).
func scanEpisode(row pgx.Row) (*domain.Episode, error) {
	var (
		ep      domain.Episode
		outcome *string
		failure *string
		epError *string
	)

	err := row.Scan(
		&ep.ID,
		&ep.Task,
		&ep.Policy,
		&ep.Seed,
		&ep.State,
		&outcome,
		&failure,
		&ep.Steps,
		&ep.TotalReward,
		&epError,
		&ep.StartedAt,
		&ep.FinishedAt,
		&ep.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if outcome != nil {
		ep.Outcome = domain.Outcome(*outcome)
	}
	if failure != nil {
		ep.Failure = domain.FailureCode(*failure)
	}
	if epError != nil {
		ep.Error = *epError
	}
	return &ep, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
