package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema: таблицы эпизодов. Идемпотентна.
const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	id           UUID PRIMARY KEY,
	task         TEXT NOT NULL,
	policy       TEXT NOT NULL,
	seed         BIGINT NOT NULL,
	state        TEXT NOT NULL,
	outcome      TEXT,
	failure      TEXT,
	steps        INTEGER NOT NULL DEFAULT 0,
	total_reward DOUBLE PRECISION NOT NULL DEFAULT 0,
	error        TEXT,
	started_at   TIMESTAMPTZ,
	finished_at  TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS episodes_task_created_idx ON episodes (task, created_at DESC);

CREATE TABLE IF NOT EXISTS episode_steps (
	episode_id UUID NOT NULL REFERENCES episodes(id) ON DELETE CASCADE,
	step       INTEGER NOT NULL,
	reward     DOUBLE PRECISION NOT NULL,
	info       JSONB NOT NULL,
	PRIMARY KEY (episode_id, step)
);
`

// Migrate создаёт таблицы, если их нет.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
