package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/mq"
	"github.com/shaiso/Rendezvous/internal/repo"
	"github.com/shaiso/Rendezvous/internal/runner"
)

// runResult: вывод команды run в JSON-режиме.
type runResult struct {
	Summary  runner.Summary `json:"summary"`
	Episodes []episodeRow   `json:"episodes"`
}

// episodeRow: строка таблицы эпизодов.
type episodeRow struct {
	ID          string  `json:"id"`
	Seed        int64   `json:"seed"`
	Outcome     string  `json:"outcome"`
	Failure     string  `json:"failure,omitempty"`
	Steps       int     `json:"steps"`
	TotalReward float64 `json:"total_reward"`
	Error       string  `json:"error,omitempty"`
}

// NewRunCmd создаёт команду прогона эпизодов.
func NewRunCmd(outputFn func() *Output, loggerFn func() *slog.Logger) *cobra.Command {
	var (
		file     string
		sets     []string
		episodes int
		workers  int
		policy   string
		seed     int64
		useDB    bool
		steps    bool
		publish  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run episodes of a task locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			logger := loggerFn()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			spec, err := loadSpec(file, sets)
			if err != nil {
				return err
			}

			cfg := runner.Config{
				Workers:     workers,
				RecordSteps: steps,
				Logger:      logger,
			}

			if useDB {
				pool, err := repo.NewPool(ctx)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := repo.Migrate(ctx, pool); err != nil {
					return err
				}
				cfg.Store = repo.NewEpisodeRepo(pool)
			}

			if publish {
				conn, err := mq.Dial(mq.ConnectionConfig{Name: "rendezvous-cli", Logger: logger})
				if err != nil {
					return err
				}
				defer conn.Close()
				if err := mq.SetupTopology(ctx, conn); err != nil {
					return err
				}
				cfg.Publisher = mq.NewPublisher(conn, logger)
			}

			results, err := runner.New(cfg).RunBatch(ctx, runner.BatchRequest{
				Spec:     spec,
				Policy:   policy,
				Seed:     seed,
				Episodes: episodes,
			})
			if err != nil {
				return err
			}

			res := runResult{Summary: runner.Summarize(results)}
			rows := make([][]string, 0, len(results))
			for _, ep := range results {
				row := episodeRow{
					ID:          ep.ID.String(),
					Seed:        ep.Seed,
					Outcome:     string(ep.Outcome),
					Failure:     string(ep.Failure),
					Steps:       ep.Steps,
					TotalReward: ep.TotalReward,
					Error:       ep.Error,
				}
				res.Episodes = append(res.Episodes, row)
				rows = append(rows, []string{
					row.ID, strconv.FormatInt(row.Seed, 10), row.Outcome, row.Failure,
					strconv.Itoa(row.Steps), formatFloat(row.TotalReward),
				})
			}

			if err := out.Print([]string{"ID", "SEED", "OUTCOME", "FAILURE", "STEPS", "REWARD"}, rows, res); err != nil {
				return err
			}
			out.Note(summaryLine(res.Summary))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Task file (YAML or JSON)")
	cmd.Flags().StringSliceVar(&sets, "set", nil, "Template values as KEY=VALUE (repeatable)")
	cmd.Flags().IntVar(&episodes, "episodes", 1, "Number of episodes")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel episodes (default: GOMAXPROCS)")
	cmd.Flags().StringVar(&policy, "policy", "zero", "Control policy (zero, random)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed of the first episode")
	cmd.Flags().BoolVar(&useDB, "db", false, "Store episodes in PostgreSQL (DB_URL)")
	cmd.Flags().BoolVar(&steps, "steps", false, "Store per-step info (with --db)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish episode.completed to RabbitMQ (RABBITMQ_URL)")

	return cmd
}

// summaryLine: однострочный итог пачки.
func summaryLine(s runner.Summary) string {
	outcomes := make([]string, 0, len(s.Outcomes))
	for o := range s.Outcomes {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)

	line := fmt.Sprintf("%s: %d episodes, mean reward %s, mean steps %s",
		s.Task, s.Episodes, formatFloat(s.MeanReward), formatFloat(s.MeanSteps))
	for _, o := range outcomes {
		line += fmt.Sprintf(", %s %d", o, s.Outcomes[domain.Outcome(o)])
	}
	return line
}
