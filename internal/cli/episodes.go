package cli

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/repo"
)

// NewEpisodesCmd создаёт группу команд для сохранённых эпизодов.
func NewEpisodesCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "episodes",
		Short: "Inspect stored episodes",
	}

	cmd.AddCommand(
		newEpisodesListCmd(outputFn),
		newEpisodesShowCmd(outputFn),
	)

	return cmd
}

func newEpisodesListCmd(outputFn func() *Output) *cobra.Command {
	var taskName string
	var outcome string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			ctx := cmd.Context()

			pool, err := repo.NewPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			episodes, err := repo.NewEpisodeRepo(pool).List(ctx, repo.EpisodeFilter{
				Task:    taskName,
				Outcome: domain.Outcome(outcome),
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "TASK", "POLICY", "SEED", "OUTCOME", "FAILURE", "STEPS", "REWARD", "FINISHED"}
			rows := make([][]string, len(episodes))
			for i, ep := range episodes {
				rows[i] = episodeCells(&ep)
			}

			return out.Print(headers, rows, episodes)
		},
	}

	cmd.Flags().StringVar(&taskName, "task", "", "Filter by task name")
	cmd.Flags().StringVar(&outcome, "outcome", "", "Filter by outcome (success, failure, truncated, error)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newEpisodesShowCmd(outputFn func() *Output) *cobra.Command {
	var withSteps bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show an episode and its per-step rewards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			ctx := cmd.Context()

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid episode id %q: %w", args[0], err)
			}

			pool, err := repo.NewPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			episodes := repo.NewEpisodeRepo(pool)
			ep, err := episodes.GetByID(ctx, id)
			if err != nil {
				return err
			}

			if !withSteps {
				return out.Print(
					[]string{"ID", "TASK", "POLICY", "SEED", "OUTCOME", "FAILURE", "STEPS", "REWARD", "FINISHED"},
					[][]string{episodeCells(ep)},
					ep,
				)
			}

			steps, err := episodes.Steps(ctx, id)
			if err != nil {
				return err
			}
			rows := make([][]string, len(steps))
			for i, s := range steps {
				rows[i] = []string{
					strconv.Itoa(s.Step),
					formatFloat(s.Reward),
					formatFloat(s.Info.Reward.Total),
					string(s.Info.State),
				}
			}
			return out.Print([]string{"STEP", "REWARD", "TOTAL", "STATE"}, rows, steps)
		},
	}

	cmd.Flags().BoolVar(&withSteps, "steps", false, "Print the per-step log")

	return cmd
}

// episodeCells: строка таблицы эпизода.
func episodeCells(ep *domain.Episode) []string {
	return []string{
		ep.ID.String(),
		ep.Task,
		ep.Policy,
		strconv.FormatInt(ep.Seed, 10),
		string(ep.Outcome),
		string(ep.Failure),
		strconv.Itoa(ep.Steps),
		formatFloat(ep.TotalReward),
		formatTime(ep.FinishedAt),
	}
}
