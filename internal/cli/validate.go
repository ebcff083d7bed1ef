package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/engine"
	"github.com/shaiso/Rendezvous/internal/processors"
	"github.com/shaiso/Rendezvous/internal/sim"
	"github.com/shaiso/Rendezvous/internal/task"
)

// loadSpec читает task-файл с подстановкой --set.
func loadSpec(path string, sets []string) (*domain.TaskSpec, error) {
	if path == "" {
		return nil, fmt.Errorf("task file is required (-f)")
	}
	vars, err := engine.ParseVars(sets)
	if err != nil {
		return nil, err
	}
	return engine.LoadTaskSpec(path, vars)
}

// validation: результат проверки task-файла.
type validation struct {
	Task        string               `json:"task"`
	Scenario    string               `json:"scenario"`
	Mode        string               `json:"mode"`
	ControlDim  int                  `json:"control_dim"`
	Processors  []task.ProcessorInfo `json:"processors"`
	Observation processors.Space     `json:"observation"`
}

// validateSpec строит окружение и пайплайн, не запуская эпизод.
func validateSpec(spec *domain.TaskSpec) (*validation, error) {
	env, err := sim.NewEnvironment(spec.Env)
	if err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	p, err := task.New(task.Config{Spec: spec})
	if err != nil {
		return nil, err
	}
	return &validation{
		Task:        spec.Name,
		Scenario:    env.Scenario,
		Mode:        env.Mode,
		ControlDim:  env.ControlDim(),
		Processors:  p.Describe(),
		Observation: p.Space(),
	}, nil
}

// NewValidateCmd создаёт команду проверки task-файла.
func NewValidateCmd(outputFn func() *Output) *cobra.Command {
	var file string
	var sets []string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a task file and print the evaluation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			spec, err := loadSpec(file, sets)
			if err != nil {
				return err
			}
			v, err := validateSpec(spec)
			if err != nil {
				return err
			}

			headers := []string{"#", "NAME", "STAGE", "TYPE", "READS"}
			rows := make([][]string, len(v.Processors))
			for i, p := range v.Processors {
				rows[i] = []string{strconv.Itoa(i + 1), p.Name, p.Stage, p.Type, strings.Join(p.Reads, ",")}
			}
			if err := out.Print(headers, rows, v); err != nil {
				return err
			}
			out.Note(fmt.Sprintf("Task %s is valid: %s/%s, control %d, observation %d",
				v.Task, v.Scenario, v.Mode, v.ControlDim, v.Observation.Size()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Task file (YAML or JSON)")
	cmd.Flags().StringSliceVar(&sets, "set", nil, "Template values as KEY=VALUE (repeatable)")

	return cmd
}
