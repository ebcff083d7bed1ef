// Rendezvous CLI: проверка task-файлов и локальный прогон эпизодов.
//
// Использование:
//
//	rendezvous [--json] <command> [flags]
//
// Команды:
//
//	validate  Проверка task-файла и порядок вычисления процессоров
//	run       Прогон эпизодов задачи
//	episodes  Просмотр сохранённых эпизодов (DB_URL)
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shaiso/Rendezvous/internal/cli"
	"github.com/shaiso/Rendezvous/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// .env опционален: переменные окружения имеют приоритет
	for _, envFile := range []string{".env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	var jsonOutput bool
	var logger *slog.Logger

	rootCmd := &cobra.Command{
		Use:           "rendezvous",
		Short:         "Rendezvous: task evaluation for rejoin and docking environments",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = telemetry.SetupLogger()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }
	loggerFn := func() *slog.Logger {
		if logger == nil {
			return slog.Default()
		}
		return logger
	}

	rootCmd.AddCommand(
		cli.NewValidateCmd(outputFn),
		cli.NewRunCmd(outputFn, loggerFn),
		cli.NewEpisodesCmd(outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
