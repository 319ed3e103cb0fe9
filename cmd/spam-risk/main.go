package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/spam-risk-scorer/internal/config"
	"github.com/mikey/spam-risk-scorer/internal/core"
	"github.com/mikey/spam-risk-scorer/internal/di"
	"github.com/mikey/spam-risk-scorer/internal/ports"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &di.CLIFlags{}

	root := &cobra.Command{
		Use:   "spam-risk",
		Short: "Score emails for spam and phishing risk",
		Long: `spam-risk combines technical metrics, NLP metrics and the behavior of the
sender over time into one risk score, risk level and recommendations.

Every analyzed email is recorded in the sender history used by later analyses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.ConfigFile, "config", "", "Path to config file (searches default locations if empty)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	pf.StringVar(&flags.HistoryBackend, "history-backend", "", "Override history.backend (file, memory, sqlite, mysql, redis)")
	pf.StringVar(&flags.HistoryPath, "history-path", "", "Override the location of the selected history backend")

	root.AddCommand(
		newAnalyzeCmd(flags),
		newPruneCmd(flags),
		newHistoryCmd(flags),
		newValidateCmd(flags),
	)
	return root
}

// app is what a command needs from the container
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	analyzer ports.EmailAnalyzer
	history  ports.HistoryMaintainer
	registry *prometheus.Registry
}

// withApp builds the container, runs fn and releases the history store
func withApp(flags *di.CLIFlags, fn func(a *app) error) error {
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}

	return container.Invoke(func(
		cfg *config.Config,
		logger *zap.Logger,
		service *core.SpamFilterService,
		store core.HistoryStore,
		registry *prometheus.Registry,
	) error {
		defer logger.Sync()
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close history store", zap.Error(err))
			}
		}()
		return fn(&app{cfg: cfg, logger: logger, analyzer: service, history: service, registry: registry})
	})
}
