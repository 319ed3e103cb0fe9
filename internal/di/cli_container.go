package di

import (
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-risk-scorer/internal/config"
	"github.com/mikey/spam-risk-scorer/internal/logging"
)

// CLIFlags contains the persistent command line flags
type CLIFlags struct {
	ConfigFile     string
	Verbose        bool
	JSONLog        bool
	HistoryBackend string
	HistoryPath    string
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(LoadConfig); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags, cfg *config.Config) (*zap.Logger, error) {
		if flags.Verbose || flags.JSONLog {
			return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
		}
		return logging.InitLogger(cfg)
	}); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}
	return container, nil
}

// LoadConfig reads the configuration, applies flag overrides and validates the result
func LoadConfig(flags *CLIFlags) (*config.Config, error) {
	cfg, err := config.New(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, flags *CLIFlags) {
	if flags.HistoryBackend != "" {
		cfg.Set("history.backend", flags.HistoryBackend)
	}
	if flags.HistoryPath == "" {
		return
	}
	switch cfg.GetString("history.backend") {
	case "sqlite":
		cfg.Set("history.sqlite_path", flags.HistoryPath)
	case "mysql":
		cfg.Set("history.mysql_dsn", flags.HistoryPath)
	case "redis":
		cfg.Set("history.redis_url", flags.HistoryPath)
	default:
		cfg.Set("history.path", flags.HistoryPath)
	}
}
