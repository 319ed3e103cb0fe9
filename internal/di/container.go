package di

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-risk-scorer/internal/config"
	"github.com/mikey/spam-risk-scorer/internal/core"
	"github.com/mikey/spam-risk-scorer/internal/factory"
	"github.com/mikey/spam-risk-scorer/internal/metrics"
	"github.com/mikey/spam-risk-scorer/internal/utils"
	"github.com/mikey/spam-risk-scorer/internal/whitelist"
)

// provideCore registers everything below the configuration and the logger
func provideCore(container *dig.Container) error {
	// Register metrics
	if err := container.Provide(prometheus.NewRegistry); err != nil {
		return err
	}
	if err := container.Provide(func(reg *prometheus.Registry) (*metrics.Metrics, error) {
		return metrics.New(reg)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(m *metrics.Metrics) core.MetricsRecorder {
		return m
	}); err != nil {
		return err
	}

	// Register history store
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.HistoryFactory) (core.HistoryStore, error) {
		return f.CreateHistoryStore(context.Background())
	}); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register behavior timezone
	if err := container.Provide(func(cfg *config.Config) (*time.Location, error) {
		return cfg.GetLocation()
	}); err != nil {
		return err
	}

	// Register scorers
	if err := container.Provide(core.NewBehavioralAnalyzer); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config) *core.TechnicalScorer {
		return core.NewTechnicalScorer(cfg.GetTechnicalRules())
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config) *core.NLPScorer {
		return core.NewNLPScorer(cfg.GetNLPRules())
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config) *core.DecisionFusion {
		return core.NewDecisionFusion(cfg.GetFusion())
	}); err != nil {
		return err
	}

	// Register trusted domains
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		return whitelist.NewChecker(cfg.GetTrustedDomains(), logger)
	}); err != nil {
		return err
	}

	// Register spam filter service
	return container.Provide(core.NewSpamFilterService)
}
