package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/config"
)

// SettingsSource yields the current runtime settings at check time.
type SettingsSource func(ctx context.Context) (config.Settings, error)

// Checker runs periodic sentiment health checks in the background.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	settings  SettingsSource
	cfg       config.MonitoringConfig
}

// NewChecker creates a background health checker. Settings are re-read
// each cycle so threshold changes apply without restarts.
func NewChecker(collector *Collector, alerter *Alerter, settings SettingsSource, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		settings:  settings,
		cfg:       cfg,
	}
}

// Run starts the periodic check loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting sentiment health checker",
		zap.Duration("interval", interval),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("sentiment health checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) {
	snap, err := c.collector.Collect(ctx, c.cfg.LookbackWindowHours)
	if err != nil {
		log.Error("monitoring: failed to collect metrics", zap.Error(err))
		return
	}

	settings, err := c.settings(ctx)
	if err != nil {
		log.Warn("monitoring: settings read failed, using defaults", zap.Error(err))
		settings = config.DefaultSettings()
	}

	alerts := c.alerter.Evaluate(snap, settings)
	if len(alerts) == 0 {
		log.Debug("monitoring: no alerts triggered")
		return
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	log.Info("monitoring: health check complete",
		zap.Int("alerts_triggered", len(alerts)),
		zap.Int("alerts_sent", sent),
	)
}
