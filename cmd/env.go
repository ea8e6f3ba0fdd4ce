package main

import (
	"context"
	"os"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/config"
	"github.com/sells-group/insights-cli/internal/crm"
	"github.com/sells-group/insights-cli/internal/ingest"
	"github.com/sells-group/insights-cli/internal/insights"
	"github.com/sells-group/insights-cli/internal/monitoring"
	"github.com/sells-group/insights-cli/internal/store"
	"github.com/sells-group/insights-cli/pkg/anthropic"
	"github.com/sells-group/insights-cli/pkg/hubspot"
	"github.com/sells-group/insights-cli/pkg/notion"
	sfpkg "github.com/sells-group/insights-cli/pkg/salesforce"
)

// appEnv bundles the wired components a command needs.
type appEnv struct {
	Store     store.Store
	Analyzer  *insights.Analyzer
	Service   *ingest.Service
	Importer  *ingest.Importer
	Reporter  *insights.Reporter
	Registry  *crm.Registry
	Router    *crm.Router
	Collector *monitoring.Collector
	Alerter   *monitoring.Alerter
}

func (e *appEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "insights.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEvaluator returns nil when no API key is configured, which puts
// the analyzer in rating-fallback mode.
func initEvaluator() anthropic.Client {
	if cfg.Anthropic.Key == "" {
		return nil
	}
	return anthropic.NewClient(cfg.Anthropic.Key)
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (INSIGHTS_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf), nil
}

// settingsSource re-reads the runtime settings table on every call so
// changes made through `settings set` or PUT /config apply immediately.
func settingsSource(st store.Store) func(ctx context.Context) (config.Settings, error) {
	return func(ctx context.Context) (config.Settings, error) {
		raw, err := st.AllSettings(ctx)
		if err != nil {
			return config.Settings{}, err
		}
		return config.ParseSettings(raw), nil
	}
}

// initEnv wires the full pipeline. Providers that are not configured
// are simply not registered; dispatch reports a configuration error if
// the crm_provider setting points at one of them.
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}

	analyzer := insights.NewAnalyzer(st, initEvaluator(), insights.AnalyzerConfig{
		Model:        cfg.Anthropic.Model,
		MaxTokens:    int64(cfg.Anthropic.MaxTokens),
		Timeout:      time.Duration(cfg.Anthropic.TimeoutSecs) * time.Second,
		HistoryLimit: cfg.Insights.HistoryLimit,
	})

	service := ingest.NewService(st, analyzer)
	importer := ingest.NewImporter(service, time.Duration(cfg.Import.FTPTimeoutSecs)*time.Second)

	var reporterOpts []insights.ReporterOption
	if cfg.Notion.Token != "" && cfg.Notion.ReportDB != "" {
		reporterOpts = append(reporterOpts,
			insights.WithNotionSink(notion.NewClient(cfg.Notion.Token), cfg.Notion.ReportDB))
	}
	reporter := insights.NewReporter(st, reporterOpts...)

	registry := crm.NewRegistry()
	if cfg.Salesforce.ClientID != "" {
		sf, err := initSalesforce()
		if err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		registry.Register(crm.NewSalesforceProvider(sf))
	}
	if cfg.Hubspot.Token != "" {
		hs := hubspot.NewClient(cfg.Hubspot.Token, hubspot.WithBaseURL(cfg.Hubspot.BaseURL))
		registry.Register(crm.NewHubspotProvider(hs))
	}
	router := crm.NewRouter(registry, crm.SettingsSource(settingsSource(st)))

	return &appEnv{
		Store:     st,
		Analyzer:  analyzer,
		Service:   service,
		Importer:  importer,
		Reporter:  reporter,
		Registry:  registry,
		Router:    router,
		Collector: monitoring.NewCollector(st),
		Alerter:   monitoring.NewAlerter(cfg.Monitoring.WebhookURL),
	}, nil
}
