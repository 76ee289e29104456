package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/trustgate/internal/decision"
	"github.com/sells-group/trustgate/internal/model"
	"github.com/sells-group/trustgate/internal/monitoring"
	"github.com/sells-group/trustgate/internal/prompt"
	"github.com/sells-group/trustgate/internal/resilience"
	"github.com/sells-group/trustgate/internal/source"
	"github.com/sells-group/trustgate/internal/webhook"
	"github.com/sells-group/trustgate/pkg/notion"
)

// appEnv holds the initialized adapters, engine, and webhook processor
// shared by the serve/query/ask/status commands.
type appEnv struct {
	Adapters    []source.Adapter
	Engine      *decision.Engine
	Store       *decision.Store
	Metrics     *decision.Metrics
	Events      *webhook.Metrics
	DeadLetters *webhook.DeadLetters
	Processor   *webhook.Processor
	Collector   *monitoring.Collector
	Checker     *monitoring.Checker
}

// Close releases resources held by the source adapters.
func (env *appEnv) Close() {
	for _, a := range env.Adapters {
		_ = a.Close()
	}
}

// initApp validates config for the given command mode, connects the data
// sources, and wires the decision and webhook components. Callers should
// defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	var mapping *source.Mapping
	if cfg.Sources.MappingPath != "" {
		m, err := source.LoadMapping(cfg.Sources.MappingPath)
		if err != nil {
			zap.L().Debug("container mapping not loaded, using container names as-is",
				zap.String("path", cfg.Sources.MappingPath),
				zap.Error(err),
			)
		} else {
			mapping = m
		}
	}

	// Supabase position: Postgres when a URL is configured, the local
	// sqlite store otherwise.
	var primary source.Adapter
	if cfg.Supabase.DatabaseURL != "" {
		supa, err := source.NewSupabase(ctx, cfg.Supabase.DatabaseURL, source.PoolOptions{
			MaxConns: int32(cfg.Supabase.MaxConns),
			MinConns: int32(cfg.Supabase.MinConns),
			Timeout:  time.Duration(cfg.Supabase.QueryTimeoutSecs) * time.Second,
		}, mapping)
		if err != nil {
			return nil, err
		}
		primary = supa
	} else {
		zap.L().Warn("supabase database url not configured, using local store",
			zap.String("path", cfg.Sources.LocalPath),
		)
		local, err := source.NewLocal(cfg.Sources.LocalPath)
		if err != nil {
			return nil, err
		}
		primary = local
	}

	notionClient := notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))
	secondary := source.NewNotion(notionClient, mapping)

	adapters := []source.Adapter{primary, secondary}

	store := decision.NewStore()
	metrics := decision.NewMetrics()
	engine := decision.NewEngine(adapters, prompt.NewBuilder(), store, metrics, cfg.Decision.Threshold)

	events := webhook.NewMetrics()
	deadLetters := webhook.NewDeadLetters(cfg.Webhook.DeadLetterLimit)
	processor := webhook.NewProcessor(
		map[model.SourceKind]webhook.EventHandler{
			model.SourceSupabase: webhook.NewHandler(primary, store),
			model.SourceNotion:   webhook.NewHandler(secondary, store),
		},
		events,
		deadLetters,
		resilience.Policy{
			MaxAttempts: cfg.Webhook.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Webhook.BaseDelaySecs) * time.Second,
		},
	)

	collector := monitoring.NewCollector(metrics, store, events, deadLetters, engine.Breakers())
	checker := monitoring.NewChecker(adapters, time.Duration(cfg.Monitoring.ProbeTimeoutSecs)*time.Second)

	zap.L().Info("sources connected",
		zap.String("primary", string(primary.Kind())),
		zap.Bool("local_fallback", cfg.Supabase.DatabaseURL == ""),
		zap.Float64("threshold", cfg.Decision.Threshold),
	)

	return &appEnv{
		Adapters:    adapters,
		Engine:      engine,
		Store:       store,
		Metrics:     metrics,
		Events:      events,
		DeadLetters: deadLetters,
		Processor:   processor,
		Collector:   collector,
		Checker:     checker,
	}, nil
}
