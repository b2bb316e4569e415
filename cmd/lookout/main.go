package main

import (
	"fmt"
	"time"

	"lookout/internal/api"
	"lookout/internal/articles"
	"lookout/internal/briefing"
	lookoutconfig "lookout/internal/config"
	"lookout/internal/notify"
	"lookout/internal/profiles"
	pkgconfig "lookout/pkg/config"
	"lookout/pkg/llm"
	"lookout/pkg/logging"
	"lookout/pkg/monitoring"
	"lookout/pkg/server"
	"lookout/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("lookout")

	// Load environment variables
	pkgconfig.LoadEnv(logger)

	logger.Info("Starting Lookout (AI News Briefing API)")

	cfg := lookoutconfig.Load()

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("lookout", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("lookout", version.Version, version.GitCommit)

	// Add health checks
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"ARTICLE_SERVICE_URL": cfg.ArticleServiceURL,
		"LLM_PROVIDER":        cfg.LLM.Provider,
	}))

	sourceClient := articles.NewSourceClient(cfg.ArticleServiceURL, logger)
	healthChecker.AddCheck("article_source", monitoring.HTTPServiceHealthCheck("article source", sourceClient.HealthURL()))
	healthChecker.AddCheck("article_source_breaker", func() monitoring.CheckResult {
		breaker := sourceClient.Breaker()
		if breaker.IsOpen() {
			return monitoring.CheckResult{
				Status:  monitoring.StatusDegraded,
				Message: fmt.Sprintf("circuit breaker %s is open", breaker.Name()),
			}
		}
		return monitoring.CheckResult{
			Status:  monitoring.StatusHealthy,
			Message: fmt.Sprintf("circuit breaker %s is %s", breaker.Name(), breaker.State()),
		}
	})

	llmProvider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize LLM provider")
		llmProvider = nil
	}

	fetcher := articles.NewFetcher(sourceClient, logger)
	processor := briefing.NewProcessor(llmProvider, briefing.ProcessorConfig{
		MaxConcurrency: cfg.MaxSourceConcurrency,
		CallTimeout:    cfg.LLMTimeout,
		MaxDeepDives:   cfg.MaxDeepDives,
	}, logger)

	store := profiles.NewStore(cfg.ProfilesPath, logger)
	composer := notify.NewComposer()
	sender := notify.NewEmailNotifier(cfg.SMTP, logger)
	if !sender.IsConfigured() {
		logger.Warn("SMTP not configured - briefings will be generated but not emailed")
	}

	generator := briefing.NewGenerator(fetcher, processor, store, composer, sender, briefing.GeneratorConfig{
		FetchWindowHours: cfg.FetchWindowHours,
		SendEmail:        cfg.SendEmail,
		RunsTotal:        metricsCollector.NewCounter("briefing_runs_total", "Completed briefing runs by outcome", []string{"outcome"}),
		UserOutcomes:     metricsCollector.NewCounter("briefing_users_total", "Per-user pipeline results by status", []string{"status"}),
	}, logger)

	// Last-run metadata on the health endpoint
	healthChecker.AddCheck("last_run", func() monitoring.CheckResult {
		info := generator.LastRun()
		if info == nil {
			return monitoring.CheckResult{
				Status:  monitoring.StatusHealthy,
				Message: "no runs yet",
			}
		}
		return monitoring.CheckResult{
			Status: monitoring.StatusHealthy,
			Message: fmt.Sprintf("finished %s: %d ok, %d failed",
				info.FinishedAt.Format(time.RFC3339), info.Successful, info.Failed),
		}
	})

	// Setup router with common middleware
	router := server.SetupServiceRouter(logger, "lookout", healthChecker, metricsCollector)

	handlers := api.NewHandlers(generator, store, logger)
	handlers.RegisterRoutes(router)

	// Start server with graceful shutdown. The default write timeout is far
	// too short for /generate, which streams no bytes until the whole run is
	// done.
	serverConfig := server.DefaultConfig("lookout", cfg.Port)
	serverConfig.WriteTimeout = cfg.ServerWriteTimeout
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}
