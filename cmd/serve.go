package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inboxbrief/inboxbrief/internal/instrumentation"
	"github.com/inboxbrief/inboxbrief/internal/llm"
	"github.com/inboxbrief/inboxbrief/internal/logging"
	"github.com/inboxbrief/inboxbrief/internal/server"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

type serveConfig struct {
	debugMode        bool
	httpAddr         string
	account          string
	query            string
	maxItems         int
	fetchConcurrency int
	openaiAPIKey     string
	openaiModel      string
	metrics          MetricsConfig
}

func newServeCmd() *cobra.Command {
	var cfg serveConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the inboxbrief API server",
		Long: `Starts the HTTP SSE API server and, unless disabled, a Prometheus
metrics server on a dedicated port.

Google credentials are read from the token cache written by 'inboxbrief auth'
or from the GOOGLE_OAUTH_TOKEN environment variable. The OpenAI API key is
read from --openai-api-key or the OPENAI_API_KEY environment variable.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&cfg.httpAddr, "http-addr", server.DefaultHTTPAddr, "API server listen address")
	cmd.Flags().StringVar(&cfg.account, "google-account", "", "Google account name used when a request names none")
	cmd.Flags().StringVar(&cfg.query, "query", "", "Gmail search query for digest runs")
	cmd.Flags().IntVar(&cfg.maxItems, "max-items", 0, "Maximum unread messages fetched per digest run")
	cmd.Flags().IntVar(&cfg.fetchConcurrency, "fetch-concurrency", 0, "Maximum concurrent Gmail detail fetches per run")
	cmd.Flags().StringVar(&cfg.openaiAPIKey, "openai-api-key", "", "OpenAI API key. Can also use OPENAI_API_KEY env var.")
	cmd.Flags().StringVar(&cfg.openaiModel, "openai-model", "", "OpenAI model for analysis and drafting. Can also use OPENAI_MODEL env var.")
	cmd.Flags().BoolVar(&cfg.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&cfg.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(cfg serveConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logging.Setup(cfg.debugMode)

	// Load config from environment if not set via flags
	if cfg.openaiAPIKey == "" {
		cfg.openaiAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.openaiModel == "" {
		cfg.openaiModel = os.Getenv("OPENAI_MODEL")
	}
	if cfg.metrics.Enabled {
		if os.Getenv("METRICS_ENABLED") == "false" {
			cfg.metrics.Enabled = false
		}
	}
	if cfg.metrics.Addr == "" || cfg.metrics.Addr == server.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			cfg.metrics.Addr = addr
		}
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error during instrumentation shutdown: %v", err)
		}
	}()

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if cfg.metrics.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.metrics.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Use ready channel to confirm metrics server started successfully
		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		select {
		case <-metricsReady:
			log.Printf("Metrics server started on %s", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(5 * time.Second):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	metrics := provider.Metrics()
	sc := server.NewServerContext(shutdownCtx, metrics)

	analyzer := llm.NewOpenAI(cfg.openaiAPIKey, metrics, func(o *llm.Options) {
		if cfg.openaiModel != "" {
			o.Model = cfg.openaiModel
		}
	})

	api := server.New(sc, analyzer, logger, metrics, server.Config{
		Addr:             cfg.httpAddr,
		Account:          cfg.account,
		FetchConcurrency: cfg.fetchConcurrency,
		MaxItems:         cfg.maxItems,
		Query:            cfg.query,
	})

	apiErr := make(chan error, 1)
	go func() {
		if err := api.Start(); err != nil && err != http.ErrServerClosed {
			apiErr <- err
		}
		close(apiErr)
	}()

	select {
	case err := <-apiErr:
		if err != nil {
			return fmt.Errorf("API server failed: %w", err)
		}
	case <-shutdownCtx.Done():
		log.Printf("Shutdown signal received, stopping servers...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer stopCancel()

	if err := api.Shutdown(stopCtx); err != nil {
		log.Printf("Error during API server shutdown: %v", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(stopCtx); err != nil {
			log.Printf("Error during metrics server shutdown: %v", err)
		}
	}
	if err := sc.Shutdown(); err != nil {
		log.Printf("Error during server context shutdown: %v", err)
	}
	return nil
}
