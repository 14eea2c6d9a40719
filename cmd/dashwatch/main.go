// dashwatch connects to a dashboard realtime endpoint and streams widget
// updates to the console. It is both the operational sidecar (Prometheus
// metrics, health endpoint) and a debugging tool for the realtime protocol.
//
// Usage: dashwatch --config configs/dashwatch.local.yaml --widgets 1,2,3 --types counter,chart
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/huguesloyatho/proxydash-sub002/internal/config"
	"github.com/huguesloyatho/proxydash-sub002/internal/metrics"
	"github.com/huguesloyatho/proxydash-sub002/internal/protocol"
	"github.com/huguesloyatho/proxydash-sub002/internal/realtime"
	"github.com/huguesloyatho/proxydash-sub002/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dashwatch.local.yaml", "path to config file")
	widgets := flag.String("widgets", "", "comma-separated widget ids to subscribe to")
	types := flag.String("types", "", "comma-separated widget types to subscribe to")
	verbose := flag.Bool("verbose", false, "print full update JSON")
	flag.Parse()

	// Set up structured logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting dashwatch",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	widgetIDs, err := parseWidgetIDs(*widgets)
	if err != nil {
		logger.Error("invalid -widgets flag", "error", err)
		os.Exit(1)
	}
	typeNames := parseTypeNames(*types)

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"realtime_url", cfg.Realtime.URL,
		"widgets", widgetIDs,
		"types", typeNames,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Prometheus registry and realtime client
	registry := prometheus.NewRegistry()
	rtMetrics := metrics.NewRealtime(registry)

	client := realtime.NewClient(realtime.Config{
		URL:                  cfg.Realtime.URL,
		Token:                cfg.Realtime.Token,
		MaxReconnectAttempts: cfg.Realtime.MaxReconnectAttempts,
		ReconnectBaseDelay:   cfg.Realtime.ReconnectBaseDelay,
		ReconnectMaxDelay:    cfg.Realtime.ReconnectMaxDelay,
		HeartbeatInterval:    cfg.Realtime.HeartbeatInterval,
		PongTimeout:          cfg.Realtime.PongTimeout,
		HandshakeTimeout:     cfg.Realtime.HandshakeTimeout,
		WriteTimeout:         cfg.Realtime.WriteTimeout,
	}, logger, realtime.WithMetrics(rtMetrics))
	defer client.Disconnect()

	unsubStatus := client.OnConnectionChange(func(connected bool) {
		logger.Info("connection status changed", "connected", connected)
	})
	defer unsubStatus()

	// Register subscriptions before connecting; they replay on every
	// successful connection, including reconnects.
	for _, id := range widgetIDs {
		id := id
		client.SubscribeWidget(id, func(u protocol.WidgetUpdate) {
			printUpdate(u, *verbose)
		})
		client.SubscribeErrors(id, func(e protocol.WidgetError) {
			fmt.Printf("[ERROR] widget=%d type=%s error=%s\n", e.WidgetID, e.WidgetType, e.Error)
		})
	}
	for _, name := range typeNames {
		client.SubscribeType(name, func(u protocol.WidgetUpdate) {
			printUpdate(u, *verbose)
		})
	}

	// Start metrics/health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: createHealthHandler(client, registry, cfg.Metrics.Path),
	}

	go func() {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Connect. A dial failure is not fatal: the client schedules its own
	// backoff retries, so dashwatch can start before the dashboard does.
	if err := client.Connect(ctx); err != nil {
		logger.Warn("initial connect failed, retrying in background", "error", err)
	}

	logger.Info("dashwatch running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Periodic status line
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				status := client.Status()
				logger.Info("status",
					"connected", status.Connected,
					"widgets", len(status.WidgetIDs),
					"types", len(status.Types),
					"reconnect_attempts", status.ReconnectAttempts,
				)
			}
		}
	}()

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	client.Disconnect()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("dashwatch stopped")
}

func parseWidgetIDs(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("widget id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseTypeNames(s string) []string {
	if s == "" {
		return nil
	}
	var names []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}

func printUpdate(u protocol.WidgetUpdate, verbose bool) {
	if verbose {
		data, _ := json.MarshalIndent(u, "", "  ")
		fmt.Printf("[UPDATE] %s\n", data)
		return
	}
	ts := time.UnixMilli(u.Timestamp).Format(time.RFC3339)
	fmt.Printf("[UPDATE] widget=%d type=%s at=%s payload=%s\n",
		u.WidgetID, u.WidgetType, ts, u.Data)
}

// createHealthHandler creates the HTTP handler for health checks and metrics.
func createHealthHandler(client *realtime.Client, registry *prometheus.Registry, metricsPath string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := client.Status()

		health := struct {
			Status   string          `json:"status"`
			Realtime realtime.Status `json:"realtime"`
		}{
			Status:   "healthy",
			Realtime: status,
		}
		if !status.Connected {
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if !status.Connected {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.Handle(metricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return mux
}
