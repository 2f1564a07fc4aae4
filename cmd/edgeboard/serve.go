package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/edgeboard/internal/api"
	"github.com/yourusername/edgeboard/internal/edge"
	"github.com/yourusername/edgeboard/internal/health"
	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, refresh scheduler and refresh stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	appLog := logger.WithField("component", "main")
	appLog.WithFields(logrus.Fields{
		"version":     Version,
		"commit":      GitCommit,
		"environment": cfg.App.Environment,
		"source":      cfg.Source.Kind,
	}).Info("Starting edgeboard")

	a, err := buildApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	go a.hub.Run(ctx)

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Port:        cfg.Health.Port,
		Logger:      logger,
		Checks:      a.healthChecks(),
		Snapshots:   a.cache,
		Sports:      a.sports,
		Stats: map[string]health.StatsSource{
			"index_cache": a.cache,
			"stream":      a.hub,
		},
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		go serveMetrics(ctx)
	}

	sched := scheduler.NewScheduler(a.indexes, cfg.Location(), logger)
	if err := sched.ScheduleIndexRefresh(cfg.Refresh.Schedule, a.sports); err != nil {
		return err
	}
	if cfg.Refresh.OnStartup {
		if err := sched.RunOnce(ctx, a.sports); err != nil {
			appLog.WithError(err).Warn("Initial index refresh incomplete; boards degrade until the next run")
		}
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	defaultSort, err := edge.ParseSortMode(cfg.API.DefaultSort)
	if err != nil {
		return err
	}
	server, err := api.NewServer(a.boards, a.indexes, a.consensus, a.hub, api.Options{
		Port:         cfg.API.Port,
		CORSOrigins:  cfg.API.CORSOrigins,
		DefaultSort:  defaultSort,
		Location:     cfg.Location(),
		ReadTimeout:  time.Duration(cfg.API.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.API.WriteTimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		return err
	}

	healthServer.SetReady(true)
	appLog.WithField("sports", sportNames(a.sports)).Info("edgeboard ready")

	err = server.Start(ctx)
	healthServer.SetReady(false)
	appLog.Info("edgeboard stopped")
	return err
}

func serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.WithField("port", cfg.Metrics.Port).Info("Metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("Metrics server error")
	}
}
