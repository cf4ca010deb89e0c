package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/isoward/isoward/internal/config"
	v1 "github.com/isoward/isoward/internal/handler/v1"
	"github.com/isoward/isoward/internal/realtime"
	"github.com/isoward/isoward/internal/repository"
	"github.com/isoward/isoward/internal/service"
	"github.com/isoward/isoward/pkg/database"
	"github.com/isoward/isoward/pkg/keylock"
	applogger "github.com/isoward/isoward/pkg/logger"
	"github.com/isoward/isoward/pkg/metrics"
	"github.com/isoward/isoward/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if cfg.Tracing.Enabled {
		tp, err := tracer.Init(cfg.Tracing)
		if err != nil {
			logger.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}
	if cfg.Database.SeedDemoWard {
		if err := database.SeedDemoWard(db, logger); err != nil {
			logger.Fatal("demo ward seeding failed", zap.Error(err))
		}
	}

	collector := metrics.NewCollector("isoward")
	go reportDBStats(db, collector)

	repos := repository.New(db)

	activitySvc := service.NewActivityService(repos.Activity, cfg.Allocation.ActivityBufferSize, logger.Named("activity"))
	activitySvc.SetRecordedHook(collector.ActivityEntriesTotal.Inc)
	activitySvc.SetDroppedHook(collector.ActivityBufferDropped.Inc)

	hub := realtime.NewHub(cfg.Realtime.SendBufferSize, logger.Named("realtime"))
	hub.SetConnectedHook(func(delta int) {
		collector.WebsocketClients.Add(float64(delta))
	})

	riskEval := service.NewRiskEvaluator(repos.Bed, repos.Patient)
	allocSvc := service.NewAllocationService(
		repos.Bed, repos.Patient, repos.Booking, repos.Ward,
		riskEval, activitySvc, hub,
		keylock.New(), cfg.Allocation.BedLockTimeout,
		collector, logger.Named("allocation"),
	)
	wardSvc := service.NewWardService(repos.Ward, repos.Bed, repos.Patient, riskEval, activitySvc, logger.Named("ward"))
	simSvc := service.NewSimulationService(allocSvc, repos.Patient, rand.New(rand.NewSource(time.Now().UnixNano())), logger.Named("simulation"))

	handlers := &v1.Handlers{
		Ward:       v1.NewWardHandler(wardSvc, allocSvc),
		Bed:        v1.NewBedHandler(allocSvc, wardSvc),
		Patient:    v1.NewPatientHandler(wardSvc, allocSvc),
		Activity:   v1.NewActivityHandler(activitySvc, repos.Booking),
		Simulation: v1.NewSimulationHandler(simSvc),
		Realtime:   realtime.NewHandler(hub, cfg.Realtime, logger.Named("realtime")),
	}

	engine := v1.SetupRouter(cfg, handlers, collector, logger.Named("http"))

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	// Drain the activity buffer before the process exits.
	activitySvc.Shutdown()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("stopped")
}

func reportDBStats(db *gorm.DB, collector *metrics.Collector) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	for range time.Tick(15 * time.Second) {
		collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
	}
}
