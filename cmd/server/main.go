package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/husk/internal/config"
	"github.com/mamadbah2/husk/internal/repository/mongodb"
	"github.com/mamadbah2/husk/internal/repository/recordstore"
	"github.com/mamadbah2/husk/internal/repository/sheets"
	"github.com/mamadbah2/husk/internal/scheduler"
	"github.com/mamadbah2/husk/internal/server/handlers"
	"github.com/mamadbah2/husk/internal/server/router"
	reportingsvc "github.com/mamadbah2/husk/internal/service/reporting"
	whatsappclient "github.com/mamadbah2/husk/pkg/clients/whatsapp"
	"github.com/mamadbah2/husk/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store := recordstore.New(baseLogger.Named("repo.recordstore"))
	db, err := recordstore.Open(cfg.Database)
	if err != nil {
		baseLogger.Fatal("failed to open record database", zap.Error(err))
	}
	if err := store.Init(context.Background(), db); err != nil {
		baseLogger.Fatal("failed to init record store", zap.Error(err))
	}
	if err := store.Ping(context.Background()); err != nil {
		baseLogger.Fatal("record database unreachable", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			baseLogger.Error("failed to close record database", zap.Error(err))
		}
	}()

	var sinks scheduler.Sinks

	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		sinks.Archive = mongoRepo
		baseLogger.Info("digest archive enabled", zap.String("db", cfg.MongoDB.DBName))
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sinks.Sheet = sheetsRepo
		baseLogger.Info("digest sheet export enabled")
	}

	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		sinks.Notifier = whatsappclient.NewNotifier(whatsClient, cfg.WhatsApp.DigestRecipient)
		baseLogger.Info("whatsapp digest notifications enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, digest notifications disabled")
	}

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid reporting timezone", zap.Error(err))
	}
	reportingSvc := reportingsvc.NewService(store, reportingsvc.NewEngine(loc), baseLogger.Named("svc.reporting"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, sinks, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	recordHandler := handlers.NewRecordHandler(store, baseLogger.Named("handlers.records"))
	engine := router.New(recordHandler, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("db_driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
