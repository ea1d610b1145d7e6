package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"pharmacy/m/internal/api"
	"pharmacy/m/internal/config"
	"pharmacy/m/internal/customers"
	"pharmacy/m/internal/database"
	"pharmacy/m/internal/employees"
	"pharmacy/m/internal/inventory"
	"pharmacy/m/internal/locks"
	"pharmacy/m/internal/migrations"
	"pharmacy/m/internal/orders"
	"pharmacy/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		logger.WithError(err).Fatal("unable to migrate database")
	}

	ledger := inventory.NewLedger(db, logger)
	staff := employees.NewService(db)

	if cfg.SeedSampleData {
		if err := seed.SampleData(ctx, db, ledger, staff, logger); err != nil {
			logger.WithError(err).Error("unable to seed sample data")
		}
	}
	if cfg.SeedCatalogPath != "" {
		if _, err := seed.LoadCatalog(ctx, ledger, cfg.SeedCatalogPath, logger); err != nil {
			logger.WithError(err).Error("unable to seed medicine catalog")
		}
	}

	var locker locks.Locker = locks.NewLocal()
	if cfg.RedisAddress != "" {
		client, err := locks.Connect(ctx, cfg.RedisAddress, cfg.RedisPassword)
		if err != nil {
			logger.WithError(err).Fatal("redis unavailable")
		}
		defer client.Close()
		locker = locks.NewRedis(client, logger.WithField("module", "locks"))
		logger.WithField("address", cfg.RedisAddress).Info("using redis customer locks")
	}

	resolver := customers.NewResolver(db, cfg.UpdateCustomerOnMatch)
	handler := api.New(api.Services{
		Ledger:      ledger,
		Coordinator: orders.NewCoordinator(db, ledger, resolver, locker, logger),
		Bills:       orders.NewBills(db),
		Customers:   resolver,
		Employees:   staff,
	}, logger, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: handler.Router(),
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":   cfg.HTTPPort,
			"driver": cfg.DatabaseDriver,
		}).Info("pharmacy server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
