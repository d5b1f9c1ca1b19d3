package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homeledger/internal/config"
	"homeledger/internal/db"
	"homeledger/internal/events"
	"homeledger/internal/handlers"
	"homeledger/internal/limits"
	"homeledger/internal/logging"
	"homeledger/internal/processor"
	"homeledger/internal/rates"
	"homeledger/internal/services"
	"homeledger/internal/store"
	"homeledger/internal/websocket"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect database")
	}
	defer database.Close()

	users := store.NewUserStore(database)
	accounts := store.NewAccountStore(database)
	transactions := store.NewTransactionStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka event publishing enabled")
	}

	proc := processor.New(limits.DefaultSelector(), transactions)
	ledgerService := services.NewLedgerService(txRunner, accounts, transactions, proc, audit, hub, publisher, logger, cfg.OperationTimeout)
	accountService := services.NewAccountService(txRunner, accounts, audit, logger, cfg.OperationTimeout)

	rateSource := rates.NewClient(nil, cfg.RateTableURL, cfg.CurrencyDirURL)
	converter := rates.NewConverter(rateSource, cfg.ReportingCurrency, logger, nil)
	balanceService := services.NewBalanceService(accounts, converter, logger, cfg.OperationTimeout)
	reportService := services.NewReportService(transactions, converter, logger, cfg.OperationTimeout)

	handler := handlers.New(txRunner, cfg, users, audit, accountService, ledgerService, balanceService, reportService, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("addr", server.Addr).Info("ledger API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server error")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("shutdown error")
	}
}
