package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"planvest/internal/assistant"
	"planvest/internal/config"
	"planvest/internal/currency"
	"planvest/internal/db"
	"planvest/internal/handlers"
	"planvest/internal/rates"
	"planvest/internal/services"
	"planvest/internal/store"
	"planvest/internal/uploads"
	"planvest/internal/websocket"

	"github.com/robfig/cron/v3"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	plans := store.NewPlanStore(database)
	planStats := store.NewPlanStatsStore(database)
	investments := store.NewInvestmentStore(database)
	withdrawals := store.NewWithdrawalStore(database)
	rateStore := store.NewRateStore(database)
	settings := store.NewSettingsStore(database)
	announcements := store.NewAnnouncementStore(database)
	assistantStore := store.NewAssistantStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)

	converter := currency.NewConverter(rateStore)
	refresher := rates.NewRefresher(cfg.RatesSourceURL, rateStore)
	responder := assistant.NewResponder(cfg.CompletionURL, cfg.CompletionAPIKey, cfg.CompletionModel)
	uploadStorage, err := uploads.NewStorage(cfg.UploadDir, cfg.MaxImageBytes, cfg.MaxVideoBytes)
	if err != nil {
		log.Fatalf("failed to prepare upload storage: %v", err)
	}
	hub := websocket.NewHub()

	investSvc := services.NewInvestmentService(txRunner, users, plans, investments, planStats, settings, audit, converter, uploadStorage, hub)
	withdrawSvc := services.NewWithdrawalService(txRunner, users, withdrawals, settings, audit, hub)
	planSvc := services.NewPlanService(txRunner, plans, investments, planStats, audit)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RatesRefreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := refresher.Refresh(ctx); err != nil {
			log.Printf("rates refresh failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("invalid rates refresh schedule %q: %v", cfg.RatesRefreshSpec, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := refresher.Refresh(ctx); err != nil {
			log.Printf("initial rates refresh failed: %v", err)
		}
	}()

	handler := handlers.New(handlers.Deps{
		TxRunner:      txRunner,
		Config:        cfg,
		Users:         users,
		Admin:         users,
		Plans:         plans,
		PlanStats:     planStats,
		Investments:   investments,
		Withdrawals:   withdrawals,
		Rates:         rateStore,
		Settings:      settings,
		Announcements: announcements,
		Assistant:     assistantStore,
		Audit:         audit,
		Converter:     converter,
		Refresher:     refresher,
		Responder:     responder,
		UploadStorage: uploadStorage,
		InvestSvc:     investSvc,
		WithdrawSvc:   withdrawSvc,
		PlanSvc:       planSvc,
		Hub:           hub,
	})
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("planvest API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
