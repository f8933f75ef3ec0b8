package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flashstore-be/internal/config"
	"flashstore-be/internal/coupon"
	"flashstore-be/internal/db"
	"flashstore-be/internal/events"
	"flashstore-be/internal/httpapi"
	"flashstore-be/internal/logger"
	"flashstore-be/internal/loyalty"
	"flashstore-be/internal/mailer"
	"flashstore-be/internal/middleware"
	"flashstore-be/internal/notification"
	"flashstore-be/internal/order"
	"flashstore-be/internal/payment"
	"flashstore-be/internal/payment/webhook"
	"flashstore-be/internal/pricing"
	"flashstore-be/internal/product"
	"flashstore-be/internal/stock"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database, err := db.NewDatabase(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	productRepo := product.NewRepository(database)
	stockRepo := stock.NewRepository(database)
	couponRepo := coupon.NewRepository(database)
	orderRepo := order.NewRepository(database)
	notificationRepo := notification.NewRepository(database)
	loyaltyRepo := loyalty.NewRepository(database)
	webhookRepo := payment.NewRepository(database)

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	defer publisher.Close()

	dispatcher := mailer.NewDispatcher(mailer.NewSMTPSender(cfg))
	defer dispatcher.Close()

	couponSvc := coupon.NewService(couponRepo)
	verifier := pricing.NewVerifier(productRepo, couponSvc)
	guard := stock.NewGuard(stockRepo, productRepo)

	orderSvc := order.NewService(orderRepo, verifier, guard, couponSvc, notificationRepo, dispatcher, publisher)

	gateway := payment.NewRazorpayGateway(cfg)
	processor := payment.NewProcessor(orderRepo, loyaltyRepo, notificationRepo, dispatcher, publisher)
	webhookHandler := webhook.NewHandler(gateway, processor, webhookRepo)

	api := httpapi.NewHandler(orderSvc, couponSvc, gateway, processor, webhookHandler)

	router := chi.NewRouter()
	router.Use(logger.RequestIDMiddleware)
	router.Use(logger.LoggingMiddleware)
	router.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	router.Use(middleware.RateLimitMiddleware)
	api.Register(router)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("checkout server listening", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
