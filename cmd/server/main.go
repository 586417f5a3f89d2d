package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bellafatia-be/internal/auth"
	"bellafatia-be/internal/checkout"
	"bellafatia-be/internal/config"
	"bellafatia-be/internal/customer"
	"bellafatia-be/internal/db"
	"bellafatia-be/internal/logger"
	"bellafatia-be/internal/metrics"
	"bellafatia-be/internal/middleware"
	"bellafatia-be/internal/notify"
	"bellafatia-be/internal/order"
	"bellafatia-be/internal/payment"
	"bellafatia-be/internal/payment/webhook"
	"bellafatia-be/internal/product"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	sessions := auth.NewManager(cfg.JWTSecret, 24*time.Hour)

	customerRepo := customer.NewRepository(database)
	customerSvc := customer.NewService(customerRepo, sessions)
	customerHandler := customer.NewHandler(customerSvc, sessions)

	productRepo := product.NewRepository(database)
	productHandler := product.NewHandler(productRepo)

	orderRepo := order.NewRepository(database)
	paymentRepo := payment.NewRepository(database)
	gateway := payment.NewMercadoPagoGateway(cfg.MercadoPagoAccessToken, cfg.PixWebhookToken)

	paymentMetrics := &metrics.Payment{}
	reconciler := payment.NewReconciler(orderRepo, paymentRepo, paymentMetrics)

	whatsapp := notify.NewWhatsApp(cfg.WhatsAppNumber)
	checkoutSvc := checkout.NewService(orderRepo, productRepo, gateway, reconciler, whatsapp, cfg.PixExpiration)
	checkoutHandler := checkout.NewHandler(checkoutSvc, paymentRepo)

	webhookHandler := webhook.NewWebhookHandler(reconciler, gateway, paymentMetrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := payment.NewExpirySweeper(orderRepo, reconciler, time.Minute)
	go sweeper.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /menu", productHandler.MenuHandler)
	mux.HandleFunc("POST /auth/register", customerHandler.RegisterHandler)
	mux.HandleFunc("POST /auth/login", customerHandler.LoginHandler)
	mux.HandleFunc("POST /auth/logout", customerHandler.LogoutHandler)
	mux.Handle("GET /profile", middleware.RequireSession(http.HandlerFunc(customerHandler.ProfileHandler)))
	mux.Handle("PUT /profile", middleware.RequireSession(http.HandlerFunc(customerHandler.UpdateProfileHandler)))
	mux.HandleFunc("POST /checkout", checkoutHandler.CheckoutHandler)
	mux.HandleFunc("GET /orders/{id}/status", checkoutHandler.OrderStatusHandler)
	mux.HandleFunc("POST /orders/{id}/retry-payment", checkoutHandler.RetryPaymentHandler)
	mux.HandleFunc("GET /orders/{id}/payment-logs", checkoutHandler.PaymentLogsHandler)
	mux.HandleFunc("POST /webhook/pix", webhookHandler.PixWebhookHandler)

	var handler http.Handler = mux
	handler = middleware.RateLimitMiddleware(handler)
	handler = middleware.SessionMiddleware(sessions)(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: handler,
	}

	go func() {
		log.Printf("server running at http://localhost:%s/", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
