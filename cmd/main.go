package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bazarghor/payments-gobackend/internal/config"
	"github.com/bazarghor/payments-gobackend/internal/handlers"
	"github.com/bazarghor/payments-gobackend/internal/services"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load .env
	if err := godotenv.Load(".env"); err != nil {
		logger.Warn("no .env file loaded", zap.Error(err))
	}

	cfg := config.Load()
	if err := cfg.ValidateInitiation(); err != nil {
		logger.Fatal("configuration incomplete", zap.Error(err))
	}

	// Initialize services and handlers
	gateway := services.NewSSLCommerzService(cfg, logger)
	initiation := services.NewInitiationService(cfg, gateway, logger)
	orders := services.NewOrderService(cfg, logger)
	analytics := services.NewAnalyticsService(cfg, logger)
	reconciler := services.NewReconcilerService(cfg, orders, analytics, logger)

	paymentHandler := handlers.NewPaymentHandler(initiation, logger)
	callbackHandler := handlers.NewCallbackHandler(cfg, reconciler, logger)

	// Set up router
	router := mux.NewRouter()
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "HEAD")

	router.HandleFunc("/api/payment/initiate", paymentHandler.InitiatePayment).Methods("POST")
	router.HandleFunc("/api/payment/success", callbackHandler.Success).Methods("POST")
	router.HandleFunc("/api/payment/fail", callbackHandler.Fail).Methods("POST")
	router.HandleFunc("/api/payment/cancel", callbackHandler.Cancel).Methods("POST")
	router.HandleFunc("/api/payment/ipn", callbackHandler.IPN).Methods("POST")

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Info("server running", zap.String("port", port))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
