package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/campuspay/fee-engine/internal/config"
	"github.com/campuspay/fee-engine/internal/handler"
	"github.com/campuspay/fee-engine/internal/repository"
	"github.com/campuspay/fee-engine/internal/service"
	"github.com/campuspay/fee-engine/pkg/response"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	feeRepo := repository.NewFeeStructureRepository(db)
	scholarshipRepo := repository.NewScholarshipRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	// Initialize service and handlers
	paymentService := service.NewPaymentService(feeRepo, scholarshipRepo, scheduleRepo, transactionRepo, redisClient, cfg)
	billingHandler := handler.NewBillingHandler(paymentService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	// Setup routes
	router := setupRoutes(billingHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(billingHandler *handler.BillingHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/cohorts/{cohortId}/fee-structure", billingHandler.CreateFeeStructure).Methods("POST")
	api.HandleFunc("/students/{studentId}/scholarship", billingHandler.UpsertScholarship).Methods("PUT")
	api.HandleFunc("/students/{studentId}/installments/{installmentNumber}/transactions", billingHandler.ListInstallmentTransactions).Methods("GET")
	api.HandleFunc("/students/{studentId}/schedule", billingHandler.GenerateSchedule).Methods("POST")
	api.HandleFunc("/students/{studentId}/schedule", billingHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/students/{studentId}/status", billingHandler.GetAggregateStatus).Methods("GET")
	api.HandleFunc("/students/{studentId}/payments", billingHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/transactions/{transactionId}/review", billingHandler.ReviewTransaction).Methods("POST")
	api.HandleFunc("/discounts/preview", billingHandler.PreviewDiscount).Methods("POST")

	return router
}
