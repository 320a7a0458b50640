package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/campuspay/fee-engine/internal/config"
	"github.com/campuspay/fee-engine/internal/repository"
	"github.com/campuspay/fee-engine/internal/service"
)

func main() {
	log.Println("Starting fee-engine scheduler...")

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	paymentService := service.NewPaymentService(
		repository.NewFeeStructureRepository(db),
		repository.NewScholarshipRepository(db),
		repository.NewScheduleRepository(db),
		repository.NewTransactionRepository(db),
		redisClient,
		cfg,
	)

	// Initialize cron scheduler
	c := cron.New(cron.WithSeconds())

	setupCronJobs(c, cfg, paymentService)

	c.Start()
	log.Println("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	ctx := c.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, paymentService *service.PaymentService) {
	// Daily sweep: re-derive installment statuses and persist refreshed
	// snapshots so overdue transitions land without waiting for a read.
	_, err := c.AddFunc(cfg.Scheduler.StatusSweepSpec, func() {
		log.Println("Running snapshot status sweep...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := paymentService.RefreshSnapshots(ctx); err != nil {
			log.Printf("Snapshot status sweep failed: %v", err)
			return
		}
		log.Println("Snapshot status sweep completed")
	})
	if err != nil {
		log.Printf("Error scheduling snapshot status sweep: %v", err)
	}

	// Reminder job: surface upcoming dues. Delivery is the notification
	// collaborator's job; this logs what it would send.
	_, err = c.AddFunc(cfg.Scheduler.ReminderSpec, func() {
		log.Println("Running payment reminder scan...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		reminders, err := paymentService.ListUpcomingDues(ctx, cfg.Scheduler.ReminderDays)
		if err != nil {
			log.Printf("Payment reminder scan failed: %v", err)
			return
		}

		for _, reminder := range reminders {
			log.Printf("Payment reminder: student %s owes %s on %s",
				reminder.StudentID, reminder.Amount, reminder.DueDate.Format("2006-01-02"))
		}
		log.Printf("Payment reminder scan completed: %d students due within %d days",
			len(reminders), cfg.Scheduler.ReminderDays)
	})
	if err != nil {
		log.Printf("Error scheduling payment reminder scan: %v", err)
	}

	log.Println("Cron jobs scheduled successfully")
}
