package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"judgecore/internal/config"
	"judgecore/internal/judge"
	"judgecore/internal/metrics"
	"judgecore/internal/problem"
	"judgecore/internal/tracing"
	"judgecore/pkg/database"
)

func main() {
	workerID := flag.String("worker-id", "", "unique identifier for this worker (defaults to a generated UUID)")
	flag.Parse()
	if *workerID == "" {
		*workerID = uuid.NewString()
	}

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg := config.Load()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig()
	tracingConfig.ServiceName = "judge-worker"
	tracingConfig.ServiceVersion = "1.0.0"
	tracingShutdown := tracing.InitTracing(tracingConfig)
	if tracingShutdown != nil {
		defer func() {
			if err := tracingShutdown(context.Background()); err != nil {
				log.Printf("Error shutting down tracing: %v", err)
			}
		}()
	}

	// Initialize database connection
	db, err := database.NewConnection()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer redisClient.Close()

	sandbox, err := judge.NewSandboxFromEnv()
	if err != nil {
		log.Fatal("Failed to initialize sandbox:", err)
	}

	queue := judge.NewQueue(redisClient)
	cache := judge.NewTestCaseCache(db.Pool, redisClient)
	statusChannel := judge.NewStatusChannel(redisClient)
	engine := judge.NewEngine(sandbox)
	problems := problem.NewStore(db)

	worker := judge.NewWorker(*workerID, db.Pool, queue, cache, statusChannel, engine, problems)

	maintenance := judge.NewMaintenanceQueue(cfg.RedisAddr, cfg.RedisPassword, 0)
	defer maintenance.Close()
	sweeper := judge.NewSweeper(db.Pool, queue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx)

	go func() {
		if err := maintenance.RegisterHandlers(sweeper); err != nil {
			log.Printf("maintenance queue stopped: %v", err)
		}
	}()

	go scheduleRecoverySweep(ctx, maintenance)

	// Start metrics server
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.MetricsHandler())
	go func() {
		log.Printf("Metrics server starting on port %s", cfg.MetricsPort)
		if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	log.Printf("Judge worker %s started successfully", *workerID)
	log.Println("Press Ctrl+C to stop the worker")

	// Wait for interrupt signal to gracefully shut down
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutting down judge worker...")

	cancel()
	maintenance.Stop()
	log.Println("Judge worker stopped")
}

// scheduleRecoverySweep keeps a recovery sweep perpetually scheduled on the
// maintenance queue so stuck submissions are noticed even if every judge
// worker crashes between sweeps.
func scheduleRecoverySweep(ctx context.Context, maintenance *judge.MaintenanceQueue) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		if err := maintenance.EnqueueRecoverySweep(ctx, 0); err != nil {
			log.Printf("failed to schedule recovery sweep: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
