package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuspark/parking-reservation/internal/booking"
	"github.com/campuspark/parking-reservation/internal/config"
	"github.com/campuspark/parking-reservation/internal/db"
	redisclient "github.com/campuspark/parking-reservation/internal/redis"
	"github.com/campuspark/parking-reservation/internal/slot"
	"github.com/campuspark/parking-reservation/internal/user"
)

// The worker sweeps active bookings whose exit instant has passed to
// completed. Readers already derive "completed" lazily; the sweep keeps the
// stored rows from drifting indefinitely.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("expiry-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running expiry worker in env=%s interval=%s", cfg.Env, cfg.WorkerInterval)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	repo := booking.NewPgRepository(pgPool)
	slotRepo := slot.NewPgRepository(pgPool)
	userRepo := user.NewPgRepository(pgPool)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	svc := booking.NewService(repo, slotRepo, userRepo, locker, cfg)

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping expiry worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	swept, err := svc.CompleteElapsed(runCtx)
	if err != nil {
		log.Printf("completion sweep error: %v", err)
		return
	}
	log.Printf("completion sweep done: %d bookings completed in %s", swept, time.Since(start))
}
