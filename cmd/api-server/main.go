package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuspark/parking-reservation/internal/api"
	"github.com/campuspark/parking-reservation/internal/booking"
	"github.com/campuspark/parking-reservation/internal/config"
	"github.com/campuspark/parking-reservation/internal/db"
	redisclient "github.com/campuspark/parking-reservation/internal/redis"
	"github.com/campuspark/parking-reservation/internal/session"
	"github.com/campuspark/parking-reservation/internal/slot"
	"github.com/campuspark/parking-reservation/internal/user"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

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

	schemaCtx, cancelSchema := context.WithTimeout(rootCtx, 30*time.Second)
	err = db.EnsureSchema(schemaCtx, pgPool)
	cancelSchema()
	if err != nil {
		log.Fatalf("schema bootstrap error: %v", err)
	}

	// Connect Redis
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

	slotRepo := slot.NewPgRepository(pgPool)
	userRepo := user.NewPgRepository(pgPool)
	bookingRepo := booking.NewPgRepository(pgPool)

	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	sessions := session.NewStore(rdb, cfg.SessionTTL, cfg.RememberTTL)

	userSvc := user.NewService(userRepo)
	bookingSvc := booking.NewService(bookingRepo, slotRepo, userRepo, locker, cfg)

	router := api.NewRouter(api.RouterConfig{
		Bookings: bookingSvc,
		Users:    userSvc,
		Slots:    slotRepo,
		Sessions: sessions,
		PgPool:   pgPool,
		Redis:    rdb,
		Config:   cfg,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
