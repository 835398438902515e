package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clinicops/scheduling/internal/booking"
	"github.com/clinicops/scheduling/internal/config"
	"github.com/clinicops/scheduling/internal/db"
	"github.com/clinicops/scheduling/internal/directory"
	"github.com/clinicops/scheduling/internal/logger"
	"github.com/clinicops/scheduling/internal/notify"
	redisclient "github.com/clinicops/scheduling/internal/redis"
	"github.com/clinicops/scheduling/internal/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("reminder-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
		zap.Duration("lead", cfg.ReminderLead))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		zlog.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	zlog.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		zlog.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			zlog.Warn("error closing redis", zap.Error(err))
		}
	}()
	zlog.Info("connected to Redis")

	calendars := schedule.NewPgCalendarStore(pgPool)
	repo := booking.NewPgRepository(pgPool)
	dir := directory.NewService(pgPool)
	locker := redisclient.NewRedisScheduleLocker(rdb, cfg.LockTTL)
	dispatcher := notify.NewRedisDispatcher(rdb, cfg.EventChannel, zlog)

	svc := booking.NewService(repo, calendars, dir, locker, dispatcher, zlog)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.ReminderLead, zlog)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			zlog.Info("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.ReminderLead, zlog)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service, lead time.Duration, zlog *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	upcoming, err := svc.UpcomingBookings(runCtx, lead)
	if err != nil {
		zlog.Error("reminder scan error", zap.Error(err))
		return
	}

	for i := range upcoming {
		svc.DispatchReminder(runCtx, &upcoming[i])
	}

	zlog.Info("reminder run complete",
		zap.Int("bookings", len(upcoming)),
		zap.Duration("took", time.Since(start)))
}
