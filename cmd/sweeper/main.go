package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"hosteldesk/internal/account"
	"hosteldesk/internal/attendance"
	"hosteldesk/internal/config"
	"hosteldesk/internal/store"
)

// Sweeper backfills absent records after the marking window closes, turning
// the derived not_responded_absent view into stored facts.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	accounts := account.NewRepository(db.Client)
	att := attendance.NewService(attendance.NewRepository(db.Client), cfg.Location())

	sweep := func() {
		date := att.Today()
		students, err := accounts.ListStudents(ctx)
		if err != nil {
			log.Printf("sweep: list students failed: %v", err)
			return
		}
		ids := make([]string, 0, len(students))
		for _, s := range students {
			ids = append(ids, s.ID)
		}
		inserted, ran, err := att.GuardedSweep(ctx, redisClient, date, ids)
		if !ran {
			log.Printf("sweep for %s already claimed by another instance", date)
			return
		}
		if err != nil {
			log.Printf("sweep for %s failed after %d inserts, lock released for retry: %v", date, inserted, err)
			return
		}
		log.Printf("sweep for %s: %d absent records backfilled", date, inserted)
	}

	c := cron.New(cron.WithLocation(cfg.Location()))
	if _, err := c.AddFunc(cfg.SweepSchedule, sweep); err != nil {
		log.Fatalf("invalid SWEEP_SCHEDULE %q: %v", cfg.SweepSchedule, err)
	}
	c.Start()
	log.Printf("sweeper started, schedule %q (%s)", cfg.SweepSchedule, cfg.TimeZone)

	// Catch up if we were started after today's window already closed.
	if att.Now().Hour() >= attendance.WindowCloseHour {
		sweep()
	}

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	log.Println("sweeper stopped")
}
