package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"salesdesk/internal/config"
	"salesdesk/internal/http/handlers"
	"salesdesk/internal/metrics"
	"salesdesk/internal/notify"
	"salesdesk/internal/repos"
	"salesdesk/internal/security"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := repos.SeedAdmin(seedCtx, db, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
		cancel()
		log.Fatalf("seed admin: %v", err)
	}
	cancel()

	// Events go to Kafka when brokers are configured, to the log otherwise.
	var sink notify.Notifier = notify.LogNotifier{}
	if brokers := notify.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		kn := notify.NewKafkaNotifier(brokers, cfg.KafkaTopic)
		defer kn.Close()
		sink = kn
		log.Printf("[notify] kafka %v topic=%s", brokers, cfg.KafkaTopic)
	}
	notifier := notify.NewBreaker(sink, notify.BreakerSettings{Name: "notify", ConsecutiveFails: 5, OpenFor: 30 * time.Second})

	var throttle security.Throttle = security.NopThrottle{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		throttle = security.NewRedisThrottle(rdb, cfg.LoginMaxFailures, cfg.LoginLockout)
		log.Printf("[security] login throttle on redis %s", cfg.RedisAddr)
	}

	deps := handlers.NewDeps(db, cfg, notifier, throttle, metrics.New())
	app := handlers.NewApp(deps)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("[server] listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("[server] shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("[server] shutdown: %v", err)
	}
}
